package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeSkipLimit(t *testing.T) {
	tests := []struct {
		skip, limit         int
		wantSkip, wantLimit int
	}{
		{0, 100, 0, 100},
		{-5, 10, 0, 10},
		{3, 0, 3, DefaultLimit},
		{3, -1, 3, DefaultLimit},
		{3, MaxLimit + 1, 3, DefaultLimit},
		{3, MaxLimit, 3, MaxLimit},
	}
	for _, tt := range tests {
		skip, limit := NormalizeSkipLimit(tt.skip, tt.limit)
		assert.Equal(t, tt.wantSkip, skip)
		assert.Equal(t, tt.wantLimit, limit)
	}
}

func testContext(target string, params gin.Params) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	c.Params = params
	return c
}

func TestParseSkipLimit(t *testing.T) {
	skip, limit := ParseSkipLimit(testContext("/courses", nil))
	assert.Equal(t, DefaultSkip, skip)
	assert.Equal(t, DefaultLimit, limit)

	skip, limit = ParseSkipLimit(testContext("/courses?skip=20&limit=5", nil))
	assert.Equal(t, 20, skip)
	assert.Equal(t, 5, limit)

	skip, limit = ParseSkipLimit(testContext("/courses?skip=abc&limit=x", nil))
	assert.Equal(t, DefaultSkip, skip)
	assert.Equal(t, DefaultLimit, limit)
}

func TestParseIDParam(t *testing.T) {
	id, ok := ParseIDParam(testContext("/", gin.Params{{Key: "id", Value: "42"}}), "id")
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-1", "1.5", "abc"} {
		_, ok := ParseIDParam(testContext("/", gin.Params{{Key: "id", Value: raw}}), "id")
		assert.False(t, ok, raw)
	}
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("later", time.Minute))
}

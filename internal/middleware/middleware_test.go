package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
	"github.com/yigit/knowledgemap/internal/pkg/apperrors"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Configure(logger.Config{Level: logger.DisabledLevel})
	os.Exit(m.Run())
}

func serveError(t *testing.T, err error) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { HandleAPIError(c, err) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleAPIErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   dto.ErrorCode
	}{
		{"duplicate", apperrors.ErrDuplicateName, http.StatusBadRequest, dto.ErrorCodeResourceAlreadyExists},
		{"parent missing", apperrors.ErrParentNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"course missing", apperrors.ErrCourseNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"prerequisite missing", apperrors.ErrPrerequisiteNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},
		{"cycle", fmt.Errorf("%w: loop", apperrors.ErrCycleDetected), http.StatusBadRequest, dto.ErrorCodeHierarchyCycle},
		{"too deep", apperrors.ErrHierarchyTooDeep, http.StatusBadRequest, dto.ErrorCodeHierarchyTooDeep},
		{"self prerequisite", apperrors.ErrSelfPrerequisite, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"validation", apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrorCodeInternalServer},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := serveError(t, tc.err)
			assert.Equal(t, tc.status, w.Code)
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tc.code, body.Error.Code)
		})
	}
}

func TestErrorTableListsOnlyCourseErrors(t *testing.T) {
	targets := make([]error, 0, len(errorTable))
	for _, e := range errorTable {
		targets = append(targets, e.target)
	}
	assert.ElementsMatch(t, []error{
		apperrors.ErrDuplicateName,
		apperrors.ErrParentNotFound,
		apperrors.ErrPrerequisiteNotFound,
		apperrors.ErrCourseNotFound,
		apperrors.ErrCycleDetected,
		apperrors.ErrHierarchyTooDeep,
		apperrors.ErrSelfPrerequisite,
		apperrors.ErrValidationFailed,
	}, targets)
}

func TestHandleAPIErrorUsesCustomMessage(t *testing.T) {
	err := apperrors.NewCustomError(apperrors.ErrParentNotFound, "Parent course 'X' not found")
	w, body := serveError(t, fmt.Errorf("create: %w", err))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Parent course 'X' not found", body.Error.Message)

	_, body = serveError(t, errors.New("secret driver detail"))
	assert.Equal(t, "Internal server error", body.Error.Message)
}

type sample struct {
	Name string `json:"name" binding:"required,max=5"`
}

func TestBindJSON(t *testing.T) {
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req sample
		if !BindJSON(c, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})

	post := func(body string) (*httptest.ResponseRecorder, dto.ErrorResponse) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		var resp dto.ErrorResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		return w, resp
	}

	w, _ := post(`{"name":"ok"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w, resp := post(`{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrorCodeValidationFailed, resp.Error.Code)
	assert.Equal(t, "name", resp.Error.Field)

	w, resp = post(`{"name":"much too long"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name", resp.Error.Field)

	w, resp = post(`{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request format", resp.Error.Message)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:5173"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

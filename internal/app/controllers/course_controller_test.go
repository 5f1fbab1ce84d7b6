package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/knowledgemap/internal/app/controllers"
	"github.com/yigit/knowledgemap/internal/app/hierarchy"
	"github.com/yigit/knowledgemap/internal/app/models"
	"github.com/yigit/knowledgemap/internal/app/models/dto"
	"github.com/yigit/knowledgemap/internal/app/repositories"
	"github.com/yigit/knowledgemap/internal/app/routes"
	"github.com/yigit/knowledgemap/internal/app/services"
	"github.com/yigit/knowledgemap/internal/pkg/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.Configure(logger.Config{Level: logger.DisabledLevel})
	os.Exit(m.Run())
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newRouter(t *testing.T, pinger controllers.Pinger) *gin.Engine {
	t.Helper()
	engine := hierarchy.NewEngine(16)
	repo := repositories.NewMemoryCourseRepository(engine)
	if pinger == nil {
		pinger = repo
	}

	router := gin.New()
	routes.SetupRouter(router,
		controllers.NewCourseController(services.NewCourseService(repo, engine)),
		controllers.NewHealthController(pinger, "memory"),
	)
	return router
}

func do(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func create(t *testing.T, router *gin.Engine, name string, parent *string) models.CourseView {
	t.Helper()
	w := do(t, router, http.MethodPost, "/api/v1/courses/", map[string]interface{}{"name": name, "parent_name": parent})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.CourseView](t, w)
}

func strPtr(s string) *string { return &s }

func TestCourseCRUD(t *testing.T) {
	router := newRouter(t, nil)

	intro := create(t, router, "Introduction to Programming", nil)
	ds := create(t, router, "Data Structures", strPtr("Introduction to Programming"))
	require.NotNil(t, ds.ParentName)
	assert.Equal(t, "Introduction to Programming", *ds.ParentName)

	t.Run("raw json shape", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/courses/1", nil)
		assert.JSONEq(t, `{"id":1,"name":"Introduction to Programming","parent_id":null,"parent_name":null}`, w.Body.String())
	})

	t.Run("create without trailing slash", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/courses", map[string]string{"name": "Algorithms", "parent_name": "Data Structures"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/courses/2", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ds, decode[models.CourseView](t, w))

		w = do(t, router, http.MethodGet, "/api/v1/courses/999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrorCodeResourceNotFound, decode[dto.ErrorResponse](t, w).Error.Code)

		w = do(t, router, http.MethodGet, "/api/v1/courses/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("list paging", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/api/v1/courses/?skip=1&limit=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[[]models.CourseView](t, w)
		require.Len(t, page, 1)
		assert.Equal(t, "Data Structures", page[0].Name)

		w = do(t, router, http.MethodGet, "/api/v1/courses?skip=x&limit=-3", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]models.CourseView](t, w), 3)
	})

	t.Run("duplicate", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/courses/", map[string]string{"name": "Data Structures"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, dto.ErrorCodeResourceAlreadyExists, body.Error.Code)
		assert.Equal(t, "Course with name 'Data Structures' already exists", body.Error.Message)
	})

	t.Run("missing parent", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/courses/", map[string]string{"name": "X", "parent_name": "Nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/api/v1/courses/", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeValidationFailed, decode[dto.ErrorResponse](t, w).Error.Code)

		w = do(t, router, http.MethodPost, "/api/v1/courses/", map[string]string{"name": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, router, http.MethodPost, "/api/v1/courses/", map[string]string{"name": "X", "parent_name": "Data\u0000Structures"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[dto.ErrorResponse](t, w)
		assert.Equal(t, dto.ErrorCodeValidationFailed, body.Error.Code)
		assert.Equal(t, "parent_name", body.Error.Field)
	})

	t.Run("update", func(t *testing.T) {
		w := do(t, router, http.MethodPut, "/api/v1/courses/2", map[string]interface{}{"name": "Data Structures I", "parent_name": nil})
		require.Equal(t, http.StatusOK, w.Code)
		updated := decode[models.CourseView](t, w)
		assert.Equal(t, "Data Structures I", updated.Name)
		assert.Nil(t, updated.ParentID)

		w = do(t, router, http.MethodPut, "/api/v1/courses/999", map[string]string{"name": "Ghost"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, router, http.MethodPut, "/api/v1/courses/2", map[string]string{"name": "Data Structures I", "parent_name": "Nope"})
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = do(t, router, http.MethodPut, "/api/v1/courses/2", map[string]string{"name": "Introduction to Programming"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("cycle", func(t *testing.T) {
		// Algorithms(3) -> Data Structures I(2); making 2 a child of 3 closes the loop
		w := do(t, router, http.MethodPut, "/api/v1/courses/2", map[string]string{"name": "Data Structures I", "parent_name": "Algorithms"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrorCodeHierarchyCycle, decode[dto.ErrorResponse](t, w).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := do(t, router, http.MethodDelete, "/api/v1/courses/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, intro, decode[models.CourseView](t, w))

		w = do(t, router, http.MethodDelete, "/api/v1/courses/1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHierarchyEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	create(t, router, "Introduction to Programming", nil)
	create(t, router, "Data Structures", strPtr("Introduction to Programming"))
	algo := create(t, router, "Algorithms", strPtr("Data Structures"))

	w := do(t, router, http.MethodGet, "/api/v1/courses/3/dependencies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	chain := decode[[]models.CourseView](t, w)
	require.Len(t, chain, 2)
	assert.Equal(t, "Data Structures", chain[0].Name)
	assert.Equal(t, "Introduction to Programming", chain[1].Name)

	w = do(t, router, http.MethodGet, "/api/v1/courses/1/dependencies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/courses/99/dependencies", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/courses/parent/2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	children := decode[[]models.CourseView](t, w)
	require.Len(t, children, 1)
	assert.Equal(t, algo.ID, children[0].ID)

	w = do(t, router, http.MethodGet, "/api/v1/courses/parent/3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, router, http.MethodGet, "/api/v1/courses/parent/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPrerequisiteEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	intro := create(t, router, "Introduction to Programming", nil)
	create(t, router, "Data Structures", nil)

	w := do(t, router, http.MethodPost, "/api/v1/courses/2/prerequisites", map[string]string{"prerequisite_name": "Introduction to Programming"})
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.CourseView](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, intro.ID, list[0].ID)

	w = do(t, router, http.MethodPost, "/api/v1/courses/2/prerequisites", map[string]string{"prerequisite_name": "Data Structures"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/courses/2/prerequisites", map[string]string{"prerequisite_name": "Nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/courses/2/prerequisites", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/courses/2/prerequisites", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.CourseView](t, w), 1)

	w = do(t, router, http.MethodDelete, "/api/v1/courses/2/prerequisites/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = do(t, router, http.MethodDelete, "/api/v1/courses/2/prerequisites/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/courses/2/prerequisites/zero", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodGet, "/api/v1/courses/42/prerequisites", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	router := newRouter(t, nil)

	w := do(t, router, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())

	w = do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[dto.APIResponse](t, w).Success)

	down := newRouter(t, fakePinger{err: errors.New("connection refused")})
	w = do(t, down, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, dto.ErrorCodeServiceUnavailable, decode[dto.ErrorResponse](t, w).Error.Code)
}

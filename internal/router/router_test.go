package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/stemsi/sgpa-planner/internal/config"
	"github.com/stemsi/sgpa-planner/internal/handler"
	"github.com/stemsi/sgpa-planner/internal/middleware"
	"github.com/stemsi/sgpa-planner/internal/service"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*service.Claims, error) {
	return nil, errors.New("rejected")
}

func testRouter() *gin.Engine {
	cfg := &config.Config{GinMode: gin.TestMode, MaxRequestBody: 1024}
	handlers := &Handlers{
		Auth:     handler.NewAuthHandler(nil),
		Grade:    handler.NewGradeHandler(),
		Semester: handler.NewSemesterHandler(nil, zerolog.Nop()),
		Export:   handler.NewExportHandler(nil, zerolog.Nop()),
		WS:       handler.NewWSHandler(nil, nil, zerolog.Nop(), nil),
	}
	return SetupRouter(rejectAll{}, middleware.NewRateLimiter(1, time.Minute), handlers, cfg)
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGrades_Cacheable(t *testing.T) {
	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/grades", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := testRouter()
	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/planner/semesters"},
		{http.MethodPost, "/api/v1/planner/semesters/1/rows"},
		{http.MethodGet, "/api/v1/planner/export.xlsx"},
		{http.MethodGet, "/api/v1/auth/student/me"},
		{http.MethodGet, "/ws/v1/planner/semesters/1/stream"},
	}

	for _, p := range paths {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.path)
	}
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sgpa", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	w := httptest.NewRecorder()
	testRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

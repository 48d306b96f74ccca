package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/sgpa-planner/internal/config"
	"github.com/stemsi/sgpa-planner/internal/handler"
	"github.com/stemsi/sgpa-planner/internal/middleware"
	"github.com/stemsi/sgpa-planner/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Grade    *handler.GradeHandler
	Semester *handler.SemesterHandler
	Export   *handler.ExportHandler
	WS       *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	auth middleware.TokenValidator,
	authLimiter *middleware.RateLimiter,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasSuffix(c.Request.URL.Path, ".xlsx")
		},
	}))
	router.Use(middleware.BodyLimit(cfg.MaxRequestBody))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1")
	{
		publicAPI.GET("/grades", middleware.CacheControl(3600), handlers.Grade.ListGrades)
		publicAPI.POST("/sgpa", handlers.Grade.ComputeSGPA)
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authAPI := router.Group("/api/v1/auth")
	{
		authAPI.POST("/student/register", authLimiter.Middleware(), handlers.Auth.StudentRegister)
		authAPI.POST("/student/login", authLimiter.Middleware(), handlers.Auth.StudentLogin)
		authAPI.GET("/student/me", middleware.RequireStudentJWT(auth), middleware.NoStore(), handlers.Auth.GetStudentProfile)
	}

	// ─── 2. Planner Group (Student JWT) ────────────────────────────────
	plannerAPI := router.Group("/api/v1/planner")
	plannerAPI.Use(middleware.RequireStudentJWT(auth), middleware.NoStore())
	{
		plannerAPI.GET("/semesters", handlers.Semester.GetOverview)
		plannerAPI.GET("/semesters/:number", handlers.Semester.GetSemester)
		plannerAPI.POST("/semesters/:number/rows", handlers.Semester.AddRow)
		plannerAPI.PATCH("/semesters/:number/rows/:index", handlers.Semester.UpdateRow)
		plannerAPI.DELETE("/semesters/:number/rows/:index", handlers.Semester.RemoveRow)
		plannerAPI.POST("/semesters/:number/reset", handlers.Semester.ResetSemester)
		plannerAPI.GET("/export.xlsx", handlers.Export.ExportWorkbook)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	wsAPI := router.Group("/ws/v1")
	wsAPI.Use(middleware.RequireStudentWSAuth(auth))
	{
		wsAPI.GET("/planner/semesters/:number/stream", handlers.WS.SemesterStream)
	}

	return router
}

package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/handler"
	"github.com/stemsi/compass-backend/internal/middleware"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/response"
)

// Auth is what the route guards need from the auth service.
type Auth interface {
	middleware.TokenValidator
	middleware.SessionValidator
}

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Assessment *handler.AssessmentHandler
	WS         *handler.WSHandler
	Auth       *handler.AuthHandler
	Result     *handler.ResultHandler
	Dashboard  *handler.DashboardHandler
	Monitor    *handler.MonitorHandler
	System     *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(auth Auth, handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set, restrict to that list; otherwise allow all.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition", "X-Export-Rows"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper:   middleware.SkipDownloads,
	}))

	router.GET("/health", handlers.System.Health)

	// Session start and HR login share one per-IP budget.
	entryLimiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitBurst)

	// ─── 1. Candidate Group ────────────────────────────────────────────
	assessments := router.Group("/api/v1/assessments")
	assessments.Use(middleware.NoStore())
	{
		assessments.POST("", entryLimiter.Middleware(), handlers.Assessment.Start)

		session := assessments.Group("/:session_id")
		session.Use(middleware.RequireCandidateJWT(auth))
		{
			session.GET("/questions", middleware.CacheControl(300), handlers.Assessment.Questions)
			session.POST("/events/shown", handlers.Assessment.QuestionShown)
			session.POST("/events/answer", handlers.Assessment.AnswerChanged)
			session.POST("/events/navigate", handlers.Assessment.Navigate)
			session.POST("/flush", handlers.Assessment.Flush)
			session.GET("/analytics", handlers.Assessment.Analytics)
			session.POST("/submit", handlers.Assessment.Submit)
		}
	}

	// ─── 2. WebSocket Group (token in query) ───────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/assessments/:session_id/stream", middleware.RequireCandidateJWT(auth), handlers.WS.AssessmentStream)
	}

	// ─── 3. Auth Group ─────────────────────────────────────────────────
	authAPI := router.Group("/api/v1/auth/hr")
	{
		authAPI.POST("/login", entryLimiter.Middleware(), handlers.Auth.Login)

		signedIn := authAPI.Group("")
		signedIn.Use(middleware.RequireHRJWT(auth), middleware.CheckSingleDeviceSession(auth))
		signedIn.GET("/me", handlers.Auth.Me)
		signedIn.POST("/logout", handlers.Auth.Logout)
	}

	// ─── 4. HR Group (JWT + Single Device + RBAC) ──────────────────────
	hr := router.Group("/api/v1/hr")
	hr.Use(
		middleware.RequireHRJWT(auth),
		middleware.CheckSingleDeviceSession(auth),
		middleware.NoStore(),
	)
	{
		results := hr.Group("/results", middleware.RequirePermission(model.PermissionResultsRead))
		{
			results.GET("", handlers.Result.List)
			results.GET("/export.xlsx", handlers.Result.Export)
			results.GET("/:session_id", handlers.Result.Detail)
		}

		hr.GET("/dashboard", middleware.RequirePermission(model.PermissionDashboardRead), handlers.Dashboard.GetStats)
		hr.GET("/sessions/:session_id/monitor", middleware.RequirePermission(model.PermissionSessionsMonitor), handlers.Monitor.MonitorSessionSSE)
		hr.GET("/system", middleware.RequirePermission(model.PermissionSystemRead), handlers.System.Status)
	}

	return router
}

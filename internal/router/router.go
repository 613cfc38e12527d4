package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/config"
	"github.com/stemsi/etesthub-backend/internal/handler"
	"github.com/stemsi/etesthub-backend/internal/logger"
	"github.com/stemsi/etesthub-backend/internal/middleware"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	Schedule      *handler.ScheduleHandler
	Result        *handler.ResultHandler
	Monitor       *handler.MonitorHandler
	WS            *handler.WSHandler
	Health        *handler.HealthHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())
	router.Use(logger.RequestLogger(log, response.ContextKeyRequestID))

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.Health.Health)

	requireSession := middleware.RequireSession(authService, log)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	loginLimiter := middleware.NewRateLimiter(rdb, "login", cfg.LoginRateLimit, time.Minute, log)

	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
		auth.POST("/logout-all", middleware.RequireAuth(authService), requireSession, handlers.Auth.LogoutAll)
		auth.GET("/me", middleware.RequireAuth(authService), requireSession, handlers.Auth.Me)
	}

	// ─── 2. Student Group (JWT + Session) ──────────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireRole(model.RoleStudent),
		requireSession,
		middleware.NoStore(),
	)
	{
		studentAPI.GET("/lobby", handlers.StudentPortal.GetLobby)
		studentAPI.POST("/schedules/:schedule_id/enter", handlers.StudentPortal.Enter)
		studentAPI.GET("/schedules/:schedule_id/state", handlers.StudentPortal.GetState)
		studentAPI.PUT("/schedules/:schedule_id/answers", handlers.StudentPortal.SaveAnswers)
		studentAPI.POST("/schedules/:schedule_id/submit", handlers.StudentPortal.Submit)
		studentAPI.GET("/submissions", handlers.StudentPortal.ListMySubmissions)
		studentAPI.GET("/submissions/:id", handlers.StudentPortal.GetSubmission)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(
		middleware.RequireAuth(authService),
		middleware.RequireRole(model.RoleStudent),
		requireSession,
	)
	{
		ws.GET("/student/schedules/:schedule_id/stream", handlers.WS.ExamWebSocketStream)
	}

	// ─── 4. Teacher Group (JWT + Role) ─────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(
		middleware.RequireAuth(authService),
		middleware.RequireRole(model.RoleTeacher, model.RoleAdmin),
		requireSession,
	)
	{
		teacherAPI.GET("/exams/:exam_id/schedules", handlers.Schedule.ListByExam)
		teacherAPI.GET("/classes/:class_id/schedules", handlers.Schedule.ListByClass)
		teacherAPI.POST("/schedules", handlers.Schedule.Create)
		teacherAPI.GET("/schedules/:id", handlers.Schedule.Get)
		teacherAPI.PUT("/schedules/:id", handlers.Schedule.Update)
		teacherAPI.PATCH("/schedules/:id/closed", handlers.Schedule.SetClosed)
		teacherAPI.DELETE("/schedules/:id", handlers.Schedule.Delete)

		teacherAPI.GET("/exams/:exam_id/results", handlers.Result.ExamResults)
		teacherAPI.GET("/submissions/:id", handlers.Result.SubmissionDetail)

		teacherAPI.GET("/exams/:exam_id/monitor", handlers.Monitor.MonitorExamSSE)
	}

	return router
}

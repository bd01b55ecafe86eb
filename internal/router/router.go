package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sahana/eden/internal/handlers"
	"github.com/sahana/eden/internal/metrics"
	"github.com/sahana/eden/internal/middleware"
)

type Options struct {
	AllowedOrigins []string
	Metrics        *metrics.Metrics
	Hub            *handlers.Hub
	Logger         *zap.Logger
}

func NewRouter(h *handlers.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(opts.Logger))

	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	authRequired := middleware.Auth(h.Tokens, h.DB)

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		if opts.Hub != nil {
			api.GET("/ws", authRequired, opts.Hub.Serve)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/register", h.CreateUser)
			auth.POST("/login", h.LoginUser)
			auth.POST("/logout", h.LogoutUser)
			auth.GET("/me", authRequired, h.Me)
			auth.PATCH("/me", authRequired, h.UpdateUser)
		}

		projects := api.Group("/projects", authRequired)
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.GET("/:id", h.GetProject)
			projects.PATCH("/:id", h.UpdateProject)
			projects.DELETE("/:id", h.DeleteProject)

			projects.POST("/:id/organisations", h.AddProjectOrganisation)
			projects.GET("/:id/organisations", h.ListProjectOrganisations)
			projects.DELETE("/:id/organisations/:link_id", h.RemoveProjectOrganisation)

			projects.POST("/:id/activities", h.CreateActivity)
			projects.GET("/:id/activities", h.ListActivities)

			projects.POST("/:id/milestones", h.CreateMilestone)
			projects.GET("/:id/milestones", h.ListMilestones)

			projects.POST("/:id/beneficiaries", h.CreateBeneficiary)
			projects.GET("/:id/beneficiaries", h.ListBeneficiaries)

			projects.POST("/:id/tasks", h.CreateProjectTask)
			projects.GET("/:id/tasks", h.ListProjectTasks)
		}

		activities := api.Group("/activities", authRequired)
		{
			activities.PATCH("/:id", h.UpdateActivity)
			activities.DELETE("/:id", h.DeleteActivity)
		}

		tasks := api.Group("/tasks", authRequired)
		{
			tasks.GET("/:id", h.GetTask)
			tasks.PATCH("/:id", h.UpdateTask)
			tasks.POST("/:id/time", h.LogTime)
			tasks.GET("/:id/time", h.ListTime)
			tasks.POST("/:id/comments", h.AddComment)
			tasks.GET("/:id/comments", h.ListComments)
		}

		api.DELETE("/time/:id", authRequired, h.DeleteTime)
		api.POST("/import/:resource", authRequired, h.Import)

		monitor := api.Group("/monitor", authRequired)
		{
			monitor.POST("/deployments", h.CreateDeployment)
			monitor.GET("/deployments", h.ListDeployments)

			monitor.POST("/servers", h.CreateServer)
			monitor.GET("/servers", h.ListServers)

			monitor.POST("/tasks", h.CreateMonitorTask)
			monitor.GET("/tasks", h.ListMonitorTasks)
			monitor.PUT("/tasks/:id", h.UpdateMonitorTask)
			monitor.DELETE("/tasks/:id", h.DeleteMonitorTask)
			monitor.POST("/tasks/:id/run", h.RunMonitorTask)
			monitor.GET("/tasks/:id/runs", h.ListMonitorRuns)

			monitor.POST("/replies", h.ReceiveReply)
		}
	}

	return r
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		logger.Debug("request",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.FullPath()),
			zap.Int("status", ctx.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}

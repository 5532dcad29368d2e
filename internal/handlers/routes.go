package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/calibrate-api/internal/identity"
	"github.com/yukikurage/calibrate-api/internal/middleware"
	"github.com/yukikurage/calibrate-api/internal/ratelimit"
	"github.com/yukikurage/calibrate-api/internal/services"
)

// Dependencies are the services the HTTP layer is built on. The limiters may
// be nil to disable rate limiting.
type Dependencies struct {
	Verifier       identity.Verifier
	Users          *services.UserService
	Tasks          *services.TaskService
	Capacity       *services.CapacityService
	APILimiter     *ratelimit.Limiter
	AnalyzeLimiter *ratelimit.Limiter
}

// RegisterRoutes mounts the health checks and the authenticated API on r.
func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	taskHandler := NewTaskHandler(deps.Tasks)
	capacityHandler := NewCapacityHandler(deps.Capacity)
	userHandler := NewUserHandler(deps.Users)

	r.GET("/health", Health)

	api := r.Group("/api")
	{
		api.GET("/health", Health)
		api.GET("/health/db", DatabaseHealth)

		protected := api.Group("")
		protected.Use(middleware.RequireAuth(deps.Verifier, deps.Users), middleware.RateLimit(deps.APILimiter))

		// Task routes
		tasks := protected.Group("/tasks")
		{
			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.POST("/analyze", middleware.RateLimit(deps.AnalyzeLimiter), taskHandler.AnalyzeTask)
			tasks.GET("/capacity", capacityHandler.Daily)
			tasks.GET("/capacity/weekly", capacityHandler.Weekly)
			tasks.GET("/insights", capacityHandler.Insights)

			task := tasks.Group("/:id", middleware.RequireTaskID())
			{
				task.GET("", taskHandler.GetTask)
				task.PATCH("", taskHandler.UpdateTask)
				task.DELETE("", taskHandler.DeleteTask)
				task.PATCH("/complete", taskHandler.CompleteTask)
				task.GET("/subtasks", taskHandler.ListSubtasks)
				task.PATCH("/subtasks/:subtaskId", taskHandler.UpdateSubtask)
				task.PATCH("/subtasks/:subtaskId/complete", taskHandler.CompleteSubtask)
			}
		}

		// Account routes
		me := protected.Group("/me")
		{
			me.GET("", userHandler.Me)
			me.PATCH("", userHandler.UpdateMe)
			me.DELETE("", userHandler.DeleteMe)
			me.GET("/preferences", userHandler.GetPreferences)
			me.PATCH("/preferences", userHandler.UpdatePreferences)
			me.POST("/onboarding", userHandler.Onboard)
			me.GET("/export", userHandler.Export)
		}
	}
}

package routes

import (
	"rqc-adapter-api/controllers"
	"rqc-adapter-api/middleware"
	"rqc-adapter-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "RQC Adapter API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Articles: grading submission and editorial decisions (editors)
			articles := protected.Group("/articles")
			{
				articles.POST("/:article_id/rqc/submit",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.SubmitForGrading)
				articles.POST("/:article_id/decision",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.RecordDecision)
			}

			// Review assignments (reviewers)
			protected.POST("/review-assignments/:assignment_id/accept",
				middleware.RequireRole(models.RoleReviewer),
				controllers.AcceptReviewAssignment)

			// RQC configuration and reviewer consent
			rqc := protected.Group("/rqc")
			{
				rqc.GET("/opting",
					middleware.RequireRole(models.RoleReviewer),
					controllers.GetOptingStatus)
				rqc.POST("/opting",
					middleware.RequireRole(models.RoleReviewer),
					controllers.RecordOptingDecision)

				rqc.GET("/settings",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.GetRQCSettings)
				rqc.POST("/settings",
					middleware.RequireRole(models.RoleEditor, models.RoleAdmin),
					controllers.SaveRQCSettings)

				rqc.GET("/delayed-calls",
					middleware.RequireRole(models.RoleAdmin),
					controllers.ListDelayedCalls)
			}
		}
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"error": "Endpoint not found"})
	})
}

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	h := handler.NewHandler(deps)
	requireAuth := AuthMiddleware(deps.Sessions, true)
	optionalAuth := AuthMiddleware(deps.Sessions, false)

	// Health check endpoint
	r.GET("/health", h.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			// POST /api/v1/auth/register - Create an account
			auth.POST("/register", optionalAuth, h.Register)

			// POST /api/v1/auth/login - Exchange credentials for a bearer token
			auth.POST("/login", h.Login)
		}

		me := v1.Group("/me", requireAuth)
		{
			me.GET("", h.Me)
			me.PUT("", h.UpdateMe)
		}

		jobs := v1.Group("/jobs")
		{
			// GET /api/v1/jobs - Search jobs with filtering and pagination
			jobs.GET("", h.SearchJobs)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", h.GetJob)

			jobs.POST("", requireAuth, h.CreateJob)
			jobs.PUT("/:job_id", requireAuth, h.UpdateJob)
			jobs.POST("/:job_id/deactivate", requireAuth, h.DeactivateJob)

			// Applications of one job
			jobs.POST("/:job_id/applications", requireAuth, h.SubmitApplication)
			jobs.GET("/:job_id/applications", requireAuth, h.ListJobApplications)
			jobs.GET("/:job_id/applications/exists", requireAuth, h.HasApplied)
		}

		// GET /api/v1/companies/:company_id/jobs - Jobs posted by a company
		v1.GET("/companies/:company_id/jobs", h.ListCompanyJobs)

		// GET /api/v1/students/:student_id/applications - A student's applications
		v1.GET("/students/:student_id/applications", requireAuth, h.ListStudentApplications)

		applications := v1.Group("/applications", requireAuth)
		{
			applications.GET("/:application_id", h.GetApplication)

			// PATCH /api/v1/applications/:application_id/status - Move through the status table
			applications.PATCH("/:application_id/status", h.UpdateApplicationStatus)
		}
	}

	return r
}

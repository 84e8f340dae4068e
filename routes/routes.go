package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rahulhiremath15/serva-mvp/controllers"
	"github.com/rahulhiremath15/serva-mvp/middleware"
	"github.com/rahulhiremath15/serva-mvp/models"
)

// SetupRouter wires the full API surface
func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "https://serva-mvp.vercel.app"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())

	registerLimiter := middleware.NewMemoryRateLimiter(5, 15*time.Minute)
	loginLimiter := middleware.NewMemoryRateLimiter(10, 15*time.Minute)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", middleware.RateLimit(registerLimiter), controllers.Register)
			auth.POST("/login", middleware.RateLimit(loginLimiter), controllers.Login)
			auth.POST("/logout", controllers.Logout)

			auth.GET("/me", middleware.RequireAuth(), controllers.Me)
			auth.PUT("/profile", middleware.RequireAuth(), controllers.UpdateProfile)
			auth.POST("/change-password", middleware.RequireAuth(), controllers.ChangePassword)
		}

		bookings := v1.Group("/bookings")
		{
			bookings.POST("", middleware.RequireAuth(), middleware.RequireRole(models.RoleCustomer), controllers.CreateBooking)
			bookings.GET("", middleware.RequireAuth(), controllers.ListMyBookings)
			bookings.GET("/:id", middleware.RequireAuth(), controllers.GetBooking)
			bookings.DELETE("/:id", middleware.RequireAuth(), controllers.DeleteBooking)
			bookings.POST("/:id/accept", middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician), controllers.AcceptBooking)
			bookings.POST("/:id/complete", middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician), controllers.CompleteBooking)

			// Certificate rendering is public: it is the shareable warranty page
			bookings.GET("/:id/certificate", controllers.GetCertificate)
		}

		// Public tracking by booking code, works before login
		v1.GET("/track/:bookingId", controllers.TrackBooking)
		v1.GET("/warranty/:token", controllers.GetCertificateByToken)

		technician := v1.Group("/technician")
		technician.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleTechnician))
		{
			technician.GET("/available-jobs", controllers.AvailableJobs)
			technician.GET("/my-jobs", controllers.MyJobs)
		}

		v1.POST("/diagnose", middleware.OptionalAuth(), controllers.DiagnoseDevice)

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuth(), middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/cleanup-data", controllers.CleanupData)
		}
	}

	return r
}

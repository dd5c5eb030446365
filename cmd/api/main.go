package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ridelink/ridelink-backend/internal/database"
	"github.com/ridelink/ridelink-backend/internal/handlers"
	"github.com/ridelink/ridelink-backend/internal/middleware"
	"github.com/ridelink/ridelink-backend/internal/observability"
	"github.com/ridelink/ridelink-backend/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize router
	r := gin.Default()
	r.Use(observability.Metrics())

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored uploads
	r.Static("/uploads", "/app/uploads")

	r.GET("/version", handlers.Version())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
				users.POST("/documents", handlers.UploadDriverDocument(db))
			}

			// Driver routes
			driver := protected.Group("/driver")
			{
				driver.GET("/offers", handlers.DriverOffers(db))
			}

			// Ride routes
			rides := protected.Group("/rides")
			{
				rides.POST("", handlers.CreateRide(db))
				rides.GET("", handlers.ListRides(db))
				rides.GET("/:rideId", handlers.GetRide(db))
				rides.DELETE("/:rideId", handlers.DeleteRide(db))
				rides.GET("/:rideId/status", handlers.GetRideStatus(db))
				rides.PATCH("/:rideId/status", handlers.SetRideStatus(db, hub))
				rides.POST("/:rideId/assign", handlers.AssignDriver(db, hub))
				rides.POST("/:rideId/unassign", handlers.UnassignDriver(db, hub))

				rides.POST("/:rideId/shares", handlers.CreateShare(db, hub))
				rides.GET("/:rideId/shares", handlers.ListActiveShares(db))
				rides.GET("/:rideId/shares/revoked", handlers.ListRevokedShares(db))

				rides.GET("/:rideId/claims", handlers.ListClaims(db))
				rides.POST("/:rideId/claims/:claimId/approve", handlers.ApproveClaim(db, hub))
				rides.POST("/:rideId/claims/:claimId/reject", handlers.RejectClaim(db, hub))
				rides.POST("/:rideId/claims/:claimId/withdraw", handlers.WithdrawClaim(db))
			}

			// Share routes
			shares := protected.Group("/shares")
			{
				shares.POST("/:shareId/revoke", handlers.RevokeShare(db))
				shares.POST("/:shareId/claims", handlers.QueueClaim(db, hub))
			}

			// Group routes
			groups := protected.Group("/groups")
			{
				groups.POST("", handlers.CreateGroup(db))
				groups.GET("", handlers.ListGroups(db))
				groups.GET("/:groupId/members", handlers.ListMembers(db))
				groups.POST("/:groupId/members", handlers.AddMember(db))
				groups.DELETE("/:groupId/members/:driverId", handlers.RemoveMember(db))
				groups.POST("/:groupId/invites", handlers.CreateInvite(db))
			}

			protected.POST("/invites/accept", handlers.AcceptInvite(db))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

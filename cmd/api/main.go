package main

import (
	"log"
	"os"
	"time"

	"github.com/fleetgrid/fleetgrid-backend/internal/analytics"
	"github.com/fleetgrid/fleetgrid-backend/internal/bookings"
	"github.com/fleetgrid/fleetgrid-backend/internal/database"
	"github.com/fleetgrid/fleetgrid-backend/internal/handlers"
	"github.com/fleetgrid/fleetgrid-backend/internal/middleware"
	"github.com/fleetgrid/fleetgrid-backend/internal/services"
	"github.com/fleetgrid/fleetgrid-backend/internal/trips"
	"github.com/fleetgrid/fleetgrid-backend/internal/vehicles"
	"github.com/fleetgrid/fleetgrid-backend/pkg/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logger.InitLoggers()

	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

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

	vehicleSvc := vehicles.NewService(db)
	bookingSvc := bookings.NewService(db)
	tripSvc := trips.NewService(db, bookingSvc, vehicleSvc)
	analyticsSvc := analytics.NewService(db)

	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored vehicle photos
	r.Static("/uploads", "/app/uploads")

	manager := []string{"admin", "fleet_manager"}

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
			auth.POST("/refresh", handlers.RefreshToken(db))
		}

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
			}

			vehicleRoutes := protected.Group("/vehicles")
			{
				vehicleRoutes.GET("", handlers.ListVehicles(vehicleSvc))
				vehicleRoutes.GET("/available", handlers.ListAvailableVehicles(vehicleSvc))
				vehicleRoutes.GET("/:id", handlers.GetVehicle(vehicleSvc))
				vehicleRoutes.POST("", middleware.RequireRole(manager...), handlers.CreateVehicle(vehicleSvc))
				vehicleRoutes.PATCH("/:id/status", middleware.RequireRole(manager...), handlers.UpdateVehicleStatus(vehicleSvc))
				vehicleRoutes.PATCH("/:id/mileage", middleware.RequireRole(manager...), handlers.UpdateVehicleMileage(vehicleSvc))
				vehicleRoutes.PATCH("/:id/location", middleware.RequireRole(manager...), handlers.UpdateVehicleLocation(vehicleSvc))
				vehicleRoutes.DELETE("/:id", middleware.RequireRole(manager...), handlers.DeleteVehicle(vehicleSvc))
				vehicleRoutes.GET("/maintenance", middleware.RequireRole(manager...), handlers.ListVehiclesNeedingMaintenance(vehicleSvc))
				vehicleRoutes.POST("/:id/photo", middleware.RequireRole(manager...), handlers.UploadVehiclePhoto(db, vehicleSvc))
			}

			bookingRoutes := protected.Group("/bookings")
			{
				bookingRoutes.POST("", handlers.CreateBooking(bookingSvc, hub))
				bookingRoutes.GET("", handlers.ListMyBookings(bookingSvc))
				bookingRoutes.GET("/availability", handlers.CheckAvailability(bookingSvc))
				bookingRoutes.GET("/:id", handlers.GetBooking(bookingSvc))
				bookingRoutes.POST("/:id/cancel", handlers.CancelBooking(bookingSvc, hub))
				bookingRoutes.POST("/:id/complete", handlers.CompleteBooking(bookingSvc, hub))
				bookingRoutes.GET("/all", middleware.RequireRole(manager...), handlers.ListAllBookings(bookingSvc))
				bookingRoutes.GET("/vehicle/:vehicleId", middleware.RequireRole(manager...), handlers.ListVehicleBookings(bookingSvc))
			}

			tripRoutes := protected.Group("/trips")
			{
				tripRoutes.POST("", handlers.StartTrip(tripSvc, bookingSvc))
				tripRoutes.GET("", handlers.ListMyTrips(tripSvc))
				tripRoutes.GET("/:id", handlers.GetTrip(tripSvc))
				tripRoutes.POST("/:id/end", handlers.EndTrip(tripSvc, hub))
				tripRoutes.GET("/booking/:bookingId", handlers.ListBookingTrips(tripSvc))
				tripRoutes.GET("/completed", middleware.RequireRole(manager...), handlers.ListCompletedTrips(tripSvc))
				tripRoutes.GET("/vehicle/:vehicleId", middleware.RequireRole(manager...), handlers.ListVehicleTrips(tripSvc))
			}

			analyticsRoutes := protected.Group("/analytics")
			analyticsRoutes.Use(middleware.RequireRole(manager...))
			{
				analyticsRoutes.GET("/fleet", handlers.GetFleetUtilization(analyticsSvc))
				analyticsRoutes.GET("/vehicles/:vehicleId", handlers.GetVehicleUtilization(analyticsSvc))
				analyticsRoutes.GET("/underutilized", handlers.GetUnderutilizedVehicles(analyticsSvc))
				analyticsRoutes.GET("/bookings", handlers.GetBookingStatistics(analyticsSvc))
			}
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

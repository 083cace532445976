package main

import (
	"log"
	"os"
	"time"

	"github.com/chachabrian/carpool-backend/internal/booking"
	"github.com/chachabrian/carpool-backend/internal/database"
	"github.com/chachabrian/carpool-backend/internal/handlers"
	"github.com/chachabrian/carpool-backend/internal/middleware"
	"github.com/chachabrian/carpool-backend/internal/search"
	"github.com/chachabrian/carpool-backend/internal/services"
	"github.com/chachabrian/carpool-backend/internal/store"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

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

	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Firebase is optional - will log warning if not configured
	if err := services.InitFirebase(); err != nil {
		log.Printf("Firebase initialization warning: %v", err)
	}

	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	hub := services.NewHub()
	go hub.Run()

	entityStore := store.NewGormStore(db)
	engine := search.NewEngine(entityStore)
	notifier := services.NewRegistrationNotifier(hub)
	bookingService := booking.NewService(entityStore, notifier)

	r := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored car photos
	r.Static("/uploads", "/app/uploads")

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
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			cars := protected.Group("/cars")
			{
				cars.POST("", handlers.CreateCar(db))
				cars.GET("", handlers.GetCars(db))
				cars.PUT("/:id", handlers.UpdateCar(db))
				cars.DELETE("/:id", handlers.DeleteCar(db))
			}

			cities := protected.Group("/cities")
			{
				cities.GET("", handlers.GetCities(db))
				cities.POST("", handlers.CreateCity(db))
			}

			routes := protected.Group("/routes")
			{
				routes.GET("", handlers.GetRoutes(db))
				routes.POST("", handlers.CreateRoute(db))
			}

			rides := protected.Group("/rides")
			{
				rides.GET("", handlers.SearchRides(engine))
				rides.POST("", handlers.CreateRide(db, entityStore))
				rides.GET("/mine", handlers.GetMyRides(entityStore))
				rides.GET("/cities", handlers.DiscoverCities(engine))
				rides.POST("/:id/complete", handlers.CompleteRide(entityStore, hub))
				rides.DELETE("/:id", handlers.DeleteRide(entityStore, hub))
				rides.POST("/:id/register", handlers.RegisterForRide(bookingService))
				rides.GET("/:id/registrations", handlers.GetRideRegistrations(entityStore))
			}

			registrations := protected.Group("/registrations")
			{
				registrations.GET("", handlers.GetMyRegistrations(entityStore))
			}

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", handlers.RegisterFCMToken(db))
				notifications.DELETE("/remove-token", handlers.RemoveFCMToken(db))
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

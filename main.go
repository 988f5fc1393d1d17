package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"paper-trader/config"
	"paper-trader/handlers"
	"paper-trader/market"
	"paper-trader/middleware"
	"paper-trader/models"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	// Initialize PostgreSQL and Redis connections.
	config.InitDB()
	config.InitRedis()

	sqlDB, err := config.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database instance: ", err)
	}
	defer sqlDB.Close()

	// Auto-migrate models.
	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Holding{},
		&models.Transaction{},
		&models.Accolade{},
		&models.StockPrice{},
	); err != nil {
		log.Fatal("Failed to migrate models:", err)
	}

	gateway, err := market.NewGatewayFromEnv(config.Rdb)
	if err != nil {
		log.Fatal("Failed to configure market gateway:", err)
	}
	handlers.Market = gateway

	router := gin.Default()

	// Public routes
	router.POST("/signup", handlers.Signup)
	router.POST("/login", handlers.Login)
	router.POST("/refresh", handlers.Refresh)

	// Protected routes
	api := router.Group("/api")
	api.Use(middleware.JWTAuth())
	{
		api.GET("/quote/:symbol", handlers.GetQuote)
		api.GET("/history/:symbol", handlers.GetHistory)
		api.GET("/news", handlers.GetNews)
		api.POST("/trade/buy", handlers.Buy)
		api.POST("/trade/sell", handlers.Sell)
		api.GET("/portfolio", handlers.GetPortfolio)
		api.GET("/transactions", handlers.GetTransactions)
		api.GET("/watchlist", handlers.GetWatchlist)
		api.PUT("/watchlist", handlers.UpdateWatchlist)
		api.GET("/accolades", handlers.GetAccolades)
		api.POST("/accolades/event", handlers.RecordAccoladeEvent)
		api.GET("/profile", handlers.GetProfile)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	router.Run(":" + port)
}

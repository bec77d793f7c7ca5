package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ventra-pos/config"
	"ventra-pos/internal/database"
	"ventra-pos/internal/database/models"
	"ventra-pos/internal/identity"
	"ventra-pos/internal/middleware"
	"ventra-pos/internal/services/stock/handler"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	redisClient := config.NewRedisClient(cfg.Redis)
	defer redisClient.Close()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}

	if err := models.MigrateStockDB(db); err != nil {
		logger.Fatal("failed to migrate stock database", zap.Error(err))
	}

	identityClient := identity.NewClient(cfg.Auth.ServiceURL, cfg.Auth.Timeout, logger)
	stockHandler := handler.NewStockHandler(db, redisClient, logger)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("100-M"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "stock"})
	})

	protected := r.Group("/")
	protected.Use(middleware.RemoteAuth(identityClient))
	{
		products := protected.Group("/products")
		{
			products.POST("", stockHandler.CreateProduct)
			products.GET("", stockHandler.ListProducts)
			products.GET("/:id", stockHandler.GetProduct)
			products.PUT("/:id", stockHandler.UpdateProduct)
			products.DELETE("/:id", stockHandler.DeleteProduct)
			products.GET("/:id/movements", stockHandler.ListProductMovements)
		}

		categories := protected.Group("/categories")
		{
			categories.POST("", stockHandler.CreateCategory)
			categories.GET("", stockHandler.ListCategories)
			categories.GET("/:id", stockHandler.GetCategory)
			categories.PUT("/:id", stockHandler.UpdateCategory)
			categories.DELETE("/:id", stockHandler.DeleteCategory)
		}

		movements := protected.Group("/stock-movements")
		{
			movements.POST("", stockHandler.CreateMovement)
			movements.GET("", stockHandler.ListMovements)
		}
	}

	logger.Info("stock service listening", zap.String("addr", cfg.HTTP.Addr))
	if err := r.Run(cfg.HTTP.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

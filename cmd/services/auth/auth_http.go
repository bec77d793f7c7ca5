package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ventra-pos/config"
	"ventra-pos/internal/database"
	"ventra-pos/internal/database/models"
	"ventra-pos/internal/middleware"
	"ventra-pos/internal/services/auth/handler"
)

func main() {
	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to db", zap.Error(err))
	}

	if err := models.MigrateAuthDB(db); err != nil {
		logger.Fatal("failed to migrate auth database", zap.Error(err))
	}

	authHandler := handler.NewAuthHandler(db, logger, cfg.JWT)
	if err := authHandler.EnsureAdmin(cfg.Admin); err != nil {
		logger.Fatal("failed to seed admin account", zap.Error(err))
	}

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("100-M"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "auth"})
	})

	r.POST("/auth/token", authHandler.Login)

	protected := r.Group("/")
	protected.Use(middleware.JWTAuth([]byte(cfg.JWT.Secret)))
	{
		users := protected.Group("/users")
		{
			users.POST("", authHandler.CreateUser)
			users.GET("", authHandler.ListUsers)
			users.GET("/me", authHandler.Me)
			users.GET("/:id", authHandler.GetUser)
			users.PUT("/:id", authHandler.UpdateUser)
			users.POST("/:id/deactivate", authHandler.DeactivateUser)
		}
	}

	logger.Info("auth service listening", zap.String("addr", cfg.HTTP.Addr))
	if err := r.Run(cfg.HTTP.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

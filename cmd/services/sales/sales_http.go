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
	"ventra-pos/internal/services/sales/handler"
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

	if err := models.MigrateSalesDB(db); err != nil {
		logger.Fatal("failed to migrate sales database", zap.Error(err))
	}

	identityClient := identity.NewClient(cfg.Auth.ServiceURL, cfg.Auth.Timeout, logger)
	salesHandler := handler.NewSalesHandler(db, logger)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit("100-M"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "sales"})
	})

	protected := r.Group("/")
	protected.Use(middleware.RemoteAuth(identityClient))
	{
		sales := protected.Group("/sales")
		{
			sales.POST("", salesHandler.CreateSale)
			sales.GET("", salesHandler.ListSales)
			sales.GET("/number/:sale_number", salesHandler.GetSaleByNumber)
			sales.GET("/:id", salesHandler.GetSale)
			sales.PUT("/:id", salesHandler.UpdateSale)
			sales.POST("/:id/pay", salesHandler.ProcessPayment)
		}

		customers := protected.Group("/customers")
		{
			customers.POST("", salesHandler.CreateCustomer)
			customers.GET("", salesHandler.ListCustomers)
			customers.GET("/:id", salesHandler.GetCustomer)
			customers.PUT("/:id", salesHandler.UpdateCustomer)
			customers.DELETE("/:id", salesHandler.DeleteCustomer)
		}

		transactions := protected.Group("/transactions")
		{
			transactions.POST("", salesHandler.CreateTransaction)
			transactions.GET("", salesHandler.ListTransactions)
			transactions.GET("/:id", salesHandler.GetTransaction)
			transactions.PUT("/:id/status", salesHandler.UpdateTransactionStatus)
		}
	}

	logger.Info("sales service listening", zap.String("addr", cfg.HTTP.Addr))
	if err := r.Run(cfg.HTTP.Addr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

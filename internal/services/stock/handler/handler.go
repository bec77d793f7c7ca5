package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
	"ventra-pos/internal/identity"
	"ventra-pos/internal/middleware"
)

const (
	PRODUCTS_CACHE_KEY   = "stock:products"
	CATEGORIES_CACHE_KEY = "stock:categories"
	CACHE_TTL_SHORT      = 5 * time.Minute
	CACHE_TTL_MEDIUM     = 30 * time.Minute
)

// Reads are open to every authenticated role; mutations are admin only.
var (
	stockReadAccess  = []string{models.RoleAdmin, models.RoleManager, models.RoleCashier}
	stockWriteAccess = []string{models.RoleAdmin}
)

type StockHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	logger *zap.Logger
}

func NewStockHandler(db *gorm.DB, redisClient *redis.Client, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}
}

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func successResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

func errorResponse(message string) APIResponse {
	return APIResponse{
		Success: false,
		Message: message,
	}
}

func successWithMetaResponse(message string, data interface{}, meta interface{}) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    meta,
	}
}

func (h *StockHandler) requireAccess(c *gin.Context, roles []string) (identity.Identity, bool) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Could not validate credentials"))
		return identity.Identity{}, false
	}
	if !ident.Allowed(roles...) {
		c.JSON(http.StatusForbidden, errorResponse("Access denied: insufficient privileges"))
		return identity.Identity{}, false
	}
	return ident, true
}

func (h *StockHandler) invalidateStockCaches(ctx context.Context) {
	if err := h.redis.Del(ctx, PRODUCTS_CACHE_KEY, CATEGORIES_CACHE_KEY).Err(); err != nil {
		h.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func isDuplicateKeyError(err error) bool {
	return err == gorm.ErrDuplicatedKey ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

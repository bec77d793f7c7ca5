package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
)

var (
	ErrInsufficientStock = errors.New("movement quantity exceeds available stock")
	ErrStockOverflow     = errors.New("movement would overflow the stock quantity")
)

type CreateMovementRequest struct {
	ProductID    int64   `json:"product_id" binding:"required"`
	Quantity     int32   `json:"quantity" binding:"required,min=1"`
	MovementType string  `json:"movement_type" binding:"required"`
	Reason       *string `json:"reason,omitempty"`
}

type ListMovementsQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

type MovementResponse struct {
	ID           int64   `json:"id"`
	ProductID    int64   `json:"product_id"`
	Quantity     int32   `json:"quantity"`
	MovementType string  `json:"movement_type"`
	Reason       *string `json:"reason,omitempty"`
	CreatedBy    int64   `json:"created_by"`
	CreatedAt    string  `json:"created_at"`
}

func movementToResponse(movement models.StockMovement) MovementResponse {
	return MovementResponse{
		ID:           movement.ID,
		ProductID:    movement.ProductID,
		Quantity:     movement.Quantity,
		MovementType: movement.MovementType,
		Reason:       movement.Reason,
		CreatedBy:    movement.CreatedBy,
		CreatedAt:    movement.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// applyMovement returns the product quantity after the movement, or
// ErrInsufficientStock for an OUT larger than what is on hand. An IN that
// would wrap the counter is rejected the same way.
func applyMovement(current int32, movementType string, quantity int32) (int32, error) {
	switch movementType {
	case models.MovementTypeIn:
		if quantity > math.MaxInt32-current {
			return current, ErrStockOverflow
		}
		return current + quantity, nil
	case models.MovementTypeOut:
		if quantity > current {
			return current, ErrInsufficientStock
		}
		return current - quantity, nil
	default:
		return current, errors.New("unknown movement type: " + movementType)
	}
}

// --- Movement Handlers ---

// CreateMovement records the movement and adjusts the product quantity in
// one transaction so the ledger and the counter never diverge.
func (h *StockHandler) CreateMovement(c *gin.Context) {
	ident, ok := h.requireAccess(c, stockWriteAccess)
	if !ok {
		return
	}

	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if !models.ValidMovementType(req.MovementType) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid movement type: "+req.MovementType))
		return
	}

	movement := models.StockMovement{
		ProductID:    req.ProductID,
		Quantity:     req.Quantity,
		MovementType: req.MovementType,
		Reason:       req.Reason,
		CreatedBy:    ident.ID,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, req.ProductID).Error; err != nil {
			return err
		}

		newQuantity, err := applyMovement(product.Quantity, req.MovementType, req.Quantity)
		if err != nil {
			return err
		}

		if err := tx.Create(&movement).Error; err != nil {
			return err
		}
		return tx.Model(&product).Update("quantity", newQuantity).Error
	})
	if err != nil {
		switch {
		case err == gorm.ErrRecordNotFound:
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
		case errors.Is(err, ErrInsufficientStock):
			c.JSON(http.StatusBadRequest, errorResponse("Insufficient stock for this movement"))
		case errors.Is(err, ErrStockOverflow):
			c.JSON(http.StatusBadRequest, errorResponse("Movement would overflow the stock quantity"))
		default:
			h.logger.Error("movement creation failed", zap.Int64("product_id", req.ProductID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse("Error creating stock movement"))
		}
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	c.JSON(http.StatusCreated, successResponse("Stock movement created successfully", movementToResponse(movement)))
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	var query ListMovementsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var total int64
	if err := h.db.Model(&models.StockMovement{}).Count(&total).Error; err != nil {
		h.logger.Error("movement count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var movements []models.StockMovement
	if err := h.db.Order("id desc").Offset(query.Skip).Limit(query.Limit).Find(&movements).Error; err != nil {
		h.logger.Error("movement list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]MovementResponse, len(movements))
	for i, movement := range movements {
		out[i] = movementToResponse(movement)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Stock movements retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *StockHandler) ListProductMovements(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var product models.Product
	if err := h.db.First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		h.logger.Error("product lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var movements []models.StockMovement
	if err := h.db.Where("product_id = ?", product.ID).Order("id desc").Find(&movements).Error; err != nil {
		h.logger.Error("movement list failed", zap.Int64("product_id", product.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]MovementResponse, len(movements))
	for i, movement := range movements {
		out[i] = movementToResponse(movement)
	}

	c.JSON(http.StatusOK, successResponse("Stock movements retrieved successfully", out))
}

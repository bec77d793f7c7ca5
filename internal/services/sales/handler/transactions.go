package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
)

type CreateTransactionRequest struct {
	SaleID         int64                  `json:"sale_id" binding:"required"`
	Amount         string                 `json:"amount" binding:"required"`
	PaymentMethod  string                 `json:"payment_method" binding:"required"`
	AmountReceived *string                `json:"amount_received,omitempty"`
	PaymentDetails map[string]interface{} `json:"payment_details,omitempty"`
}

type UpdateTransactionStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListTransactionsQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

// --- Transaction Handlers ---

// CreateTransaction records a manual payment entry against a sale. Manual
// entries start PENDING and never flip the sale status; settlement goes
// through the sale payment endpoint.
func (h *SalesHandler) CreateTransaction(c *gin.Context) {
	if _, ok := h.requireAccess(c, transactionsAccess); !ok {
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if !models.ValidPaymentMethod(req.PaymentMethod) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid payment method: "+req.PaymentMethod))
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid amount: "+req.Amount))
		return
	}

	var sale models.Sale
	if err := h.db.First(&sale, req.SaleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		h.logger.Error("sale lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	transaction := models.Transaction{
		SaleID:         sale.ID,
		Reference:      uuid.NewString(),
		Amount:         amount.StringFixed(2),
		AmountReceived: req.AmountReceived,
		ChangeAmount:   "0.00",
		PaymentMethod:  req.PaymentMethod,
		Status:         models.TransactionStatusPending,
		PaymentDetails: detailsToJSONMap(req.PaymentDetails),
	}

	if err := h.db.Create(&transaction).Error; err != nil {
		h.logger.Error("transaction creation failed", zap.Int64("sale_id", sale.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating transaction"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Transaction created successfully", transactionToResponse(transaction)))
}

func (h *SalesHandler) ListTransactions(c *gin.Context) {
	if _, ok := h.requireAccess(c, transactionsAccess); !ok {
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var total int64
	if err := h.db.Model(&models.Transaction{}).Count(&total).Error; err != nil {
		h.logger.Error("transaction count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var transactions []models.Transaction
	if err := h.db.Order("id").Offset(query.Skip).Limit(query.Limit).Find(&transactions).Error; err != nil {
		h.logger.Error("transaction list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]TransactionResponse, len(transactions))
	for i, tx := range transactions {
		out[i] = transactionToResponse(tx)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Transactions retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *SalesHandler) GetTransaction(c *gin.Context) {
	if _, ok := h.requireAccess(c, transactionsAccess); !ok {
		return
	}

	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid transaction ID"))
		return
	}

	var transaction models.Transaction
	if err := h.db.First(&transaction, transactionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Transaction not found"))
			return
		}
		h.logger.Error("transaction lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Transaction retrieved successfully", transactionToResponse(transaction)))
}

func (h *SalesHandler) UpdateTransactionStatus(c *gin.Context) {
	if _, ok := h.requireAccess(c, transactionsAccess); !ok {
		return
	}

	transactionID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid transaction ID"))
		return
	}

	var req UpdateTransactionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if !models.ValidTransactionStatus(req.Status) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid transaction status: "+req.Status))
		return
	}

	var transaction models.Transaction
	if err := h.db.First(&transaction, transactionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Transaction not found"))
			return
		}
		h.logger.Error("transaction lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	transaction.Status = req.Status
	if err := h.db.Save(&transaction).Error; err != nil {
		h.logger.Error("transaction update failed", zap.Int64("transaction_id", transaction.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating transaction"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Transaction status updated successfully", transactionToResponse(transaction)))
}

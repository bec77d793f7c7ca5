package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database"
	"ventra-pos/internal/database/models"
	"ventra-pos/internal/identity"
	"ventra-pos/internal/middleware"
)

// Role allow-lists per resource.
var (
	salesAccess        = []string{models.RoleAdmin, models.RoleManager, models.RoleCashier}
	customersAccess    = []string{models.RoleAdmin, models.RoleManager, models.RoleCashier}
	transactionsAccess = []string{models.RoleAdmin, models.RoleManager, models.RoleCashier}
)

type SalesHandler struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSalesHandler(db *gorm.DB, logger *zap.Logger) *SalesHandler {
	return &SalesHandler{
		db:     db,
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

func (h *SalesHandler) requireAccess(c *gin.Context, roles []string) (identity.Identity, bool) {
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

// --- Response shapes ---

type SaleItemResponse struct {
	ID         int64  `json:"id"`
	SaleID     int64  `json:"sale_id"`
	ProductID  int64  `json:"product_id"`
	Quantity   int32  `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type TransactionResponse struct {
	ID             int64                  `json:"id"`
	SaleID         int64                  `json:"sale_id"`
	Reference      string                 `json:"reference"`
	Amount         string                 `json:"amount"`
	AmountReceived *string                `json:"amount_received,omitempty"`
	ChangeAmount   string                 `json:"change_amount"`
	PaymentMethod  string                 `json:"payment_method"`
	Status         string                 `json:"status"`
	PaymentDetails map[string]interface{} `json:"payment_details,omitempty"`
}

type SaleResponse struct {
	ID              int64                 `json:"id"`
	SaleNumber      string                `json:"sale_number"`
	CashierID       int64                 `json:"cashier_id"`
	CustomerID      *int64                `json:"customer_id,omitempty"`
	TotalAmount     string                `json:"total_amount"`
	Status          string                `json:"status"`
	Notes           *string               `json:"notes,omitempty"`
	CreatedAt       string                `json:"created_at"`
	ItemsCount      int                   `json:"items_count"`
	PaymentStatus   string                `json:"payment_status"`
	RemainingAmount string                `json:"remaining_amount"`
	ChangeAmount    string                `json:"change_amount"`
	Items           []SaleItemResponse    `json:"items,omitempty"`
	Transactions    []TransactionResponse `json:"transactions,omitempty"`
}

func saleItemToResponse(item models.SaleItem) SaleItemResponse {
	return SaleItemResponse{
		ID:         item.ID,
		SaleID:     item.SaleID,
		ProductID:  item.ProductID,
		Quantity:   item.Quantity,
		UnitPrice:  item.UnitPrice,
		TotalPrice: item.TotalPrice,
	}
}

func transactionToResponse(tx models.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             tx.ID,
		SaleID:         tx.SaleID,
		Reference:      tx.Reference,
		Amount:         tx.Amount,
		AmountReceived: tx.AmountReceived,
		ChangeAmount:   tx.ChangeAmount,
		PaymentMethod:  tx.PaymentMethod,
		Status:         tx.Status,
		PaymentDetails: tx.PaymentDetails,
	}
}

func saleToResponse(sale models.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(sale.Items))
	for i, item := range sale.Items {
		items[i] = saleItemToResponse(item)
	}

	transactions := make([]TransactionResponse, len(sale.Transactions))
	changeTotal := decimal.Zero
	for i, tx := range sale.Transactions {
		transactions[i] = transactionToResponse(tx)
		if change, err := decimal.NewFromString(tx.ChangeAmount); err == nil {
			changeTotal = changeTotal.Add(change)
		}
	}

	paymentStatus := "pending"
	if sale.Status == models.SaleStatusCompleted {
		paymentStatus = "completed"
	}

	return SaleResponse{
		ID:              sale.ID,
		SaleNumber:      sale.SaleNumber,
		CashierID:       sale.CashierID,
		CustomerID:      sale.CustomerID,
		TotalAmount:     sale.TotalAmount,
		Status:          sale.Status,
		Notes:           sale.Notes,
		CreatedAt:       sale.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		ItemsCount:      len(sale.Items),
		PaymentStatus:   paymentStatus,
		RemainingAmount: remainingAmount(sale).StringFixed(2),
		ChangeAmount:    changeTotal.StringFixed(2),
		Items:           items,
		Transactions:    transactions,
	}
}

func detailsToJSONMap(details map[string]interface{}) database.JSONMap {
	if details == nil {
		return database.JSONMap{}
	}
	return database.JSONMap(details)
}

func isDuplicateKeyError(err error) bool {
	return err == gorm.ErrDuplicatedKey ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

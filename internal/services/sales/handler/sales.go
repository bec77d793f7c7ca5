package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ventra-pos/internal/database/models"
)

type CreateSaleRequest struct {
	CustomerID *int64            `json:"customer_id,omitempty"`
	Notes      *string           `json:"notes,omitempty"`
	Items      []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
}

type SalePaymentRequest struct {
	Transactions []PaymentTransactionRequest `json:"transactions" binding:"required,min=1,dive"`
}

type UpdateSaleRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

type ListSalesQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

// --- Sale Handlers ---

func (h *SalesHandler) CreateSale(c *gin.Context) {
	ident, ok := h.requireAccess(c, salesAccess)
	if !ok {
		return
	}

	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if req.CustomerID != nil {
		var customer models.Customer
		if err := h.db.First(&customer, *req.CustomerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, errorResponse("Customer not found"))
				return
			}
			h.logger.Error("customer lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
			return
		}
	}

	total, err := itemsTotal(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	var sale models.Sale
	err = h.db.Transaction(func(tx *gorm.DB) error {
		var lastID int64
		if err := tx.Model(&models.Sale{}).Select("COALESCE(MAX(id), 0)").Scan(&lastID).Error; err != nil {
			return err
		}

		sale = models.Sale{
			SaleNumber:  saleNumber(lastID+1, time.Now()),
			CashierID:   ident.ID,
			CustomerID:  req.CustomerID,
			TotalAmount: total.StringFixed(2),
			Status:      models.SaleStatusDraft,
			Notes:       req.Notes,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		items := make([]models.SaleItem, len(req.Items))
		for i, item := range req.Items {
			line, err := itemTotal(item)
			if err != nil {
				return err
			}
			unitPrice, _ := decimal.NewFromString(item.UnitPrice)
			items[i] = models.SaleItem{
				SaleID:     sale.ID,
				ProductID:  item.ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  unitPrice.StringFixed(2),
				TotalPrice: line.StringFixed(2),
			}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}

		sale.Items = items
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Sale number already taken, retry the request"))
			return
		}
		h.logger.Error("sale creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating sale"))
		return
	}

	h.logger.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.String("sale_number", sale.SaleNumber),
		zap.Int64("cashier_id", ident.ID),
		zap.String("total", sale.TotalAmount))

	c.JSON(http.StatusCreated, successResponse("Sale created successfully", saleToResponse(sale)))
}

// ProcessPayment settles a draft sale in one step: it validates the submitted
// transactions against the sale total, persists them as COMPLETED and flips
// the sale to COMPLETED, all inside one database transaction.
func (h *SalesHandler) ProcessPayment(c *gin.Context) {
	if _, ok := h.requireAccess(c, salesAccess); !ok {
		return
	}

	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	var req SalePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var sale models.Sale
	if err := h.db.Preload("Items").Preload("Transactions").First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		h.logger.Error("sale lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if sale.Status != models.SaleStatusDraft {
		c.JSON(http.StatusConflict, errorResponse(ErrSaleNotDraft.Error()))
		return
	}

	total, err := decimal.NewFromString(sale.TotalAmount)
	if err != nil {
		h.logger.Error("stored sale total is not a valid amount",
			zap.Int64("sale_id", sale.ID), zap.String("total", sale.TotalAmount))
		c.JSON(http.StatusInternalServerError, errorResponse("Invalid sale total"))
		return
	}

	if err := validatePaymentTotal(total, req.Transactions); err != nil {
		switch {
		case errors.Is(err, ErrTooManyPayments):
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		case errors.Is(err, ErrPaymentMismatch):
			c.JSON(http.StatusConflict, errorResponse(err.Error()))
		default:
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		}
		return
	}

	transactions := make([]models.Transaction, len(req.Transactions))
	for i, txReq := range req.Transactions {
		change, err := cashChange(txReq)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		amount, _ := decimal.NewFromString(txReq.Amount)
		transactions[i] = models.Transaction{
			SaleID:         sale.ID,
			Reference:      uuid.NewString(),
			Amount:         amount.StringFixed(2),
			AmountReceived: txReq.AmountReceived,
			ChangeAmount:   change.StringFixed(2),
			PaymentMethod:  txReq.PaymentMethod,
			Status:         models.TransactionStatusCompleted,
			PaymentDetails: detailsToJSONMap(txReq.PaymentDetails),
		}
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&transactions).Error; err != nil {
			return err
		}
		return tx.Model(&sale).Update("status", models.SaleStatusCompleted).Error
	})
	if err != nil {
		h.logger.Error("payment persistence failed", zap.Int64("sale_id", sale.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error processing payment"))
		return
	}

	sale.Status = models.SaleStatusCompleted
	sale.Transactions = append(sale.Transactions, transactions...)

	h.logger.Info("payment processed",
		zap.Int64("sale_id", sale.ID),
		zap.String("sale_number", sale.SaleNumber),
		zap.Int("transactions", len(transactions)))

	c.JSON(http.StatusOK, successResponse("Payment processed successfully", saleToResponse(sale)))
}

func (h *SalesHandler) ListSales(c *gin.Context) {
	ident, ok := h.requireAccess(c, salesAccess)
	if !ok {
		return
	}

	var query ListSalesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	dbQuery := h.db.Model(&models.Sale{})
	// Cashiers only see their own sales.
	if ident.Role == models.RoleCashier {
		dbQuery = dbQuery.Where("cashier_id = ?", ident.ID)
	}

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		h.logger.Error("sale count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var sales []models.Sale
	if err := dbQuery.
		Preload("Items").
		Preload("Transactions").
		Order("id").
		Offset(query.Skip).
		Limit(query.Limit).
		Find(&sales).Error; err != nil {
		h.logger.Error("sale list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]SaleResponse, len(sales))
	for i, sale := range sales {
		out[i] = saleToResponse(sale)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Sales retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *SalesHandler) GetSale(c *gin.Context) {
	if _, ok := h.requireAccess(c, salesAccess); !ok {
		return
	}

	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	var sale models.Sale
	if err := h.db.Preload("Items").Preload("Transactions").First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		h.logger.Error("sale lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale retrieved successfully", saleToResponse(sale)))
}

func (h *SalesHandler) GetSaleByNumber(c *gin.Context) {
	if _, ok := h.requireAccess(c, salesAccess); !ok {
		return
	}

	number := c.Param("sale_number")
	if number == "" {
		c.JSON(http.StatusBadRequest, errorResponse("Sale number required"))
		return
	}

	var sale models.Sale
	if err := h.db.Preload("Items").Preload("Transactions").
		Where("sale_number = ?", number).First(&sale).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		h.logger.Error("sale lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale retrieved successfully", saleToResponse(sale)))
}

// UpdateSale changes notes and, through the transition guard, the status.
// Cancelling refunds every completed transaction in the same database
// transaction; a rejected transition leaves the sale untouched.
func (h *SalesHandler) UpdateSale(c *gin.Context) {
	if _, ok := h.requireAccess(c, salesAccess); !ok {
		return
	}

	saleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid sale ID"))
		return
	}

	var req UpdateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var sale models.Sale
	if err := h.db.Preload("Items").Preload("Transactions").First(&sale, saleID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Sale not found"))
			return
		}
		h.logger.Error("sale lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Status != nil {
		if !models.ValidSaleStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid sale status"))
			return
		}
		if err := validateTransition(sale, *req.Status); err != nil {
			c.JSON(http.StatusConflict, errorResponse(err.Error()))
			return
		}
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if req.Status != nil && *req.Status == models.SaleStatusCancelled {
			for _, i := range refundCompletedTransactions(sale.Transactions, time.Now(), "Sale cancelled") {
				if err := tx.Save(&sale.Transactions[i]).Error; err != nil {
					return err
				}
			}
		}

		if req.Status != nil {
			sale.Status = *req.Status
		}
		if req.Notes != nil {
			sale.Notes = req.Notes
		}
		return tx.Omit(clause.Associations).Save(&sale).Error
	})
	if err != nil {
		h.logger.Error("sale update failed", zap.Int64("sale_id", sale.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating sale"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Sale updated successfully", saleToResponse(sale)))
}

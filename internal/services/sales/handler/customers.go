package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
)

type CustomerRequest struct {
	FirstName string  `json:"first_name" binding:"required"`
	LastName  string  `json:"last_name" binding:"required"`
	Email     *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

type ListCustomersQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

type CustomerResponse struct {
	ID        int64   `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
}

func customerToResponse(customer models.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID,
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Email:     customer.Email,
		Phone:     customer.Phone,
		Address:   customer.Address,
	}
}

// --- Customer Handlers ---

func (h *SalesHandler) CreateCustomer(c *gin.Context) {
	if _, ok := h.requireAccess(c, customersAccess); !ok {
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	customer := models.Customer{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
	}

	if err := h.db.Create(&customer).Error; err != nil {
		h.logger.Error("customer creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating customer"))
		return
	}

	c.JSON(http.StatusCreated, successResponse("Customer created successfully", customerToResponse(customer)))
}

func (h *SalesHandler) ListCustomers(c *gin.Context) {
	if _, ok := h.requireAccess(c, customersAccess); !ok {
		return
	}

	var query ListCustomersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var total int64
	if err := h.db.Model(&models.Customer{}).Count(&total).Error; err != nil {
		h.logger.Error("customer count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var customers []models.Customer
	if err := h.db.Order("id").Offset(query.Skip).Limit(query.Limit).Find(&customers).Error; err != nil {
		h.logger.Error("customer list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]CustomerResponse, len(customers))
	for i, customer := range customers {
		out[i] = customerToResponse(customer)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Customers retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *SalesHandler) GetCustomer(c *gin.Context) {
	if _, ok := h.requireAccess(c, customersAccess); !ok {
		return
	}

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid customer ID"))
		return
	}

	var customer models.Customer
	if err := h.db.First(&customer, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Customer not found"))
			return
		}
		h.logger.Error("customer lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Customer retrieved successfully", customerToResponse(customer)))
}

func (h *SalesHandler) UpdateCustomer(c *gin.Context) {
	if _, ok := h.requireAccess(c, customersAccess); !ok {
		return
	}

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid customer ID"))
		return
	}

	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var customer models.Customer
	if err := h.db.First(&customer, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Customer not found"))
			return
		}
		h.logger.Error("customer lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	customer.FirstName = req.FirstName
	customer.LastName = req.LastName
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Address = req.Address

	if err := h.db.Save(&customer).Error; err != nil {
		h.logger.Error("customer update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating customer"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Customer updated successfully", customerToResponse(customer)))
}

// DeleteCustomer removes the customer and explicitly detaches their sales
// (customer_id set to NULL) in the same transaction. Sales survive the
// customer; only the reference goes away.
func (h *SalesHandler) DeleteCustomer(c *gin.Context) {
	if _, ok := h.requireAccess(c, customersAccess); !ok {
		return
	}

	customerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid customer ID"))
		return
	}

	var customer models.Customer
	if err := h.db.First(&customer, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Customer not found"))
			return
		}
		h.logger.Error("customer lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Sale{}).
			Where("customer_id = ?", customer.ID).
			Update("customer_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&customer).Error
	})
	if err != nil {
		h.logger.Error("customer deletion failed", zap.Int64("customer_id", customer.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting customer"))
		return
	}

	c.Status(http.StatusNoContent)
}

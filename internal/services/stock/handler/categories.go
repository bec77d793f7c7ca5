package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
)

type CreateCategoryRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
}

type UpdateCategoryRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type ListCategoriesQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

type CategoryResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func categoryToResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
	}
}

// --- Category Handlers ---

func (h *StockHandler) CreateCategory(c *gin.Context) {
	ident, ok := h.requireAccess(c, stockWriteAccess)
	if !ok {
		return
	}

	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	category := models.Category{
		Name:        req.Name,
		Description: req.Description,
		CreatedBy:   &ident.ID,
	}

	if err := h.db.Create(&category).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Category with this name already exists"))
			return
		}
		h.logger.Error("category creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating category"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	c.JSON(http.StatusCreated, successResponse("Category created successfully", categoryToResponse(category)))
}

func (h *StockHandler) ListCategories(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	var query ListCategoriesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var total int64
	if err := h.db.Model(&models.Category{}).Count(&total).Error; err != nil {
		h.logger.Error("category count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var categories []models.Category
	if err := h.db.Order("id").Offset(query.Skip).Limit(query.Limit).Find(&categories).Error; err != nil {
		h.logger.Error("category list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		out[i] = categoryToResponse(category)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Categories retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *StockHandler) GetCategory(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	var category models.Category
	if err := h.db.First(&category, categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Category not found"))
			return
		}
		h.logger.Error("category lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Category retrieved successfully", categoryToResponse(category)))
}

func (h *StockHandler) UpdateCategory(c *gin.Context) {
	ident, ok := h.requireAccess(c, stockWriteAccess)
	if !ok {
		return
	}

	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var category models.Category
	if err := h.db.First(&category, categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Category not found"))
			return
		}
		h.logger.Error("category lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	category.UpdatedBy = &ident.ID

	if err := h.db.Save(&category).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Category with this name already exists"))
			return
		}
		h.logger.Error("category update failed", zap.Int64("category_id", category.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating category"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	c.JSON(http.StatusOK, successResponse("Category updated successfully", categoryToResponse(category)))
}

func (h *StockHandler) DeleteCategory(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockWriteAccess); !ok {
		return
	}

	categoryID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid category ID"))
		return
	}

	var category models.Category
	if err := h.db.First(&category, categoryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Category not found"))
			return
		}
		h.logger.Error("category lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&category).Association("Products").Clear(); err != nil {
			return err
		}
		return tx.Delete(&category).Error
	})
	if err != nil {
		h.logger.Error("category deletion failed", zap.Int64("category_id", category.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting category"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	c.Status(http.StatusNoContent)
}

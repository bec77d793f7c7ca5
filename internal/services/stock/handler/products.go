package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
)

type CreateProductRequest struct {
	ArticleNumber *string `json:"article_number,omitempty"`
	Name          string  `json:"name" binding:"required"`
	Description   *string `json:"description,omitempty"`
	Price         string  `json:"price" binding:"required"`
	Quantity      *int32  `json:"quantity,omitempty"`
	CategoryIDs   []int64 `json:"category_ids,omitempty"`
}

type UpdateProductRequest struct {
	ArticleNumber *string  `json:"article_number,omitempty"`
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *string  `json:"price,omitempty"`
	CategoryIDs   *[]int64 `json:"category_ids,omitempty"`
}

type ListProductsQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

type ProductResponse struct {
	ID            int64              `json:"id"`
	ArticleNumber *string            `json:"article_number,omitempty"`
	Name          string             `json:"name"`
	Description   *string            `json:"description,omitempty"`
	Price         string             `json:"price"`
	Quantity      int32              `json:"quantity"`
	Categories    []CategoryResponse `json:"categories"`
}

func productToResponse(product models.Product) ProductResponse {
	categories := make([]CategoryResponse, len(product.Categories))
	for i, category := range product.Categories {
		categories[i] = categoryToResponse(category)
	}
	return ProductResponse{
		ID:            product.ID,
		ArticleNumber: product.ArticleNumber,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		Quantity:      product.Quantity,
		Categories:    categories,
	}
}

// cachedProductList is the redis payload for the default product listing.
type cachedProductList struct {
	Products []ProductResponse `json:"products"`
	Total    int64             `json:"total"`
}

// loadCategories resolves category ids to rows, failing on any unknown id.
func (h *StockHandler) loadCategories(ids []int64) ([]models.Category, string) {
	if len(ids) == 0 {
		return nil, ""
	}
	var categories []models.Category
	if err := h.db.Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, "Database error"
	}
	if len(categories) != len(ids) {
		return nil, "One or more categories not found"
	}
	return categories, ""
}

// --- Product Handlers ---

func (h *StockHandler) CreateProduct(c *gin.Context) {
	ident, ok := h.requireAccess(c, stockWriteAccess)
	if !ok {
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid price: "+req.Price))
		return
	}

	categories, msg := h.loadCategories(req.CategoryIDs)
	if msg != "" {
		c.JSON(http.StatusBadRequest, errorResponse(msg))
		return
	}

	product := models.Product{
		ArticleNumber: req.ArticleNumber,
		Name:          req.Name,
		Description:   req.Description,
		Price:         price.StringFixed(2),
		CreatedBy:     &ident.ID,
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&product).Error; err != nil {
			return err
		}
		if len(categories) > 0 {
			return tx.Model(&product).Association("Categories").Append(categories)
		}
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Product with this article number already exists"))
			return
		}
		h.logger.Error("product creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating product"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	product.Categories = categories
	c.JSON(http.StatusCreated, successResponse("Product created successfully", productToResponse(product)))
}

func (h *StockHandler) ListProducts(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	ctx := c.Request.Context()

	// The unpaginated default listing is by far the hottest read, so only
	// that shape is cached. The true row count is cached with the page so
	// the meta matches the database path.
	cacheable := query.Skip == 0 && query.Limit == 100
	if cacheable {
		val, err := h.redis.Get(ctx, PRODUCTS_CACHE_KEY).Result()
		if err == nil {
			var cached cachedProductList
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				c.JSON(http.StatusOK, successWithMetaResponse("Products retrieved successfully", cached.Products, gin.H{
					"skip":  query.Skip,
					"limit": query.Limit,
					"total": cached.Total,
				}))
				return
			}
		} else if err != redis.Nil {
			h.logger.Warn("redis error on product list, falling back to db", zap.Error(err))
		}
	}

	var total int64
	if err := h.db.Model(&models.Product{}).Count(&total).Error; err != nil {
		h.logger.Error("product count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var products []models.Product
	if err := h.db.Preload("Categories").Order("id").Offset(query.Skip).Limit(query.Limit).Find(&products).Error; err != nil {
		h.logger.Error("product list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]ProductResponse, len(products))
	for i, product := range products {
		out[i] = productToResponse(product)
	}

	if cacheable {
		if jsonData, err := json.Marshal(cachedProductList{Products: out, Total: total}); err == nil {
			if err := h.redis.Set(ctx, PRODUCTS_CACHE_KEY, jsonData, CACHE_TTL_SHORT).Err(); err != nil {
				h.logger.Warn("failed to cache product list", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Products retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *StockHandler) GetProduct(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockReadAccess); !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var product models.Product
	if err := h.db.Preload("Categories").First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		h.logger.Error("product lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("Product retrieved successfully", productToResponse(product)))
}

func (h *StockHandler) UpdateProduct(c *gin.Context) {
	ident, ok := h.requireAccess(c, stockWriteAccess)
	if !ok {
		return
	}

	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid product ID"))
		return
	}

	var req UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var product models.Product
	if err := h.db.Preload("Categories").First(&product, productID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("Product not found"))
			return
		}
		h.logger.Error("product lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.ArticleNumber != nil {
		product.ArticleNumber = req.ArticleNumber
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid price: "+*req.Price))
			return
		}
		product.Price = price.StringFixed(2)
	}
	product.UpdatedBy = &ident.ID

	var categories []models.Category
	if req.CategoryIDs != nil {
		var msg string
		categories, msg = h.loadCategories(*req.CategoryIDs)
		if msg != "" {
			c.JSON(http.StatusBadRequest, errorResponse(msg))
			return
		}
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Categories").Save(&product).Error; err != nil {
			return err
		}
		if req.CategoryIDs != nil {
			return tx.Model(&product).Association("Categories").Replace(categories)
		}
		return nil
	})
	if err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Product with this article number already exists"))
			return
		}
		h.logger.Error("product update failed", zap.Int64("product_id", product.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating product"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	if req.CategoryIDs != nil {
		product.Categories = categories
	}
	c.JSON(http.StatusOK, successResponse("Product updated successfully", productToResponse(product)))
}

// DeleteProduct removes the product together with its category links and
// movement history in a single transaction.
func (h *StockHandler) DeleteProduct(c *gin.Context) {
	if _, ok := h.requireAccess(c, stockWriteAccess); !ok {
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

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&product).Association("Categories").Clear(); err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}
		return tx.Delete(&product).Error
	})
	if err != nil {
		h.logger.Error("product deletion failed", zap.Int64("product_id", product.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error deleting product"))
		return
	}

	h.invalidateStockCaches(c.Request.Context())

	c.Status(http.StatusNoContent)
}

package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ventra-pos/internal/database/models"
	"ventra-pos/internal/middleware"
)

const birthDateLayout = "2006-01-02"

type CreateUserRequest struct {
	FirstName    string  `json:"first_name" binding:"required"`
	LastName     string  `json:"last_name" binding:"required"`
	BirthDate    string  `json:"birth_date" binding:"required"`
	IDCardNumber *string `json:"id_card_number,omitempty"`
	Email        string  `json:"email" binding:"required,email"`
	Password     string  `json:"password" binding:"required,min=6"`
	Role         string  `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	BirthDate    *string `json:"birth_date,omitempty"`
	IDCardNumber *string `json:"id_card_number,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type DeactivateUserRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ListUsersQuery struct {
	Skip  int `form:"skip,default=0"`
	Limit int `form:"limit,default=100"`
}

// UserResponse is returned flat (no envelope) by /users/me because the sales
// and stock services decode it directly when resolving identities.
type UserResponse struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	BirthDate    *string   `json:"birth_date,omitempty"`
	IDCardNumber *string   `json:"id_card_number,omitempty"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func userToResponse(user models.User) UserResponse {
	var birthDate *string
	if user.BirthDate != nil {
		s := user.BirthDate.Format(birthDateLayout)
		birthDate = &s
	}

	return UserResponse{
		ID:           user.ID,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		BirthDate:    birthDate,
		IDCardNumber: user.IDCardNumber,
		Email:        user.Email,
		Role:         user.Role,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
	}
}

func parseBirthDate(value string) (time.Time, string) {
	birthDate, err := time.Parse(birthDateLayout, value)
	if err != nil {
		return time.Time{}, "Invalid birth date format, expected YYYY-MM-DD"
	}
	if birthDate.After(time.Now()) {
		return time.Time{}, "Birth date cannot be in the future"
	}
	return birthDate, ""
}

func isDuplicateKeyError(err error) bool {
	return err == gorm.ErrDuplicatedKey ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// --- User Management ---

func (h *AuthHandler) CreateUser(c *gin.Context) {
	if _, ok := h.requireRoles(c, models.RoleAdmin); !ok {
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid role: must be admin, manager or cashier"))
		return
	}

	birthDate, msg := parseBirthDate(req.BirthDate)
	if msg != "" {
		c.JSON(http.StatusBadRequest, errorResponse(msg))
		return
	}

	var existing models.User
	if err := h.db.Where("email = ?", req.Email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, errorResponse("Email already in use"))
		return
	} else if err != gorm.ErrRecordNotFound {
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("password hashing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error hashing password"))
		return
	}

	user := models.User{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		BirthDate:      &birthDate,
		IDCardNumber:   req.IDCardNumber,
		Email:          req.Email,
		HashedPassword: string(pwHash),
		Role:           req.Role,
		IsActive:       true,
	}

	if err := h.db.Create(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Email already in use"))
			return
		}
		h.logger.Error("user creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error creating user"))
		return
	}

	h.logger.Info("user created", zap.Int64("user_id", user.ID), zap.String("role", user.Role))

	c.JSON(http.StatusCreated, successResponse("User created successfully", userToResponse(user)))
}

func (h *AuthHandler) Me(c *gin.Context) {
	ident, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("Could not validate credentials"))
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", ident.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		h.logger.Error("me lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

func (h *AuthHandler) GetUser(c *gin.Context) {
	if _, ok := h.requireRoles(c, models.RoleAdmin, models.RoleManager); !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid user ID"))
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	c.JSON(http.StatusOK, successResponse("User retrieved successfully", userToResponse(user)))
}

func (h *AuthHandler) ListUsers(c *gin.Context) {
	if _, ok := h.requireRoles(c, models.RoleAdmin, models.RoleManager); !ok {
		return
	}

	var query ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid query parameters"))
		return
	}

	var total int64
	if err := h.db.Model(&models.User{}).Count(&total).Error; err != nil {
		h.logger.Error("user count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	var users []models.User
	if err := h.db.Offset(query.Skip).Limit(query.Limit).Order("id").Find(&users).Error; err != nil {
		h.logger.Error("user list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = userToResponse(u)
	}

	c.JSON(http.StatusOK, successWithMetaResponse("Users retrieved successfully", out, gin.H{
		"skip":  query.Skip,
		"limit": query.Limit,
		"total": total,
	}))
}

func (h *AuthHandler) UpdateUser(c *gin.Context) {
	if _, ok := h.requireRoles(c, models.RoleAdmin); !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid user ID"))
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.BirthDate != nil {
		birthDate, msg := parseBirthDate(*req.BirthDate)
		if msg != "" {
			c.JSON(http.StatusBadRequest, errorResponse(msg))
			return
		}
		user.BirthDate = &birthDate
	}
	if req.IDCardNumber != nil {
		user.IDCardNumber = req.IDCardNumber
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, errorResponse("Invalid role: must be admin, manager or cashier"))
			return
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := h.db.Save(&user).Error; err != nil {
		if isDuplicateKeyError(err) {
			c.JSON(http.StatusConflict, errorResponse("Email already in use"))
			return
		}
		h.logger.Error("user update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error updating user"))
		return
	}

	c.JSON(http.StatusOK, successResponse("User updated successfully", userToResponse(user)))
}

func (h *AuthHandler) DeactivateUser(c *gin.Context) {
	ident, ok := h.requireRoles(c, models.RoleAdmin)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid user ID"))
		return
	}

	if userID == ident.ID {
		c.JSON(http.StatusBadRequest, errorResponse("You cannot deactivate your own account"))
		return
	}

	var req DeactivateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Deactivation reason is required"))
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, errorResponse("User not found"))
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	user.IsActive = false
	user.DeactivationReason = &req.Reason

	if err := h.db.Save(&user).Error; err != nil {
		h.logger.Error("user deactivation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error deactivating user"))
		return
	}

	h.logger.Info("user deactivated",
		zap.Int64("user_id", user.ID),
		zap.Int64("by", ident.ID),
		zap.String("reason", req.Reason))

	c.JSON(http.StatusOK, successResponse("User deactivated successfully", userToResponse(user)))
}

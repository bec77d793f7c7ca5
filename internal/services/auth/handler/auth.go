package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"ventra-pos/config"
	"ventra-pos/internal/database/models"
	"ventra-pos/internal/identity"
	"ventra-pos/internal/middleware"
	"ventra-pos/internal/utils"
)

type AuthHandler struct {
	db     *gorm.DB
	logger *zap.Logger
	jwt    config.JWTConfig
}

func NewAuthHandler(db *gorm.DB, logger *zap.Logger, jwt config.JWTConfig) *AuthHandler {
	return &AuthHandler{
		db:     db,
		logger: logger,
		jwt:    jwt,
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

func (h *AuthHandler) requireRoles(c *gin.Context, roles ...string) (identity.Identity, bool) {
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

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login issues a bearer token for an active account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("Invalid request format"))
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
			return
		}
		h.logger.Error("login lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Database error"))
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, errorResponse("Invalid email or password"))
		return
	}

	token, _, err := utils.GenerateToken([]byte(h.jwt.Secret), user.ID, user.Email, user.Role, h.jwt.TokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse("Error generating token"))
		return
	}

	h.logger.Info("login successful", zap.Int64("user_id", user.ID), zap.String("role", user.Role))

	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// EnsureAdmin creates the first admin account if none exists yet.
func (h *AuthHandler) EnsureAdmin(admin config.AdminConfig) error {
	var existing models.User
	err := h.db.Where("role = ?", models.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	birthDate := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	bootstrap := models.User{
		FirstName:      "Admin",
		LastName:       "User",
		BirthDate:      &birthDate,
		Email:          admin.Email,
		HashedPassword: string(pwHash),
		Role:           models.RoleAdmin,
		IsActive:       true,
	}

	if err := h.db.Create(&bootstrap).Error; err != nil {
		return err
	}

	h.logger.Info("bootstrap admin created", zap.String("email", bootstrap.Email))
	return nil
}

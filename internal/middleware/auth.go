package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"ventra-pos/internal/identity"
	"ventra-pos/internal/utils"
)

const identityKey = "identity"

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// JWTAuth validates the bearer token locally. Only the auth service holds the
// signing secret, so only it uses this middleware.
func JWTAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Could not validate credentials",
			})
			return
		}

		claims, err := utils.ParseToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Could not validate credentials",
			})
			return
		}

		c.Set(identityKey, identity.Identity{
			ID:    claims.UserId,
			Email: claims.Email,
			Role:  claims.Role,
		})
		c.Next()
	}
}

// RemoteAuth resolves the bearer token against the auth service. The sales
// and stock services use this; they never see the signing secret.
func RemoteAuth(client *identity.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Could not validate credentials",
			})
			return
		}

		ident, err := client.Resolve(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrUnauthorized):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"success": false,
					"message": "Invalid authentication credentials",
				})
			case errors.Is(err, identity.ErrUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"success": false,
					"message": "Authentication service is unavailable",
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Error fetching user information",
				})
			}
			return
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

// CurrentIdentity returns the identity stored by JWTAuth or RemoteAuth.
func CurrentIdentity(c *gin.Context) (identity.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return identity.Identity{}, false
	}
	ident, ok := v.(identity.Identity)
	return ident, ok
}

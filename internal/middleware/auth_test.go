package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ventra-pos/internal/identity"
	"ventra-pos/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/ping", mw, func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, ident)
	})
	return r
}

func TestJWTAuthOK(t *testing.T) {
	secret := []byte("s3cret")
	token, _, err := utils.GenerateToken(secret, 9, "admin@ventra.local", "admin", time.Hour)
	require.NoError(t, err)

	r := protectedRouter(JWTAuth(secret))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ident identity.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ident))
	assert.Equal(t, identity.Identity{ID: 9, Email: "admin@ventra.local", Role: "admin"}, ident)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	r := protectedRouter(JWTAuth([]byte("s3cret")))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthBadToken(t *testing.T) {
	r := protectedRouter(JWTAuth([]byte("s3cret")))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRemoteAuthOK(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(identity.Identity{ID: 3, Email: "m@ventra.local", Role: "manager"})
	}))
	defer authServer.Close()

	client := identity.NewClient(authServer.URL, 2*time.Second, zaptest.NewLogger(t))
	r := protectedRouter(RemoteAuth(client))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer remote-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var ident identity.Identity
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ident))
	assert.Equal(t, "manager", ident.Role)
}

func TestRemoteAuthUnauthorized(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer authServer.Close()

	client := identity.NewClient(authServer.URL, 2*time.Second, zaptest.NewLogger(t))
	r := protectedRouter(RemoteAuth(client))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRemoteAuthServiceDown(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	authServer.Close()

	client := identity.NewClient(authServer.URL, time.Second, zaptest.NewLogger(t))
	r := protectedRouter(RemoteAuth(client))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer any")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestResolveOK(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer some-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    int64(7),
			"email": "cashier@ventra.local",
			"role":  "cashier",
		})
	}))
	defer authServer.Close()

	client := NewClient(authServer.URL, 2*time.Second, zaptest.NewLogger(t))

	ident, err := client.Resolve(context.Background(), "some-token")
	require.NoError(t, err)
	assert.Equal(t, Identity{ID: 7, Email: "cashier@ventra.local", Role: "cashier"}, ident)
}

func TestResolveUnauthorized(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer authServer.Close()

	client := NewClient(authServer.URL, 2*time.Second, zaptest.NewLogger(t))

	_, err := client.Resolve(context.Background(), "expired-token")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestResolveUnavailable(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	authServer.Close() // connection refused from here on

	client := NewClient(authServer.URL, time.Second, zaptest.NewLogger(t))

	_, err := client.Resolve(context.Background(), "some-token")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestResolveUnexpectedStatus(t *testing.T) {
	authServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer authServer.Close()

	client := NewClient(authServer.URL, 2*time.Second, zaptest.NewLogger(t))

	_, err := client.Resolve(context.Background(), "some-token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestAllowed(t *testing.T) {
	ident := Identity{ID: 1, Role: "manager"}
	assert.True(t, ident.Allowed("admin", "manager", "cashier"))
	assert.True(t, ident.Allowed("manager"))
	assert.False(t, ident.Allowed("admin"))
	assert.False(t, ident.Allowed())
}

package identity

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

func NewClient(authServiceURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(authServiceURL).
			SetTimeout(timeout),
		logger: logger,
	}
}

// Resolve fetches the identity bound to the token from the auth service's
// /users/me endpoint. The call is synchronous; an unreachable auth service
// fails the whole request with ErrUnavailable.
func (c *Client) Resolve(ctx context.Context, token string) (Identity, error) {
	var ident Identity

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&ident).
		Get("/users/me")
	if err != nil {
		c.logger.Warn("auth service unreachable", zap.Error(err))
		return Identity{}, ErrUnavailable
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return ident, nil
	case http.StatusUnauthorized:
		return Identity{}, ErrUnauthorized
	default:
		c.logger.Error("unexpected status from auth service",
			zap.Int("status", resp.StatusCode()))
		return Identity{}, fmt.Errorf("error fetching user information: status %d", resp.StatusCode())
	}
}

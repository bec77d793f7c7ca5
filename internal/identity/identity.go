// Package identity resolves the acting user behind a bearer token. The sales
// and stock services never decode tokens themselves; they forward the token to
// the auth service and work with the typed identity it returns.
package identity

import "errors"

var (
	ErrUnauthorized = errors.New("invalid authentication credentials")
	ErrUnavailable  = errors.New("authentication service is unavailable")
)

type Identity struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Allowed reports whether the identity's role is in the allow-list.
func (i Identity) Allowed(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

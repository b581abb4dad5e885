package auth

import (
	"context"
	"net/http"
	"strings"
)

type RoleLookup interface {
	Role(ctx context.Context, userID string) (Role, error)
}

type Middleware struct {
	Verifier *Verifier
	Profiles RoleLookup
}

func (m *Middleware) user(r *http.Request) (User, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return User{}, ErrAuthRequired
	}
	u, err := m.Verifier.Verify(strings.TrimPrefix(h, "Bearer "))
	if err != nil {
		return User{}, err
	}
	role, err := m.Profiles.Role(r.Context(), u.ID)
	if err != nil {
		return User{}, err
	}
	u.Role = role
	return u, nil
}

// RequireUser rejects unauthenticated requests with 401 and a hint to log
// in; there is no silent pass-through.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.user(r)
		if err != nil {
			http.Error(w, `{"error":"authentication required","login":true}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin additionally gates on the admin role. Customers must not be
// able to reach catalog mutation or the stock editor.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.user(r)
		if err != nil {
			http.Error(w, `{"error":"authentication required","login":true}`, http.StatusUnauthorized)
			return
		}
		if u.Role != RoleAdmin {
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

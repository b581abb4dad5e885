// Package auth is the boundary to the external auth provider. The provider
// owns sign-in, token storage, refresh and recovery; this side only
// verifies the tokens it mints and maps users onto roles from the profiles
// table.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Role string

const (
	RoleGuest    Role = "guest"
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

type User struct {
	ID            string
	Email         string
	EmailVerified bool
	Role          Role
}

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrForbidden    = errors.New("insufficient role")
)

type Verifier struct {
	Secret []byte
	Issuer string
}

type providerClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	jwt.RegisteredClaims
}

// Verify checks signature, expiry and issuer and extracts the user. Role
// is not in the token; callers attach it from profiles.
func (v *Verifier) Verify(token string) (User, error) {
	var claims providerClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.Secret, nil
	}, jwt.WithIssuer(v.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}
	if claims.Subject == "" {
		return User{}, fmt.Errorf("%w: token has no subject", ErrAuthRequired)
	}
	return User{ID: claims.Subject, Email: claims.Email, EmailVerified: claims.EmailVerified}, nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// CurrentUser returns the authenticated user, or ErrAuthRequired when the
// request carried no valid token.
func CurrentUser(ctx context.Context) (User, error) {
	u, ok := ctx.Value(ctxKey{}).(User)
	if !ok {
		return User{}, ErrAuthRequired
	}
	return u, nil
}

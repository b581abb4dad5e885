package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://auth.test"

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, issuer, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss":            issuer,
		"sub":            sub,
		"email":          "cliente@example.com",
		"email_verified": true,
		"exp":            exp.Unix(),
	})
	s, err := tok.SignedString(secret)
	require.NoError(t, err)
	return s
}

func TestVerify(t *testing.T) {
	v := &Verifier{Secret: testSecret, Issuer: testIssuer}

	u, err := v.Verify(signToken(t, testSecret, testIssuer, "user-1", time.Now().Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "cliente@example.com", u.Email)
	assert.True(t, u.EmailVerified)
}

func TestVerifyRejections(t *testing.T) {
	v := &Verifier{Secret: testSecret, Issuer: testIssuer}

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.Verify(signToken(t, []byte("other"), testIssuer, "u", time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
	t.Run("wrong issuer", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, "https://evil.test", "u", time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
	t.Run("expired", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, testIssuer, "u", time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
	t.Run("no subject", func(t *testing.T) {
		_, err := v.Verify(signToken(t, testSecret, testIssuer, "", time.Now().Add(time.Hour)))
		assert.ErrorIs(t, err, ErrAuthRequired)
	})
}

func TestCurrentUser(t *testing.T) {
	_, err := CurrentUser(context.Background())
	assert.ErrorIs(t, err, ErrAuthRequired)

	ctx := WithUser(context.Background(), User{ID: "user-1", Role: RoleCustomer})
	u, err := CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, RoleCustomer, u.Role)
}

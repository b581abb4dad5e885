package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfilesRepo struct{ DB *pgxpool.Pool }

// Role looks up the user's role. Users without a profile row are guests.
func (r *ProfilesRepo) Role(ctx context.Context, userID string) (Role, error) {
	var role string
	err := r.DB.QueryRow(ctx,
		`SELECT role FROM profiles WHERE user_id=$1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return RoleGuest, nil
	}
	if err != nil {
		return "", err
	}
	switch Role(role) {
	case RoleCustomer, RoleAdmin:
		return Role(role), nil
	}
	return RoleGuest, nil
}

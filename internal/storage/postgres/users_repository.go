package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// EnsureAdmin inserts the operator bootstrap user if no user with that
// email exists yet. Returns true when a row was created.
func (r *UserRepository) EnsureAdmin(ctx context.Context, id, name, email, passwordHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
INSERT INTO users (id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, 'admin')
ON CONFLICT (email) DO NOTHING`,
		id, name, email, passwordHash)
	if err != nil {
		return false, fmt.Errorf("ensure admin user: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

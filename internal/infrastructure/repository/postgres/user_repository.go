package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/place-archive/internal/core/domain"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindUserByPasswordHash(ctx context.Context, hash string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, password_hash, created_at
FROM users
WHERE password_hash = $1
`, hash)

	var user domain.User
	if err := row.Scan(&user.ID, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "find user", err)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, user *domain.User) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, password_hash, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (password_hash) DO NOTHING
`, user.ID, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert user rows affected: %w", err)
	}
	return rows == 1, nil
}

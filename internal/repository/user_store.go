package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"studyflow/internal/models"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, username, password, display_name, created_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// Create inserts a user. A taken username yields ErrDuplicate.
func (s *UserStore) Create(ctx context.Context, username, password, displayName string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, `
		INSERT INTO users (username, password, display_name)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		username, password, displayName,
	)
	if err != nil {
		if pqCode(err) == uniqueViolation {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (s *UserStore) FindByID(ctx context.Context, id int) (models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg interface{}) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("finding user: %w", err)
	}
	return user, nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/taskmaster/routine/internal/domain/entities"
	"github.com/taskmaster/routine/internal/infrastructure/database"
	"github.com/taskmaster/routine/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	user.CreatedAt = stamp(user.CreatedAt)

	_, err := r.db.DB.NamedExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (:id, :email, :password_hash, :created_at)`, user)
	if err != nil {
		if isUniqueViolation(err) {
			return &entities.ConflictError{Entity: "user", Message: fmt.Sprintf("email %q is already registered", user.Email)}
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	query := r.db.DB.Rebind(`
		SELECT id, email, password_hash, created_at
		FROM users
		WHERE email = ?`)

	var user entities.User
	err := r.db.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &entities.NotFoundError{Entity: "user", ID: email}
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

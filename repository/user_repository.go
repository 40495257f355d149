package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"audioarchive/model"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
// There is no credential to manage: accounts are keyed by email and
// come into existence on the first verified sign-in link.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetOrCreateByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id int64) error
}

// gormUserRepository implements UserRepository with GORM.
type gormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new gormUserRepository.
func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// GetByID retrieves a user by their ID. Returns (nil, nil) when no user
// exists.
func (r *gormUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID %d: %w", id, err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email. Returns (nil, nil) when no user
// exists.
func (r *gormUserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// GetOrCreateByEmail finds the account for email, creating it if this
// is the first time the address signs in.
func (r *gormUserRepository) GetOrCreateByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where(model.User{Email: email}).FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get or create user %s: %w", email, err)
	}
	return &user, nil
}

// TouchLastLogin stamps the user's last successful sign-in.
func (r *gormUserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("last_login_at", &now).Error
	if err != nil {
		return fmt.Errorf("failed to update last login for user %d: %w", id, err)
	}
	return nil
}

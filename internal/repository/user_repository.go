package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/omnivet/vetpms/internal/models"
)

// UserRepository handles user records in the tenant database
type UserRepository struct{}

// NewUserRepository creates a user repository
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

// ByEmail retrieves a user by email
func (r *UserRepository) ByEmail(ctx context.Context, email string) (*models.User, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db.Where("email = ?", strings.ToLower(email)).First(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &u, nil
}

// ByID retrieves a user by id
func (r *UserRepository) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	var u models.User
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Create inserts a user
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	u.Email = strings.ToLower(u.Email)
	if err := db.Create(u).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update saves a user
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	db, err := tenantDB(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(u).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// List returns users, optionally scoped to a practice
func (r *UserRepository) List(ctx context.Context, practiceID *uuid.UUID) ([]models.User, error) {
	db, err := tenantDB(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("last_name ASC, first_name ASC")
	if practiceID != nil {
		q = q.Where("practice_id = ?", *practiceID)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

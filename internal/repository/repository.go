package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateCreditor creates a new creditor in the database
func (r *Repository) CreateCreditor(ctx context.Context, creditor *models.Creditor) error {
	query := `
		INSERT INTO creditors (name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, creditor.Name, creditor.Email, creditor.PasswordHash).
		Scan(&creditor.ID, &creditor.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create creditor: %w", err)
	}
	return nil
}

// FindCreditorByEmail retrieves a creditor by email
func (r *Repository) FindCreditorByEmail(ctx context.Context, email string) (*models.Creditor, error) {
	creditor := &models.Creditor{}
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM creditors
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&creditor.ID, &creditor.Name, &creditor.Email, &creditor.PasswordHash, &creditor.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "creditor", Key: email}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find creditor: %w", err)
	}
	return creditor, nil
}

// FindCreditorByID retrieves a creditor by id
func (r *Repository) FindCreditorByID(ctx context.Context, id int64) (*models.Creditor, error) {
	creditor := &models.Creditor{}
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM creditors
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&creditor.ID, &creditor.Name, &creditor.Email, &creditor.PasswordHash, &creditor.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "creditor", Key: fmt.Sprintf("%d", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find creditor: %w", err)
	}
	return creditor, nil
}

// FindCategoryByKey retrieves a category by its canonical key
func (r *Repository) FindCategoryByKey(ctx context.Context, key string) (*models.Category, error) {
	category := &models.Category{}
	query := `SELECT id, key FROM categories WHERE key = $1`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&category.ID, &category.Key)
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "category", Key: key}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}
	return category, nil
}

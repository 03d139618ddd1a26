package repository

import (
	"context"
	"fmt"

	"github.com/skolos/debt-service/internal/models"
)

// UpsertDebtorByName inserts a debtor or, if one already exists with the
// same (first name, last name), overwrites its contact fields with the
// incoming values. Last write wins. Concurrent uploads are safe because the
// upsert is driven by the unique constraint, not application locks.
func (r *Repository) UpsertDebtorByName(ctx context.Context, debtor *models.Debtor) error {
	query := `
		INSERT INTO debtors (first_name, last_name, email, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (first_name, last_name)
		DO UPDATE SET email = EXCLUDED.email, phone = EXCLUDED.phone, updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, debtor.FirstName, debtor.LastName, debtor.Email, debtor.Phone).
		Scan(&debtor.ID, &debtor.CreatedAt, &debtor.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert debtor: %w", err)
	}
	return nil
}

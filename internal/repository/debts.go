package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/models"
)

const debtColumns = `id, creditor_id, debtor_id, category_id, amount_owed, late_interest_rate,
		outstanding_balance, due_date, status, reminder_sent, created_at, updated_at`

func scanDebt(row interface{ Scan(...any) error }) (*models.Debt, error) {
	debt := &models.Debt{}
	err := row.Scan(
		&debt.ID, &debt.CreditorID, &debt.DebtorID, &debt.CategoryID,
		&debt.AmountOwed, &debt.LateInterestRate, &debt.OutstandingBalance,
		&debt.DueDate, &debt.Status, &debt.ReminderSent,
		&debt.CreatedAt, &debt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return debt, nil
}

// FindDebtByNaturalKey looks up a debt by the five-way natural key used for
// deduplication: owner, exact amount, exact due timestamp, category, and
// the linked debtor's full name.
func (r *Repository) FindDebtByNaturalKey(ctx context.Context, creditorID int64, amount decimal.Decimal,
	dueDate time.Time, categoryID int64, firstName, lastName string) (*models.Debt, error) {
	query := `
		SELECT d.id, d.creditor_id, d.debtor_id, d.category_id, d.amount_owed, d.late_interest_rate,
		       d.outstanding_balance, d.due_date, d.status, d.reminder_sent, d.created_at, d.updated_at
		FROM debts d
		JOIN debtors p ON p.id = d.debtor_id
		WHERE d.creditor_id = $1
		  AND d.amount_owed = $2
		  AND d.due_date = $3
		  AND d.category_id = $4
		  AND p.first_name = $5
		  AND p.last_name = $6`
	debt, err := scanDebt(r.db.QueryRowContext(ctx, query, creditorID, amount, dueDate, categoryID, firstName, lastName))
	if err == sql.ErrNoRows {
		return nil, &apperrors.NotFoundError{Entity: "debt", Key: fmt.Sprintf("%s %s/%s", firstName, lastName, amount)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find debt by natural key: %w", err)
	}
	return debt, nil
}

// UpsertDebt persists a debt record. Records carrying an id are updated in
// place; new records are inserted, with the natural-key unique index
// resolving duplicate deliveries into an update. The operation is idempotent
// per identity so the consumer may safely process redeliveries.
func (r *Repository) UpsertDebt(ctx context.Context, debt *models.Debt) error {
	if debt.ID != 0 {
		query := `
			UPDATE debts
			SET amount_owed = $2, late_interest_rate = $3, due_date = $4, category_id = $5,
			    status = $6, reminder_sent = $7, outstanding_balance = $8, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1
			RETURNING updated_at`
		err := r.db.QueryRowContext(ctx, query,
			debt.ID, debt.AmountOwed, debt.LateInterestRate, debt.DueDate, debt.CategoryID,
			debt.Status, debt.ReminderSent, debt.OutstandingBalance).
			Scan(&debt.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to update debt %d: %w", debt.ID, err)
		}
		return nil
	}

	query := `
		INSERT INTO debts (creditor_id, debtor_id, category_id, amount_owed, late_interest_rate,
			outstanding_balance, due_date, status, reminder_sent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT (creditor_id, debtor_id, category_id, amount_owed, due_date)
		DO UPDATE SET late_interest_rate = EXCLUDED.late_interest_rate, updated_at = CURRENT_TIMESTAMP
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		debt.CreditorID, debt.DebtorID, debt.CategoryID, debt.AmountOwed, debt.LateInterestRate,
		debt.OutstandingBalance, debt.DueDate, debt.Status, debt.ReminderSent).
		Scan(&debt.ID, &debt.CreatedAt, &debt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert debt: %w", err)
	}
	return nil
}

// OverdueOpenDebts returns every debt whose due date is on or before asOf
// and whose status is not CLOSED.
func (r *Repository) OverdueOpenDebts(ctx context.Context, asOf time.Time) ([]models.Debt, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM debts
		WHERE due_date <= $1 AND status <> $2
		ORDER BY id`, debtColumns)
	rows, err := r.db.QueryContext(ctx, query, asOf, models.StatusClosed)
	if err != nil {
		return nil, fmt.Errorf("failed to scan overdue debts: %w", err)
	}
	defer rows.Close()

	var debts []models.Debt
	for rows.Next() {
		debt, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overdue debt row: %w", err)
		}
		debts = append(debts, *debt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate overdue debts: %w", err)
	}
	return debts, nil
}

// UpdateOutstanding persists a recomputed outstanding balance
func (r *Repository) UpdateOutstanding(ctx context.Context, id int64, balance decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE debts SET outstanding_balance = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`,
		id, balance)
	if err != nil {
		return fmt.Errorf("failed to update outstanding balance for debt %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &apperrors.NotFoundError{Entity: "debt", Key: fmt.Sprintf("%d", id)}
	}
	return nil
}

// PendingReminderDebts returns NEW, not-yet-reminded debts joined with the
// debtor's contact details.
func (r *Repository) PendingReminderDebts(ctx context.Context) ([]models.PendingReminder, error) {
	query := `
		SELECT d.id, p.first_name, p.last_name, p.email, d.amount_owed, d.outstanding_balance, d.due_date
		FROM debts d
		JOIN debtors p ON p.id = d.debtor_id
		WHERE d.status = $1 AND NOT d.reminder_sent
		ORDER BY d.id`
	rows, err := r.db.QueryContext(ctx, query, models.StatusNew)
	if err != nil {
		return nil, fmt.Errorf("failed to scan pending reminders: %w", err)
	}
	defer rows.Close()

	var reminders []models.PendingReminder
	for rows.Next() {
		var rem models.PendingReminder
		if err := rows.Scan(&rem.DebtID, &rem.DebtorFirstName, &rem.DebtorLastName, &rem.DebtorEmail,
			&rem.AmountOwed, &rem.OutstandingBalance, &rem.DueDate); err != nil {
			return nil, fmt.Errorf("failed to scan pending reminder row: %w", err)
		}
		reminders = append(reminders, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pending reminders: %w", err)
	}
	return reminders, nil
}

// MarkReminderSent flips the sent flag after a successful dispatch.
// The flag is never cleared here; that belongs to an external lifecycle
// transition such as payment or renewal.
func (r *Repository) MarkReminderSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE debts SET reminder_sent = TRUE, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent for debt %d: %w", id, err)
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/models"
)

// NaturalKey is the composite substitute identity of a debt line. The
// upstream exports carry no stable external id, so the five-way exact match
// is the best available idempotency key for re-uploads.
type NaturalKey struct {
	CreditorID      int64
	Amount          decimal.Decimal
	DueDate         time.Time
	CategoryID      int64
	DebtorFirstName string
	DebtorLastName  string
}

// Equal reports whether two keys identify the same debt line. Amounts
// compare by exact fixed-point value, never floating approximation; due
// dates compare by exact timestamp. A change in upstream date granularity
// therefore fails to match and duplicates the record.
func (k NaturalKey) Equal(other NaturalKey) bool {
	return k.CreditorID == other.CreditorID &&
		k.CategoryID == other.CategoryID &&
		k.Amount.Equal(other.Amount) &&
		k.DueDate.Equal(other.DueDate) &&
		k.DebtorFirstName == other.DebtorFirstName &&
		k.DebtorLastName == other.DebtorLastName
}

// Matcher decides whether an imported row represents an existing debt record
type Matcher struct {
	store Store
}

// NewMatcher initializes a new matcher over the given store
func NewMatcher(store Store) *Matcher {
	return &Matcher{store: store}
}

// Match returns the existing debt for the key, if any. A miss is not an
// error; the caller treats it as "create new".
func (m *Matcher) Match(ctx context.Context, key NaturalKey) (*models.Debt, bool, error) {
	debt, err := m.store.FindDebtByNaturalKey(ctx, key.CreditorID, key.Amount, key.DueDate,
		key.CategoryID, key.DebtorFirstName, key.DebtorLastName)
	if apperrors.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return debt, true, nil
}

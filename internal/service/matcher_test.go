package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skolos/debt-service/internal/models"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestNaturalKeyEqual(t *testing.T) {
	due := time.Date(2024, 12, 12, 23, 0, 0, 0, time.UTC)
	base := NaturalKey{
		CreditorID:      1,
		Amount:          decimal.RequireFromString("84.35"),
		DueDate:         due,
		CategoryID:      2,
		DebtorFirstName: "Tadas",
		DebtorLastName:  "Tadaitis",
	}

	tests := []struct {
		name     string
		other    NaturalKey
		expected bool
	}{
		{
			name:     "identical key matches",
			other:    base,
			expected: true,
		},
		{
			name: "same amount at different precision matches exactly",
			other: func() NaturalKey {
				k := base
				k.Amount = decimal.RequireFromString("84.350")
				return k
			}(),
			expected: true,
		},
		{
			name: "amount off by a cent does not match",
			other: func() NaturalKey {
				k := base
				k.Amount = decimal.RequireFromString("84.36")
				return k
			}(),
			expected: false,
		},
		{
			name: "timestamp differing by one second does not match",
			other: func() NaturalKey {
				k := base
				k.DueDate = due.Add(time.Second)
				return k
			}(),
			expected: false,
		},
		{
			name: "same instant in another zone matches",
			other: func() NaturalKey {
				k := base
				k.DueDate = due.In(time.FixedZone("EET", 2*60*60))
				return k
			}(),
			expected: true,
		},
		{
			name: "different debtor surname does not match",
			other: func() NaturalKey {
				k := base
				k.DebtorLastName = "Tadaite"
				return k
			}(),
			expected: false,
		},
		{
			name: "different category does not match",
			other: func() NaturalKey {
				k := base
				k.CategoryID = 3
				return k
			}(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, base.Equal(tt.other))
			assert.Equal(t, tt.expected, tt.other.Equal(base))
		})
	}
}

func TestMatcherMatch(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.creditors[1] = &models.Creditor{ID: 1, Email: "c@x.com"}

	debtor := &models.Debtor{FirstName: "Tadas", LastName: "Tadaitis"}
	require.NoError(t, store.UpsertDebtorByName(ctx, debtor))

	due := time.Date(2024, 12, 12, 23, 0, 0, 0, time.UTC)
	store.debts = append(store.debts, models.Debt{
		ID:         7,
		CreditorID: 1,
		DebtorID:   debtor.ID,
		CategoryID: 2,
		AmountOwed: mustDecimal(t, "84.35"),
		DueDate:    due,
		Status:     models.StatusNew,
	})

	matcher := NewMatcher(store)

	key := NaturalKey{
		CreditorID:      1,
		Amount:          mustDecimal(t, "84.35"),
		DueDate:         due,
		CategoryID:      2,
		DebtorFirstName: "Tadas",
		DebtorLastName:  "Tadaitis",
	}

	debt, found, err := matcher.Match(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(7), debt.ID)

	// a miss is not an error; the caller creates a new record
	key.DueDate = due.Add(time.Minute)
	debt, found, err = matcher.Match(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, debt)
}

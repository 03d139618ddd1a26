package scheduler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// AccrualStore is the persistence surface the accrual job needs
type AccrualStore interface {
	OverdueOpenDebts(ctx context.Context, asOf time.Time) ([]models.Debt, error)
	UpdateOutstanding(ctx context.Context, id int64, balance decimal.Decimal) error
}

// AccrualJob recomputes outstanding balances for overdue open debts on a
// daily cadence. It accumulates interest without capping the balance or
// closing records; closing is an external lifecycle transition.
type AccrualJob struct {
	store AccrualStore
	log   *logrus.Logger
}

// NewAccrualJob initializes a new accrual job
func NewAccrualJob(store AccrualStore, log *logrus.Logger) *AccrualJob {
	return &AccrualJob{store: store, log: log}
}

// Run implements cron.Job
func (j *AccrualJob) Run() {
	j.run(context.Background(), time.Now())
}

func (j *AccrualJob) run(ctx context.Context, now time.Time) {
	// overdue means due on or before "now" at day granularity
	asOf := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	debts, err := j.store.OverdueOpenDebts(ctx, asOf)
	if err != nil {
		j.log.Errorf("Accrual scan failed: %v", err)
		return
	}

	updated := 0
	for _, debt := range debts {
		next := accrue(debt)
		current := currentBalance(debt)
		if next.Equal(current) {
			continue
		}
		if err := j.store.UpdateOutstanding(ctx, debt.ID, next); err != nil {
			// one bad record must not block accrual for the rest
			j.log.Errorf("Failed to accrue interest on debt %d: %v", debt.ID, err)
			continue
		}
		updated++
	}

	j.log.WithFields(logrus.Fields{
		"overdue": len(debts),
		"updated": updated,
	}).Info("Accrual run complete")
}

// accrue computes the new outstanding balance for one period:
// balance + amount * rate / 100, rounded half-up to the currency's minor
// unit once at the end of the computation so repeated runs do not drift.
func accrue(debt models.Debt) decimal.Decimal {
	interest := debt.AmountOwed.Mul(debt.LateInterestRate).Div(oneHundred)
	return currentBalance(debt).Add(interest).Round(2)
}

// currentBalance treats a never-accrued (null) balance as zero
func currentBalance(debt models.Debt) decimal.Decimal {
	if debt.OutstandingBalance.Valid {
		return debt.OutstandingBalance.Decimal
	}
	return decimal.Zero
}

package scheduler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/models"
)

// NotifyStore is the persistence surface the notification job needs
type NotifyStore interface {
	PendingReminderDebts(ctx context.Context) ([]models.PendingReminder, error)
	MarkReminderSent(ctx context.Context, id int64) error
}

// Mailer dispatches one reminder message
type Mailer interface {
	SendDebtReminder(to, debtorName string, outstanding decimal.Decimal, dueDate time.Time) error
}

// NotificationJob scans NEW, not-yet-reminded debts every cadence tick and
// dispatches a reminder when either date-window condition holds. The sent
// flag guarantees at most one reminder per record until an external
// lifecycle transition clears it.
type NotificationJob struct {
	store      NotifyStore
	mailer     Mailer
	windowDays int
	monthlyDay int
	log        *logrus.Logger
}

// NewNotificationJob initializes a new notification job
func NewNotificationJob(store NotifyStore, mailer Mailer, windowDays, monthlyDay int, log *logrus.Logger) *NotificationJob {
	return &NotificationJob{
		store:      store,
		mailer:     mailer,
		windowDays: windowDays,
		monthlyDay: monthlyDay,
		log:        log,
	}
}

// Run implements cron.Job
func (j *NotificationJob) Run() {
	j.run(context.Background(), time.Now())
}

func (j *NotificationJob) run(ctx context.Context, now time.Time) {
	pending, err := j.store.PendingReminderDebts(ctx)
	if err != nil {
		j.log.Errorf("Reminder scan failed: %v", err)
		return
	}

	sent := 0
	for _, rem := range pending {
		if !j.shouldRemind(rem, now) {
			continue
		}

		outstanding := rem.AmountOwed
		if rem.OutstandingBalance.Valid && !rem.OutstandingBalance.Decimal.IsZero() {
			outstanding = rem.OutstandingBalance.Decimal
		}
		name := rem.DebtorFirstName + " " + rem.DebtorLastName

		if err := j.mailer.SendDebtReminder(rem.DebtorEmail, name, outstanding, rem.DueDate); err != nil {
			// leave the flag unset so the next run retries this record
			j.log.Errorf("Failed to send reminder for debt %d: %v", rem.DebtID, err)
			continue
		}
		if err := j.store.MarkReminderSent(ctx, rem.DebtID); err != nil {
			j.log.Errorf("Failed to mark reminder sent for debt %d: %v", rem.DebtID, err)
			continue
		}
		sent++
	}

	if sent > 0 {
		j.log.WithFields(logrus.Fields{
			"pending": len(pending),
			"sent":    sent,
		}).Info("Reminder run complete")
	}
}

// shouldRemind evaluates the two independent trigger conditions: a due date
// strictly inside the upcoming window (both boundaries excluded), or "now"
// falling on the configured day of month.
func (j *NotificationJob) shouldRemind(rem models.PendingReminder, now time.Time) bool {
	windowEnd := now.Add(time.Duration(j.windowDays) * 24 * time.Hour)
	dueSoon := rem.DueDate.After(now) && rem.DueDate.Before(windowEnd)
	monthly := now.Day() == j.monthlyDay
	return dueSoon || monthly
}

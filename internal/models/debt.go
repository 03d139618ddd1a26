package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DebtStatus is the lifecycle status of a debt record
type DebtStatus string

const (
	StatusNew        DebtStatus = "NEW"
	StatusInProgress DebtStatus = "IN_PROGRESS"
	StatusClosed     DebtStatus = "CLOSED"
)

// Debt represents a single tracked debt obligation between a creditor and a debtor
type Debt struct {
	ID                 int64               `json:"id"`
	CreditorID         int64               `json:"creditor_id"`
	DebtorID           int64               `json:"debtor_id"`
	CategoryID         int64               `json:"category_id"`
	AmountOwed         decimal.Decimal     `json:"amount_owed"`
	LateInterestRate   decimal.Decimal     `json:"late_interest_rate"` // percent per accrual period
	OutstandingBalance decimal.NullDecimal `json:"outstanding_balance"`
	DueDate            time.Time           `json:"due_date"`
	Status             DebtStatus          `json:"status"`
	ReminderSent       bool                `json:"reminder_sent"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// PendingReminder is a debt joined with its debtor's contact details,
// as selected by the notification scheduler.
type PendingReminder struct {
	DebtID             int64
	DebtorFirstName    string
	DebtorLastName     string
	DebtorEmail        string
	AmountOwed         decimal.Decimal
	OutstandingBalance decimal.NullDecimal
	DueDate            time.Time
}

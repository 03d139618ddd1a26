package models

import "time"

// Debtor represents the counterparty owing a debt. Debtors are matched by
// (first name, last name) because the upstream exports carry no stable
// identifier; this is a known weak key.
type Debtor struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

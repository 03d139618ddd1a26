package models

// RawImportRow is one line of an uploaded debt file, split into its fixed
// column positions. It is never persisted; numeric and date fields stay as
// text until the ingestion pipeline parses them.
type RawImportRow struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Category     string
	Amount       string
	InterestRate string
	DueDate      string
}

// ImportColumns is the number of columns an import row must have
const ImportColumns = 8

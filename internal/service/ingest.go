package service

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/models"
)

// dueDateLayout is the fixed pattern the upstream export uses
const dueDateLayout = "2006-01-02 15:04:05"

// Ingest processes an uploaded debt file for the given creditor. Rows are
// parsed in file order, reconciled through the matcher, and published to
// the processing topic without waiting for downstream persistence. Any
// malformed cell aborts the remaining file; rows published before the
// failure stay published.
func (s *Service) Ingest(ctx context.Context, filename string, r io.Reader, creditorID int64) error {
	if !strings.EqualFold(filepath.Ext(filename), ".csv") {
		return &apperrors.FormatError{Filename: filename, Expected: "csv"}
	}

	creditor, err := s.store.FindCreditorByID(ctx, creditorID)
	if err != nil {
		return err
	}

	br := bufio.NewReader(r)
	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	s.log.WithFields(logrus.Fields{
		"file":     filename,
		"creditor": creditor.ID,
	}).Info("Starting debt file ingestion")

	line := 0
	published := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return &apperrors.ParseError{Row: line, Field: "line", Value: "", Err: err}
		}
		if line == 1 {
			// header line is ignored
			continue
		}

		row, err := rawRowFromRecord(record, line)
		if err != nil {
			return err
		}
		if err := s.ingestRow(ctx, creditor, row, line); err != nil {
			return err
		}
		published++
	}

	s.log.WithFields(logrus.Fields{
		"file":      filename,
		"creditor":  creditor.ID,
		"published": published,
	}).Info("Debt file ingestion complete")
	return nil
}

// ingestRow reconciles and publishes a single parsed row
func (s *Service) ingestRow(ctx context.Context, creditor *models.Creditor, row models.RawImportRow, line int) error {
	amount, err := parseAmount(row.Amount)
	if err != nil {
		return &apperrors.ParseError{Row: line, Field: "amount", Value: row.Amount, Err: err}
	}

	var rate decimal.Decimal
	if strings.TrimSpace(row.InterestRate) == "" {
		rate = s.defaultInterestRate()
	} else if rate, err = parseAmount(row.InterestRate); err != nil {
		return &apperrors.ParseError{Row: line, Field: "interest_rate", Value: row.InterestRate, Err: err}
	}

	dueDate := time.Now().AddDate(0, 2, 0)
	if strings.TrimSpace(row.DueDate) != "" {
		if dueDate, err = time.Parse(dueDateLayout, strings.TrimSpace(row.DueDate)); err != nil {
			return &apperrors.ParseError{Row: line, Field: "due_date", Value: row.DueDate, Err: err}
		}
	}

	debtor := &models.Debtor{
		FirstName: strings.TrimSpace(row.FirstName),
		LastName:  strings.TrimSpace(row.LastName),
		Email:     strings.TrimSpace(row.Email),
		Phone:     strings.TrimSpace(row.Phone),
	}
	if err := s.store.UpsertDebtorByName(ctx, debtor); err != nil {
		return fmt.Errorf("row %d: %w", line, err)
	}

	category, err := s.resolveCategory(ctx, row.Category)
	if err != nil {
		return fmt.Errorf("row %d: %w", line, err)
	}

	key := NaturalKey{
		CreditorID:      creditor.ID,
		Amount:          amount,
		DueDate:         dueDate,
		CategoryID:      category.ID,
		DebtorFirstName: debtor.FirstName,
		DebtorLastName:  debtor.LastName,
	}
	existing, found, err := s.matcher.Match(ctx, key)
	if err != nil {
		return fmt.Errorf("row %d: %w", line, err)
	}

	now := time.Now()
	var debt models.Debt
	if found {
		debt = *existing
		debt.AmountOwed = amount
		debt.LateInterestRate = rate
		debt.DueDate = dueDate
		debt.UpdatedAt = now
	} else {
		debt = models.Debt{
			CreditorID:         creditor.ID,
			DebtorID:           debtor.ID,
			CategoryID:         category.ID,
			AmountOwed:         amount,
			LateInterestRate:   rate,
			OutstandingBalance: decimal.NewNullDecimal(decimal.Zero),
			DueDate:            dueDate,
			Status:             models.StatusNew,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
	}

	if err := s.publisher.Publish(ctx, debt); err != nil {
		return fmt.Errorf("row %d: failed to publish debt: %w", line, err)
	}
	return nil
}

// resolveCategory maps the normalized key onto the seeded taxonomy, falling
// back to the default category silently when the key is unknown. Imports
// never fail on unrecognized categories.
func (s *Service) resolveCategory(ctx context.Context, text string) (*models.Category, error) {
	key := NormalizeCategory(text)
	category, err := s.store.FindCategoryByKey(ctx, key)
	if apperrors.IsNotFound(err) {
		s.log.Warnf("Unknown debt category %q, falling back to %s", key, DefaultCategoryKey)
		return s.store.FindCategoryByKey(ctx, DefaultCategoryKey)
	}
	return category, err
}

// rawRowFromRecord maps a CSV record onto the fixed column positions
func rawRowFromRecord(record []string, line int) (models.RawImportRow, error) {
	if len(record) < models.ImportColumns {
		return models.RawImportRow{}, &apperrors.ParseError{
			Row:   line,
			Field: "columns",
			Value: fmt.Sprintf("%d", len(record)),
			Err:   fmt.Errorf("expected %d columns", models.ImportColumns),
		}
	}
	return models.RawImportRow{
		FirstName:    record[0],
		LastName:     record[1],
		Email:        record[2],
		Phone:        record[3],
		Category:     record[4],
		Amount:       record[5],
		InterestRate: record[6],
		DueDate:      record[7],
	}, nil
}

// parseAmount parses a fixed-point decimal, accepting a comma decimal
// separator from locale-formatted exports.
func parseAmount(value string) (decimal.Decimal, error) {
	normalized := strings.Replace(strings.TrimSpace(value), ",", ".", 1)
	return decimal.NewFromString(normalized)
}

// sniffDelimiter inspects the header line to decide between semicolon- and
// comma-delimited exports.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(1024)
	header := string(peek)
	if i := strings.IndexByte(header, '\n'); i >= 0 {
		header = header[:i]
	}
	if strings.Contains(header, ";") {
		return ';'
	}
	return ','
}

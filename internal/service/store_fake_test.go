package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/apperrors"
	"github.com/skolos/debt-service/internal/models"
)

// fakeStore is an in-memory Store used by pipeline tests
type fakeStore struct {
	creditors    map[int64]*models.Creditor
	debtors      map[string]*models.Debtor
	categories   map[string]*models.Category
	debts        []models.Debt
	nextDebtorID int64
}

func newFakeStore() *fakeStore {
	s := &fakeStore{
		creditors:  make(map[int64]*models.Creditor),
		debtors:    make(map[string]*models.Debtor),
		categories: make(map[string]*models.Category),
	}
	for i, key := range []string{"DEFAULT_DEBT", "TAX_DEBT", "UTILITY_DEBT", "RENT_DEBT"} {
		s.categories[key] = &models.Category{ID: int64(i + 1), Key: key}
	}
	return s
}

func debtorKey(first, last string) string {
	return first + "|" + last
}

func (s *fakeStore) FindCreditorByID(_ context.Context, id int64) (*models.Creditor, error) {
	creditor, ok := s.creditors[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "creditor", Key: fmt.Sprintf("%d", id)}
	}
	return creditor, nil
}

func (s *fakeStore) FindCreditorByEmail(_ context.Context, email string) (*models.Creditor, error) {
	for _, creditor := range s.creditors {
		if creditor.Email == email {
			return creditor, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "creditor", Key: email}
}

func (s *fakeStore) CreateCreditor(_ context.Context, creditor *models.Creditor) error {
	creditor.ID = int64(len(s.creditors) + 1)
	s.creditors[creditor.ID] = creditor
	return nil
}

func (s *fakeStore) UpsertDebtorByName(_ context.Context, debtor *models.Debtor) error {
	if existing, ok := s.debtors[debtorKey(debtor.FirstName, debtor.LastName)]; ok {
		existing.Email = debtor.Email
		existing.Phone = debtor.Phone
		*debtor = *existing
		return nil
	}
	s.nextDebtorID++
	debtor.ID = s.nextDebtorID
	copied := *debtor
	s.debtors[debtorKey(debtor.FirstName, debtor.LastName)] = &copied
	return nil
}

func (s *fakeStore) FindCategoryByKey(_ context.Context, key string) (*models.Category, error) {
	category, ok := s.categories[key]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "category", Key: key}
	}
	return category, nil
}

func (s *fakeStore) FindDebtByNaturalKey(_ context.Context, creditorID int64, amount decimal.Decimal,
	dueDate time.Time, categoryID int64, firstName, lastName string) (*models.Debt, error) {
	debtor, ok := s.debtors[debtorKey(firstName, lastName)]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "debt", Key: firstName + " " + lastName}
	}
	for i := range s.debts {
		d := &s.debts[i]
		if d.CreditorID == creditorID && d.DebtorID == debtor.ID && d.CategoryID == categoryID &&
			d.AmountOwed.Equal(amount) && d.DueDate.Equal(dueDate) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "debt", Key: firstName + " " + lastName}
}

// fakePublisher records every hand-off to the processing topic
type fakePublisher struct {
	published []models.Debt
}

func (p *fakePublisher) Publish(_ context.Context, debt models.Debt) error {
	p.published = append(p.published, debt)
	return nil
}

// fakeRates is a stub key-rate source
type fakeRates struct {
	rate float64
	err  error
}

func (r *fakeRates) GetKeyRate() (float64, error) {
	return r.rate, r.err
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Package service implements the ingestion pipeline: uploaded debt files
// are parsed row by row, reconciled against existing records, and published
// onto the processing topic for asynchronous persistence.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/skolos/debt-service/internal/config"
	"github.com/skolos/debt-service/internal/models"
)

// Store is the persistence surface the pipeline needs
type Store interface {
	FindCreditorByID(ctx context.Context, id int64) (*models.Creditor, error)
	FindCreditorByEmail(ctx context.Context, email string) (*models.Creditor, error)
	CreateCreditor(ctx context.Context, creditor *models.Creditor) error
	UpsertDebtorByName(ctx context.Context, debtor *models.Debtor) error
	FindCategoryByKey(ctx context.Context, key string) (*models.Category, error)
	FindDebtByNaturalKey(ctx context.Context, creditorID int64, amount decimal.Decimal,
		dueDate time.Time, categoryID int64, firstName, lastName string) (*models.Debt, error)
}

// Publisher hands built debt records off to the processing topic
type Publisher interface {
	Publish(ctx context.Context, debt models.Debt) error
}

// RateSource supplies the default late-interest rate for rows whose rate
// column is blank.
type RateSource interface {
	GetKeyRate() (float64, error)
}

// Service handles business logic
type Service struct {
	store     Store
	publisher Publisher
	rates     RateSource
	matcher   *Matcher
	config    *config.Config
	log       *logrus.Logger
}

// NewService initializes a new service. rates may be nil, in which case the
// configured default interest rate is used for blank rate columns.
func NewService(store Store, publisher Publisher, rates RateSource, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		rates:     rates,
		matcher:   NewMatcher(store),
		config:    cfg,
		log:       log,
	}
}

// Register creates a new creditor with a hashed password
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.Creditor, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	creditor := &models.Creditor{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateCreditor(ctx, creditor); err != nil {
		return nil, err
	}

	s.log.Infof("Creditor registered: %s", creditor.Email)
	return creditor, nil
}

// Login authenticates a creditor and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	creditor, err := s.store.FindCreditorByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creditor.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", creditor.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Creditor logged in: %s", creditor.Email)
	return tokenString, nil
}

// defaultInterestRate resolves the rate for rows with a blank rate column:
// the central bank key rate (with margin) when available, the configured
// default otherwise.
func (s *Service) defaultInterestRate() decimal.Decimal {
	if s.rates != nil {
		rate, err := s.rates.GetKeyRate()
		if err == nil {
			return decimal.NewFromFloat(rate)
		}
		s.log.Warnf("Key rate lookup failed, using configured default: %v", err)
	}
	return decimal.NewFromFloat(s.config.DefaultInterestRate)
}

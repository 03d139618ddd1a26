package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("invalid syntax")
	err := &ParseError{Row: 3, Field: "amount", Value: "abc", Err: cause}

	assert.Equal(t, `row 3: failed to parse amount="abc": invalid syntax`, err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestFormatErrorMessage(t *testing.T) {
	err := &FormatError{Filename: "debts.xlsx", Expected: "csv"}
	assert.Equal(t, `unsupported file format "debts.xlsx": expected csv`, err.Error())
}

func TestIsNotFound(t *testing.T) {
	err := &NotFoundError{Entity: "creditor", Key: "42"}
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(fmt.Errorf("lookup failed: %w", err)))
	assert.False(t, IsNotFound(errors.New("creditor not found: 42")))
}

func TestIsTransient(t *testing.T) {
	err := &TransientError{Op: "persist debt", Err: errors.New("connection refused")}
	assert.True(t, IsTransient(err))
	assert.True(t, IsTransient(fmt.Errorf("consume: %w", err)))
	assert.False(t, IsTransient(errors.New("connection refused")))
	assert.ErrorIs(t, err, err.Err)
}

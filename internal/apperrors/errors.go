// Package apperrors defines the error taxonomy shared across the service.
package apperrors

import (
	"errors"
	"fmt"
)

// FormatError means an uploaded file is not the accepted tabular format.
// Ingestion aborts before touching the store.
type FormatError struct {
	Filename string
	Expected string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unsupported file format %q: expected %s", e.Filename, e.Expected)
}

// ParseError means a row's numeric or date field could not be parsed.
// It aborts the remaining ingestion of the file.
type ParseError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("row %d: failed to parse %s=%q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError means a referenced entity is absent when required
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// TransientError marks a consumer-side failure that must trigger
// redelivery rather than dropping the record.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is (or wraps) a NotFoundError
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsTransient reports whether err is (or wraps) a TransientError
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

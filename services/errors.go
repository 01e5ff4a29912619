package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when an entry id matches no stored movie.
	ErrNotFound = errors.New("movie not found")
	// ErrUpstreamUnavailable covers every failure to get a usable answer
	// from the metadata API: transport errors, timeouts, non-2xx statuses
	// and undecodable bodies.
	ErrUpstreamUnavailable = errors.New("metadata service unavailable")
	// ErrMalformedUpstream is an answer that decoded but lacks a title.
	ErrMalformedUpstream = fmt.Errorf("%w: malformed response", ErrUpstreamUnavailable)
	ErrValidation        = errors.New("validation error")
)

type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists field-level problems with a submitted form.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Add records a problem with field.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// For returns the first message recorded for field, or "".
func (e *ValidationError) For(field string) string {
	if e == nil {
		return ""
	}
	for _, fe := range e.Errors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Err returns e when it holds at least one problem, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

package interview

import (
	"errors"
	"strings"
)

// ErrUnauthorized matches every UnauthorizedError.
var ErrUnauthorized = errors.New("unauthorized")

// NotFoundError reports a missing interview, link, question or candidate.
type NotFoundError struct {
	Entity  string
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Entity == "" {
		return "Not found"
	}
	return strings.ToUpper(e.Entity[:1]) + e.Entity[1:] + " not found"
}

func notFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ValidationError carries a human readable reason for rejected input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func invalid(reason string) error {
	return &ValidationError{Reason: reason}
}

// UnauthorizedError reports rejected credentials.
type UnauthorizedError struct {
	Reason string
}

func (e *UnauthorizedError) Error() string { return e.Reason }

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

func unauthorized(reason string) error {
	return &UnauthorizedError{Reason: reason}
}

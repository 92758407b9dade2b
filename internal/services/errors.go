package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"pemiyos/internal/schema"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	}
	return "internal"
}

// Error is the error type returned by every service in this package.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Details) > 0 {
		msg += ": " + strings.Join(e.Details, ", ")
	}
	if e.Err != nil && e.Kind == KindInternal {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a malformed or structurally invalid payload.
func Validation(msg string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// NotFound reports that no live document matches.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness or business-rule collision.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected store failure.
func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

var (
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "Invalid credentials"}
	ErrInactiveAccount    = &Error{Kind: KindUnauthorized, Message: "Account is inactive"}
	ErrInvalidToken       = &Error{Kind: KindUnauthorized, Message: "Invalid or expired token"}
	ErrUserNotFound       = &Error{Kind: KindUnauthorized, Message: "User not found"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "Admin access required"}
	ErrDuplicate          = &Error{Kind: KindConflict, Message: "Duplicate entry: A record with this unique field already exists"}
	ErrNoElection         = &Error{Kind: KindNotFound, Message: "No suitable election found for statistics"}
	ErrInvalidCollection  = &Error{Kind: KindValidation, Message: "Invalid collection name"}
)

// KindOf classifies any error; errors outside this package are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ParseCollection resolves a collection name, failing with a validation error.
func ParseCollection(name string) (schema.Collection, error) {
	c, err := schema.Parse(name)
	if err != nil {
		return "", &Error{Kind: KindValidation, Message: ErrInvalidCollection.Message, Details: []string{err.Error()}, Err: ErrInvalidCollection}
	}
	return c, nil
}

// isDuplicateKey recognises unique constraint violations from either driver.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

// storeError translates a write failure into the service taxonomy.
func storeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return Internal(err, format, args...)
}

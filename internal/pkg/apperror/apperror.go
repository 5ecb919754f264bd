package apperror

import (
	"errors"
	"net/http"
	"strings"
)

// Kind classifies an AppError. Callers branch on Kind, never on Message.
type Kind string

const (
	KindValidation   Kind = "validation_failed"
	KindPolicy       Kind = "policy_violation"
	KindConflict     Kind = "resource_conflict"
	KindTransition   Kind = "illegal_transition"
	KindUnauthorized Kind = "unauthorized"
	KindNotFound     Kind = "not_found"
	KindInternal     Kind = "internal"
)

// HTTPStatus returns the status code the HTTP adapter uses for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindPolicy:
		return http.StatusUnprocessableEntity
	case KindConflict, KindTransition:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a custom error type that includes an HTTP status code and an optional internal error code.
type AppError struct {
	Kind    Kind     // Taxonomy bucket
	Code    int      // HTTP Status Code (e.g., 400, 404)
	Message string   // User-facing error message
	Reasons []string // Every violated rule, for policy violations
	Err     error    // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	if len(e.Reasons) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Reasons, "; ")
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same kind and message,
// so copies made by WithReasons still match their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// WithReasons returns a copy of the error carrying the given reasons.
func (e *AppError) WithReasons(reasons ...string) *AppError {
	cp := *e
	cp.Reasons = append([]string(nil), reasons...)
	return &cp
}

// New creates a new AppError with a kind and message.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.HTTPStatus(),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.HTTPStatus(),
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first AppError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Package apperror defines the errors the back-office reports to callers.
//
// Every error carries a Kind, used to pick the HTTP status, and a Code,
// used as the translation message id for the user-facing message.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an application error
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Common codes
const (
	CodeInsufficientStock = "insufficient_stock"
	CodeTenantRequired    = "tenant_required"
	CodeTenantMismatch    = "tenant_mismatch"
	CodeInvalidInput      = "invalid_input"
)

// Error is an application error with a stable code
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Params  map[string]interface{}
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// With returns a copy of e carrying an extra template parameter
func (e *Error) With(key string, value interface{}) *Error {
	cp := *e
	cp.Params = make(map[string]interface{}, len(e.Params)+1)
	for k, v := range e.Params {
		cp.Params[k] = v
	}
	cp.Params[key] = value
	return &cp
}

// Wrap returns a copy of e wrapping err
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// NotFound reports a missing (or other tenant's) entity
func NotFound(code, message string) *Error {
	return newError(KindNotFound, code, message)
}

// Validation reports invalid input, including insufficient stock
func Validation(code, message string) *Error {
	return newError(KindValidation, code, message)
}

// Conflict reports a duplicate key or an entity still referenced
func Conflict(code, message string) *Error {
	return newError(KindConflict, code, message)
}

// Unauthorized reports failed authentication
func Unauthorized(code, message string) *Error {
	return newError(KindUnauthorized, code, message)
}

// InsufficientStock reports that product has fewer than requested units
func InsufficientStock(product string, available, requested int) *Error {
	return Validation(CodeInsufficientStock, fmt.Sprintf("insufficient stock for %s: %d available", product, available)).
		With("Product", product).
		With("Available", available).
		With("Requested", requested)
}

// As returns the *Error in err's chain, if any
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf returns the code of err, or "" for foreign errors
func CodeOf(err error) string {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return ""
}

// IsNotFound reports whether err is a NotFound error
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a Validation error
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a Conflict error
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsInsufficientStock reports whether err rejected an order line for stock
func IsInsufficientStock(err error) bool { return CodeOf(err) == CodeInsufficientStock }

package types

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	ERR_VALIDATION ErrorKind = iota + 1
	ERR_MISSING_PARAMETER
	ERR_SESSION_EXPIRED
	ERR_NOT_FOUND
	ERR_SLOT_UNAVAILABLE
	ERR_PAYMENT_PROVIDER
	ERR_DATA_STORE
	ERR_CALENDAR_PROVIDER
	ERR_DATA_INTEGRITY
)

func (k ErrorKind) String() string {
	switch k {
	case ERR_VALIDATION:
		return "validation_error"
	case ERR_MISSING_PARAMETER:
		return "missing_parameter"
	case ERR_SESSION_EXPIRED:
		return "session_expired"
	case ERR_NOT_FOUND:
		return "not_found"
	case ERR_SLOT_UNAVAILABLE:
		return "slot_unavailable"
	case ERR_PAYMENT_PROVIDER:
		return "payment_provider_error"
	case ERR_DATA_STORE:
		return "data_store_error"
	case ERR_CALENDAR_PROVIDER:
		return "calendar_provider_error"
	case ERR_DATA_INTEGRITY:
		return "data_integrity_error"
	}
	return "unknown_error"
}

func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ERR_VALIDATION, ERR_MISSING_PARAMETER, ERR_SESSION_EXPIRED:
		return http.StatusBadRequest
	case ERR_NOT_FOUND:
		return http.StatusNotFound
	case ERR_SLOT_UNAVAILABLE:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Internal kinds never show their detail to the caller.
func (k ErrorKind) Internal() bool {
	return k.HTTPStatus() >= http.StatusInternalServerError
}

type AppError struct {
	Kind   ErrorKind
	Code   string
	Detail string
	Err    error
}

func (e *AppError) Error() string {
	msg := e.Kind.String()
	if e.Code != "" {
		msg += "[" + e.Code + "]"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Message is what the caller sees.
func (e *AppError) Message() string {
	if e.Kind.Internal() {
		return "Internal server error"
	}
	if e.Detail != "" {
		return e.Detail
	}
	return e.Kind.String()
}

func NewError(kind ErrorKind, code string, detail string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Detail: detail, Err: err}
}

func ValidationError(detail string) *AppError {
	return NewError(ERR_VALIDATION, "invalid_request", detail, nil)
}

func MissingParameter(name string) *AppError {
	return NewError(ERR_MISSING_PARAMETER, "missing_"+name, fmt.Sprintf("%s is required", name), nil)
}

func NotFound(code string, detail string) *AppError {
	return NewError(ERR_NOT_FOUND, code, detail, nil)
}

func PaymentProviderError(err error) *AppError {
	return NewError(ERR_PAYMENT_PROVIDER, "stripe", "", err)
}

func DataStoreError(err error) *AppError {
	return NewError(ERR_DATA_STORE, "database", "", err)
}

func CalendarProviderError(err error) *AppError {
	return NewError(ERR_CALENDAR_PROVIDER, "google_calendar", "", err)
}

func DataIntegrityError(detail string) *AppError {
	return NewError(ERR_DATA_INTEGRITY, "integrity", detail, nil)
}

// AsAppError converts any error into an AppError; unknown errors are internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewError(ERR_DATA_STORE, "unexpected", "", err)
}

func IsKind(err error, kind ErrorKind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

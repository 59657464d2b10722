package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrConfig         ErrorType = "CONFIG_ERROR"
	ErrEnv            ErrorType = "ENV_ERROR"
	ErrRPC            ErrorType = "RPC_ERROR"
	ErrReverted       ErrorType = "TX_REVERTED"
	ErrEventNotFound  ErrorType = "EVENT_NOT_FOUND"
	ErrInvalidRequest ErrorType = "INVALID_REQUEST"
	ErrInternal       ErrorType = "INTERNAL_ERROR"
	ErrNotFound       ErrorType = "NOT_FOUND"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func NewConfig(format string, args ...any) *AppError {
	return New(ErrConfig, fmt.Sprintf(format, args...), nil)
}

func NewEnv(format string, args ...any) *AppError {
	return New(ErrEnv, fmt.Sprintf(format, args...), nil)
}

func NewInvalidRequest(msg string) *AppError {
	return New(ErrInvalidRequest, msg, nil)
}

func NewNotFound(msg string) *AppError {
	return New(ErrNotFound, msg, nil)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

// Is reports whether err carries an AppError of the given type.
func Is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrInvalidRequest, ErrConfig:
		return http.StatusBadRequest
	case ErrNotFound, ErrEventNotFound:
		return http.StatusNotFound
	case ErrRPC, ErrReverted:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrConfig:
		return "Check the pool configuration JSON and config.yaml."
	case ErrEnv:
		return "Check NETWORK, RPC_URL, ADDRESS and PRIVATE_KEY."
	case ErrRPC:
		return "Check that the RPC node is reachable."
	case ErrReverted:
		return "Inspect the revert reason; the transaction was included but failed."
	default:
		return ""
	}
}

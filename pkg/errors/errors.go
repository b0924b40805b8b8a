package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Error codes
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeTemplateNotFound = "TEMPLATE_NOT_FOUND"
	CodeResolution       = "RESOLUTION_ERROR"
	CodeConcat           = "CONCAT_ERROR"
	CodeConcatTimeout    = "CONCAT_TIMEOUT"
	CodeStore            = "STORE_ERROR"
	CodeCache            = "CACHE_ERROR"
	CodeService          = "SERVICE_ERROR"
	CodeQuotaExceeded    = "QUOTA_EXCEEDED"
	CodeAuth             = "AUTH_ERROR"
	CodeCorruptInput     = "CORRUPT_INPUT"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
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

func New(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// CodeOf extracts the taxonomy code from any error chain, or CodeService
// for errors that never passed through this package.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeService
}

func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

// Unwrap exposes the embedded AppError so errors.As can reach the code. The
// promoted Unwrap would skip straight to the cause and hide it.
func (e *ValidationError) Unwrap() error { return e.AppError }

type NotFoundError struct {
	*AppError
	Resource string
	ID       string
}

func NewNotFoundError(message, resource, id string) *NotFoundError {
	return &NotFoundError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeNotFound,
			StatusCode: 404,
			Context: map[string]any{
				"resource": resource,
				"id":       id,
			},
		},
		Resource: resource,
		ID:       id,
	}
}

func (e *NotFoundError) Unwrap() error { return e.AppError }

type ConcatError struct {
	*AppError
	Stderr string
}

func NewConcatError(message, stderr string, cause error) *ConcatError {
	return &ConcatError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConcat,
			StatusCode: 500,
			Context: map[string]any{
				"stderr": stderr,
			},
			Cause: cause,
		},
		Stderr: stderr,
	}
}

func (e *ConcatError) Unwrap() error { return e.AppError }

func NewConcatTimeoutError(message string, cause error) *ConcatError {
	return &ConcatError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConcatTimeout,
			StatusCode: 504,
			Cause:      cause,
		},
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

func (e *CacheError) Unwrap() error { return e.AppError }

type StoreError struct {
	*AppError
	Operation string
}

func NewStoreError(message, operation string, cause error) *StoreError {
	return &StoreError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeStore,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
			},
			Cause: cause,
		},
		Operation: operation,
	}
}

func (e *StoreError) Unwrap() error { return e.AppError }

type ServiceError struct {
	*AppError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return newServiceError(message, CodeService, service, operation, cause)
}

func newServiceError(message, code, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       code,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

func (e *ServiceError) Unwrap() error { return e.AppError }

// ClassifyExternal maps a third-party service failure onto the taxonomy.
// Errors that already carry a code keep it. For services that only return
// opaque text the lower-cased message is sniffed for known markers; this is
// the last-resort adapter, not the primary classification path.
func ClassifyExternal(service, operation string, err error) *ServiceError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.Code != CodeService {
		return newServiceError(appErr.Message, appErr.Code, service, operation, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return newServiceError("quota exceeded, try again later", CodeQuotaExceeded, service, operation, err)
	case strings.Contains(msg, "api key") || strings.Contains(msg, "auth") ||
		strings.Contains(msg, "permission") || strings.Contains(msg, "credential"):
		return newServiceError("authentication with the external service failed", CodeAuth, service, operation, err)
	case strings.Contains(msg, "corrupt") || strings.Contains(msg, "invalid audio") || strings.Contains(msg, "unsupported format"):
		return newServiceError("input rejected by the external service", CodeCorruptInput, service, operation, err)
	default:
		return newServiceError(fmt.Sprintf("%s request failed", service), CodeService, service, operation, err)
	}
}

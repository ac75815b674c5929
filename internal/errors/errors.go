// Package errors provides the error taxonomy for FleetDesk: service errors
// carrying server messages, validation errors, unsupported-operation errors,
// and the normalization chain that turns any failure into one human-readable
// notification string.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// FleetError is the base interface for all FleetDesk errors.
type FleetError interface {
	error
	HTTPStatus() int
	Code() string
}

// BaseError is the base implementation of FleetError.
type BaseError struct {
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	ErrorCode  string `json:"code"`
}

func (e *BaseError) Error() string {
	return e.Message
}

func (e *BaseError) HTTPStatus() int {
	return e.StatusCode
}

func (e *BaseError) Code() string {
	return e.ErrorCode
}

// ServiceError represents a rejection from a backend service call. Field
// errors hold field-scoped server messages; Message is the top-level server
// message.
type ServiceError struct {
	BaseError
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// NewServiceError wraps a top-level server message.
func NewServiceError(message string, status int) *ServiceError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &ServiceError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: status,
			ErrorCode:  "SERVICE_ERROR",
		},
	}
}

// WithFieldErrors attaches field-scoped server messages.
func (e *ServiceError) WithFieldErrors(fields map[string]string) *ServiceError {
	e.FieldErrors = fields
	return e
}

// ValidationError represents a validation failure caught before any
// mutating call is issued. Field-scoped and terminal.
type ValidationError struct {
	BaseError
	Field string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_ERROR",
		},
		Field: field,
	}
}

// NotFoundError represents a missing record.
type NotFoundError struct {
	BaseError
	Resource string
}

func NewNotFoundError(resource string) *NotFoundError {
	return &NotFoundError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s not found", resource),
			StatusCode: http.StatusNotFound,
			ErrorCode:  "NOT_FOUND",
		},
		Resource: resource,
	}
}

// UnauthorizedError represents an authentication failure.
type UnauthorizedError struct {
	BaseError
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	if message == "" {
		message = "authentication required"
	}
	return &UnauthorizedError{
		BaseError: BaseError{
			Message:    message,
			StatusCode: http.StatusUnauthorized,
			ErrorCode:  "UNAUTHORIZED",
		},
	}
}

// UnsupportedError reports an operation the entity's service does not
// implement (restore or hard delete). It is raised without attempting a
// call.
type UnsupportedError struct {
	BaseError
	Operation string
}

func NewUnsupportedError(operation, entity string) *UnsupportedError {
	return &UnsupportedError{
		BaseError: BaseError{
			Message:    fmt.Sprintf("%s is not supported for %s", operation, entity),
			StatusCode: http.StatusNotImplemented,
			ErrorCode:  "UNSUPPORTED_OPERATION",
		},
		Operation: operation,
	}
}

// Normalize reduces any error to the most specific available message:
// field-level server messages first, then the top-level server message,
// then the generic error text, then the supplied per-entity fallback.
func Normalize(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		for _, msg := range svcErr.FieldErrors {
			if msg != "" {
				return msg
			}
		}
		if svcErr.Message != "" {
			return svcErr.Message
		}
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

// ToHTTPError converts any error to an HTTP status and response body.
func ToHTTPError(err error) (int, map[string]any) {
	if err == nil {
		return http.StatusOK, nil
	}

	var fe FleetError
	if errors.As(err, &fe) {
		body := map[string]any{
			"error":   fe.Code(),
			"message": fe.Error(),
		}
		var svcErr *ServiceError
		if errors.As(err, &svcErr) && len(svcErr.FieldErrors) > 0 {
			body["field_errors"] = svcErr.FieldErrors
		}
		return fe.HTTPStatus(), body
	}

	return http.StatusInternalServerError, map[string]any{
		"error":   "INTERNAL_ERROR",
		"message": "internal server error",
	}
}

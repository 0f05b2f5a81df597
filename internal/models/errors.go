package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes carried by AppError.
const (
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports an absent (or other-tenant) resource.
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewUserNotFoundError(userID uint) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("user %d is not a known member of any company", userID),
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
	}
}

// NewInvalidTransitionError reports a status precondition violation.
func NewInvalidTransitionError(from, to PurchaseRequestStatus) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("purchase request cannot move from %s to %s", from, to),
	}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Err:     err,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// ErrorCode returns the AppError code found in err's chain, or "" when there is none.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	var appErr *AppError
	if errors.As(err, &appErr) {
		// Causes stay in the logs; they can carry driver messages.
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}

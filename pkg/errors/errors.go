package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeImmutableState    = "IMMUTABLE_STATE"
	CodeOwnerNotApproved  = "OWNER_NOT_APPROVED"
	CodeDuplicateShop     = "DUPLICATE_SHOP"
	CodeSlugCollision     = "SLUG_COLLISION"
	CodeNotFound          = "NOT_FOUND"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeBadRequest        = "BAD_REQUEST"
	CodeUnavailable       = "STORE_UNAVAILABLE"
	CodeTooManyRequests   = "TOO_MANY_REQUESTS"
	CodeInternal          = "INTERNAL_ERROR"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]string
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Validation reports a malformed field. The field name ends up in the response details.
func Validation(field, message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Status:  http.StatusBadRequest,
		Details: map[string]string{"field": field},
	}
}

func InvalidTransition(entity, from, action string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot %s %s in status %s", action, entity, from),
		Status:  http.StatusConflict,
		Details: map[string]string{"status": from, "action": action},
	}
}

func ImmutableState(message string) *AppError {
	return &AppError{
		Code:    CodeImmutableState,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func OwnerNotApproved() *AppError {
	return &AppError{
		Code:    CodeOwnerNotApproved,
		Message: "shop must be approved before listing accounts",
		Status:  http.StatusConflict,
	}
}

func DuplicateShop() *AppError {
	return &AppError{
		Code:    CodeDuplicateShop,
		Message: "this account already owns a shop",
		Status:  http.StatusConflict,
	}
}

func SlugCollision(slug string) *AppError {
	return &AppError{
		Code:    CodeSlugCollision,
		Message: fmt.Sprintf("slug %q is already taken", slug),
		Status:  http.StatusConflict,
		Details: map[string]string{"slug": slug},
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

// Unavailable marks a transient storage failure, the only retryable category.
func Unavailable(message string, err error) *AppError {
	return &AppError{
		Code:    CodeUnavailable,
		Message: message,
		Status:  http.StatusServiceUnavailable,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    CodeTooManyRequests,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

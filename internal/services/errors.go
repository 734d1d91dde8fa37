package services

import (
	"errors"

	apperrors "github.com/formlab/form-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")

	// Form specific errors
	ErrFormNotFound     = errors.New("form not found")
	ErrFormHasNoContent = errors.New("form has no questions")

	// Response specific errors
	ErrResponseNotFound   = errors.New("response not found")
	ErrResponseIncomplete = errors.New("response incomplete - all questions must be answered")

	// Session specific errors
	ErrSessionNotFound  = errors.New("session not found")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrQuestionNotFound = errors.New("question not found in form")

	// Export specific errors
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

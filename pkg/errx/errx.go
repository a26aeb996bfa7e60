package errx

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// NotFittedMessage is returned when the pipeline has no fitted state.
	NotFittedMessage = "model not trained or loaded"
)

var (
	// ErrNotFitted は fit/load 前に predict/encode が呼ばれたことを表します。
	ErrNotFitted = errors.New(NotFittedMessage)

	// ErrZeroSize はサイズ0の price_per_liter を表します。
	// 呼び出し側には返さず、ZeroSizePricePerLiter に置き換えます。
	ErrZeroSize = errors.New("size_numeric is zero")
)

// SchemaError は必須フィールドの欠落を表します。
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("Missing required fields: %s", strings.Join(e.Missing, ", "))
}

// ParseError は数値フィールドが解釈できないことを表します。
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q as a number", e.Field, e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ArtifactError は永続化されたバンドルの欠落・不整合を表します。
type ArtifactError struct {
	Artifact string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Artifact, e.Err)
}

func (e *ArtifactError) Unwrap() error { return e.Err }

// NewArtifactError creates an ArtifactError from a message.
func NewArtifactError(artifact, format string, args ...interface{}) *ArtifactError {
	return &ArtifactError{Artifact: artifact, Err: fmt.Errorf(format, args...)}
}

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// FromError maps pipeline errors to client-facing AppErrors.
// Validation problems are the caller's fault (400), a missing model is 503,
// and artifact or unknown failures are 500.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var schemaErr *SchemaError
	var parseErr *ParseError
	var artifactErr *ArtifactError
	switch {
	case errors.As(err, &schemaErr):
		return New(err, http.StatusBadRequest, schemaErr.Error())
	case errors.As(err, &parseErr):
		return New(err, http.StatusBadRequest, parseErr.Error())
	case errors.Is(err, ErrNotFitted):
		return New(err, http.StatusServiceUnavailable, NotFittedMessage)
	case errors.As(err, &artifactErr):
		return New(err, http.StatusInternalServerError, "model artifacts are unavailable")
	default:
		return New(err, http.StatusInternalServerError, SystemErrorMessage)
	}
}

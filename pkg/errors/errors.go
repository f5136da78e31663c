package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeIndex represents message index / document store errors
	ErrorTypeIndex ErrorType = "index"
	// ErrorTypeEmbedding represents embedding provider errors
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeGeneration represents generative text service errors
	ErrorTypeGeneration ErrorType = "generation"
	// ErrorTypeSchema represents structured-output validation errors
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeScores represents score codec/storage errors
	ErrorTypeScores ErrorType = "scores"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrType exposes the category. Promoted through every wrapper type so
// IsErrorType works on them without knowing the concrete struct.
func (e *BaseError) ErrType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Index Errors

// ErrIndexConnectionFailed is returned when the Neo4j connection fails
type ErrIndexConnectionFailed struct {
	*BaseError
	URI string
}

func NewIndexConnectionFailed(uri string, err error) *ErrIndexConnectionFailed {
	return &ErrIndexConnectionFailed{
		BaseError: NewBaseError(ErrorTypeIndex, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrIndexQueryFailed is returned when an index query fails
type ErrIndexQueryFailed struct {
	*BaseError
	Operation string
}

func NewIndexQueryFailed(operation string, err error) *ErrIndexQueryFailed {
	return &ErrIndexQueryFailed{
		BaseError: NewBaseError(ErrorTypeIndex, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Embedding Errors

// ErrEmbeddingFailed is returned when the embedding provider fails
type ErrEmbeddingFailed struct {
	*BaseError
	Model string
}

func NewEmbeddingFailed(model string, err error) *ErrEmbeddingFailed {
	return &ErrEmbeddingFailed{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("embedding request failed: %s", model), err),
		Model:     model,
	}
}

// ErrEmbeddingDimension is returned when the provider returns an unexpected vector size
type ErrEmbeddingDimension struct {
	*BaseError
	Want int
	Got  int
}

func NewEmbeddingDimension(want, got int) *ErrEmbeddingDimension {
	return &ErrEmbeddingDimension{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("unexpected embedding dimension: want %d, got %d", want, got), nil),
		Want:      want,
		Got:       got,
	}
}

// Generation Errors

// ErrGenerationFailed is returned when the generative text request fails
type ErrGenerationFailed struct {
	*BaseError
	Model    string
	Attempts int
}

func NewGenerationFailed(model string, attempts int, err error) *ErrGenerationFailed {
	return &ErrGenerationFailed{
		BaseError: NewBaseError(ErrorTypeGeneration, fmt.Sprintf("generation failed after %d attempts", attempts), err),
		Model:     model,
		Attempts:  attempts,
	}
}

// ErrGenerationEmpty is returned when the service returns no choices
var ErrGenerationEmpty = NewBaseError(ErrorTypeGeneration, "no choices in generation response", nil)

// ErrSchemaMismatch is returned when a structured response does not match its schema
type ErrSchemaMismatch struct {
	*BaseError
	Schema string
	Field  string
}

func NewSchemaMismatch(schema, field, reason string) *ErrSchemaMismatch {
	return &ErrSchemaMismatch{
		BaseError: NewBaseError(ErrorTypeSchema, fmt.Sprintf("schema %s: field %s %s", schema, field, reason), nil),
		Schema:    schema,
		Field:     field,
	}
}

// Score Errors

// ErrScoreCodeInvalid is returned when a submitted score code fails decoding or verification
type ErrScoreCodeInvalid struct {
	*BaseError
	Code   string
	Reason string
}

func NewScoreCodeInvalid(code, reason string) *ErrScoreCodeInvalid {
	return &ErrScoreCodeInvalid{
		BaseError: NewBaseError(ErrorTypeScores, fmt.Sprintf("invalid score code: %s", reason), nil),
		Code:      code,
		Reason:    reason,
	}
}

// Context Errors

// ErrContextTimeout is returned when context times out
type ErrContextTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewContextTimeout(operation string, timeout time.Duration) *ErrContextTimeout {
	return &ErrContextTimeout{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context timeout: %s (timeout: %v)", operation, timeout), nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ ErrType() ErrorType }); ok {
			return typed.ErrType() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Schema mismatches mean the model produced bad output; a retry may succeed
	if IsErrorType(err, ErrorTypeSchema) {
		return true
	}
	// Transport-level failures against external services are retryable
	if IsErrorType(err, ErrorTypeGeneration) || IsErrorType(err, ErrorTypeEmbedding) {
		return true
	}
	// Index connection errors are retryable
	if IsErrorType(err, ErrorTypeIndex) {
		return true
	}
	return false
}

package legacybridge

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfiguration ErrorType = "configuration"
	ErrorTypeExecution     ErrorType = "execution"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInternal      ErrorType = "internal"
)

// BridgeError represents errors raised around the adapter: while loading
// mappings and while the data-access layer executes translated queries.
type BridgeError struct {
	Type    ErrorType      `json:"type"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Table   string         `json:"table,omitempty"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *BridgeError) Error() string {
	switch {
	case e.Table != "" && e.Field != "":
		return fmt.Sprintf("[%s:%s] table %s field %s: %s", e.Type, e.Code, e.Table, e.Field, e.Message)
	case e.Table != "":
		return fmt.Sprintf("[%s:%s] table %s: %s", e.Type, e.Code, e.Table, e.Message)
	case e.Field != "":
		return fmt.Sprintf("[%s:%s] field '%s': %s", e.Type, e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

func (e *BridgeError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a single detail to a BridgeError
func (e *BridgeError) WithDetail(key string, value any) *BridgeError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause adds a cause to a BridgeError
func (e *BridgeError) WithCause(cause error) *BridgeError {
	e.Cause = cause
	return e
}

// WithTable adds table context to a BridgeError
func (e *BridgeError) WithTable(table string) *BridgeError {
	e.Table = table
	return e
}

// WithField adds field context to a BridgeError
func (e *BridgeError) WithField(field string) *BridgeError {
	e.Field = field
	return e
}

// Error codes
const (
	ErrCodeMappingInvalid     = "MAPPING_INVALID"
	ErrCodeMappingNotFound    = "MAPPING_NOT_FOUND"
	ErrCodeMappingUnavailable = "MAPPING_UNAVAILABLE"
	ErrCodeUnsupportedSource  = "UNSUPPORTED_SOURCE"
	ErrCodeUnmappedTable      = "UNMAPPED_TABLE"
	ErrCodeQueryExecution     = "QUERY_EXECUTION_ERROR"
	ErrCodeNoRowsFound        = "NO_ROWS_FOUND"
	ErrCodeConnectionFailed   = "CONNECTION_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// NewBridgeError creates a new BridgeError
func NewBridgeError(errorType ErrorType, code, message string) *BridgeError {
	return &BridgeError{
		Type:    errorType,
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}
}

// NewMappingInvalidError creates an error for a structurally broken mapping
func NewMappingInvalidError(message string) *BridgeError {
	return NewBridgeError(ErrorTypeConfiguration, ErrCodeMappingInvalid, message)
}

// NewMappingNotFoundError creates an error for a missing mapping document
func NewMappingNotFoundError(source string, cause error) *BridgeError {
	return NewBridgeError(ErrorTypeNotFound, ErrCodeMappingNotFound, "mapping document not found: "+source).
		WithCause(cause).
		WithDetail("source", source)
}

// NewMappingSourceError creates an error for a mapping source that could not be read
func NewMappingSourceError(source string, cause error) *BridgeError {
	return NewBridgeError(ErrorTypeInternal, ErrCodeMappingUnavailable, "failed to read mapping source: "+source).
		WithCause(cause).
		WithDetail("source", source)
}

// NewUnsupportedSourceError creates an error for an unknown mapping source scheme
func NewUnsupportedSourceError(source string) *BridgeError {
	return NewBridgeError(ErrorTypeValidation, ErrCodeUnsupportedSource, "unsupported mapping source: "+source).
		WithDetail("source", source)
}

// NewUnmappedTableError creates the strict-mode rejection of an unconfigured table
func NewUnmappedTableError(table string) *BridgeError {
	return NewBridgeError(ErrorTypeConfiguration, ErrCodeUnmappedTable, "table has no legacy mapping").
		WithTable(table)
}

// NewQueryExecutionError creates a query execution error
func NewQueryExecutionError(table, message string, cause error) *BridgeError {
	return NewBridgeError(ErrorTypeExecution, ErrCodeQueryExecution, message).
		WithTable(table).
		WithCause(cause)
}

// NewNoRowsFoundError creates an error for single-row queries returning nothing
func NewNoRowsFoundError(table string) *BridgeError {
	return NewBridgeError(ErrorTypeNotFound, ErrCodeNoRowsFound, "query returned no rows").
		WithTable(table)
}

// NewConnectionError creates a connection error
func NewConnectionError(message string, cause error) *BridgeError {
	return NewBridgeError(ErrorTypeInternal, ErrCodeConnectionFailed, message).WithCause(cause)
}

// NewInternalError creates an internal error
func NewInternalError(message string, cause error) *BridgeError {
	return NewBridgeError(ErrorTypeInternal, ErrCodeInternalError, message).WithCause(cause)
}

// IsErrorCode reports whether err is a BridgeError carrying code.
func IsErrorCode(err error, code string) bool {
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		return false
	}
	return bridgeErr.Code == code
}

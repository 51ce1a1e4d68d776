package analystdb

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nao1215/analystdb/domain/model"
)

// Error kinds. Every error returned by a Store wraps exactly one of these so
// callers can branch with errors.Is. Boundaries surface err.Error() unmodified.
var (
	// ErrConnect indicates the store could not be opened
	ErrConnect = errors.New("analystdb: connect error")

	// ErrExec indicates a statement failed to prepare, run or materialize
	ErrExec = errors.New("analystdb: exec error")

	// ErrRead indicates a source file could not be decoded
	ErrRead = model.ErrRead

	// ErrIngest indicates a session table could not be created or filled
	ErrIngest = errors.New("analystdb: ingest error")

	// ErrNotConnected indicates an operation needed a connection and none exists
	ErrNotConnected = errors.New("analystdb: no store connection")

	// ErrRowArity indicates a row does not have one value per column
	ErrRowArity = errors.New("analystdb: row length does not match column count")

	// ErrUnsupportedFileType indicates a path whose extension cannot be read
	ErrUnsupportedFileType = model.ErrUnsupportedFileType

	// ErrEmptyData indicates that the data source contains no records
	ErrEmptyData = model.ErrEmptyData

	// ErrNoInputs indicates an Importer was built without any input
	ErrNoInputs = errors.New("analystdb: no input files")
)

// ErrorContext provides context for where an error occurred
type ErrorContext struct {
	Operation string
	FilePath  string
	TableName string
	Details   string
}

// NewErrorContext creates a new error context
func NewErrorContext(operation, filePath string) *ErrorContext {
	return &ErrorContext{
		Operation: operation,
		FilePath:  filePath,
	}
}

// WithTable adds table context to the error
func (ec *ErrorContext) WithTable(tableName string) *ErrorContext {
	ec.TableName = tableName
	return ec
}

// WithDetails adds details to the error context
func (ec *ErrorContext) WithDetails(details string) *ErrorContext {
	ec.Details = details
	return ec
}

// Wrap formats the context and wraps kind and cause, so both match errors.Is.
func (ec *ErrorContext) Wrap(kind, cause error) error {
	if cause == nil {
		return ec.Error(kind)
	}
	return ec.Error(fmt.Errorf("%w: %w", kind, cause))
}

// Error creates a formatted error with context
func (ec *ErrorContext) Error(baseErr error) error {
	var parts []string
	parts = append(parts, fmt.Sprintf("analystdb: %s failed", ec.Operation))

	if ec.FilePath != "" {
		parts = append(parts, "file: "+ec.FilePath)
	}

	if ec.TableName != "" {
		parts = append(parts, "table: "+ec.TableName)
	}

	if ec.Details != "" {
		parts = append(parts, "details: "+ec.Details)
	}

	context := strings.Join(parts, ", ")
	if baseErr != nil {
		return fmt.Errorf("%s: %w", context, baseErr)
	}
	return fmt.Errorf("%s", context)
}

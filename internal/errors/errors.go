// Package errors provides unified error handling across the promptlib engine.
//
// SYSTEM ARCHITECTURE ROLE:
// Every problem the indexing engine finds is represented as an AppError. Per-document
// problems are collected as diagnostics instead of being returned as control-flow
// errors, so a single bad document never aborts a scan.
//
// KEY RESPONSIBILITIES:
// - Define the diagnostic taxonomy (missing/malformed header, schema and path
//   violations, duplicate identifiers, write failures)
// - Attach the offending document path to each diagnostic
// - Classify severity so the CLI can tell warnings from run-failing errors
//
// INTEGRATION POINTS:
// - internal/frontmatter: MISSING_HEADER and MALFORMED_HEADER
// - internal/validation: ValidationResult.ToAppErrors() produces SCHEMA_VIOLATION
// - internal/indexer: path checks, duplicate ids, index write failures
// - internal/listing: listing write failures and marker problems
// - internal/cli: CLIErrorHandler formats diagnostics for the terminal
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized error codes
type ErrorCode string

const (
	// Document errors
	ErrCodeMissingHeader   ErrorCode = "MISSING_HEADER"
	ErrCodeMalformedHeader ErrorCode = "MALFORMED_HEADER"
	ErrCodeSchema          ErrorCode = "SCHEMA_VIOLATION"
	ErrCodePathConsistency ErrorCode = "PATH_CONSISTENCY_VIOLATION"

	// Corpus errors
	ErrCodeDuplicateID    ErrorCode = "DUPLICATE_IDENTIFIER"
	ErrCodeScanDirMissing ErrorCode = "SCAN_DIR_MISSING"

	// Storage errors
	ErrCodeReadFailure    ErrorCode = "READ_FAILURE"
	ErrCodeWriteFailure   ErrorCode = "WRITE_FAILURE"
	ErrCodeListingMarkers ErrorCode = "LISTING_MARKERS"
	ErrCodeIndexNotFound  ErrorCode = "INDEX_NOT_FOUND"

	// Service errors
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo     ErrorSeverity = "info"
	SeverityWarning  ErrorSeverity = "warning"
	SeverityError    ErrorSeverity = "error"
	SeverityCritical ErrorSeverity = "critical"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	CategoryDocument ErrorCategory = "document"
	CategoryCorpus   ErrorCategory = "corpus"
	CategoryStorage  ErrorCategory = "storage"
	CategoryConfig   ErrorCategory = "config"
	CategorySystem   ErrorCategory = "system"
)

// AppError represents a standardized application error
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Path      string                 `json:"path,omitempty"`
	Severity  ErrorSeverity          `json:"severity"`
	Category  ErrorCategory          `json:"category"`
	Cause     error                  `json:"-"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Details)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, msg)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether the error fails the run it was raised in.
func (e *AppError) IsFatal() bool {
	return e.Severity == SeverityError || e.Severity == SeverityCritical
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithPath attributes the error to a document
func (e *AppError) WithPath(path string) *AppError {
	e.Path = path
	return e
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string) *AppError {
	category, severity := categorizeError(code)
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  severity,
		Category:  category,
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with application error context
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := NewAppError(code, message)
	appErr.Cause = err
	if err != nil {
		appErr.Details = err.Error()
	}
	return appErr
}

// categorizeError determines the category and severity based on error code
func categorizeError(code ErrorCode) (ErrorCategory, ErrorSeverity) {
	switch code {
	// Recoverable: the document is skipped, the run continues
	case ErrCodeMissingHeader, ErrCodeMalformedHeader:
		return CategoryDocument, SeverityWarning
	case ErrCodeSchema, ErrCodePathConsistency:
		return CategoryDocument, SeverityError

	case ErrCodeDuplicateID:
		return CategoryCorpus, SeverityError
	case ErrCodeScanDirMissing:
		return CategoryCorpus, SeverityWarning

	case ErrCodeReadFailure, ErrCodeWriteFailure:
		return CategoryStorage, SeverityError
	case ErrCodeListingMarkers:
		return CategoryStorage, SeverityWarning
	case ErrCodeIndexNotFound:
		return CategoryStorage, SeverityInfo

	case ErrCodeConfigInvalid:
		return CategoryConfig, SeverityCritical
	case ErrCodeNotFound:
		return CategorySystem, SeverityInfo

	default:
		return CategorySystem, SeverityCritical
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// IsCode reports whether err is an AppError carrying code
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}

// GetAppError extracts an AppError from an error, or converts it to one
func GetAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, ErrCodeInternalError, "Internal error occurred")
}

// Common error constructors for frequently used errors

func MissingHeader(path string) *AppError {
	return NewAppError(ErrCodeMissingHeader, "no front matter header found, skipping").WithPath(path)
}

func MalformedHeader(path string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedHeader, "front matter header could not be parsed, skipping").WithPath(path)
}

func SchemaViolation(path, field, message string) *AppError {
	return NewAppError(ErrCodeSchema, message).WithPath(path).WithContext("field", field)
}

func PathMismatch(path, field, expected, actual string) *AppError {
	return NewAppError(ErrCodePathConsistency,
		fmt.Sprintf("'%s' mismatch: expected %q, got %q", field, expected, actual)).
		WithPath(path).
		WithContext("field", field)
}

func DuplicateID(path, id, firstPath string) *AppError {
	return NewAppError(ErrCodeDuplicateID,
		fmt.Sprintf("duplicate id %q, already claimed by %s", id, firstPath)).
		WithPath(path).
		WithContext("first_path", firstPath)
}

func WriteFailure(path string, err error) *AppError {
	return Wrap(err, ErrCodeWriteFailure, "could not write file").WithPath(path)
}

// ConfigError reports unusable configuration or flag input; cause may be nil
func ConfigError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConfigInvalid, message)
}

func NotFoundError(resource string) *AppError {
	return NewAppError(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return NewAppError(ErrCodeInternalError, message)
}

func ScanDirMissing(dir string) *AppError {
	return NewAppError(ErrCodeScanDirMissing, "scan directory does not exist").WithPath(dir)
}

func ReadFailure(path string, err error) *AppError {
	return Wrap(err, ErrCodeReadFailure, "could not read file").WithPath(path)
}

func ListingMarkers(path, reason string) *AppError {
	return NewAppError(ErrCodeListingMarkers, "listing block left untouched").
		WithPath(path).
		WithDetails(reason)
}

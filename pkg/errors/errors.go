package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connectivity errors (1xxx)
	ErrCodeConnectionFailed  ErrorCode = "PSYN1001"
	ErrCodeConnectionTimeout ErrorCode = "PSYN1002"
	ErrCodeSourceUnreachable ErrorCode = "PSYN1003"
	ErrCodeSinkUnreachable   ErrorCode = "PSYN1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound ErrorCode = "PSYN2001"
	ErrCodeConfigInvalid  ErrorCode = "PSYN2002"
	ErrCodeConfigMissing  ErrorCode = "PSYN2003"

	// Data quality errors (3xxx) - per-row, recoverable
	ErrCodeUnresolvedVendor    ErrorCode = "PSYN3001"
	ErrCodeUnresolvedCommodity ErrorCode = "PSYN3002"
	ErrCodeUnresolvedTimeKey   ErrorCode = "PSYN3003"
	ErrCodeMalformedDate       ErrorCode = "PSYN3004"
	ErrCodeDuplicateFact       ErrorCode = "PSYN3005"
	ErrCodeConstraintViolation ErrorCode = "PSYN3006"

	// SQL execution errors (4xxx)
	ErrCodeSQLExecution   ErrorCode = "PSYN4001"
	ErrCodeSQLTransaction ErrorCode = "PSYN4002"
	ErrCodeSQLTimeout     ErrorCode = "PSYN4003"
	ErrCodeNoResults      ErrorCode = "PSYN4004"

	// Integrity errors (5xxx) - phase-fatal
	ErrCodeIntegrityViolation  ErrorCode = "PSYN5001"
	ErrCodeDuplicateCurrentRow ErrorCode = "PSYN5002"
	ErrCodeTimeDimensionGap    ErrorCode = "PSYN5003"

	// Reconciliation errors (6xxx) - flagged, never rolled back
	ErrCodeReconciliationFailed ErrorCode = "PSYN6001"
	ErrCodeVarianceExceeded     ErrorCode = "PSYN6002"

	// Validation errors (7xxx)
	ErrCodeValidationFailed ErrorCode = "PSYN7001"
	ErrCodeInvalidInput     ErrorCode = "PSYN7002"
	ErrCodeInvalidState     ErrorCode = "PSYN7003"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "PSYN9001"
	ErrCodeTimeout            ErrorCode = "PSYN9002"
	ErrCodeLockHeld           ErrorCode = "PSYN9003"
	ErrCodeMaxRetriesExceeded ErrorCode = "PSYN9004"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // Run aborts, store may need inspection
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connectivity error for one of the two stores
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Verify the database file path in the configuration",
			"Check file permissions on the database and its directory",
			"Ensure no other process holds an exclusive lock",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'procsync setup' to reconfigure",
		)
}

// DataQualityError creates a per-row error that is skipped and counted,
// never failing the run.
func DataQualityError(code ErrorCode, message string, transactionID string) *AppError {
	return New(code, message).
		WithContext("source_transaction_id", transactionID).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IntegrityError creates a phase-fatal invariant violation
func IntegrityError(message string, naturalKey string) *AppError {
	return New(ErrCodeIntegrityViolation, message).
		WithContext("natural_key", naturalKey).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"The phase transaction has been rolled back",
			"Inspect the dimension table for duplicate current rows",
			"Run 'procsync verify' for a full health check",
		)
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))

	if cause != nil {
		errStr := cause.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") {
			err.Code = ErrCodeConstraintViolation
		} else if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "locked") {
			err.Code = ErrCodeSQLTimeout
			_ = err.WithSuggestions(
				"Another writer may hold the database lock",
				"Increase the connection timeout setting",
			)
		}
	}

	return err
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// IsDataQuality reports whether the error is a per-row data quality error
func IsDataQuality(err error) bool {
	code := GetErrorCode(err)
	return strings.HasPrefix(string(code), "PSYN3")
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

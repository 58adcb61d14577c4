package errors

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "PSE1001"
	ErrCodeConnectionTimeout    ErrorCode = "PSE1002"
	ErrCodeAuthenticationFailed ErrorCode = "PSE1003"
	ErrCodeNetworkUnavailable   ErrorCode = "PSE1004"

	// Configuration errors (2xxx)
	ErrCodeConfigNotFound   ErrorCode = "PSE2001"
	ErrCodeConfigInvalid    ErrorCode = "PSE2002"
	ErrCodeConfigMissing    ErrorCode = "PSE2003"
	ErrCodeConfigPermission ErrorCode = "PSE2004"

	// Query errors (4xxx)
	ErrCodeQuery             ErrorCode = "PSE4001"
	ErrCodeSQLPermission     ErrorCode = "PSE4002"
	ErrCodeSQLTimeout        ErrorCode = "PSE4003"
	ErrCodeNoData            ErrorCode = "PSE4004"
	ErrCodeSQLObjectNotFound ErrorCode = "PSE4005"
	ErrCodeUnknownEntry      ErrorCode = "PSE4006"
	ErrCodeUnknown           ErrorCode = "PSE4999"

	// Validation errors (6xxx)
	ErrCodeValidationFailed ErrorCode = "PSE6001"
	ErrCodeInvalidInput     ErrorCode = "PSE6002"
	ErrCodeRequiredField    ErrorCode = "PSE6003"

	// Security errors (7xxx)
	ErrCodeEncryptionFailed ErrorCode = "PSE7002"
	ErrCodeKeyringFailed    ErrorCode = "PSE7004"

	// System errors (9xxx)
	ErrCodeInternal           ErrorCode = "PSE9001"
	ErrCodeResourceExhausted  ErrorCode = "PSE9003"
	ErrCodeServiceUnavailable ErrorCode = "PSE9004"
	ErrCodeResultParsing      ErrorCode = "PSE9005"
	ErrCodeMaxRetriesExceeded ErrorCode = "PSE9007"
	ErrCodePanic              ErrorCode = "PSE9008"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
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

// Summary is the single-line form used for per-entry failure panels
func (e *AppError) Summary() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
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

	// If wrapping another AppError, inherit some properties
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

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		AsRecoverable().
		WithSuggestions(
			"Check your network connection",
			"Verify the warehouse host and port are reachable",
			"Check the connection pool limits in the config",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, field string) *AppError {
	return New(ErrCodeConfigInvalid, message).
		WithContext("field", field).
		WithSuggestions(
			fmt.Sprintf("Check the '%s' configuration value", field),
			"Run 'paysight setup' to reconfigure",
		)
}

// QueryError creates an error for a failed analytical query
func QueryError(message string, query string, cause error) *AppError {
	return Wrap(cause, ErrCodeQuery, message).
		WithContext("query", truncateString(query, 200))
}

// ValidationError creates a validation error
func ValidationError(field string, value interface{}, reason string) *AppError {
	return New(ErrCodeValidationFailed, fmt.Sprintf("Validation failed for %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("value", value).
		WithSeverity(SeverityWarning).
		AsRecoverable()
}

var connectivityMarkers = []string{
	"bad connection",
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"too many connections",
	"server has gone away",
	"invalid connection",
	"network is unreachable",
}

var missingObjectMarkers = []string{
	"does not exist",
	"doesn't exist",
	"unknown column",
	"unknown table",
	"no such table",
	"no such column",
	"invalid identifier",
}

var permissionMarkers = []string{
	"permission denied",
	"access denied",
	"insufficient privileges",
}

// Classify maps a driver or context error raised while running query to
// the connectivity or query taxonomy. AppErrors pass through unchanged.
func Classify(err error, query string) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	msg := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeConnectionTimeout, "query exceeded its deadline").
			WithContext("query", truncateString(query, 200)).
			AsRecoverable().
			WithSuggestions("Increase warehouse.timeout", "Check warehouse load")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeConnectionTimeout, "query was cancelled").
			WithContext("query", truncateString(query, 200))
	case containsAny(msg, connectivityMarkers):
		return ConnectionError("warehouse unreachable", err).
			WithContext("query", truncateString(query, 200))
	case containsAny(msg, missingObjectMarkers):
		return Wrap(err, ErrCodeSQLObjectNotFound, "relation or column not found").
			WithContext("query", truncateString(query, 200)).
			WithSuggestions("Verify the warehouse holds the expected payments relations")
	case containsAny(msg, permissionMarkers):
		return Wrap(err, ErrCodeSQLPermission, "insufficient privileges").
			WithContext("query", truncateString(query, 200)).
			WithSuggestions("Grant SELECT on the payments relations to the configured user")
	default:
		return QueryError("query failed", query, err)
	}
}

// IsConnectivity reports whether err belongs to the connectivity taxonomy
func IsConnectivity(err error) bool {
	switch GetErrorCode(err) {
	case ErrCodeConnectionFailed, ErrCodeConnectionTimeout, ErrCodeNetworkUnavailable, ErrCodeResourceExhausted:
		return true
	}
	return false
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

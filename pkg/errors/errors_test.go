package errors

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[PSE1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check network", "Verify credentials"),
			expected: "[PSE1001] ERROR: Connection failed\nSuggestions:\n  1. Check network\n  2. Verify credentials",
		},
		{
			name: "error with context",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("host", "example.com").
				WithContext("port", 3306),
			expected: "[PSE1001] ERROR: Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("dial tcp 10.0.0.1:3306: connection refused")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to connect to warehouse")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}
	if !errors.Is(appErr, baseErr) {
		t.Error("errors.Is should find the cause")
	}
	if Wrap(nil, ErrCodeInternal, "nothing") != nil {
		t.Error("Wrapping nil should return nil")
	}

	summary := appErr.Summary()
	if !strings.HasPrefix(summary, "[PSE1001] Failed to connect to warehouse") {
		t.Errorf("Unexpected summary %q", summary)
	}
	if strings.Contains(summary, "\n") {
		t.Error("Summary should be a single line")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		code         ErrorCode
		connectivity bool
	}{
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrCodeConnectionTimeout, true},
		{"bad conn", driver.ErrBadConn, ErrCodeConnectionFailed, true},
		{"refused", fmt.Errorf("dial tcp 127.0.0.1:3306: connect: connection refused"), ErrCodeConnectionFailed, true},
		{"mysql missing table", fmt.Errorf("Error 1146 (42S02): Table 'payments.agg_ins' doesn't exist"), ErrCodeSQLObjectNotFound, false},
		{"postgres missing relation", fmt.Errorf(`ERROR: relation "agg_ins" does not exist (SQLSTATE 42P01)`), ErrCodeSQLObjectNotFound, false},
		{"permission", fmt.Errorf("Error 1142: SELECT command denied; access denied for user"), ErrCodeSQLPermission, false},
		{"syntax", fmt.Errorf("Error 1064: You have an error in your SQL syntax"), ErrCodeQuery, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := Classify(tt.err, "SELECT 1")
			if appErr.Code != tt.code {
				t.Errorf("Expected code %s, got %s", tt.code, appErr.Code)
			}
			if IsConnectivity(appErr) != tt.connectivity {
				t.Errorf("Expected connectivity=%v", tt.connectivity)
			}
			if appErr.Context["query"] != "SELECT 1" {
				t.Errorf("Expected query in context, got %v", appErr.Context["query"])
			}
		})
	}

	if Classify(nil, "") != nil {
		t.Error("Classify(nil) should be nil")
	}

	original := New(ErrCodeUnknownEntry, "no such entry")
	if Classify(original, "") != original {
		t.Error("AppErrors should pass through unchanged")
	}
}

func TestRetryLogic(t *testing.T) {
	attempts := 0
	maxAttempts := 3
	var hooks []int

	config := &RetryConfig{
		MaxRetries:   maxAttempts - 1,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		Jitter:       false,
		RetryableError: func(err error) bool {
			return true
		},
		OnRetry: func(attempt int, delay time.Duration, err error) {
			hooks = append(hooks, attempt)
		},
	}

	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		if attempts < maxAttempts {
			return New(ErrCodeConnectionTimeout, "Timeout").AsRecoverable()
		}
		return nil
	})

	if err != nil {
		t.Error("Expected retry to succeed")
	}
	if attempts != maxAttempts {
		t.Errorf("Expected %d attempts, got %d", maxAttempts, attempts)
	}
	if len(hooks) != 2 || hooks[0] != 1 || hooks[1] != 2 {
		t.Errorf("Unexpected retry hook calls %v", hooks)
	}
}

func TestRetryExhausted(t *testing.T) {
	config := DefaultRetryConfig()
	config.MaxRetries = 1
	config.InitialDelay = time.Millisecond
	config.Jitter = false

	attempts := 0
	err := Retry(context.Background(), config, func(ctx context.Context) error {
		attempts++
		return ConnectionError("down", fmt.Errorf("connection refused"))
	})

	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
	if GetErrorCode(err) != ErrCodeMaxRetriesExceeded {
		t.Errorf("Expected %s, got %s", ErrCodeMaxRetriesExceeded, GetErrorCode(err))
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func(ctx context.Context) error {
		attempts++
		return New(ErrCodeAuthenticationFailed, "bad password")
	})

	if attempts != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts)
	}
	if GetErrorCode(err) != ErrCodeAuthenticationFailed {
		t.Errorf("Expected the original error back, got %v", err)
	}
}

func TestCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, 100*time.Millisecond)
	ctx := context.Background()

	err := cb.Execute(ctx, func() error {
		return fmt.Errorf("failure 1")
	})
	if err == nil {
		t.Error("Expected error")
	}

	// Second failure opens the circuit
	err = cb.Execute(ctx, func() error {
		return fmt.Errorf("failure 2")
	})
	if err == nil {
		t.Error("Expected error")
	}

	called := false
	err = cb.Execute(ctx, func() error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Error("Expected circuit breaker to be open")
	}
	if GetErrorCode(err) != ErrCodeServiceUnavailable {
		t.Errorf("Expected %s, got %s", ErrCodeServiceUnavailable, GetErrorCode(err))
	}

	time.Sleep(150 * time.Millisecond)

	// Half-open: a success closes it again
	err = cb.Execute(ctx, func() error {
		return nil
	})
	if err != nil {
		t.Error("Expected success after reset")
	}

	if cb.GetState() != "closed" {
		t.Errorf("Expected circuit to be closed, got %s", cb.GetState())
	}
}

func TestGuard(t *testing.T) {
	err := Guard(func() error {
		var m map[string]int
		m["boom"]++
		return nil
	})
	if GetErrorCode(err) != ErrCodePanic {
		t.Fatalf("Expected panic code, got %v", err)
	}

	err = Guard(func() error {
		panic("plain string")
	})
	if !strings.Contains(err.Error(), "plain string") {
		t.Errorf("Expected panic value in message, got %q", err.Error())
	}

	sentinel := fmt.Errorf("ordinary failure")
	if Guard(func() error { return sentinel }) != sentinel {
		t.Error("Guard should return ordinary errors unchanged")
	}
}

func TestValidationError(t *testing.T) {
	err := ValidationError("quarter", 5, "must be between 1 and 4")
	if !IsRecoverable(err) {
		t.Error("Validation errors should be recoverable")
	}
	if err.Severity != SeverityWarning {
		t.Errorf("Expected warning severity, got %s", err.Severity)
	}
	if GetErrorCode(fmt.Errorf("plain")) != ErrCodeInternal {
		t.Error("Plain errors should map to the internal code")
	}
}

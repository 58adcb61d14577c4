package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"paysight/pkg/errors"
)

func capture(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	defer SetOutput(prev)
	fn()
	return buf.String()
}

func withoutColor(t *testing.T) {
	t.Helper()
	prev := ColorEnabled()
	SetColor(false)
	t.Cleanup(func() { SetColor(prev) })
}

func TestColorFunc(t *testing.T) {
	prev := ColorEnabled()
	defer SetColor(prev)

	funcs := []func(string) string{
		ColorSuccess,
		ColorError,
		ColorWarning,
		ColorInfo,
		ColorProgress,
		ColorBold,
		ColorDim,
	}

	SetColor(true)
	for _, fn := range funcs {
		if fn("text") == "text" {
			t.Error("Expected colored output, got plain text")
		}
	}

	SetColor(false)
	for _, fn := range funcs {
		if fn("text") != "text" {
			t.Error("Expected plain text, got colored output")
		}
	}
}

func TestShowHeader(t *testing.T) {
	withoutColor(t)
	output := capture(t, func() { ShowHeader("Payments catalog") })

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), output)
	}
	if len(lines[0]) != len(lines[1]) || len(lines[1]) != len(lines[2]) {
		t.Errorf("Header lines are ragged: %q", output)
	}
	if !strings.Contains(lines[1], "Payments catalog") {
		t.Error("Header missing title")
	}
}

func TestShowError(t *testing.T) {
	withoutColor(t)

	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "plain connection error",
			err:      fmt.Errorf("dial tcp 10.0.0.1:3306: connection refused"),
			contains: []string{"connection refused", "network connectivity"},
		},
		{
			name:     "plain missing table",
			err:      fmt.Errorf("Error 1146: Table 'payments.agg_ins' doesn't exist"),
			contains: []string{"agg_ins", "payments relations exist"},
		},
		{
			name: "app error",
			err: errors.New(errors.ErrCodeUnknownEntry, "unknown catalog entry \"x\"").
				WithSuggestions("Known entries: transaction_growth"),
			contains: []string{"[PSE4006]", "TIP: Known entries: transaction_growth"},
		},
		{
			name:     "multiline error",
			err:      fmt.Errorf("first line\nsecond line"),
			contains: []string{"first line", "second line"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := capture(t, func() { ShowError(tt.err) })
			for _, want := range tt.contains {
				if !strings.Contains(output, want) {
					t.Errorf("Expected %q in output %q", want, output)
				}
			}
		})
	}
}

func TestShowMessages(t *testing.T) {
	withoutColor(t)

	output := capture(t, func() {
		ShowSuccess("Configuration saved")
		ShowWarning("Cache disabled")
		ShowInfo("Using mysql")
	})

	for _, want := range []string{"✓ Configuration saved", "WARNING: Cache disabled", "INFO: Using mysql"} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected %q in output %q", want, output)
		}
	}
}

func TestBox(t *testing.T) {
	withoutColor(t)

	var buf bytes.Buffer
	Box(&buf, "FAILED", "[PSE1001] warehouse unreachable\n- Check your network connection", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("Expected 4 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if len(line) != len(lines[0]) {
			t.Errorf("Box lines are ragged: %q", buf.String())
			break
		}
	}
}

func TestGetSuggestion(t *testing.T) {
	tests := map[string]string{
		"Error 1045: Access denied for user 'analyst'": "password",
		"dial tcp: lookup warehouse: no such host":      "network connectivity",
		`relation "map_user" does not exist`:            "payments relations",
		"permission denied for table agg_trans":         "SELECT",
		"something else":                                "",
	}
	for msg, keyword := range tests {
		got := getSuggestion(msg)
		if keyword == "" {
			if got != "" {
				t.Errorf("Expected no suggestion for %q, got %q", msg, got)
			}
			continue
		}
		if !strings.Contains(got, keyword) {
			t.Errorf("Suggestion for %q should mention %q, got %q", msg, keyword, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[string]string{
		"250ms": "250ms",
		"1.5s":  "1.5s",
		"90s":   "1m30s",
		"2h5m":  "2h5m",
	}
	for in, want := range tests {
		d, err := time.ParseDuration(in)
		if err != nil {
			t.Fatal(err)
		}
		if got := FormatDuration(d); got != want {
			t.Errorf("FormatDuration(%s) = %s, want %s", in, got, want)
		}
	}
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Spinner animates while a long operation runs. It writes nothing when
// the writer is not a terminal.
type Spinner struct {
	w       io.Writer
	frames  []string
	current int
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	enabled bool
}

// NewSpinner creates a spinner writing to w
func NewSpinner(w io.Writer, message string, enabled bool) *Spinner {
	return &Spinner{
		w:       w,
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		enabled: enabled,
	}
}

// Start begins the animation
func (s *Spinner) Start() {
	if !s.enabled {
		close(s.done)
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.w, "\r%s %s%s", ColorProgress(s.frames[s.current]), s.message, strings.Repeat(" ", 10))
				s.current = (s.current + 1) % len(s.frames)
				s.mu.Unlock()
			}
		}
	}()
}

// UpdateMessage replaces the message shown next to the spinner
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop ends the animation and prints a final status line
func (s *Spinner) Stop(success bool, message string) {
	close(s.stop)
	<-s.done
	if !s.enabled {
		return
	}

	fmt.Fprint(s.w, "\r\033[K")
	if success {
		fmt.Fprintf(s.w, "%s %s\n", ColorSuccess("✓"), message)
	} else {
		fmt.Fprintf(s.w, "%s %s\n", ColorError("✗"), message)
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

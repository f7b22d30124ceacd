// Package progress provides a terminal spinner for decode and encode steps.
// All output goes to stderr to avoid polluting stdout/pipes.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Spinner shows a spinner for operations where the total is unknown.
type Spinner struct {
	Label   string
	Enabled bool
	Out     io.Writer

	mu      sync.Mutex
	done    chan struct{}
	stopped bool
}

// NewSpinner creates a spinner.
// Automatically disabled if not a TTY, if --json is set, or SHEETSPLIT_NO_PROGRESS=1.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(),
		Out:     os.Stderr,
		done:    make(chan struct{}),
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	s.stopped = false
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		frames := []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}
		i := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if !s.stopped {
					fmt.Fprintf(s.Out, "\r\033[K%c %s", frames[i%len(frames)], s.Label)
					i++
				}
				s.mu.Unlock()
			}
		}
	}()
}

// Stop stops the spinner and prints a result line.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.Enabled {
		fmt.Fprintf(s.Out, "\r\033[K✓ %s\n", result)
	}
}

// Fail stops the spinner and clears its line without a result.
func (s *Spinner) Fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true

	select {
	case <-s.done:
	default:
		close(s.done)
	}

	if s.Enabled {
		fmt.Fprint(s.Out, "\r\033[K")
	}
}

// Update changes the spinner label while it's running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

// Step runs fn under a spinner labelled label, printing done on success.
func Step(label, done string, fn func() error) error {
	sp := NewSpinner(label)
	sp.Start()
	if err := fn(); err != nil {
		sp.Fail()
		return err
	}
	sp.Stop(done)
	return nil
}

func shouldEnable() bool {
	// Disabled via env var
	if os.Getenv("SHEETSPLIT_NO_PROGRESS") == "1" {
		return false
	}
	// Disabled when JSON output is requested
	if os.Getenv("SHEETSPLIT_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	stat, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// stderr receives spinner frames. Tests swap it out.
var stderr io.Writer = os.Stderr

var spinnerFrames = [...]string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const spinnerInterval = 80 * time.Millisecond

var errStopped = errors.New("spinner stopped")

// spinner animates a status message on stderr until stopped or until its
// context is cancelled.
type spinner struct {
	mu        sync.Mutex
	message   string
	cancelled bool

	stop     context.CancelCauseFunc
	stopOnce sync.Once
	exited   chan struct{}
}

// startSpinner shows message with a spinning glyph in front of it.
func startSpinner(ctx context.Context, message string) *spinner {
	ctx, stop := context.WithCancelCause(ctx)
	s := &spinner{message: message, stop: stop, exited: make(chan struct{})}
	go s.run(ctx)
	return s
}

func (s *spinner) run(ctx context.Context) {
	defer close(s.exited)
	tick := time.NewTicker(spinnerInterval)
	defer tick.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.cancelled = context.Cause(ctx) != errStopped
			s.mu.Unlock()
			return
		case <-tick.C:
			s.mu.Lock()
			fmt.Fprintf(stderr, "\r%s %s", styleSpinner.Render(spinnerFrames[n%len(spinnerFrames)]), styleFaint.Render(s.message))
			s.mu.Unlock()
		}
	}
}

// Update swaps the message, padding shorter ones so no stale text remains.
func (s *spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.message) - len(message); n > 0 {
		message += strings.Repeat(" ", n)
	}
	s.message = message
}

// Stop halts the animation and blanks the line. Calling it again is a no-op.
func (s *spinner) Stop() {
	s.stopOnce.Do(func() {
		s.stop(errStopped)
		<-s.exited
		s.mu.Lock()
		fmt.Fprintf(stderr, "\r%s\r", strings.Repeat(" ", len(s.message)+4))
		s.mu.Unlock()
	})
}

func (s *spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

func (s *spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled reports whether the parent context ended the spinner.
func (s *spinner) Cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

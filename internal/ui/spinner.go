package ui

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
)

// Spinner frames for a simple dots animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WithSpinner runs an action while displaying a spinner on w. Returns the
// result of the action. The spinner only appears if the action takes longer
// than 100ms, and never when w is not a terminal.
func WithSpinner[T any](w io.Writer, message string, action func() (T, error)) (T, error) {
	if w == nil {
		w = os.Stderr
	}
	if !IsTerminal(w) {
		return action()
	}

	done := make(chan struct{})
	var result T
	var err error

	go func() {
		result, err = action()
		close(done)
	}()

	// Avoid flicker for fast operations
	select {
	case <-done:
		return result, err
	case <-time.After(100 * time.Millisecond):
	}

	frame := 0
	ticker := time.NewTicker(80 * time.Millisecond)
	defer ticker.Stop()

	fmt.Fprintf(w, "\r%s %s", message, spinnerFrames[frame])

	for {
		select {
		case <-done:
			// Clear spinner line
			fmt.Fprintf(w, "\r\033[K")
			return result, err
		case <-ticker.C:
			frame = (frame + 1) % len(spinnerFrames)
			fmt.Fprintf(w, "\r%s %s", message, spinnerFrames[frame])
		}
	}
}

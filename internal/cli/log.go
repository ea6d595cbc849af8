// Package cli wires the setlistgen commands together.
//
//	setlistgen generate   build a setlist, scripted or interactively
//	setlistgen tracks     list the songs of a playlist
//	setlistgen auth       log in and out of Spotify
//	setlistgen serve      run the HTTP API
//	setlistgen cache      inspect or clear the response cache
//
// Commands share one [CLI] value holding the loaded configuration and a
// charmbracelet logger; -v switches it to debug level.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
	})
}

// stopwatch logs "<message> (<elapsed>)" once a step finishes.
type stopwatch struct {
	log   *log.Logger
	begun time.Time
}

func startStopwatch(l *log.Logger) stopwatch { return stopwatch{log: l, begun: time.Now()} }

func (s stopwatch) done(format string, args ...any) {
	elapsed := time.Since(s.begun).Round(time.Millisecond)
	s.log.Info(fmt.Sprintf(format, args...) + fmt.Sprintf(" (%s)", elapsed))
}

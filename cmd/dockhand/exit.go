// exit.go maps failure categories to distinct process exit codes so callers
// can branch on outcomes deterministically.

package main

import (
	"errors"
	"fmt"

	"github.com/example/dockhand/internal/engine"
	"github.com/spf13/pflag"
)

const (
	exitOK                = 0
	exitGeneric           = 1
	exitUsage             = 2
	exitEngineUnavailable = 3
	exitReadinessTimeout  = 4
	exitPortConflict      = 5
	exitProfileForbidden  = 6
	exitNotDetected       = 7
)

// exitError carries a category exit code alongside the message printed at
// the command boundary.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitWith(code int, format string, args ...any) error {
	return &exitError{code: code, err: fmt.Errorf(format, args...)}
}

func exitCodeFor(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	if errors.Is(err, engine.ErrReadinessTimeout) {
		return exitReadinessTimeout
	}
	return exitGeneric
}

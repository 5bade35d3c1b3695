// SPDX-License-Identifier: MIT
package repository

import (
	"errors"
	"fmt"

	"github.com/pocketlens/camcore/session"
)

var (
	// ErrNoConfiguration means start was requested before any valid
	// configuration was applied.
	ErrNoConfiguration = errors.New("repository: no configuration applied")

	// ErrSessionActive means a start was requested while a session is
	// already preparing, active, or stopping.
	ErrSessionActive = errors.New("repository: session already active")

	// ErrInterrupted means another transition raced in between the start
	// of an operation and its commit; the operation's effects were
	// discarded.
	ErrInterrupted = errors.New("repository: operation interrupted by concurrent transition")

	// ErrNotInError means clearError was called while the session was not
	// in the error state.
	ErrNotInError = errors.New("repository: session not in error state")

	// ErrNotPausable means pause was requested while no recording is in
	// progress, or resume while nothing is paused.
	ErrNotPausable = errors.New("repository: recording not in a pausable state")

	// ErrUnsupportedOperation means the capture pipeline cannot perform
	// the requested operation, such as pause on hardware without pause
	// support.
	ErrUnsupportedOperation = errors.New("repository: operation not supported by capture pipeline")
)

// SessionError is the failure surfaced to callers when a session
// transitions into its error state. The same code, message, and retry hint
// are visible to observers via the published state.
type SessionError struct {
	Code      session.ErrorCode
	Message   string
	Retryable bool
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("repository: %s: %s", e.Code, e.Message)
}

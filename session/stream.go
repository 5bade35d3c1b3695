// SPDX-License-Identifier: MIT

// Package session defines the closed state unions for streaming and
// recording sessions. States are created by their owning repository and
// read-only everywhere else; the predicates here are the only lifecycle
// policy, so repositories and observers cannot disagree on what "active"
// means.
package session

import (
	"time"

	"github.com/pocketlens/camcore/config"
)

// StreamState is the lifecycle of one streaming session. It is a closed
// union: the only implementations live in this package.
type StreamState interface {
	isStreamState()
	Name() string
}

// StreamIdle is the initial state and the state after ClearError.
type StreamIdle struct{}

// StreamPreparing covers credential retrieval and sink handoff before the
// stream is live.
type StreamPreparing struct {
	Message string
}

// Streaming is the live state.
type Streaming struct {
	URL          string
	StartTime    time.Time
	Quality      config.QualityPreset
	AudioEnabled bool
}

// StreamStopping covers sink teardown.
type StreamStopping struct {
	Message string
}

// StreamStopped is terminal for one cycle; a fresh start is legal.
type StreamStopped struct {
	Reason       string
	LastDuration time.Duration
}

// StreamError is terminal for one cycle. Message is pre-redacted and safe
// to display verbatim.
type StreamError struct {
	Message   string
	Code      ErrorCode
	Retryable bool
}

func (StreamIdle) isStreamState()      {}
func (StreamPreparing) isStreamState() {}
func (Streaming) isStreamState()       {}
func (StreamStopping) isStreamState()  {}
func (StreamStopped) isStreamState()   {}
func (StreamError) isStreamState()     {}

func (StreamIdle) Name() string      { return "idle" }
func (StreamPreparing) Name() string { return "preparing" }
func (Streaming) Name() string       { return "streaming" }
func (StreamStopping) Name() string  { return "stopping" }
func (StreamStopped) Name() string   { return "stopped" }
func (StreamError) Name() string     { return "error" }

// StreamIsActive reports whether the session is mid-lifecycle.
func StreamIsActive(s StreamState) bool {
	switch s.(type) {
	case StreamPreparing, Streaming, StreamStopping:
		return true
	case StreamIdle, StreamStopped, StreamError:
		return false
	}
	panic("session: unknown StreamState variant")
}

// StreamCanStart reports whether a fresh start attempt is legal.
func StreamCanStart(s StreamState) bool {
	switch s.(type) {
	case StreamIdle, StreamStopped, StreamError:
		return true
	case StreamPreparing, Streaming, StreamStopping:
		return false
	}
	panic("session: unknown StreamState variant")
}

// StreamCanStop reports whether stop is meaningful in the current state.
func StreamCanStop(s StreamState) bool {
	switch s.(type) {
	case StreamPreparing, Streaming:
		return true
	case StreamIdle, StreamStopping, StreamStopped, StreamError:
		return false
	}
	panic("session: unknown StreamState variant")
}

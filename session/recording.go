// SPDX-License-Identifier: MIT

package session

import "time"

// RecordingState is the lifecycle of one recording session, a closed union
// like StreamState but with pause support.
type RecordingState interface {
	isRecordingState()
	Name() string
}

// RecordingIdle is the initial state and the state after ClearError.
type RecordingIdle struct{}

// RecordingPreparing covers the storage preflight and sink handoff.
type RecordingPreparing struct {
	Message string
}

// Recording is the live state.
type Recording struct {
	FilePath  string
	StartTime time.Time
}

// RecordingPaused is live but not consuming frames. Only reachable when
// the sink reports pause capability. StartTime rides along so the session
// duration survives a stop from here.
type RecordingPaused struct {
	FilePath  string
	StartTime time.Time
	PausedAt  time.Time
}

// RecordingStopping covers sink teardown and file finalization.
type RecordingStopping struct {
	Message string
}

// RecordingStopped is terminal for one cycle and carries the finished
// artifact's stats.
type RecordingStopped struct {
	FilePath string
	Duration time.Duration
	FileSize int64
}

// RecordingError is terminal for one cycle. FilePath is set when a partial
// file exists.
type RecordingError struct {
	Code     ErrorCode
	Message  string
	FilePath string
}

func (RecordingIdle) isRecordingState()      {}
func (RecordingPreparing) isRecordingState() {}
func (Recording) isRecordingState()          {}
func (RecordingPaused) isRecordingState()    {}
func (RecordingStopping) isRecordingState()  {}
func (RecordingStopped) isRecordingState()   {}
func (RecordingError) isRecordingState()     {}

func (RecordingIdle) Name() string      { return "idle" }
func (RecordingPreparing) Name() string { return "preparing" }
func (Recording) Name() string          { return "recording" }
func (RecordingPaused) Name() string    { return "paused" }
func (RecordingStopping) Name() string  { return "stopping" }
func (RecordingStopped) Name() string   { return "stopped" }
func (RecordingError) Name() string     { return "error" }

// RecordingIsActive reports whether the session is mid-lifecycle.
func RecordingIsActive(s RecordingState) bool {
	switch s.(type) {
	case RecordingPreparing, Recording, RecordingPaused, RecordingStopping:
		return true
	case RecordingIdle, RecordingStopped, RecordingError:
		return false
	}
	panic("session: unknown RecordingState variant")
}

// RecordingCanStart reports whether a fresh start attempt is legal.
func RecordingCanStart(s RecordingState) bool {
	switch s.(type) {
	case RecordingIdle, RecordingStopped, RecordingError:
		return true
	case RecordingPreparing, Recording, RecordingPaused, RecordingStopping:
		return false
	}
	panic("session: unknown RecordingState variant")
}

// RecordingCanStop reports whether stop is meaningful in the current
// state. Paused recordings can be stopped directly.
func RecordingCanStop(s RecordingState) bool {
	switch s.(type) {
	case RecordingPreparing, Recording, RecordingPaused:
		return true
	case RecordingIdle, RecordingStopping, RecordingStopped, RecordingError:
		return false
	}
	panic("session: unknown RecordingState variant")
}

// RecordingCanPause reports whether pause is legal, ignoring the sink's
// pause capability (the repository checks that separately).
func RecordingCanPause(s RecordingState) bool {
	_, ok := s.(Recording)
	return ok
}

// RecordingCanResume reports whether resume is legal.
func RecordingCanResume(s RecordingState) bool {
	_, ok := s.(RecordingPaused)
	return ok
}

// SPDX-License-Identifier: MIT
package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/fsutil"
	"github.com/pocketlens/camcore/logging"
	"github.com/pocketlens/camcore/metrics"
	"github.com/pocketlens/camcore/session"
)

// RecordingRepository is the single mutator of the recording session. The
// storage preflight (output directory, free space, filename) and the sink
// handoff run outside the critical section.
type RecordingRepository struct {
	storage RecordingStorage
	sink    RecordingSink
	log     zerolog.Logger
	now     func() time.Time

	// opMu serializes pause and resume end to end, so the sink sees at
	// most one call per transition even when callers race.
	opMu sync.Mutex

	mu       sync.Mutex
	cfg      *config.RecordingConfig
	state    session.RecordingState
	gen      uint64
	notifier *notifier[session.RecordingState]
}

// RecordingOption customizes a RecordingRepository.
type RecordingOption func(*RecordingRepository)

// WithRecordingClock overrides the time source. Tests use it.
func WithRecordingClock(now func() time.Time) RecordingOption {
	return func(r *RecordingRepository) { r.now = now }
}

// NewRecordingRepository starts in the idle state with no configuration.
func NewRecordingRepository(storage RecordingStorage, sink RecordingSink, opts ...RecordingOption) *RecordingRepository {
	r := &RecordingRepository{
		storage:  storage,
		sink:     sink,
		log:      logging.WithComponent("recording_repository"),
		now:      time.Now,
		state:    session.RecordingIdle{},
		notifier: newNotifier[session.RecordingState](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state snapshot.
func (r *RecordingRepository) State() session.RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentConfig returns the active configuration, or nil before the first
// successful UpdateConfiguration.
func (r *RecordingRepository) CurrentConfig() *config.RecordingConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Subscribe returns a conflating channel that first yields the current
// state and then every subsequent transition. Closed when ctx is done.
func (r *RecordingRepository) Subscribe(ctx context.Context) <-chan session.RecordingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifier.subscribe(ctx, r.state)
}

// UpdateConfiguration validates and installs new recording settings. On
// failure the previous configuration stays active.
func (r *RecordingRepository) UpdateConfiguration(s config.RecordingSettings) error {
	cfg, err := config.NewRecordingConfig(s)
	if err != nil {
		metrics.IncConfigRejection("recording")
		r.log.Warn().Err(err).Msg("recording configuration rejected")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.cfg = cfg
	r.log.Info().
		Str(logging.FieldPath, cfg.OutputDir()).
		Str(logging.FieldQuality, string(cfg.Quality())).
		Msg("recording configuration updated")
	return nil
}

// StartRecording runs the storage preflight, hands the output path to the
// sink, and transitions into the recording state. Exactly one concurrent
// caller wins; the rest fail with ErrSessionActive before any side effect.
func (r *RecordingRepository) StartRecording(ctx context.Context) error {
	r.mu.Lock()
	if r.cfg == nil {
		r.mu.Unlock()
		return ErrNoConfiguration
	}
	if !session.RecordingCanStart(r.state) {
		r.mu.Unlock()
		return ErrSessionActive
	}
	cfg := r.cfg
	gen := r.transitionLocked(session.RecordingPreparing{Message: "preparing output"})
	r.mu.Unlock()

	dir, err := r.storage.EnsureOutputDirectory(cfg)
	if err != nil {
		return r.failRecording(gen, session.RecordingError{
			Code:    classifyStorageError(err),
			Message: "output directory is not usable",
		})
	}

	if !r.storage.CheckSpaceForRecording(cfg, cfg.MaxDuration()) {
		return r.failRecording(gen, session.RecordingError{
			Code:    session.CodeInsufficientStorage,
			Message: "not enough free space for the recording",
		})
	}

	outputPath := filepath.Join(dir, r.storage.GenerateUniqueFilename(cfg))
	if err := r.sink.StartRecording(ctx, cfg, outputPath); err != nil {
		r.log.Error().Err(err).Str(logging.FieldPath, outputPath).Msg("recording sink refused to start")
		return r.failRecording(gen, session.RecordingError{
			Code:    session.CodeCameraError,
			Message: "capture pipeline failed to start",
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(session.Recording{FilePath: outputPath, StartTime: r.now()})
	return nil
}

// StopRecording finalizes the file and reports its stats through the
// stopped state. Stopping an idle, stopped, or errored session is a no-op
// success.
func (r *RecordingRepository) StopRecording(ctx context.Context) error {
	r.mu.Lock()
	if !session.RecordingCanStop(r.state) {
		r.mu.Unlock()
		return nil
	}
	var (
		filePath string
		started  time.Time
	)
	switch st := r.state.(type) {
	case session.Recording:
		filePath, started = st.FilePath, st.StartTime
	case session.RecordingPaused:
		filePath, started = st.FilePath, st.StartTime
	}
	gen := r.transitionLocked(session.RecordingStopping{Message: "finalizing file"})
	r.mu.Unlock()

	size, err := r.sink.StopRecording(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	stopped := session.RecordingStopped{FilePath: filePath, FileSize: size}
	if !started.IsZero() {
		stopped.Duration = r.now().Sub(started)
	}
	if err != nil {
		r.log.Warn().Err(err).Str(logging.FieldPath, filePath).Msg("recording sink reported error during stop")
	}
	r.transitionLocked(stopped)
	return nil
}

// PauseRecording suspends frame intake without finalizing the file. It
// fails with ErrUnsupportedOperation when the capture pipeline cannot
// pause, leaving the state unchanged.
func (r *RecordingRepository) PauseRecording(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	if !session.RecordingCanPause(r.state) {
		r.mu.Unlock()
		return ErrNotPausable
	}
	if !r.sink.Capabilities().CanPause {
		r.mu.Unlock()
		return ErrUnsupportedOperation
	}
	live := r.state.(session.Recording)
	gen := r.gen
	r.mu.Unlock()

	if err := r.sink.PauseRecording(ctx); err != nil {
		return r.failRecording(gen, session.RecordingError{
			Code:     session.CodeCameraError,
			Message:  "capture pipeline failed to pause",
			FilePath: live.FilePath,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(session.RecordingPaused{
		FilePath:  live.FilePath,
		StartTime: live.StartTime,
		PausedAt:  r.now(),
	})
	return nil
}

// ResumeRecording restarts frame intake into the same file. The original
// start time is kept, so the reported duration spans pauses.
func (r *RecordingRepository) ResumeRecording(ctx context.Context) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	if !session.RecordingCanResume(r.state) {
		r.mu.Unlock()
		return ErrNotPausable
	}
	paused := r.state.(session.RecordingPaused)
	gen := r.gen
	r.mu.Unlock()

	if err := r.sink.ResumeRecording(ctx); err != nil {
		return r.failRecording(gen, session.RecordingError{
			Code:     session.CodeCameraError,
			Message:  "capture pipeline failed to resume",
			FilePath: paused.FilePath,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(session.Recording{FilePath: paused.FilePath, StartTime: paused.StartTime})
	return nil
}

// ClearError acknowledges a failure and returns the session to idle.
func (r *RecordingRepository) ClearError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.(session.RecordingError); !ok {
		return ErrNotInError
	}
	r.transitionLocked(session.RecordingIdle{})
	return nil
}

func (r *RecordingRepository) failRecording(gen uint64, errState session.RecordingError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(errState)
	return &SessionError{
		Code:      errState.Code,
		Message:   errState.Message,
		Retryable: errState.Code.DefaultRetryable(),
	}
}

func (r *RecordingRepository) transitionLocked(next session.RecordingState) uint64 {
	r.log.Info().
		Str(logging.FieldOldState, r.state.Name()).
		Str(logging.FieldNewState, next.Name()).
		Msg("recording state transition")
	r.state = next
	r.gen++
	metrics.IncStateTransition("recording", next.Name())
	r.notifier.publish(next)
	return r.gen
}

// classifyStorageError maps a storage preflight failure onto a session
// error code without leaking the raw path out of the sandbox.
func classifyStorageError(err error) session.ErrorCode {
	switch {
	case errors.Is(err, os.ErrPermission):
		return session.CodePermissionDenied
	case errors.Is(err, fsutil.ErrOutsideRoot):
		return session.CodeInvalidOutputFile
	default:
		return session.CodeInvalidOutputFile
	}
}

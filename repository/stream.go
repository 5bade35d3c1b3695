// SPDX-License-Identifier: MIT
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/logging"
	"github.com/pocketlens/camcore/metrics"
	"github.com/pocketlens/camcore/securestore"
	"github.com/pocketlens/camcore/session"
)

// StreamRepository is the single mutator of the streaming session. All
// reads and writes of the (configuration, state) pair go through its mutex;
// sink handoff and credential retrieval happen outside the critical
// section so a slow transport never blocks observers.
type StreamRepository struct {
	creds    CredentialStore
	sink     StreamSink
	provider CaptureProvider
	log      zerolog.Logger
	now      func() time.Time

	// updateMu serializes configuration updates end to end, keeping the
	// credential diff race-free while mu is held only for snapshots and
	// commits, never across store I/O.
	updateMu sync.Mutex

	mu       sync.Mutex
	cfg      *config.StreamConfig
	state    session.StreamState
	gen      uint64
	notifier *notifier[session.StreamState]
}

// StreamOption customizes a StreamRepository.
type StreamOption func(*StreamRepository)

// WithCaptureProvider makes start consult the capture layer's status.
func WithCaptureProvider(p CaptureProvider) StreamOption {
	return func(r *StreamRepository) { r.provider = p }
}

// WithStreamClock overrides the time source. Tests use it.
func WithStreamClock(now func() time.Time) StreamOption {
	return func(r *StreamRepository) { r.now = now }
}

// NewStreamRepository starts in the idle state with no configuration.
func NewStreamRepository(creds CredentialStore, sink StreamSink, opts ...StreamOption) *StreamRepository {
	r := &StreamRepository{
		creds:    creds,
		sink:     sink,
		log:      logging.WithComponent("stream_repository"),
		now:      time.Now,
		state:    session.StreamIdle{},
		notifier: newNotifier[session.StreamState](),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current state snapshot.
func (r *StreamRepository) State() session.StreamState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentConfig returns the active configuration, or nil before the first
// successful UpdateConfiguration.
func (r *StreamRepository) CurrentConfig() *config.StreamConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cfg
}

// Subscribe returns a channel that first yields the current state and then
// every subsequent transition. The channel conflates: a slow receiver sees
// the latest state, not every intermediate one. It is closed when ctx is
// done.
func (r *StreamRepository) Subscribe(ctx context.Context) <-chan session.StreamState {
	// Registration happens under the state lock so no transition can slip
	// between the snapshot and the subscription.
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifier.subscribe(ctx, r.state)
}

// UpdateConfiguration validates the settings, persists or removes stored
// credentials when the credential-relevant fields changed, and installs
// the new configuration. On any failure the previous configuration and
// the credential store are left untouched.
func (r *StreamRepository) UpdateConfiguration(s config.StreamSettings) error {
	cfg, err := config.NewStreamConfig(s)
	if err != nil {
		metrics.IncConfigRejection("stream")
		r.log.Warn().Err(err).Msg("stream configuration rejected")
		return err
	}

	r.updateMu.Lock()
	defer r.updateMu.Unlock()

	r.mu.Lock()
	prev := r.cfg
	r.mu.Unlock()

	// prev cannot change here: updateMu makes this the only writer of cfg.
	switch {
	case cfg.AuthRequired() && credentialsChanged(prev, cfg):
		if err := r.creds.StoreCredentials(cfg.Username(), cfg.Password()); err != nil {
			return fmt.Errorf("persist credentials: %w", err)
		}
	case !cfg.AuthRequired() && prev != nil && prev.AuthRequired():
		if err := r.creds.DeleteCredentials(); err != nil {
			return fmt.Errorf("remove credentials: %w", err)
		}
	}

	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()

	r.log.Info().
		Str(logging.FieldURL, cfg.RedactedTarget()).
		Str(logging.FieldQuality, string(cfg.Quality())).
		Msg("stream configuration updated")
	return nil
}

func credentialsChanged(prev, next *config.StreamConfig) bool {
	if prev == nil || !prev.AuthRequired() {
		return true
	}
	return prev.Username() != next.Username() || prev.Password() != next.Password()
}

// StartStreaming transitions idle (or stopped, or a cleared error) into a
// live stream. Exactly one concurrent caller wins; the rest fail with
// ErrSessionActive before any side effect.
func (r *StreamRepository) StartStreaming(ctx context.Context) error {
	r.mu.Lock()
	if r.cfg == nil {
		r.mu.Unlock()
		return ErrNoConfiguration
	}
	if !session.StreamCanStart(r.state) {
		r.mu.Unlock()
		return ErrSessionActive
	}
	cfg := r.cfg
	gen := r.transitionLocked(session.StreamPreparing{Message: "connecting"})
	r.mu.Unlock()

	if r.provider != nil {
		if st := r.provider.Status(); !st.Initialized {
			return r.failStream(gen, session.StreamError{
				Message:   "camera not available",
				Code:      session.CodeCameraError,
				Retryable: session.CodeCameraError.DefaultRetryable(),
			})
		}
	}

	var creds *securestore.Credentials
	if cfg.AuthRequired() {
		c, err := r.creds.RetrieveCredentials()
		if err != nil {
			r.log.Error().Err(err).Msg("credential retrieval failed")
			return r.failStream(gen, session.StreamError{
				Message:   "stored credentials could not be read",
				Code:      session.CodeConfigurationError,
				Retryable: session.CodeConfigurationError.DefaultRetryable(),
			})
		}
		creds = &c
	}

	if err := r.sink.StartStream(ctx, cfg, creds); err != nil {
		r.log.Error().Err(err).Msg("stream sink refused to start")
		return r.failStream(gen, session.StreamError{
			Message:   "streaming server failed to start",
			Code:      session.CodeNetworkError,
			Retryable: session.CodeNetworkError.DefaultRetryable(),
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(session.Streaming{
		URL:          cfg.TargetURL(),
		StartTime:    r.now(),
		Quality:      cfg.Quality(),
		AudioEnabled: cfg.AudioEnabled(),
	})
	return nil
}

// StopStreaming ends the session. Stopping an idle, stopped, or errored
// session is a no-op success.
func (r *StreamRepository) StopStreaming(ctx context.Context) error {
	r.mu.Lock()
	if !session.StreamCanStop(r.state) {
		r.mu.Unlock()
		return nil
	}
	var started time.Time
	if live, ok := r.state.(session.Streaming); ok {
		started = live.StartTime
	}
	gen := r.transitionLocked(session.StreamStopping{Message: "shutting down"})
	r.mu.Unlock()

	err := r.sink.StopStream(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	stopped := session.StreamStopped{Reason: "user request"}
	if !started.IsZero() {
		stopped.LastDuration = r.now().Sub(started)
	}
	if err != nil {
		r.log.Warn().Err(err).Msg("stream sink reported error during stop")
		stopped.Reason = "stopped after transport error"
	}
	r.transitionLocked(stopped)
	return nil
}

// ClearError acknowledges a failure and returns the session to idle. It is
// only legal from the error state.
func (r *StreamRepository) ClearError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.state.(session.StreamError); !ok {
		return ErrNotInError
	}
	r.transitionLocked(session.StreamIdle{})
	return nil
}

// failStream commits an error state unless another transition raced in,
// and mirrors it to the caller as a SessionError.
func (r *StreamRepository) failStream(gen uint64, errState session.StreamError) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return ErrInterrupted
	}
	r.transitionLocked(errState)
	return &SessionError{Code: errState.Code, Message: errState.Message, Retryable: errState.Retryable}
}

// transitionLocked installs the new state, bumps the generation counter,
// and fans the snapshot out. Callers hold r.mu.
func (r *StreamRepository) transitionLocked(next session.StreamState) uint64 {
	r.log.Info().
		Str(logging.FieldOldState, r.state.Name()).
		Str(logging.FieldNewState, next.Name()).
		Msg("stream state transition")
	r.state = next
	r.gen++
	metrics.IncStateTransition("stream", next.Name())
	r.notifier.publish(next)
	return r.gen
}

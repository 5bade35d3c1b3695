// SPDX-License-Identifier: MIT

// Package repository orchestrates streaming and recording sessions. Each
// repository owns one state machine and one current configuration, guards
// them with a mutex, and is their sole mutator; everything else observes
// through a read-only subscription channel.
package repository

import (
	"context"
	"time"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/securestore"
)

// StreamSink is the wire transport collaborator (HTTP/RTSP server). It is
// opaque beyond start/stop: frame delivery and the protocol itself live
// behind it.
type StreamSink interface {
	// StartStream hands off a validated configuration. creds is nil when
	// authentication is disabled. Returning nil means the sink is ready.
	StartStream(ctx context.Context, cfg *config.StreamConfig, creds *securestore.Credentials) error
	StopStream(ctx context.Context) error
}

// RecordingSink is the capture/encoder/muxer collaborator.
type RecordingSink interface {
	// StartRecording hands off a validated configuration and the absolute
	// output path. Returning nil means frames are being written.
	StartRecording(ctx context.Context, cfg *config.RecordingConfig, outputPath string) error
	// StopRecording finalizes the file and returns its size in bytes.
	StopRecording(ctx context.Context) (int64, error)
	PauseRecording(ctx context.Context) error
	ResumeRecording(ctx context.Context) error
	// Capabilities is a cheap snapshot; pause support is a hardware fact.
	Capabilities() Capabilities
}

// Capabilities describes what the underlying capture pipeline supports.
type Capabilities struct {
	CameraCount int
	CanPause    bool
}

// CaptureProvider is the camera/preview collaborator. Repositories only
// consult its status; preview control belongs to the UI layer.
type CaptureProvider interface {
	Initialize(ctx context.Context) error
	StartPreview(ctx context.Context) error
	StopPreview(ctx context.Context)
	SwitchCamera(ctx context.Context) error
	Status() CaptureStatus
}

// CaptureStatus is the observable capability snapshot of the capture layer.
type CaptureStatus struct {
	CameraCount int
	Initialized bool
	LastError   string
}

// CredentialStore is the slice of the secure store the stream repository
// needs. *securestore.Store satisfies it.
type CredentialStore interface {
	StoreCredentials(username, secret string) error
	RetrieveCredentials() (securestore.Credentials, error)
	DeleteCredentials() error
	HasStoredCredentials() bool
}

// RecordingStorage is the slice of the file manager the recording
// repository needs for its preflight. *filemanager.Manager satisfies it.
type RecordingStorage interface {
	EnsureOutputDirectory(cfg *config.RecordingConfig) (string, error)
	GenerateUniqueFilename(cfg *config.RecordingConfig) string
	CheckSpaceForRecording(cfg *config.RecordingConfig, estimatedDuration time.Duration) bool
}

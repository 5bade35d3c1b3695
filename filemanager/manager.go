// SPDX-License-Identifier: MIT

// Package filemanager owns the recording output lifecycle: directory
// preparation, unique path generation, storage preflight, metadata,
// listing, confined deletion and retention eviction. Every destructive
// operation is confined to the managed root.
package filemanager

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/fsutil"
	"github.com/pocketlens/camcore/logging"
	"github.com/pocketlens/camcore/validate"
)

// stableWindow is how long a file must be unmodified before it counts as a
// finished recording rather than one still being written. Conservative for
// network filesystems with attribute caching.
const stableWindow = 30 * time.Second

// minRecordingSize filters out stub files left by aborted sessions.
const minRecordingSize = 1 << 20

// Manager operates on a single managed recordings root.
type Manager struct {
	root      string
	log       zerolog.Logger
	prober    Prober
	probes    singleflight.Group
	freeSpace func(path string) (int64, error)
	now       func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithProber replaces the default ffprobe-based media prober.
func WithProber(p Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithFreeSpaceFunc replaces the filesystem free-space query, for tests.
func WithFreeSpaceFunc(fn func(path string) (int64, error)) Option {
	return func(m *Manager) { m.freeSpace = fn }
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New creates a Manager rooted at the app-private recordings directory,
// creating it if absent.
func New(root string, opts ...Option) (*Manager, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create root: %w", err)
	}

	m := &Manager{
		root:      abs,
		log:       logging.WithComponent("filemanager"),
		prober:    &FFProbeProber{},
		freeSpace: freeSpace,
		now:       time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m, nil
}

// Root returns the managed root directory.
func (m *Manager) Root() string { return m.root }

// EnsureOutputDirectory confines the configured output directory under the
// root, creates it, and verifies it is writable with an atomic probe
// write. Returns the absolute directory on success.
func (m *Manager) EnsureOutputDirectory(cfg *config.RecordingConfig) (string, error) {
	dir, err := fsutil.ConfineRel(m.root, cfg.OutputDir())
	if err != nil {
		return "", fmt.Errorf("confine output directory: %w", err)
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	probe := filepath.Join(dir, ".writecheck")
	if err := renameio.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return "", fmt.Errorf("output directory not writable: %w", err)
	}
	if err := os.Remove(probe); err != nil {
		m.log.Debug().Str(logging.FieldPath, probe).Err(err).Msg("probe cleanup failed")
	}
	return dir, nil
}

// GenerateUniqueFilename builds an output filename from the sanitized
// configured prefix, a timestamp and a random disambiguator, with the
// container's extension.
func (m *Manager) GenerateUniqueFilename(cfg *config.RecordingConfig) string {
	prefix := validate.SanitizeFilename(cfg.FilenamePrefix())
	stamp := m.now().Format("20060102_150405")
	tail := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s_%s_%s%s", prefix, stamp, tail, cfg.Container().Extension())
}

// CheckSpaceForRecording reports whether a recording of the estimated
// duration fits while keeping the configured reserve free. It never
// returns an error; a failed free-space query reads as "no room".
func (m *Manager) CheckSpaceForRecording(cfg *config.RecordingConfig, estimatedDuration time.Duration) bool {
	free, err := m.freeSpace(m.root)
	if err != nil {
		m.log.Warn().Err(err).Msg("free-space query failed, refusing recording")
		return false
	}
	need := cfg.EstimatedFileSize(estimatedDuration) + cfg.MinFreeSpace()
	enough := free >= need
	if !enough {
		m.log.Info().
			Int64(logging.FieldFreeBytes, free).
			Int64("required_bytes", need).
			Msg("insufficient storage for recording")
	}
	return enough
}

// DeleteRecording removes the file at path after confining it to the
// managed root. Deleting a file that is already gone is a success;
// deleting anything outside the root fails with fsutil.ErrOutsideRoot.
func (m *Manager) DeleteRecording(path string) error {
	real, err := fsutil.ConfineAbs(m.root, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete recording: %w", err)
	}
	if err := os.Remove(real); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete recording: %w", err)
	}
	m.log.Info().Str(logging.FieldPath, validate.SanitizeForLogging(real)).Msg("recording deleted")
	return nil
}

// ListRecordings walks the root and returns finished recordings, newest
// last. Files still being written (fresh, undersized or lock-marked) are
// excluded.
func (m *Manager) ListRecordings() ([]RecordingFileInfo, error) {
	var out []RecordingFileInfo
	err := filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtree: skip, keep listing the rest.
			return nil
		}
		if info.IsDir() || !m.isFinishedRecording(path, info) {
			return nil
		}
		out = append(out, m.fileInfo(path, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// isFinishedRecording classifies a file as a stable, finished recording:
// allowed extension, minimum size, stable mtime and no lock markers.
func (m *Manager) isFinishedRecording(path string, info os.FileInfo) bool {
	if !hasRecordingExt(path) {
		return false
	}
	if info.Size() < minRecordingSize {
		return false
	}
	if m.now().Sub(info.ModTime()) < stableWindow {
		return false
	}
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".partial") || strings.HasSuffix(lower, ".tmp") {
		return false
	}
	if _, err := os.Stat(path + ".lock"); err == nil {
		return false
	}
	return true
}

func hasRecordingExt(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case config.ContainerMP4.Extension(), config.ContainerMKV.Extension():
		return true
	}
	return false
}

// SPDX-License-Identifier: MIT
package filemanager

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/fsutil"
)

func testConfig(t *testing.T, mutate func(*config.RecordingSettings)) *config.RecordingConfig {
	t.Helper()
	s := config.DefaultRecordingSettings()
	if mutate != nil {
		mutate(&s)
	}
	cfg, err := config.NewRecordingConfig(s)
	require.NoError(t, err)
	return cfg
}

// newTestManager returns a manager whose clock is one hour ahead, so
// freshly written fixture files count as stable finished recordings.
func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	opts = append(opts, WithClock(func() time.Time { return time.Now().Add(time.Hour) }))
	m, err := New(t.TempDir(), opts...)
	require.NoError(t, err)
	return m
}

// writeRecording creates a finished-looking recording with the given age
// rank (older rank = older mtime).
func writeRecording(t *testing.T, dir, name string, size int, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xAB}, size), 0o600))
	mtime := time.Now().Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestEnsureOutputDirectory(t *testing.T) {
	m := newTestManager(t)
	cfg := testConfig(t, func(s *config.RecordingSettings) { s.OutputDir = "clips/front" })

	dir, err := m.EnsureOutputDirectory(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dir, m.Root()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent.
	_, err = m.EnsureOutputDirectory(cfg)
	assert.NoError(t, err)
}

func TestGenerateUniqueFilename(t *testing.T) {
	m := newTestManager(t)
	cfg := testConfig(t, nil)

	a := m.GenerateUniqueFilename(cfg)
	b := m.GenerateUniqueFilename(cfg)

	assert.NotEqual(t, a, b, "two generated names must differ")
	assert.True(t, strings.HasPrefix(a, "capture_"))
	assert.True(t, strings.HasSuffix(a, ".mp4"))

	hostile := testConfig(t, func(s *config.RecordingSettings) { s.FilenamePrefix = "cam.front" })
	c := m.GenerateUniqueFilename(hostile)
	assert.True(t, strings.HasPrefix(c, "cam.front_"))
}

func TestCheckSpaceForRecording(t *testing.T) {
	// Medium quality with audio: 2,628,000 b/s. For 60 s the estimate is
	// 2,628,000 × 60 / 8 = 19,710,000 bytes, plus the 100 MiB default
	// reserve: 124,567,600 bytes required.
	cfg := testConfig(t, func(s *config.RecordingSettings) { s.Quality = config.QualityMedium })
	const required = 19_710_000 + 100<<20

	tests := []struct {
		name   string
		free   int64
		enough bool
	}{
		{"100 MB free is not enough", 100_000_000, false},
		{"exact boundary passes", required, true},
		{"one byte short fails", required - 1, false},
		{"plenty", 10 << 30, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t, WithFreeSpaceFunc(func(string) (int64, error) {
				return tt.free, nil
			}))
			assert.Equal(t, tt.enough, m.CheckSpaceForRecording(cfg, time.Minute))
		})
	}

	t.Run("query failure reads as no room", func(t *testing.T) {
		m := newTestManager(t, WithFreeSpaceFunc(func(string) (int64, error) {
			return 0, errors.New("statfs failed")
		}))
		assert.False(t, m.CheckSpaceForRecording(cfg, time.Minute))
	})
}

func TestDeleteRecording(t *testing.T) {
	m := newTestManager(t)

	t.Run("inside root", func(t *testing.T) {
		path := writeRecording(t, m.Root(), "a.mp4", 16, time.Hour)
		require.NoError(t, m.DeleteRecording(path))
		_, err := os.Stat(path)
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("already gone is success", func(t *testing.T) {
		assert.NoError(t, m.DeleteRecording(filepath.Join(m.Root(), "never-existed.mp4")))
	})

	t.Run("outside root is a security error", func(t *testing.T) {
		err := m.DeleteRecording("/etc/passwd")
		require.Error(t, err)
		assert.ErrorIs(t, err, fsutil.ErrOutsideRoot)
		_, statErr := os.Stat("/etc/passwd")
		assert.NoError(t, statErr, "target must be untouched")
	})

	t.Run("traversal outside root", func(t *testing.T) {
		victim := filepath.Join(t.TempDir(), "victim.mp4")
		require.NoError(t, os.WriteFile(victim, []byte("x"), 0o600))
		err := m.DeleteRecording(filepath.Join(m.Root(), "..", filepath.Base(filepath.Dir(victim)), "victim.mp4"))
		require.Error(t, err)
		_, statErr := os.Stat(victim)
		assert.NoError(t, statErr)
	})
}

func TestListRecordings(t *testing.T) {
	m := newTestManager(t)
	const big = 2 << 20

	writeRecording(t, m.Root(), "old.mp4", big, 3*time.Hour)
	writeRecording(t, m.Root(), "new.mkv", big, time.Hour)
	writeRecording(t, m.Root(), "tiny.mp4", 128, 2*time.Hour)        // below size floor
	writeRecording(t, m.Root(), "notes.txt", big, 2*time.Hour)       // wrong extension
	writeRecording(t, m.Root(), "inflight.mp4.tmp", big, time.Hour)  // tmp marker
	locked := writeRecording(t, m.Root(), "locked.mp4", big, time.Hour)
	require.NoError(t, os.WriteFile(locked+".lock", nil, 0o600))

	recs, err := m.ListRecordings()
	require.NoError(t, err)

	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Filename
	}
	assert.Equal(t, []string{"old.mp4", "new.mkv"}, names, "oldest first, unstable and foreign files excluded")
	assert.Equal(t, "video/mp4", recs[0].MimeType)
	assert.Equal(t, "video/x-matroska", recs[1].MimeType)
}

func TestCleanupOldRecordings(t *testing.T) {
	const big = 2 << 20

	t.Run("count constraint deletes exactly the oldest", func(t *testing.T) {
		m := newTestManager(t)
		oldest := writeRecording(t, m.Root(), "one.mp4", big, 3*time.Hour)
		writeRecording(t, m.Root(), "two.mp4", big, 2*time.Hour)
		writeRecording(t, m.Root(), "three.mp4", big, time.Hour)

		deleted, err := m.CleanupOldRecordings(2, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted)

		_, statErr := os.Stat(oldest)
		assert.True(t, os.IsNotExist(statErr), "oldest must be gone")

		recs, err := m.ListRecordings()
		require.NoError(t, err)
		assert.Len(t, recs, 2)
	})

	t.Run("size constraint", func(t *testing.T) {
		m := newTestManager(t)
		writeRecording(t, m.Root(), "one.mp4", big, 3*time.Hour)
		writeRecording(t, m.Root(), "two.mp4", big, 2*time.Hour)
		writeRecording(t, m.Root(), "three.mp4", big, time.Hour)

		deleted, err := m.CleanupOldRecordings(0, 2*big+big/2)
		require.NoError(t, err)
		assert.Equal(t, 1, deleted, "one deletion brings total under the cap")
	})

	t.Run("no limits means no deletions", func(t *testing.T) {
		m := newTestManager(t)
		writeRecording(t, m.Root(), "one.mp4", big, time.Hour)

		deleted, err := m.CleanupOldRecordings(0, 0)
		require.NoError(t, err)
		assert.Zero(t, deleted)
	})
}

func TestRecordingInfo(t *testing.T) {
	probe := MediaInfo{
		Duration:   90 * time.Second,
		Resolution: "1280x720",
		Bitrate:    2_500_000,
		FrameRate:  30,
		HasAudio:   true,
	}
	m := newTestManager(t, WithProber(proberFunc(func(string) (MediaInfo, error) {
		return probe, nil
	})))
	path := writeRecording(t, m.Root(), "clip.mp4", 4<<20, time.Hour)

	info, err := m.RecordingInfo(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "clip.mp4", info.Filename)
	assert.Equal(t, int64(4<<20), info.Size)
	assert.Equal(t, probe.Duration, info.Duration)
	assert.Equal(t, probe.Resolution, info.Resolution)
	assert.True(t, info.HasAudio)

	t.Run("probe failure degrades to stat-only", func(t *testing.T) {
		m := newTestManager(t, WithProber(proberFunc(func(string) (MediaInfo, error) {
			return MediaInfo{}, errors.New("no ffprobe")
		})))
		path := writeRecording(t, m.Root(), "clip.mp4", 4<<20, time.Hour)

		info, err := m.RecordingInfo(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, int64(4<<20), info.Size)
		assert.Zero(t, info.Duration)
	})

	t.Run("outside root rejected", func(t *testing.T) {
		_, err := m.RecordingInfo(context.Background(), "/etc/passwd")
		assert.ErrorIs(t, err, fsutil.ErrOutsideRoot)
	})
}

type proberFunc func(path string) (MediaInfo, error)

func (f proberFunc) Probe(_ context.Context, path string) (MediaInfo, error) { return f(path) }

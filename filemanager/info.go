// SPDX-License-Identifier: MIT

package filemanager

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pocketlens/camcore/fsutil"
)

// RecordingFileInfo describes one finished recording. It is derived,
// read-only state: always recomputed from the filesystem and the media
// probe, never persisted, so it cannot go stale.
type RecordingFileInfo struct {
	Filename   string
	Path       string
	Size       int64
	Duration   time.Duration
	Resolution string
	Bitrate    int // bits per second
	FrameRate  float64
	HasAudio   bool
	CreatedAt  time.Time
	ModifiedAt time.Time
	MimeType   string
}

// MediaInfo is the probe result for a media file.
type MediaInfo struct {
	Duration   time.Duration
	Resolution string
	Bitrate    int
	FrameRate  float64
	HasAudio   bool
}

// Prober extracts media metadata from a file on disk.
type Prober interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// RecordingInfo returns full metadata for one recording, combining stat
// data with the media probe. Concurrent probes of the same path are
// deduplicated. Probe failure degrades to stat-only info.
func (m *Manager) RecordingInfo(ctx context.Context, path string) (RecordingFileInfo, error) {
	real, err := fsutil.ConfineAbs(m.root, path)
	if err != nil {
		return RecordingFileInfo{}, fmt.Errorf("recording info: %w", err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return RecordingFileInfo{}, fmt.Errorf("recording info: %w", err)
	}

	out := m.fileInfo(real, info)

	v, err, _ := m.probes.Do(real, func() (interface{}, error) {
		return m.prober.Probe(ctx, real)
	})
	if err != nil {
		m.log.Debug().Err(err).Msg("media probe failed, returning stat-only info")
		return out, nil
	}
	media := v.(MediaInfo)
	out.Duration = media.Duration
	out.Resolution = media.Resolution
	out.Bitrate = media.Bitrate
	out.FrameRate = media.FrameRate
	out.HasAudio = media.HasAudio
	return out, nil
}

// fileInfo builds the stat-derived part of RecordingFileInfo. Creation
// time is approximated by mtime, which is what most mobile filesystems
// expose portably.
func (m *Manager) fileInfo(path string, info os.FileInfo) RecordingFileInfo {
	return RecordingFileInfo{
		Filename:   filepath.Base(path),
		Path:       path,
		Size:       info.Size(),
		CreatedAt:  info.ModTime(),
		ModifiedAt: info.ModTime(),
		MimeType:   mimeTypeFor(path),
	}
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4":
		return "video/mp4"
	case ".mkv":
		return "video/x-matroska"
	}
	return "application/octet-stream"
}

// FFProbeProber shells out to ffprobe for container and stream metadata.
type FFProbeProber struct {
	// Binary overrides the ffprobe executable name.
	Binary string
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

// Probe runs ffprobe with a short timeout and maps its JSON output.
func (p *FFProbeProber) Probe(ctx context.Context, path string) (MediaInfo, error) {
	bin := p.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path)
	raw, err := cmd.Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe: %w", err)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe output: %w", err)
	}

	var media MediaInfo
	if secs, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
		media.Duration = time.Duration(secs * float64(time.Second))
	}
	if b, err := strconv.Atoi(out.Format.BitRate); err == nil {
		media.Bitrate = b
	}
	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if s.Width > 0 && s.Height > 0 {
				media.Resolution = fmt.Sprintf("%dx%d", s.Width, s.Height)
			}
			media.FrameRate = parseFrameRate(s.AvgFrameRate)
		case "audio":
			media.HasAudio = true
		}
	}
	return media, nil
}

// parseFrameRate maps ffprobe's "num/den" rational to a float.
func parseFrameRate(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

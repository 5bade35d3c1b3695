// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/pocketlens/camcore/validate"
)

// VideoCodec selects the recording video encoder.
type VideoCodec string

// AudioCodec selects the recording audio encoder, or none.
type AudioCodec string

// Container selects the recording container format.
type Container string

const (
	VideoH264 VideoCodec = "h264"
	VideoHEVC VideoCodec = "hevc"

	AudioAAC  AudioCodec = "aac"
	AudioNone AudioCodec = "none"

	ContainerMP4 Container = "mp4"
	ContainerMKV Container = "mkv"
)

// Recording bounds. The file size cap keeps output portable across FAT32
// style filesystems; the duration cap bounds runaway sessions.
const (
	MaxRecordingFileSize = 4 << 30 // 4 GiB
	MinRecordingFileSize = 10 << 20

	MaxRecordingDuration = 24 * time.Hour
	MinRecordingDuration = time.Second

	// DefaultMinFreeSpace is the storage reserve kept untouched by the
	// recording space preflight.
	DefaultMinFreeSpace = 100 << 20 // 100 MiB

	// audioBitrate is the fixed AAC bitrate used for size estimation.
	audioBitrate = 128_000
)

func (c VideoCodec) IsValid() bool { return c == VideoH264 || c == VideoHEVC }
func (c AudioCodec) IsValid() bool { return c == AudioAAC || c == AudioNone }
func (c Container) IsValid() bool  { return c == ContainerMP4 || c == ContainerMKV }

// Extension returns the filename extension for the container, with dot.
func (c Container) Extension() string { return "." + string(c) }

// RecordingSettings is the mutable input shape for NewRecordingConfig.
type RecordingSettings struct {
	Quality        QualityPreset
	OutputDir      string // relative to the managed recordings root
	FilenamePrefix string
	VideoCodec     VideoCodec
	AudioCodec     AudioCodec
	Container      Container
	MaxFileSize    int64 // bytes
	MaxDuration    time.Duration
	MinFreeSpace   int64 // bytes kept in reserve by the space preflight
}

// DefaultRecordingSettings returns a settings value that passes validation
// unchanged, for callers that only override a field or two.
func DefaultRecordingSettings() RecordingSettings {
	return RecordingSettings{
		Quality:        QualityMedium,
		OutputDir:      "recordings",
		FilenamePrefix: "capture",
		VideoCodec:     VideoH264,
		AudioCodec:     AudioAAC,
		Container:      ContainerMP4,
		MaxFileSize:    MaxRecordingFileSize,
		MaxDuration:    time.Hour,
		MinFreeSpace:   DefaultMinFreeSpace,
	}
}

// RecordingConfig is an immutable, validated recording intent.
type RecordingConfig struct {
	quality        QualityPreset
	outputDir      string
	filenamePrefix string
	videoCodec     VideoCodec
	audioCodec     AudioCodec
	container      Container
	maxFileSize    int64
	maxDuration    time.Duration
	minFreeSpace   int64
}

// NewRecordingConfig validates s field by field, first failure wins:
// output directory, filename prefix, codec and container membership,
// numeric bounds, quality preset.
func NewRecordingConfig(s RecordingSettings) (*RecordingConfig, error) {
	if r := validate.DirectoryPath(s.OutputDir); !r.Valid {
		return nil, invalid("OutputDir", r.Message)
	}
	if strings.HasPrefix(s.OutputDir, "/") {
		return nil, invalid("OutputDir", "must be relative to the recordings root")
	}
	if r := validate.Filename(s.FilenamePrefix); !r.Valid {
		return nil, invalid("FilenamePrefix", r.Message)
	}
	if !s.VideoCodec.IsValid() {
		return nil, invalid("VideoCodec", fmt.Sprintf("unknown video codec %q", s.VideoCodec))
	}
	if !s.AudioCodec.IsValid() {
		return nil, invalid("AudioCodec", fmt.Sprintf("unknown audio codec %q", s.AudioCodec))
	}
	if !s.Container.IsValid() {
		return nil, invalid("Container", fmt.Sprintf("unknown container %q", s.Container))
	}
	if s.MaxFileSize < MinRecordingFileSize || s.MaxFileSize > MaxRecordingFileSize {
		return nil, invalid("MaxFileSize",
			fmt.Sprintf("must be between %d and %d bytes", int64(MinRecordingFileSize), int64(MaxRecordingFileSize)))
	}
	if s.MaxDuration < MinRecordingDuration || s.MaxDuration > MaxRecordingDuration {
		return nil, invalid("MaxDuration",
			fmt.Sprintf("must be between %s and %s", MinRecordingDuration, MaxRecordingDuration))
	}
	if s.MinFreeSpace < 0 {
		return nil, invalid("MinFreeSpace", "must not be negative")
	}
	if !s.Quality.IsValid() {
		return nil, invalid("Quality", fmt.Sprintf("unknown quality preset %q", s.Quality))
	}

	return &RecordingConfig{
		quality:        s.Quality,
		outputDir:      s.OutputDir,
		filenamePrefix: s.FilenamePrefix,
		videoCodec:     s.VideoCodec,
		audioCodec:     s.AudioCodec,
		container:      s.Container,
		maxFileSize:    s.MaxFileSize,
		maxDuration:    s.MaxDuration,
		minFreeSpace:   s.MinFreeSpace,
	}, nil
}

func (c *RecordingConfig) Quality() QualityPreset     { return c.quality }
func (c *RecordingConfig) OutputDir() string          { return c.outputDir }
func (c *RecordingConfig) FilenamePrefix() string     { return c.filenamePrefix }
func (c *RecordingConfig) VideoCodec() VideoCodec     { return c.videoCodec }
func (c *RecordingConfig) AudioCodec() AudioCodec     { return c.audioCodec }
func (c *RecordingConfig) Container() Container       { return c.container }
func (c *RecordingConfig) MaxFileSize() int64         { return c.maxFileSize }
func (c *RecordingConfig) MaxDuration() time.Duration { return c.maxDuration }
func (c *RecordingConfig) MinFreeSpace() int64        { return c.minFreeSpace }
func (c *RecordingConfig) HasAudio() bool             { return c.audioCodec != AudioNone }

// Settings returns a mutable copy, the base for an update attempt.
func (c *RecordingConfig) Settings() RecordingSettings {
	return RecordingSettings{
		Quality:        c.quality,
		OutputDir:      c.outputDir,
		FilenamePrefix: c.filenamePrefix,
		VideoCodec:     c.videoCodec,
		AudioCodec:     c.audioCodec,
		Container:      c.container,
		MaxFileSize:    c.maxFileSize,
		MaxDuration:    c.maxDuration,
		MinFreeSpace:   c.minFreeSpace,
	}
}

// EstimatedBitrate is the expected write rate in bits per second: the
// quality preset's video bitrate plus a fixed audio allowance.
func (c *RecordingConfig) EstimatedBitrate() int {
	b := c.quality.Bitrate()
	if c.HasAudio() {
		b += audioBitrate
	}
	return b
}

// EstimatedFileSize projects the output size in bytes for a recording of
// the given duration: bitrate × seconds / 8.
func (c *RecordingConfig) EstimatedFileSize(d time.Duration) int64 {
	return int64(c.EstimatedBitrate()) * int64(d.Seconds()) / 8
}

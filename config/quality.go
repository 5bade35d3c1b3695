// SPDX-License-Identifier: MIT

// Package config defines the immutable streaming and recording
// configuration values. Instances exist only through the validating
// constructors; a config held by any caller is valid by construction.
package config

import "fmt"

// QualityPreset selects a resolution, frame rate and video bitrate tier.
type QualityPreset string

const (
	QualityLow    QualityPreset = "low"    // 640x480 @ 15 fps, 1 Mbps
	QualityMedium QualityPreset = "medium" // 1280x720 @ 30 fps, 2.5 Mbps
	QualityHigh   QualityPreset = "high"   // 1920x1080 @ 30 fps, 5 Mbps
)

type qualityParams struct {
	width     int
	height    int
	frameRate int
	bitrate   int // bits per second
}

var qualityTable = map[QualityPreset]qualityParams{
	QualityLow:    {640, 480, 15, 1_000_000},
	QualityMedium: {1280, 720, 30, 2_500_000},
	QualityHigh:   {1920, 1080, 30, 5_000_000},
}

// IsValid reports whether the preset is one of the defined tiers.
func (q QualityPreset) IsValid() bool {
	_, ok := qualityTable[q]
	return ok
}

func (q QualityPreset) Width() int     { return qualityTable[q].width }
func (q QualityPreset) Height() int    { return qualityTable[q].height }
func (q QualityPreset) FrameRate() int { return qualityTable[q].frameRate }

// Bitrate returns the preset's video bitrate in bits per second.
func (q QualityPreset) Bitrate() int { return qualityTable[q].bitrate }

// Resolution returns the "WxH" label used in logs and metadata.
func (q QualityPreset) Resolution() string {
	p := qualityTable[q]
	return fmt.Sprintf("%dx%d", p.width, p.height)
}

func (q QualityPreset) String() string { return string(q) }

// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"strings"

	"github.com/pocketlens/camcore/validate"
)

// Bitrate and key-frame interval bounds for streaming.
const (
	MinStreamBitrate = 100_000    // 100 Kbps
	MaxStreamBitrate = 10_000_000 // 10 Mbps

	MinKeyFrameInterval = 1  // seconds
	MaxKeyFrameInterval = 60 // seconds
)

// StreamScheme is the canonical streaming protocol. The configuration
// contract supports exactly one protocol semantics; RTSP is canonical and
// HTTP push endpoints are out of scope for config validation.
const StreamScheme = "rtsp"

// DefaultStreamPort is the IANA RTSP port.
const DefaultStreamPort = 554

// StreamSettings is the mutable input shape for NewStreamConfig. It
// carries raw, untrusted values; nothing reads it after construction.
type StreamSettings struct {
	ServerAddress    string // scheme://host, validated as RTSP URL
	Port             int
	StreamPath       string // must start with "/"
	Quality          QualityPreset
	AudioEnabled     bool
	MaxBitrate       int // bits per second
	KeyFrameInterval int // seconds
	AuthRequired     bool
	Username         string
	Password         string
}

// StreamConfig is an immutable, validated streaming intent. Zero value is
// not valid; instances come only from NewStreamConfig.
type StreamConfig struct {
	serverAddress    string
	port             int
	streamPath       string
	quality          QualityPreset
	audioEnabled     bool
	maxBitrate       int
	keyFrameInterval int
	authRequired     bool
	username         string
	password         string
}

// NewStreamConfig validates every field of s and returns the immutable
// config. Checks run in a fixed order and the first failure wins: server
// address, username presence, password strength, port, stream path shape,
// malicious-content scan, numeric ranges, quality preset. The username is
// stored sanitized; the password is stored verbatim (it already passed the
// strength policy and is sanitized again at the storage boundary).
func NewStreamConfig(s StreamSettings) (*StreamConfig, error) {
	if r := validate.URL(s.ServerAddress, StreamScheme); !r.Valid {
		return nil, invalid("ServerAddress", r.Message)
	}

	username := validate.SanitizeUsername(s.Username)
	if s.AuthRequired {
		if username == "" {
			return nil, invalid("Username", "username must not be blank when authentication is enabled")
		}
		if r := validate.Password(s.Password); !r.Valid {
			return nil, invalid("Password", r.Message)
		}
	}

	if r := validate.Port(s.Port); !r.Valid {
		return nil, invalid("Port", r.Message)
	}

	path := s.StreamPath
	if strings.TrimSpace(path) == "" {
		return nil, invalid("StreamPath", "stream path must not be blank")
	}
	if !strings.HasPrefix(path, "/") {
		return nil, invalid("StreamPath", "stream path must start with /")
	}
	if strings.Contains(path, "..") {
		return nil, invalid("StreamPath", "stream path contains traversal sequences")
	}
	if validate.ContainsMaliciousContent(path) {
		return nil, invalid("StreamPath", "stream path contains disallowed content")
	}

	if s.MaxBitrate < MinStreamBitrate || s.MaxBitrate > MaxStreamBitrate {
		return nil, invalid("MaxBitrate",
			fmt.Sprintf("must be between %d and %d bps", MinStreamBitrate, MaxStreamBitrate))
	}
	if s.KeyFrameInterval < MinKeyFrameInterval || s.KeyFrameInterval > MaxKeyFrameInterval {
		return nil, invalid("KeyFrameInterval",
			fmt.Sprintf("must be between %d and %d seconds", MinKeyFrameInterval, MaxKeyFrameInterval))
	}
	if !s.Quality.IsValid() {
		return nil, invalid("Quality", fmt.Sprintf("unknown quality preset %q", s.Quality))
	}

	return &StreamConfig{
		serverAddress:    s.ServerAddress,
		port:             s.Port,
		streamPath:       path,
		quality:          s.Quality,
		audioEnabled:     s.AudioEnabled,
		maxBitrate:       s.MaxBitrate,
		keyFrameInterval: s.KeyFrameInterval,
		authRequired:     s.AuthRequired,
		username:         username,
		password:         s.Password,
	}, nil
}

func (c *StreamConfig) ServerAddress() string  { return c.serverAddress }
func (c *StreamConfig) Port() int              { return c.port }
func (c *StreamConfig) StreamPath() string     { return c.streamPath }
func (c *StreamConfig) Quality() QualityPreset { return c.quality }
func (c *StreamConfig) AudioEnabled() bool     { return c.audioEnabled }
func (c *StreamConfig) MaxBitrate() int        { return c.maxBitrate }
func (c *StreamConfig) KeyFrameInterval() int  { return c.keyFrameInterval }
func (c *StreamConfig) AuthRequired() bool     { return c.authRequired }
func (c *StreamConfig) Username() string       { return c.username }
func (c *StreamConfig) Password() string       { return c.password }

// Settings returns a mutable copy of the config's fields, suitable as the
// base for an updated configuration attempt.
func (c *StreamConfig) Settings() StreamSettings {
	return StreamSettings{
		ServerAddress:    c.serverAddress,
		Port:             c.port,
		StreamPath:       c.streamPath,
		Quality:          c.quality,
		AudioEnabled:     c.audioEnabled,
		MaxBitrate:       c.maxBitrate,
		KeyFrameInterval: c.keyFrameInterval,
		AuthRequired:     c.authRequired,
		Username:         c.username,
		Password:         c.password,
	}
}

// TargetURL assembles the full stream target from the validated parts.
func (c *StreamConfig) TargetURL() string {
	addr := strings.TrimSuffix(c.serverAddress, "/")
	return fmt.Sprintf("%s:%d%s", addr, c.port, c.streamPath)
}

// RedactedTarget is TargetURL passed through the log sanitizer, for use in
// log fields and error messages.
func (c *StreamConfig) RedactedTarget() string {
	return validate.SanitizeForLogging(c.TargetURL())
}

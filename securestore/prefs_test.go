// SPDX-License-Identifier: MIT
package securestore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingCipher decrypts normally until broken, simulating a corrupt or
// re-keyed entry.
type failingCipher struct {
	Cipher
	broken bool
}

func (c *failingCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if c.broken {
		return nil, errors.New("decrypt failure")
	}
	return c.Cipher.Decrypt(ciphertext)
}

func TestTypedPreferences(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.PutString("viewer.name", "front door"))
	assert.Equal(t, "front door", s.GetString("viewer.name", "fallback"))
	assert.Equal(t, "fallback", s.GetString("missing", "fallback"))

	require.NoError(t, s.PutInt("viewer.count", 42))
	assert.Equal(t, 42, s.GetInt("viewer.count", 0))
	assert.Equal(t, 7, s.GetInt("missing", 7))

	require.NoError(t, s.PutBool("audio.enabled", true))
	assert.True(t, s.GetBool("audio.enabled", false))
	assert.False(t, s.GetBool("missing", false))
}

func TestPreferences_KeySanitization(t *testing.T) {
	s := openTestStore(t, nil)

	// Hostile key characters are stripped, so both spellings address the
	// same entry.
	require.NoError(t, s.PutString("../../../etc/passwd", "value"))
	assert.Equal(t, "value", s.GetString("......etcpasswd", "fallback"))
}

func TestPreferences_ValueSanitization(t *testing.T) {
	s := openTestStore(t, nil)

	require.NoError(t, s.PutString("label", "<b>cam</b>\r\none"))
	got := s.GetString("label", "")
	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n")
}

func TestPreferences_CorruptionDegradesToDefault(t *testing.T) {
	fc := &failingCipher{Cipher: newGCMCipher(t)}
	s := openTestStore(t, fc)

	require.NoError(t, s.PutInt("viewer.count", 42))
	fc.broken = true
	assert.Equal(t, 9, s.GetInt("viewer.count", 9))
}

func TestServerAddressAccessor(t *testing.T) {
	s := openTestStore(t, nil)

	t.Run("invalid write fails, nothing stored", func(t *testing.T) {
		err := s.SetServerAddress("http://wrong-scheme")
		assert.ErrorIs(t, err, ErrInvalidValue)
		assert.Equal(t, "rtsp://fallback", s.ServerAddress("rtsp://fallback"))
	})

	t.Run("valid round trip", func(t *testing.T) {
		require.NoError(t, s.SetServerAddress("rtsp://192.168.1.20"))
		assert.Equal(t, "rtsp://192.168.1.20", s.ServerAddress("rtsp://fallback"))
	})

	t.Run("entry gone invalid substitutes default", func(t *testing.T) {
		// Bypass the validating setter to simulate a stale or tampered
		// entry under the same key.
		require.NoError(t, s.putRaw(sanitizeKey(keyServerAddress), "not a url"))
		assert.Equal(t, "rtsp://fallback", s.ServerAddress("rtsp://fallback"))
	})
}

func TestServerPortAccessor(t *testing.T) {
	s := openTestStore(t, nil)

	assert.ErrorIs(t, s.SetServerPort(0), ErrInvalidValue)
	assert.ErrorIs(t, s.SetServerPort(65536), ErrInvalidValue)
	assert.Equal(t, 554, s.ServerPort(554))

	require.NoError(t, s.SetServerPort(8554))
	assert.Equal(t, 8554, s.ServerPort(554))

	require.NoError(t, s.putRaw(sanitizeKey(keyServerPort), "999999"))
	assert.Equal(t, 554, s.ServerPort(554), "out-of-range stored port reads as default")
}

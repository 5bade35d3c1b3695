// SPDX-License-Identifier: MIT

package securestore

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/pocketlens/camcore/config"
	"github.com/pocketlens/camcore/validate"
)

// Preference keys for the domain accessors.
const (
	keyServerAddress = "server.address"
	keyServerPort    = "server.port"
)

// PutString stores an encrypted preference value. The key is sanitized to
// the allow-listed set and the value is sanitized and length-capped.
func (s *Store) PutString(key, value string) error {
	return s.putRaw(sanitizeKey(key), validate.SanitizeInput(value))
}

// GetString returns the stored value, or def when the key is absent or the
// entry cannot be read or decrypted. Corruption degrades to the default
// rather than propagating; only the credential path surfaces read errors.
func (s *Store) GetString(key, def string) string {
	raw, err := s.getRaw(sanitizeKey(key))
	if err != nil {
		return def
	}
	return raw
}

// PutInt stores an integer preference.
func (s *Store) PutInt(key string, value int) error {
	return s.putRaw(sanitizeKey(key), strconv.Itoa(value))
}

// GetInt returns the stored integer, or def on absence or corruption.
func (s *Store) GetInt(key string, def int) int {
	raw, err := s.getRaw(sanitizeKey(key))
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// PutBool stores a boolean preference.
func (s *Store) PutBool(key string, value bool) error {
	return s.putRaw(sanitizeKey(key), strconv.FormatBool(value))
}

// GetBool returns the stored boolean, or def on absence or corruption.
func (s *Store) GetBool(key string, def bool) bool {
	raw, err := s.getRaw(sanitizeKey(key))
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}

// SetServerAddress validates addr as a stream URL before storing it. An
// invalid address fails the call; it is never clamped or stored partially.
func (s *Store) SetServerAddress(addr string) error {
	if r := validate.URL(addr, config.StreamScheme); !r.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidValue, r.Message)
	}
	return s.putRaw(sanitizeKey(keyServerAddress), addr)
}

// ServerAddress re-validates the stored address on read and substitutes
// def when the entry has gone invalid underneath us.
func (s *Store) ServerAddress(def string) string {
	raw, err := s.getRaw(sanitizeKey(keyServerAddress))
	if err != nil {
		return def
	}
	if r := validate.URL(raw, config.StreamScheme); !r.Valid {
		return def
	}
	return raw
}

// SetServerPort validates the port before storing it.
func (s *Store) SetServerPort(port int) error {
	if r := validate.Port(port); !r.Valid {
		return fmt.Errorf("%w: %s", ErrInvalidValue, r.Message)
	}
	return s.PutInt(keyServerPort, port)
}

// ServerPort re-validates on read, substituting def for invalid entries.
func (s *Store) ServerPort(def int) int {
	port := s.GetInt(keyServerPort, def)
	if r := validate.Port(port); !r.Valid {
		return def
	}
	return port
}

func (s *Store) putRaw(key, value string) error {
	sealed, err := s.cipher.Encrypt([]byte(value))
	if err != nil {
		return fmt.Errorf("seal %q: %w", key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(prefKeyPrefix+key), sealed)
	})
	if err != nil {
		return fmt.Errorf("persist %q: %w", key, err)
	}
	return nil
}

func (s *Store) getRaw(key string) (string, error) {
	var sealed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefKeyPrefix + key))
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			s.log.Debug().Str("key", key).Err(err).Msg("preference read failed")
		}
		return "", err
	}

	blob, err := s.cipher.Decrypt(sealed)
	if err != nil {
		s.log.Warn().Str("key", key).Msg("preference entry failed to decrypt")
		return "", err
	}
	return string(blob), nil
}

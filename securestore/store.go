// SPDX-License-Identifier: MIT

// Package securestore persists credentials and typed preferences as
// encrypted values. Cryptography itself is delegated to a Cipher supplied
// by the platform (hardware-backed keystore); this package owns key/value
// sanitization, serialization and the storage lifecycle.
package securestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pocketlens/camcore/logging"
	"github.com/pocketlens/camcore/validate"
)

// Cipher is the hardware-backed encryption primitive. Implementations are
// external collaborators; this package never implements cryptography.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Credentials is the single username/secret pair the store manages. It is
// never logged verbatim.
type Credentials struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}

var (
	ErrEmptyUsername = errors.New("securestore: username must not be blank")
	ErrEmptySecret   = errors.New("securestore: secret must not be blank")
	ErrNoCredentials = errors.New("securestore: no credentials stored")
	ErrRateLimited   = errors.New("securestore: credential operation rate limited")
	ErrInvalidValue  = errors.New("securestore: value failed validation")
)

const (
	credentialKey = "cred:pair"
	prefKeyPrefix = "pref:"

	maxPrefKeyLength = 64
)

// Options configures Open.
type Options struct {
	// Path is the badger directory. Empty means in-memory, which is
	// intended for tests.
	Path   string
	Cipher Cipher

	// CredentialRate/CredentialBurst dampen credential brute-forcing.
	// Zero values select a generous default.
	CredentialRate  rate.Limit
	CredentialBurst int
}

// Store is an encrypted key/value store holding one credential pair and
// arbitrary typed preferences.
type Store struct {
	db      *badger.DB
	cipher  Cipher
	limiter *rate.Limiter
	log     zerolog.Logger

	// dummy is a valid ciphertext decrypted on the credential miss path so
	// hits and misses do the same amount of work.
	dummy []byte
}

// Open opens or creates the store. The caller owns Close.
func Open(opts Options) (*Store, error) {
	if opts.Cipher == nil {
		return nil, errors.New("securestore: cipher is required")
	}

	bopts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" {
		bopts = bopts.WithInMemory(true)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	limit := opts.CredentialRate
	if limit == 0 {
		limit = rate.Limit(10)
	}
	burst := opts.CredentialBurst
	if burst == 0 {
		burst = 20
	}

	blob, err := json.Marshal(Credentials{Username: "-", Secret: "-"})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	dummy, err := opts.Cipher.Encrypt(blob)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seal dummy record: %w", err)
	}

	return &Store{
		db:      db,
		cipher:  opts.Cipher,
		limiter: rate.NewLimiter(limit, burst),
		log:     logging.WithComponent("securestore"),
		dummy:   dummy,
	}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// StoreCredentials sanitizes and persists the pair atomically, overwriting
// any prior pair. Blank inputs fail before any encryption happens.
func (s *Store) StoreCredentials(username, secret string) error {
	if !s.limiter.Allow() {
		return ErrRateLimited
	}
	if strings.TrimSpace(username) == "" {
		return ErrEmptyUsername
	}
	if strings.TrimSpace(secret) == "" {
		return ErrEmptySecret
	}

	creds := Credentials{
		Username: validate.SanitizeUsername(username),
		Secret:   sanitizeSecret(secret),
	}
	if creds.Username == "" {
		return ErrEmptyUsername
	}
	if creds.Secret == "" {
		return ErrEmptySecret
	}

	blob, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	sealed, err := s.cipher.Encrypt(blob)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(credentialKey), sealed)
	})
	if err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	s.log.Info().
		Str("username", validate.SanitizeForLogging(creds.Username)).
		Msg("credentials stored")
	return nil
}

// RetrieveCredentials returns the stored pair, or ErrNoCredentials. The
// pair was sanitized on write and is returned unmodified. A decrypt runs
// on the miss path too, keeping hit and miss latency in the same shape.
func (s *Store) RetrieveCredentials() (Credentials, error) {
	if !s.limiter.Allow() {
		return Credentials{}, ErrRateLimited
	}

	var sealed []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(credentialKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	missing := sealed == nil
	if missing {
		sealed = s.dummy
	}
	blob, derr := s.cipher.Decrypt(sealed)
	if missing {
		return Credentials{}, ErrNoCredentials
	}
	if derr != nil {
		return Credentials{}, fmt.Errorf("unseal credentials: %w", derr)
	}

	var creds Credentials
	if err := json.Unmarshal(blob, &creds); err != nil {
		return Credentials{}, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}

// DeleteCredentials removes the stored pair. Deleting when nothing is
// stored is a success.
func (s *Store) DeleteCredentials() error {
	if !s.limiter.Allow() {
		return ErrRateLimited
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(credentialKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	s.log.Info().Msg("credentials deleted")
	return nil
}

// HasStoredCredentials probes for a stored pair. It never fails; probe
// errors read as absent.
func (s *Store) HasStoredCredentials() bool {
	found := false
	_ = s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(credentialKey))
		found = err == nil
		return nil
	})
	return found
}

// sanitizeSecret strips characters that enable header or line injection
// (CR, LF, NUL and the rest of the control range) without touching the
// secret's printable content.
func sanitizeSecret(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// sanitizeKey maps an arbitrary preference key onto the allow-listed
// character set, length-capped. Total: a key that collapses to nothing
// becomes "_".
func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
		if b.Len() >= maxPrefKeyLength {
			break
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// SPDX-License-Identifier: MIT

// Package validate classifies and sanitizes user-supplied strings before
// they reach configuration, storage or the filesystem. Validation never
// mutates and never panics: invalidity is reported as data through Result.
package validate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MaxInputLength bounds every string accepted by this package. Anything
// longer is rejected before further processing.
const MaxInputLength = 1000

// maxFilenameLength matches the common filesystem component limit.
const maxFilenameLength = 255

// Result is the outcome of a single validation call.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result { return Result{Valid: true} }

func fail(format string, args ...interface{}) Result {
	return Result{Valid: false, Message: fmt.Sprintf(format, args...)}
}

// URL validates raw as a URL restricted to the given scheme. The malicious
// pattern scan runs before URI parsing so hostile input is rejected even
// when it would parse cleanly.
func URL(raw, scheme string) Result {
	if strings.TrimSpace(raw) == "" {
		return fail("URL must not be empty")
	}
	if len(raw) > MaxInputLength {
		return fail("URL exceeds maximum length of %d characters", MaxInputLength)
	}
	if ContainsMaliciousContent(raw) {
		return fail("URL contains disallowed content")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fail("invalid URL syntax")
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return fail("unsupported scheme %q (must be %s)", u.Scheme, scheme)
	}
	if u.Hostname() == "" {
		return fail("URL must have a host")
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return fail("invalid port %q", p)
		}
		if r := Port(n); !r.Valid {
			return r
		}
	}
	if strings.Contains(u.Path, "..") {
		return fail("URL path contains traversal sequences")
	}
	return ok()
}

// Port validates a TCP/UDP port number.
func Port(n int) Result {
	if n < 1 || n > 65535 {
		return fail("port must be between 1 and 65535, got %d", n)
	}
	return ok()
}

// Password enforces the credential strength policy. Rules are checked in a
// fixed order and the first failing rule wins, so error messages are
// deterministic: empty, too short, missing lowercase, missing uppercase,
// missing digit, missing special character.
func Password(s string) Result {
	if s == "" {
		return fail("password must not be empty")
	}
	if len(s) < 8 {
		return fail("password must be at least 8 characters")
	}
	if len(s) > MaxInputLength {
		return fail("password exceeds maximum length of %d characters", MaxInputLength)
	}

	var lower, upper, digit, special bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	switch {
	case !lower:
		return fail("password must contain a lowercase letter")
	case !upper:
		return fail("password must contain an uppercase letter")
	case !digit:
		return fail("password must contain a digit")
	case !special:
		return fail("password must contain a special character")
	}
	return ok()
}

// DirectoryPath validates a directory path for traversal sequences,
// reserved device names and hostile content. It performs no filesystem
// access; existence and writability are the file manager's concern.
func DirectoryPath(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail("directory path must not be empty")
	}
	if len(s) > MaxInputLength {
		return fail("directory path exceeds maximum length of %d characters", MaxInputLength)
	}
	if ContainsMaliciousContent(s) {
		return fail("directory path contains disallowed content")
	}
	if strings.Contains(s, "..") {
		return fail("directory path contains traversal sequences")
	}
	for _, seg := range strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '\\' }) {
		if isReservedName(seg) {
			return fail("directory path contains reserved name %q", seg)
		}
	}
	return ok()
}

// Filename validates a single path component intended as an output
// filename. Path delimiters, wildcards and filesystem-reserved device
// names are rejected outright.
func Filename(s string) Result {
	if strings.TrimSpace(s) == "" {
		return fail("filename must not be empty")
	}
	if len(s) > maxFilenameLength {
		return fail("filename exceeds maximum length of %d characters", maxFilenameLength)
	}
	if strings.ContainsAny(s, "/\\") {
		return fail("filename must not contain path delimiters")
	}
	if strings.Contains(s, "..") {
		return fail("filename contains traversal sequences")
	}
	if strings.ContainsAny(s, "*?:\"<>|") {
		return fail("filename contains wildcard or illegal characters")
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return fail("filename contains control characters")
		}
	}
	if isReservedName(s) {
		return fail("filename %q is a reserved device name", s)
	}
	return ok()
}

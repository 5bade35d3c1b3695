// SPDX-License-Identifier: MIT

package validate

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	maxUsernameLength = 254
	logPrefixLength   = 16
)

// SanitizeUsername trims, truncates and strips a username down to the
// allow-listed character set (alphanumeric plus @ . _ -). Total: always
// returns a value, possibly empty.
func SanitizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = truncate(s, maxUsernameLength)
	s = stripControl(s)
	s = htmlEntityPattern.ReplaceAllString(s, "")
	s = sqlKeywordPattern.ReplaceAllString(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '@' || r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeInput neutralizes a generic free-form string: markup
// metacharacters, control characters, HTML entities and SQL keywords are
// stripped, but no allow-list is applied.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = truncate(s, MaxInputLength)
	s = stripControl(s)
	s = htmlEntityPattern.ReplaceAllString(s, "")
	s = sqlKeywordPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '"', '&', '\'':
			return -1
		}
		return r
	}, s)
	return s
}

// SanitizeDirectoryPath removes traversal sequences, backslashes, reserved
// names and control characters from a directory path.
func SanitizeDirectoryPath(s string) string {
	s = strings.TrimSpace(s)
	s = truncate(s, MaxInputLength)
	s = stripControl(s)
	s = strings.ReplaceAll(s, "\\", "/")
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}

	segs := strings.Split(s, "/")
	out := segs[:0]
	for _, seg := range segs {
		if seg != "" && isReservedName(seg) {
			continue
		}
		out = append(out, seg)
	}
	return strings.Join(out, "/")
}

// SanitizeFilename normalizes to NFC and strips everything a filename
// validator would reject. Names that collapse to nothing or to a reserved
// device name fall back to "recording".
func SanitizeFilename(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = truncate(s, maxFilenameLength)
	s = stripControl(s)
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '*', '?', ':', '"', '<', '>', '|':
			return -1
		}
		return r
	}, s)
	s = strings.TrimSpace(s)
	if s == "" || isReservedName(s) {
		return "recording"
	}
	return s
}

// SanitizeForLogging produces a projection of s that is safe for any log
// sink: a short prefix with every character outside a small allow-list
// masked by '*', and a "..." marker when input was truncated. Secrets and
// control sequences never survive this transformation.
func SanitizeForLogging(s string) string {
	truncated := len(s) > logPrefixLength
	if truncated {
		s = s[:logPrefixLength]
	}

	var b strings.Builder
	b.Grow(len(s) + 3)
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == ':' || r == '/' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('*')
		}
	}
	if truncated {
		b.WriteString("...")
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

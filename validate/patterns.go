// SPDX-License-Identifier: MIT

package validate

import (
	"regexp"
	"strings"
)

// specialChars is the character set accepted by the password policy.
const specialChars = "!@#$%^&*()_+-=[]{}|;:'\",.<>?/~`"

// maliciousPatterns is the curated reject set shared by every validator.
// Matching is case-insensitive and runs before any parsing so that input
// which would survive a parser still gets rejected.
var maliciousPatterns = []*regexp.Regexp{
	// SQL injection keywords
	regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|exec|execute|truncate|alter|create)\b`),
	regexp.MustCompile(`(?i)('|--|;)\s*(or|and)\s`),
	// Script injection
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	// Path traversal, raw and percent-encoded
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
	regexp.MustCompile(`(?i)%2e%2e(%2f|%5c|/|\\)`),
	// NUL, raw and encoded
	regexp.MustCompile(`\x00|%00`),
}

var (
	htmlEntityPattern = regexp.MustCompile(`&#?[a-zA-Z0-9]{1,8};`)
	sqlKeywordPattern = regexp.MustCompile(`(?i)\b(select|insert|update|delete|drop|union|exec|execute|truncate|alter|create)\b`)
)

// reservedNames are device names that several filesystems treat specially.
// The check also covers "CON.mp4" style names where the reserved part is
// the stem before the extension.
var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

func isReservedName(s string) bool {
	name := strings.ToUpper(strings.TrimSpace(s))
	if _, ok := reservedNames[name]; ok {
		return true
	}
	if i := strings.IndexByte(name, '.'); i > 0 {
		if _, ok := reservedNames[name[:i]]; ok {
			return true
		}
	}
	return false
}

// ContainsMaliciousContent reports whether s matches any pattern in the
// malicious set. Oversized input is treated as malicious rather than
// scanned.
func ContainsMaliciousContent(s string) bool {
	if len(s) > MaxInputLength {
		return true
	}
	for _, p := range maliciousPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

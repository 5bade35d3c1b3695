// SPDX-License-Identifier: MIT

// Package fsutil provides path confinement primitives. Confinement is the
// load-bearing control that keeps every destructive filesystem operation
// inside the managed root, including through symlinks.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is wrapped by confinement failures caused by the target
// escaping the root, as opposed to I/O errors while resolving it.
var ErrOutsideRoot = fmt.Errorf("path escapes managed root")

// ConfineRel joins root and a relative target and guarantees the result is
// physically underneath the resolved root. Backslashes are rejected to
// close OS-specific parsing bypasses.
func ConfineRel(root, rel string) (string, error) {
	if strings.Contains(rel, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrOutsideRoot, rel)
	}

	clean := filepath.Clean(rel)
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("%w: target must be relative: %q", ErrOutsideRoot, rel)
	}
	// filepath.Clean collapses interior "..", so a leading ".." is the only
	// way left to point outside.
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: traversal in %q", ErrOutsideRoot, rel)
	}

	realRoot, err := resolveRoot(root)
	if err != nil {
		return "", err
	}
	return checkWithin(realRoot, filepath.Join(realRoot, clean))
}

// ConfineAbs guarantees that the absolute target is physically underneath
// the resolved root.
func ConfineAbs(root, target string) (string, error) {
	if strings.Contains(target, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrOutsideRoot, target)
	}
	if !filepath.IsAbs(target) {
		return "", fmt.Errorf("%w: target must be absolute: %q", ErrOutsideRoot, target)
	}

	realRoot, err := resolveRoot(root)
	if err != nil {
		return "", err
	}
	return checkWithin(realRoot, filepath.Clean(target))
}

func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", err
		}
		real = abs
	}
	return real, nil
}

// checkWithin resolves symlinks in the candidate path and verifies the
// resolved path still lives under realRoot. A candidate that does not
// exist yet is resolved through its parent directory.
func checkWithin(realRoot, candidate string) (string, error) {
	real, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		if !os.IsNotExist(err) {
			// Existing but unresolvable (permissions, loop): fail closed.
			return "", fmt.Errorf("resolve %q: %w", candidate, err)
		}
		parent := filepath.Dir(candidate)
		if rp, perr := filepath.EvalSymlinks(parent); perr == nil {
			real = filepath.Join(rp, filepath.Base(candidate))
		} else if !os.IsNotExist(perr) {
			return "", fmt.Errorf("resolve parent of %q: %w", candidate, perr)
		} else {
			// Neither target nor parent exists; the lexical check below
			// still guards the join.
			real = candidate
		}
	}

	rel, err := filepath.Rel(realRoot, real)
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %w", real, realRoot, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q resolves outside %q", ErrOutsideRoot, candidate, realRoot)
	}
	return real, nil
}

// IsRegularFile returns an error unless path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", path)
	}
	return nil
}

// SPDX-License-Identifier: MIT
package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfineRel(t *testing.T) {
	root := t.TempDir()

	t.Run("plain child", func(t *testing.T) {
		got, err := ConfineRel(root, "a/b.mp4")
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(got) != "b.mp4" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("interior dotdot collapses", func(t *testing.T) {
		if _, err := ConfineRel(root, "a/../b.mp4"); err != nil {
			t.Fatalf("interior traversal that stays inside should pass: %v", err)
		}
	})

	rejects := []struct {
		name string
		rel  string
	}{
		{"leading dotdot", "../outside"},
		{"bare dotdot", ".."},
		{"deep escape", "a/../../outside"},
		{"absolute", "/etc/passwd"},
		{"backslash", `a\..\outside`},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConfineRel(root, tt.rel); err == nil {
				t.Errorf("ConfineRel(%q) succeeded, want error", tt.rel)
			}
		})
	}
}

func TestConfineAbs(t *testing.T) {
	root := t.TempDir()
	inside := filepath.Join(root, "rec.mp4")
	if err := os.WriteFile(inside, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("inside passes", func(t *testing.T) {
		if _, err := ConfineAbs(root, inside); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("outside fails with ErrOutsideRoot", func(t *testing.T) {
		_, err := ConfineAbs(root, "/etc/passwd")
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.Is(err, ErrOutsideRoot) {
			t.Errorf("error %v does not wrap ErrOutsideRoot", err)
		}
	})

	t.Run("relative target fails", func(t *testing.T) {
		if _, err := ConfineAbs(root, "rec.mp4"); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("dotdot escape fails", func(t *testing.T) {
		if _, err := ConfineAbs(root, filepath.Join(root, "..", "escape.mp4")); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("symlink escape fails", func(t *testing.T) {
		victimDir := t.TempDir()
		victim := filepath.Join(victimDir, "victim.mp4")
		if err := os.WriteFile(victim, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		link := filepath.Join(root, "link.mp4")
		if err := os.Symlink(victim, link); err != nil {
			t.Skipf("symlinks unavailable: %v", err)
		}
		if _, err := ConfineAbs(root, link); err == nil {
			t.Fatal("symlinked escape should be rejected")
		}
	})

	t.Run("nonexistent target inside passes", func(t *testing.T) {
		if _, err := ConfineAbs(root, filepath.Join(root, "new", "file.mp4")); err != nil {
			t.Fatalf("nonexistent path under root should pass: %v", err)
		}
	})
}

func TestIsRegularFile(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f")
	if err := os.WriteFile(f, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := IsRegularFile(f); err != nil {
		t.Errorf("regular file rejected: %v", err)
	}
	if err := IsRegularFile(root); err == nil {
		t.Error("directory accepted as regular file")
	}
	if err := IsRegularFile(filepath.Join(root, "missing")); err == nil {
		t.Error("missing file accepted")
	}
}

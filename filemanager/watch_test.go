// SPDX-License-Identifier: MIT
package filemanager

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := m.Watch(ctx)
	require.NoError(t, err)

	path := filepath.Join(m.Root(), "fresh.mp4")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "channel closed before event arrived")
			if strings.HasSuffix(ev.Path, "fresh.mp4") {
				cancel()
				// Drain until the watcher goroutine closes the channel.
				for range events {
				}
				return
			}
		case <-deadline:
			t.Fatal("no watch event for created recording")
		}
	}
}

func TestWatch_IgnoresForeignFiles(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := m.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(m.Root(), "notes.txt"), []byte("x"), 0o600))

	select {
	case ev, ok := <-events:
		if ok {
			t.Fatalf("unexpected event for foreign file: %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

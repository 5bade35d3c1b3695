// SPDX-License-Identifier: MIT

package filemanager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/pocketlens/camcore/logging"
)

// ChangeEvent reports that the set of recordings under the managed root
// changed. Consumers typically respond by re-listing; nothing about the
// change itself is cached.
type ChangeEvent struct {
	Path string
	Op   string
}

// Watch emits a ChangeEvent whenever a recording file is created, renamed
// or removed under the managed root. The channel closes when ctx is done.
// New subdirectories are added to the watch as they appear.
func (m *Manager) Watch(ctx context.Context) (<-chan ChangeEvent, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch recordings: %w", err)
	}

	err = filepath.Walk(m.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || !info.IsDir() {
			return nil
		}
		return w.Add(path)
	})
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch recordings: %w", err)
	}

	out := make(chan ChangeEvent, 16)
	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
						if err := w.Add(ev.Name); err != nil {
							m.log.Debug().Str(logging.FieldPath, ev.Name).Err(err).Msg("watch add failed")
						}
						continue
					}
				}
				if !hasRecordingExt(ev.Name) {
					continue
				}
				select {
				case out <- ChangeEvent{Path: ev.Name, Op: ev.Op.String()}:
				default:
					// Slow consumer: drop, a later re-list catches up.
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				m.log.Warn().Err(err).Msg("recordings watcher error")
			}
		}
	}()
	return out, nil
}

// SPDX-License-Identifier: MIT

package filemanager

import (
	"fmt"

	"github.com/pocketlens/camcore/logging"
	"github.com/pocketlens/camcore/metrics"
)

// CleanupOldRecordings deletes the oldest finished recordings until at
// most maxCount remain and their cumulative size is at most maxTotalSize.
// A non-positive limit means unlimited for that dimension. Eviction is
// best-effort: a failed deletion is logged and skipped, never aborts the
// pass. Returns the number of recordings deleted.
func (m *Manager) CleanupOldRecordings(maxCount int, maxTotalSize int64) (int, error) {
	recs, err := m.ListRecordings()
	if err != nil {
		return 0, fmt.Errorf("cleanup: %w", err)
	}

	count := len(recs)
	var total int64
	for _, r := range recs {
		total += r.Size
	}

	overCount := func() bool { return maxCount > 0 && count > maxCount }
	overSize := func() bool { return maxTotalSize > 0 && total > maxTotalSize }

	deleted := 0
	for _, r := range recs { // oldest first
		if !overCount() && !overSize() {
			break
		}
		if err := m.DeleteRecording(r.Path); err != nil {
			m.log.Warn().
				Str(logging.FieldPath, r.Path).
				Err(err).
				Msg("eviction failed, skipping")
			continue
		}
		count--
		total -= r.Size
		deleted++
		metrics.IncRecordingEvicted()
	}

	if deleted > 0 {
		m.log.Info().Int(logging.FieldCount, deleted).Msg("retention eviction complete")
	}
	return deleted, nil
}

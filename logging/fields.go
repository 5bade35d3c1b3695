// SPDX-License-Identifier: MIT

package logging

// Canonical field name constants for structured logging.
const (
	FieldComponent = "component"
	FieldEvent     = "event"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldCode     = "code"

	// Media fields
	FieldQuality    = "quality"
	FieldResolution = "resolution"
	FieldBitrate    = "bitrate"

	// Path / URL fields (values must be pre-redacted)
	FieldPath = "path"
	FieldURL  = "url"

	// Storage fields
	FieldFreeBytes = "free_bytes"
	FieldFileSize  = "file_size"
	FieldCount     = "count"
)

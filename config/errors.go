// SPDX-License-Identifier: MIT

package config

import "fmt"

// ValidationError reports the first field that failed constructor
// validation. Construction short-circuits, so there is always exactly one.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

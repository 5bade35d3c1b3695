// SPDX-License-Identifier: MIT
package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestConfigureOnce(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "camcore-test"})
	// A second call must not replace the writer.
	Configure(Config{Output: bytes.NewBuffer(nil), Service: "other"})

	log := WithComponent("store")
	log.Info().Str("event", "opened").Msg("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v\n%s", err, buf.String())
	}
	if got := entry["service"]; got != "camcore-test" {
		t.Errorf("service = %v, want camcore-test", got)
	}
	if got := entry[FieldComponent]; got != "store" {
		t.Errorf("component = %v, want store", got)
	}
	if got := entry["message"]; got != "ready" {
		t.Errorf("message = %v, want ready", got)
	}
}

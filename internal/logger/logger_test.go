package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

// SetupしたロガーがJSON形式でログを出力することを検証
func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Info("disclosure decision", "state", "blurred")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "disclosure decision" {
		t.Errorf("msg = %v, want %q", entry["msg"], "disclosure decision")
	}
	if entry["state"] != "blurred" {
		t.Errorf("state = %v, want %q", entry["state"], "blurred")
	}
}

// Debugレベルのログは出力されないことを検証（Infoレベル設定）
func TestSetup_SuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	log := Setup(&buf)

	log.Debug("should be suppressed")

	if buf.Len() != 0 {
		t.Errorf("debug log must be suppressed, got %q", buf.String())
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInitLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := initLogger(&buf, "heartslicer", "debug", true)
	if err != nil {
		t.Fatalf("initLogger failed: %v", err)
	}

	logger.Debug().Str("phantom", "efg3_cut").Msg("loaded")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected a JSON record, got %q: %v", buf.String(), err)
	}
	if rec["app"] != "heartslicer" || rec["phantom"] != "efg3_cut" || rec["message"] != "loaded" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestInitLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := initLogger(&buf, "heartslicer", "warn", true)
	if err != nil {
		t.Fatalf("initLogger failed: %v", err)
	}
	logger.Info().Msg("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected info to be filtered at warn level, got %q", buf.String())
	}

	if _, err := initLogger(&buf, "heartslicer", "loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

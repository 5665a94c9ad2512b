package metrics

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLog routes the global logger into a buffer for one test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = old })
	return &buf
}

func TestFlushOutput(t *testing.T) {
	buf := captureLog(t)

	rec := New("process")
	rec.Duration("decode", 1234500*time.Microsecond)
	rec.Count("panels", 3)
	rec.Bytes("master", 2048)
	rec.Property("runId", "abc-123")
	rec.Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse metrics output as JSON: %v\nOutput: %s", err, buf.String())
	}

	if doc["operation"] != "process" {
		t.Errorf("operation = %v, want process", doc["operation"])
	}
	if doc["runId"] != "abc-123" {
		t.Errorf("runId = %v, want abc-123", doc["runId"])
	}

	durations, ok := doc["durationsMs"].(map[string]interface{})
	if !ok {
		t.Fatalf("durationsMs missing or not an object: %v", doc["durationsMs"])
	}
	if durations["decode"] != 1234.5 {
		t.Errorf("decode duration = %v, want 1234.5", durations["decode"])
	}

	counts, ok := doc["counts"].(map[string]interface{})
	if !ok {
		t.Fatalf("counts missing or not an object: %v", doc["counts"])
	}
	if counts["panels"] != float64(3) {
		t.Errorf("panels count = %v, want 3", counts["panels"])
	}

	sizes, ok := doc["bytes"].(map[string]interface{})
	if !ok {
		t.Fatalf("bytes missing or not an object: %v", doc["bytes"])
	}
	if sizes["master"] != float64(2048) {
		t.Errorf("master bytes = %v, want 2048", sizes["master"])
	}
}

func TestFlushEmptyRecorderEmitsNothing(t *testing.T) {
	buf := captureLog(t)

	rec := New("process")
	rec.Property("runId", "abc-123")
	rec.Flush()

	if buf.Len() != 0 {
		t.Errorf("empty recorder emitted output: %s", buf.String())
	}
}

func TestFlushChaining(t *testing.T) {
	buf := captureLog(t)

	New("inspect").
		Duration("decode", 10*time.Millisecond).
		Count("images", 1).
		Flush()

	var doc map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("failed to parse metrics output: %v", err)
	}
	if doc["operation"] != "inspect" {
		t.Errorf("operation = %v, want inspect", doc["operation"])
	}
}

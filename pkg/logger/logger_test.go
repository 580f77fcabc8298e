package logger

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestJSONFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := New(&Config{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	l.With(String("cycle_id", "c1")).Info("cycle published",
		Int("instruments", 2),
		Float64("elapsed_seconds", 1.5),
		Duration("latency", 250*time.Millisecond),
		Bool("heatmap", false),
		Strings("tickers", []string{"AAPL", "MSFT"}),
		Error(errors.New("boom")),
	)

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode %s: %v", b, err)
	}
	want := map[string]interface{}{
		"level":           "info",
		"message":         "cycle published",
		"cycle_id":        "c1",
		"instruments":     float64(2),
		"elapsed_seconds": 1.5,
		"latency":         float64(250),
		"heatmap":         false,
		"tickers":         "AAPL, MSFT",
		"error":           "boom",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(&Config{Level: "loud", Format: "json", Output: "discard"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNewTextRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelWarn)
	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown", "path", "a.txt")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("below-level records were written: %q", out)
	}
	if !strings.Contains(out, "msg=shown") || !strings.Contains(out, "path=a.txt") {
		t.Errorf("warn record missing fields: %q", out)
	}
}

func TestNewJSONWith(t *testing.T) {
	var buf bytes.Buffer
	l := NewJSON(&buf, slog.LevelDebug).With("component", "merge")
	l.Debug("decision", "path", "a.txt")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("Unmarshal: %v (%q)", err, buf.String())
	}
	if rec["component"] != "merge" || rec["path"] != "a.txt" || rec["msg"] != "decision" {
		t.Errorf("record = %v", rec)
	}
}

func TestNopIsSilent(t *testing.T) {
	l := Nop().With("k", "v")
	l.Error("nothing")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ethpool/internal/infra/config"
)

func TestJSONHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LoggerConfig{Level: "info", Format: "json"}))

	log.Info("ethpool call completed", "method", "poolStats")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v, output: %s", err, buf.String())
	}
	if entry["msg"] != "ethpool call completed" {
		t.Errorf("msg = %q", entry["msg"])
	}
	if entry["method"] != "poolStats" {
		t.Errorf("method = %q", entry["method"])
	}
}

func TestRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LoggerConfig{Level: "debug", Format: "text"}))

	log.Debug("signing", "wallet", "c2VjcmV0", "api_sign", "abc==", "OTP", "123456", "path", "/Balance")

	out := buf.String()
	for _, secret := range []string{"c2VjcmV0", "abc==", "123456"} {
		if strings.Contains(out, secret) {
			t.Errorf("output leaks %q: %s", secret, out)
		}
	}
	if !strings.Contains(out, "path=/Balance") {
		t.Errorf("non-secret attribute missing: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, config.LoggerConfig{Level: "warn"}))

	log.Info("should be filtered")
	log.Warn("should appear")

	output := buf.String()
	if strings.Contains(output, "should be filtered") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(output, "should appear") {
		t.Error("warn message should appear at warn level")
	}
}

func TestOpenOutputStdStreams(t *testing.T) {
	tests := []struct {
		output string
		want   *os.File
	}{
		{"stdout", os.Stdout},
		{"stderr", os.Stderr},
		{"", os.Stderr},
	}
	for _, tt := range tests {
		w, closer, err := openOutput(tt.output)
		if err != nil {
			t.Fatalf("openOutput(%q): %v", tt.output, err)
		}
		if w != tt.want {
			t.Errorf("openOutput(%q) returned unexpected writer", tt.output)
		}
		closer()
	}
}

func TestNewLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ethpool.log")

	log, closer, err := New(config.LoggerConfig{Level: "info", Format: "text", Output: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	log.Info("file output test", "key", "value")
	if err := closer(); err != nil {
		t.Fatalf("closer: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "file output test") {
		t.Error("log file should contain the logged message")
	}
}

func TestNewLoggerInvalidOutput(t *testing.T) {
	_, _, err := New(config.LoggerConfig{Level: "info", Output: "/nonexistent/dir/ethpool.log"})
	if err == nil {
		t.Error("expected error for invalid output path")
	}
}

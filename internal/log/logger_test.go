package log

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zMarques/albion-network/internal/config"
)

// captureStdout redirects the stdout writer used by Init for the test duration.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := stdout
	stdout = &buf
	t.Cleanup(func() {
		stdout = prev
		_ = Close()
	})
	return &buf
}

func fileConfig(path string) config.LogConfig {
	cfg := config.LogConfig{Level: "info", Format: "json"}
	cfg.Outputs.File = config.FileOutputConfig{
		Enabled:  true,
		Path:     path,
		Rotation: config.RotationConfig{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7},
	}
	return cfg
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "Error", want: slog.LevelError},
		{input: "trace", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LogConfig
		wantMsg string
	}{
		{"level", config.LogConfig{Level: "verbose", Format: "json"}, "invalid log level"},
		{"format", config.LogConfig{Level: "info", Format: "xml"}, "unsupported log format"},
		{"file path", fileConfig(""), "path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureStdout(t)
			err := Init(tt.cfg)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantMsg, err)
			}
		})
	}
}

func TestInitWritesStdoutAndFile(t *testing.T) {
	buf := captureStdout(t)
	logPath := filepath.Join(t.TempDir(), "albion.log")

	if err := Init(fileConfig(logPath)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Info("capture started", "interface", "eth0")
	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for name, out := range map[string]string{"stdout": buf.String(), "file": string(data)} {
		if !strings.Contains(out, `"msg":"capture started"`) || !strings.Contains(out, `"interface":"eth0"`) {
			t.Errorf("%s output should contain the record, got %q", name, out)
		}
	}

	if err := Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestInitFiltersByLevel(t *testing.T) {
	buf := captureStdout(t)

	if err := Init(config.LogConfig{Level: "warn", Format: "json"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	slog.Info("info message")
	slog.Warn("warn message", "key", "value")

	output := buf.String()
	if strings.Contains(output, "info message") {
		t.Error("Info message should be filtered out")
	}
	if !strings.Contains(output, `"msg":"warn message"`) || !strings.Contains(output, `"key":"value"`) {
		t.Errorf("JSON output should contain the warn record, got %q", output)
	}
}

func TestSetLevel(t *testing.T) {
	buf := captureStdout(t)

	if err := Init(config.LogConfig{Level: "error", Format: "text"}); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Debug("hidden")

	if err := SetLevel("debug"); err != nil {
		t.Fatalf("SetLevel failed: %v", err)
	}
	if Level() != slog.LevelDebug {
		t.Errorf("Expected level debug, got %v", Level())
	}
	slog.Debug("shown", "key", "value")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("Debug message before SetLevel should be filtered out")
	}
	if !strings.Contains(output, "shown") || !strings.Contains(output, "key=value") {
		t.Errorf("Text output should contain the debug record, got %q", output)
	}

	if err := SetLevel("trace"); err == nil {
		t.Error("Expected error for invalid level, got nil")
	}
	if Level() != slog.LevelDebug {
		t.Errorf("Invalid SetLevel should keep debug, got %v", Level())
	}
}

func TestInitReplacesFileOutput(t *testing.T) {
	captureStdout(t)
	tmpDir := t.TempDir()

	if err := Init(fileConfig(filepath.Join(tmpDir, "first.log"))); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Info("to first")

	if err := Init(fileConfig(filepath.Join(tmpDir, "second.log"))); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	slog.Info("to second")

	data, err := os.ReadFile(filepath.Join(tmpDir, "second.log"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "to second") || strings.Contains(string(data), "to first") {
		t.Errorf("Unexpected second log content: %q", data)
	}
}

package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/efinel/node-red/pkg/logging"
)

func TestLevel_ToSlogLevel(t *testing.T) {
	tests := []struct {
		level    logging.Level
		expected slog.Level
	}{
		{logging.LevelDebug, slog.LevelDebug},
		{logging.LevelInfo, slog.LevelInfo},
		{logging.LevelWarn, slog.LevelWarn},
		{logging.LevelError, slog.LevelError},
		{logging.Level("unknown"), slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			if got := tt.level.ToSlogLevel(); got != tt.expected {
				t.Errorf("ToSlogLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidate_Invalid(t *testing.T) {
	if err := logging.Level("loud").Validate(); err == nil {
		t.Error("Level.Validate() succeeded for invalid level, want error")
	}
	if err := logging.Format("xml").Validate(); err == nil {
		t.Error("Format.Validate() succeeded for invalid format, want error")
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON}, &buf)

	logger.Info("entry saved", "path", "a/b")

	if !strings.Contains(buf.String(), `"path":"a/b"`) {
		t.Errorf("output = %q, want JSON attribute", buf.String())
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&logging.Config{Level: logging.LevelWarn, Format: logging.FormatText}, &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn record missing")
	}
}

func TestConfig_Finalize(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "debug")

	cfg := &logging.Config{}
	env := &logging.Env{Level: "TEST_LOG_LEVEL", Format: "TEST_LOG_FORMAT"}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelDebug {
		t.Errorf("Level = %q, want %q (env)", cfg.Level, logging.LevelDebug)
	}
	if cfg.Format != logging.FormatText {
		t.Errorf("Format = %q, want %q (default)", cfg.Format, logging.FormatText)
	}
}

func TestConfig_Finalize_InvalidEnv(t *testing.T) {
	t.Setenv("TEST_LOG_FORMAT", "yaml")

	cfg := &logging.Config{}
	if err := cfg.Finalize(&logging.Env{Format: "TEST_LOG_FORMAT"}); err == nil {
		t.Error("Finalize() succeeded with invalid format, want error")
	}
}

func TestConfig_Merge(t *testing.T) {
	base := &logging.Config{Level: logging.LevelInfo, Format: logging.FormatJSON}
	base.Merge(&logging.Config{Level: logging.LevelDebug})

	if base.Level != logging.LevelDebug {
		t.Errorf("Level = %q, want %q", base.Level, logging.LevelDebug)
	}
	if base.Format != logging.FormatJSON {
		t.Errorf("Format = %q, want %q (unchanged)", base.Format, logging.FormatJSON)
	}
}

func TestConfig_Finalize_CaseInsensitive(t *testing.T) {
	t.Setenv("TEST_LOG_LEVEL", "WARN")

	cfg := &logging.Config{Format: "JSON"}
	if err := cfg.Finalize(&logging.Env{Level: "TEST_LOG_LEVEL"}); err != nil {
		t.Fatalf("Finalize() failed: %v", err)
	}

	if cfg.Level != logging.LevelWarn || cfg.Format != logging.FormatJSON {
		t.Errorf("Config = %+v, want warn/json", cfg)
	}
}

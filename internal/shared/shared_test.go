package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogging(t *testing.T) {
	t.Run("NewLogger Writes To Writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		logger.Info("hello")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger Creates Directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "client.log")

		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		logger.Info("to file")

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("expected log file to exist: %v", err)
		}
		if !strings.Contains(string(data), "to file") {
			t.Errorf("expected message in file, got %q", string(data))
		}
	})

	t.Run("WithLogger Adds Fields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := WithLogger(NewLogger(buf), "component", "poller")
		logger.Info("tick")

		if !strings.Contains(buf.String(), "poller") {
			t.Errorf("expected field in output, got %q", buf.String())
		}
	})

	t.Run("SetLogLevel Filters", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLogger(buf)
		SetLogLevel(logger, log.ErrorLevel)
		logger.Info("hidden")

		if strings.Contains(buf.String(), "hidden") {
			t.Errorf("expected info suppressed, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid format, got %q", a)
	}
}

func TestOpenBrowser(t *testing.T) {
	t.Run("Unsupported Platform", func(t *testing.T) {
		original := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = original }()

		if err := OpenBrowser("http://127.0.0.1:8000/api/stream"); err == nil {
			t.Error("expected error on unsupported platform")
		}
	})
}

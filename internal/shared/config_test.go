package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Server.BaseURL != "http://127.0.0.1:8000" {
			t.Errorf("expected default base URL, got %s", config.Server.BaseURL)
		}
		if config.Sync.PollInterval() != time.Second {
			t.Errorf("expected 1s poll interval, got %v", config.Sync.PollInterval())
		}
		if config.Sync.OpenLiveView {
			t.Error("expected live view auto-open disabled by default")
		}
		if config.Database.Path != "./tcbsync.db" {
			t.Errorf("expected default database path, got %s", config.Database.Path)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("Valid File", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := `
[server]
base_url = "http://sync.internal:9000"
timeout_seconds = 5

[sync]
poll_interval_ms = 250
open_live_view = true

[database]
path = "/tmp/test.db"
`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Server.BaseURL != "http://sync.internal:9000" {
				t.Errorf("expected custom base URL, got %s", config.Server.BaseURL)
			}
			if config.Server.Timeout() != 5*time.Second {
				t.Errorf("expected 5s timeout, got %v", config.Server.Timeout())
			}
			if config.Sync.PollInterval() != 250*time.Millisecond {
				t.Errorf("expected 250ms poll interval, got %v", config.Sync.PollInterval())
			}
			if !config.Sync.OpenLiveView {
				t.Error("expected live view auto-open enabled")
			}
		})

		t.Run("Missing File", func(t *testing.T) {
			if _, err := LoadConfig("/nonexistent/config.toml"); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("Malformed TOML", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			os.WriteFile(path, []byte("[server\nbase_url ="), 0644)

			if _, err := LoadConfig(path); err == nil {
				t.Error("expected error for malformed TOML")
			}
		})
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		t.Run("Creates From Template", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")

			if err := CreateConfigFile(path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected created file to parse, got %v", err)
			}
			if config.Server.BaseURL != DefaultConfig().Server.BaseURL {
				t.Error("expected created config to match defaults")
			}
		})

		t.Run("Refuses To Overwrite", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			CreateConfigFile(path)

			if err := CreateConfigFile(path); err == nil {
				t.Error("expected error when file exists")
			}
		})
	})

	t.Run("Zero Values Fall Back", func(t *testing.T) {
		var sync SyncConfig
		if sync.PollInterval() != time.Second {
			t.Errorf("expected default poll interval, got %v", sync.PollInterval())
		}

		var server ServerConfig
		if server.Timeout() != 0 {
			t.Errorf("expected zero timeout to stay disabled, got %v", server.Timeout())
		}
	})
}

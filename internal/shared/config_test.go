package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "tracklinker.db" {
			t.Errorf("expected database path tracklinker.db, got %s", config.Database.Path)
		}

		if config.Transfer.ChunkSize != 20 {
			t.Errorf("expected chunk size 20, got %d", config.Transfer.ChunkSize)
		}

		if config.Transfer.DailyQuota != 10000 {
			t.Errorf("expected daily quota 10000, got %d", config.Transfer.DailyQuota)
		}

		if config.Transfer.RetryAttempts != 3 {
			t.Errorf("expected 3 retry attempts, got %d", config.Transfer.RetryAttempts)
		}

		if config.Matching.AcceptScore != 0.85 {
			t.Errorf("expected accept score 0.85, got %f", config.Matching.AcceptScore)
		}

		if config.Matching.DurationAcceptDelta != 2000 {
			t.Errorf("expected duration delta 2000, got %d", config.Matching.DurationAcceptDelta)
		}

		if config.Credentials.Spotify.RedirectURI != "http://localhost:8080/callback" {
			t.Errorf("expected spotify redirect http://localhost:8080/callback, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:3000/callback"

[credentials.odesli]
api_key = "test_odesli_key"

[transfer]
chunk_size = 5
daily_quota = 4000
reserved_units = 500

[matching]
accept_score = 0.9
preferred_channel_ids = ["UC123", "UC456"]
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Transfer.ChunkSize != 5 {
			t.Errorf("expected chunk size 5, got %d", config.Transfer.ChunkSize)
		}

		if config.Transfer.ReservedUnits != 500 {
			t.Errorf("expected 500 reserved units, got %d", config.Transfer.ReservedUnits)
		}

		if config.Credentials.Odesli.APIKey != "test_odesli_key" {
			t.Errorf("expected odesli key test_odesli_key, got %s", config.Credentials.Odesli.APIKey)
		}

		if len(config.Matching.PreferredChannelIDs) != 2 {
			t.Errorf("expected 2 preferred channels, got %d", len(config.Matching.PreferredChannelIDs))
		}
	})

	t.Run("SaveConfig Roundtrip", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		config := DefaultConfig()
		config.Credentials.Spotify.AccessToken = "saved_access"
		config.Credentials.Spotify.RefreshToken = "saved_refresh"
		config.Transfer.DailyQuota = 5000

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}

		if loaded.Credentials.Spotify.AccessToken != "saved_access" {
			t.Errorf("expected access token saved_access, got %s", loaded.Credentials.Spotify.AccessToken)
		}

		if loaded.Credentials.Spotify.RefreshToken != "saved_refresh" {
			t.Errorf("expected refresh token saved_refresh, got %s", loaded.Credentials.Spotify.RefreshToken)
		}

		if loaded.Transfer.DailyQuota != 5000 {
			t.Errorf("expected daily quota 5000, got %d", loaded.Transfer.DailyQuota)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}

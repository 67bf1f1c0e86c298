package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tracklinker/internal/providers"
	"github.com/desertthunder/tracklinker/internal/shared"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
)

const configPath = "config.toml"

func main() {
	_ = godotenv.Load()

	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	loadedPath := ""
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
			loadedPath = configPath
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}
	applyEnvOverrides(config)

	var spotify *providers.SpotifyProvider
	if p, err := providers.NewSpotifyProvider(config.Credentials.Spotify); err == nil {
		spotify = p
	} else {
		logger.Debug("spotify provider unavailable", "error", err)
	}

	var youtube *providers.YouTubeProvider
	if p, err := providers.NewYouTubeProvider(config.Credentials.YouTube); err == nil {
		youtube = p
	} else {
		logger.Debug("youtube provider unavailable", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: loadedPath,
		Spotify:    spotify,
		YouTube:    youtube,
		Odesli:     providers.NewOdesliClient(config.Credentials.Odesli),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tracklinker",
		Usage:    "Transfer playlists between Spotify & YouTube Music",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}

// applyEnvOverrides lets .env values fill in credentials the config
// file leaves blank.
func applyEnvOverrides(config *shared.Config) {
	overrides := []struct {
		key    string
		target *string
	}{
		{"SPOTIFY_CLIENT_ID", &config.Credentials.Spotify.ClientID},
		{"SPOTIFY_CLIENT_SECRET", &config.Credentials.Spotify.ClientSecret},
		{"YOUTUBE_CLIENT_ID", &config.Credentials.YouTube.ClientID},
		{"YOUTUBE_CLIENT_SECRET", &config.Credentials.YouTube.ClientSecret},
		{"ODESLI_API_KEY", &config.Credentials.Odesli.APIKey},
	}

	for _, o := range overrides {
		if *o.target == "" {
			if v := os.Getenv(o.key); v != "" {
				*o.target = v
			}
		}
	}
}

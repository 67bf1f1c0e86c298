// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the OAuth code flow for both providers.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "spotify",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code from the redirect URL",
					},
				},
				Action: r.AuthSpotify,
			},
			{
				Name:    "youtube",
				Aliases: []string{"yt", "ytmusic"},
				Usage:   "Authenticate with YouTube using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "code",
						Usage: "Authorization code from the redirect URL",
					},
				},
				Action: r.AuthYouTube,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state for both providers",
				Action: r.AuthStatus,
			},
		},
	}
}

// playlistsCommand handles playlist browsing on either provider.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "Browse playlists on a provider",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List the user's playlists",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Provider to list from (spotify or youtube)",
						Value:   "spotify",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "tracks",
				Usage: "List every track of a playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Provider to read from (spotify or youtube)",
						Value:   "spotify",
					},
					&cli.StringFlag{
						Name:    "export",
						Aliases: []string{"o"},
						Usage:   "Write the listing to a file (.csv, .md or .txt)",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.PlaylistsTracks,
			},
		},
	}
}

// transferCommand handles playlist transfer operations.
func transferCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "transfer",
		Usage: "Transfer playlists between services",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run full Spotify → YouTube Music sync",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source playlist ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Destination playlist name (defaults to source name)",
					},
					&cli.StringFlag{
						Name:  "target-id",
						Usage: "Append to an existing destination playlist instead of creating one",
					},
					&cli.IntFlag{
						Name:  "chunk-size",
						Usage: "Tracks per insert batch",
					},
					&cli.IntFlag{
						Name:  "used-units",
						Usage: "Quota units already spent today",
					},
					&cli.IntFlag{
						Name:  "daily-quota",
						Usage: "Daily quota unit limit",
					},
					&cli.IntFlag{
						Name:  "reserve",
						Usage: "Quota units to hold back from this run",
					},
				},
				Action: r.TransferRun,
			},
			{
				Name:  "map",
				Usage: "Resolve source tracks to destination matches without inserting",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Source playlist ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.TransferMap,
			},
		},
	}
}

// matchesCommand inspects the persistent match cache.
func matchesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "matches",
		Usage: "Inspect cached track matches",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached matches for a provider",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Source provider",
						Value:   "spotify",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.MatchesList,
			},
			{
				Name:  "stats",
				Usage: "Show match cache counts by decision kind",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Source provider",
						Value:   "spotify",
					},
				},
				Action: r.MatchesStats,
			},
			{
				Name:  "delete",
				Usage: "Forget a cached match so the track re-resolves",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "service",
						Aliases: []string{"s"},
						Usage:   "Source provider",
						Value:   "spotify",
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Source track ID",
						Required: true,
					},
				},
				Action: r.MatchesDelete,
			},
		},
	}
}

// runsCommand reads transfer run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Inspect transfer run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent transfer runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.RunsList,
			},
			{
				Name:  "show",
				Usage: "Show one run with its per-track errors",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Run ID",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.RunsShow,
			},
		},
	}
}

// quotaCommand estimates insert capacity against the daily API budget.
func quotaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "quota",
		Usage: "YouTube API quota budgeting",
		Commands: []*cli.Command{
			{
				Name:  "estimate",
				Usage: "Estimate how many tracks fit in the remaining daily quota",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "tracks",
						Usage: "Number of tracks to insert",
						Value: 0,
					},
					&cli.IntFlag{
						Name:  "used-units",
						Usage: "Quota units already spent today",
					},
					&cli.IntFlag{
						Name:  "daily-quota",
						Usage: "Daily quota unit limit",
					},
					&cli.IntFlag{
						Name:  "reserve",
						Usage: "Quota units to hold back from the estimate",
					},
					&cli.BoolFlag{
						Name:  "append",
						Usage: "Appending to an existing playlist (no creation cost)",
					},
				},
				Action: r.QuotaEstimate,
			},
		},
	}
}

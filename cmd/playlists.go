package main

import (
	"context"
	"strings"

	"github.com/desertthunder/tracklinker/internal/formatter"
	"github.com/urfave/cli/v3"
)

// PlaylistsList lists the user's playlists on a provider.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.resolveProvider(cmd.String("service"))
	if err != nil {
		return err
	}

	if _, err := provider.Auth(ctx, false); err != nil {
		return err
	}

	playlists, err := provider.ListPlaylists(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlainHeader(titleCase(provider.Name()) + " Playlists")
	for _, pl := range playlists {
		r.writePlain("%s  %s (%d tracks)\n", pl.ID, pl.Name, pl.TrackCount)
	}
	r.writePlain("\nTotal: %d\n", len(playlists))

	return nil
}

// PlaylistsTracks prints every track of a playlist in order.
func (r *Runner) PlaylistsTracks(ctx context.Context, cmd *cli.Command) error {
	provider, err := r.resolveProvider(cmd.String("service"))
	if err != nil {
		return err
	}

	if _, err := provider.Auth(ctx, false); err != nil {
		return err
	}

	playlistID := cmd.String("id")

	playlist, err := provider.GetPlaylist(ctx, playlistID)
	if err != nil {
		return err
	}

	tracks, err := provider.ListTracks(ctx, playlistID)
	if err != nil {
		return err
	}

	if path := cmd.String("export"); path != "" {
		written, err := formatter.WriteExport(*playlist, tracks, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported to %s\n", written)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	r.writePlainHeader(playlist.Name)
	for i, track := range tracks {
		r.writePlain("%3d. %s - %s", i+1, strings.Join(track.Artists, ", "), track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n")
	}
	r.writePlain("\nTotal: %d tracks\n", len(tracks))

	return nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

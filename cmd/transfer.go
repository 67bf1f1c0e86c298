package main

import (
	"context"
	"strings"
	"sync"

	"github.com/desertthunder/tracklinker/internal/quota"
	"github.com/desertthunder/tracklinker/internal/transfer"
	"github.com/urfave/cli/v3"
)

// TransferRun runs a full Spotify → YouTube Music sync.
func (r *Runner) TransferRun(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")
	destName := cmd.String("name")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := r.orchestrator(db)
	if err != nil {
		return err
	}

	if _, err := r.spotify.Auth(ctx, false); err != nil {
		return err
	}
	if _, err := r.youtube.Auth(ctx, false); err != nil {
		return err
	}

	r.logger.Info("starting transfer", "source", sourceID, "dest", destName)
	r.writePlain("Starting playlist transfer...\n")

	progress := make(chan transfer.Update, 64)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.printUpdate(update)
		}
	}()

	opts := r.executeOptions(cmd)
	result, err := orchestrator.Run(ctx, sourceID, destName, opts, progress)
	close(progress)
	wg.Wait()

	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Transfer Complete")
	r.writePlain("Destination: %s\n", result.Playlist.Name)
	r.writePlain("Added: %d  Skipped: %d  Failed: %d\n", result.Run.Added, result.Run.Skipped, result.Run.Failed)

	if result.Truncated > 0 {
		r.writePlain("Quota budget withheld %d tracks; re-run tomorrow or raise the daily limit\n", result.Truncated)
	}

	if len(result.Run.Errors) > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, trackErr := range result.Run.Errors {
			r.writePlain("  - %s: %s\n", trackErr.TrackID, trackErr.Message)
		}
	}

	return nil
}

// TransferMap resolves matches for a playlist without writing anything
// to the destination.
func (r *Runner) TransferMap(ctx context.Context, cmd *cli.Command) error {
	sourceID := cmd.String("source")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	orchestrator, err := r.orchestrator(db)
	if err != nil {
		return err
	}

	if _, err := r.spotify.Auth(ctx, false); err != nil {
		return err
	}
	if _, err := r.youtube.Auth(ctx, false); err != nil {
		return err
	}

	plan, err := orchestrator.Prepare(ctx, sourceID, "", nil)
	if err != nil {
		return err
	}

	result, err := orchestrator.MapTracks(ctx, plan, nil)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Mapping: " + plan.SourcePlaylist.Name)
	for _, mapping := range result.Mappings {
		label := strings.Join(mapping.Track.Artists, ", ") + " - " + mapping.Track.Title
		switch {
		case mapping.Accepted:
			r.writePlain("✓ %s → %s (%.2f via %s)\n", label, mapping.Result.ID, mapping.Result.Score, mapping.Via)
		case mapping.Result != nil:
			r.writePlain("? %s → %s (%.2f, needs review)\n", label, mapping.Result.ID, mapping.Result.Score)
		default:
			r.writePlain("✗ %s (no match)\n", label)
		}
	}
	r.writePlain("\nMatched: %d  Needs review: %d  Unmatched: %d\n", result.Matched, result.Pending, result.Unmatched)

	return nil
}

// executeOptions assembles insert-phase options from config and flags.
func (r *Runner) executeOptions(cmd *cli.Command) transfer.ExecuteOptions {
	cfg := r.config.Transfer

	chunkSize := cfg.ChunkSize
	if v := cmd.Int("chunk-size"); v > 0 {
		chunkSize = v
	}

	dailyLimit := cfg.DailyQuota
	if v := cmd.Int("daily-quota"); v > 0 {
		dailyLimit = v
	}
	if dailyLimit <= 0 {
		dailyLimit = quota.DefaultDailyQuota
	}

	reserved := cfg.ReservedUnits
	if v := cmd.Int("reserve"); v > 0 {
		reserved = v
	}

	return transfer.ExecuteOptions{
		ChunkSize: chunkSize,
		Quota: quota.State{
			DailyLimit:    dailyLimit,
			UsedToday:     cmd.Int("used-units"),
			ReservedUnits: reserved,
		},
		TargetPlaylistID: cmd.String("target-id"),
		ChunksPerSecond:  cfg.ChunksPerSecond,
	}
}

func (r *Runner) printUpdate(update transfer.Update) {
	switch update.Stage {
	case transfer.StagePreparing:
		r.writePlain("📥 %s\n", update.Message)
	case transfer.StageMapping:
		if update.Step == 1 {
			r.writePlain("\n🔍 %s\n", update.Message)
		} else {
			r.writePlain("   %s\n", update.Message)
		}
	case transfer.StageAwaitingUser:
		r.writePlain("\n⚠ %s\n", update.Message)
	case transfer.StageCreatingPlaylist:
		r.writePlain("\n📝 %s\n", update.Message)
	case transfer.StageInserting:
		r.writePlain("   %s\n", update.Message)
	}
}

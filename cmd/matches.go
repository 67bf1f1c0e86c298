package main

import (
	"context"

	"github.com/desertthunder/tracklinker/internal/repositories"
	"github.com/desertthunder/tracklinker/internal/transfer"
	"github.com/urfave/cli/v3"
)

// MatchesList lists cached matches for a source provider, newest first.
func (r *Runner) MatchesList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewMatchRepository(db)
	matches, err := repo.List(cmd.String("service"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(matches, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Cached Matches")
	for _, match := range matches {
		r.writePlain("%s → %s  score %.2f  %s/%s\n",
			match.SourceTrackID, match.TargetID, match.Score, match.DecidedBy, match.Via)
	}
	stats := transfer.ComputeMatchStats(matches)
	r.writePlain("\nTotal: %d (%d auto, %d manual)\n", stats.Total, stats.Auto, stats.Manual)

	return nil
}

// MatchesStats shows how many cached decisions were automatic vs manual.
func (r *Runner) MatchesStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewMatchRepository(db)
	stats, err := repo.Stats(cmd.String("service"))
	if err != nil {
		return err
	}

	r.writePlainHeader("Match Cache")
	r.writePlain("Total:  %d\n", stats.Total)
	r.writePlain("Auto:   %d\n", stats.Auto)
	r.writePlain("Manual: %d\n", stats.Manual)

	return nil
}

// MatchesDelete removes one cached decision so the track re-resolves
// on the next transfer.
func (r *Runner) MatchesDelete(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	provider := cmd.String("service")
	trackID := cmd.String("id")

	repo := repositories.NewMatchRepository(db)
	if err := repo.Delete(provider, trackID); err != nil {
		return err
	}

	r.logger.Info("match deleted", "provider", provider, "track", trackID)
	r.writePlain("✓ Match forgotten: %s/%s\n", provider, trackID)

	return nil
}

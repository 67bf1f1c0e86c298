package main

import (
	"context"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunsList lists recent transfer runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	runs, err := repo.Recent(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Transfer Runs")
	for _, run := range runs {
		r.writePlain("#%d %s  %s  added %d  skipped %d  failed %d  %s\n",
			run.Sequence, run.ID, run.SourcePlaylistID,
			run.Added, run.Skipped, run.Failed, runStatus(run))
	}
	r.writePlain("\nTotal: %d\n", len(runs))

	return nil
}

// RunsShow prints one run including its per-track errors.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewRunRepository(db)
	run, err := repo.Get(cmd.String("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(run, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Run " + run.ID)
	r.writePlain("Source:      %s\n", run.SourcePlaylistID)
	r.writePlain("Destination: %s\n", run.TargetPlaylistID)
	r.writePlain("Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if run.FinishedAt != nil {
		r.writePlain("Finished:    %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	r.writePlain("Added: %d  Skipped: %d  Failed: %d\n", run.Added, run.Skipped, run.Failed)

	if len(run.Errors) > 0 {
		r.writePlain("\nErrors:\n")
		for _, trackErr := range run.Errors {
			r.writePlain("  - %s: %s\n", trackErr.TrackID, trackErr.Message)
		}
	}

	return nil
}

func runStatus(run models.RunRecord) string {
	if run.FinishedAt == nil {
		return "in progress"
	}
	return "finished"
}

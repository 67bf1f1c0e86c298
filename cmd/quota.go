package main

import (
	"context"

	"github.com/desertthunder/tracklinker/internal/quota"
	"github.com/urfave/cli/v3"
)

// QuotaEstimate reports how many tracks fit in the remaining daily
// YouTube API budget.
func (r *Runner) QuotaEstimate(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Transfer

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

	state := quota.State{
		DailyLimit:    dailyLimit,
		UsedToday:     cmd.Int("used-units"),
		ReservedUnits: reserved,
	}

	estimate := quota.EstimateInsertCapacity(state, quota.Options{
		IncludePlaylistCreation: !cmd.Bool("append"),
	})

	r.writePlainHeader("Quota Estimate")
	r.writePlain("Daily limit:     %d units\n", state.DailyLimit)
	r.writePlain("Used today:      %d units\n", state.UsedToday)
	if state.ReservedUnits > 0 {
		r.writePlain("Reserved:        %d units\n", state.ReservedUnits)
	}
	r.writePlain("Remaining:       %d units\n", estimate.RemainingUnits)
	r.writePlain("Max inserts:     %d tracks\n", estimate.MaxInserts)

	if tracks := cmd.Int("tracks"); tracks > 0 {
		if tracks <= estimate.MaxInserts {
			r.writePlain("\n✓ %d tracks fit in today's budget\n", tracks)
		} else {
			r.writePlain("\n✗ only %d of %d tracks fit in today's budget\n", estimate.MaxInserts, tracks)
		}
	}

	return nil
}

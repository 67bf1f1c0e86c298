// package quota estimates how many write operations a transfer may perform
// against the target catalog's daily unit budget.
//
// Costs mirror the YouTube Data API v3 quota table; they are exported so
// callers and tests can assert exact arithmetic.
package quota

// Per-operation unit costs.
const (
	CostSearchList         = 100
	CostPlaylistInsert     = 50
	CostPlaylistItemInsert = 50
	CostVideosList         = 1

	// DefaultDailyQuota is the free-tier daily unit budget.
	DefaultDailyQuota = 10_000
)

// State holds the inputs of a capacity estimate.
type State struct {
	DailyLimit    int // Daily unit budget
	UsedToday     int // Units already consumed today
	ReservedUnits int // Units explicitly held back by the caller
}

// Options tunes a capacity estimate.
type Options struct {
	// IncludePlaylistCreation reserves units for one playlist-creation
	// call instead of State.ReservedUnits.
	IncludePlaylistCreation bool
}

// Estimate is the output of EstimateInsertCapacity.
type Estimate struct {
	RemainingUnits int  // Units left after reservations, never negative
	MaxInserts     int  // Track insertions the budget allows
	WillExceed     bool // True when no insertion fits the budget
}

// EstimateInsertCapacity computes how many track insertions fit in the
// remaining daily budget. Pure and total: no side effects, deterministic,
// never returns negative values.
func EstimateInsertCapacity(state State, opts Options) Estimate {
	reserved := state.ReservedUnits
	if opts.IncludePlaylistCreation {
		reserved = CostPlaylistInsert
	}

	remaining := state.DailyLimit - state.UsedToday - reserved
	if remaining < 0 {
		remaining = 0
	}

	maxInserts := remaining / CostPlaylistItemInsert

	return Estimate{
		RemainingUnits: remaining,
		MaxInserts:     maxInserts,
		WillExceed:     maxInserts <= 0,
	}
}

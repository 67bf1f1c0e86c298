package quota

import "testing"

func TestEstimateInsertCapacity(t *testing.T) {
	tests := []struct {
		name           string
		state          State
		opts           Options
		wantRemaining  int
		wantMaxInserts int
		wantWillExceed bool
	}{
		{
			name:           "fresh quota with playlist creation",
			state:          State{DailyLimit: DefaultDailyQuota},
			opts:           Options{IncludePlaylistCreation: true},
			wantRemaining:  9950,
			wantMaxInserts: 199,
			wantWillExceed: false,
		},
		{
			name:           "documented scenario: 150 limit, create + items at 50",
			state:          State{DailyLimit: 150, UsedToday: 0},
			opts:           Options{IncludePlaylistCreation: true},
			wantRemaining:  100,
			wantMaxInserts: 2,
			wantWillExceed: false,
		},
		{
			name:           "explicit reservation without playlist creation",
			state:          State{DailyLimit: 1000, UsedToday: 200, ReservedUnits: 300},
			opts:           Options{},
			wantRemaining:  500,
			wantMaxInserts: 10,
			wantWillExceed: false,
		},
		{
			name:           "budget exhausted",
			state:          State{DailyLimit: 100, UsedToday: 100},
			opts:           Options{},
			wantRemaining:  0,
			wantMaxInserts: 0,
			wantWillExceed: true,
		},
		{
			name:           "overdrawn never goes negative",
			state:          State{DailyLimit: 100, UsedToday: 500, ReservedUnits: 50},
			opts:           Options{},
			wantRemaining:  0,
			wantMaxInserts: 0,
			wantWillExceed: true,
		},
		{
			name:           "remaining smaller than one insert",
			state:          State{DailyLimit: 149, UsedToday: 0},
			opts:           Options{IncludePlaylistCreation: true},
			wantRemaining:  99,
			wantMaxInserts: 1,
			wantWillExceed: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateInsertCapacity(tt.state, tt.opts)
			if got.RemainingUnits != tt.wantRemaining {
				t.Errorf("RemainingUnits = %d, want %d", got.RemainingUnits, tt.wantRemaining)
			}
			if got.MaxInserts != tt.wantMaxInserts {
				t.Errorf("MaxInserts = %d, want %d", got.MaxInserts, tt.wantMaxInserts)
			}
			if got.WillExceed != tt.wantWillExceed {
				t.Errorf("WillExceed = %v, want %v", got.WillExceed, tt.wantWillExceed)
			}
		})
	}
}

func TestEstimateInsertCapacity_ExhaustedAlwaysZero(t *testing.T) {
	// usedToday + reservedUnits >= dailyLimit must yield zero inserts.
	for used := 0; used <= 200; used += 25 {
		for reserved := 0; reserved <= 200; reserved += 25 {
			if used+reserved < 150 {
				continue
			}
			got := EstimateInsertCapacity(State{DailyLimit: 150, UsedToday: used, ReservedUnits: reserved}, Options{})
			if got.MaxInserts != 0 || !got.WillExceed {
				t.Errorf("used=%d reserved=%d: MaxInserts = %d, WillExceed = %v; want 0, true", used, reserved, got.MaxInserts, got.WillExceed)
			}
		}
	}
}

func TestEstimateInsertCapacity_Monotonic(t *testing.T) {
	// Increasing usedToday never increases MaxInserts.
	prev := EstimateInsertCapacity(State{DailyLimit: DefaultDailyQuota}, Options{IncludePlaylistCreation: true}).MaxInserts
	for used := 0; used <= DefaultDailyQuota+500; used += 37 {
		got := EstimateInsertCapacity(State{DailyLimit: DefaultDailyQuota, UsedToday: used}, Options{IncludePlaylistCreation: true}).MaxInserts
		if got > prev {
			t.Fatalf("usedToday=%d: MaxInserts rose from %d to %d", used, prev, got)
		}
		prev = got
	}
}

package models

import "time"

// MatchMethod identifies which heuristic produced a match.
type MatchMethod string

const (
	MatchOdesli    MatchMethod = "odesli"    // cross-catalog link resolution
	MatchDuration  MatchMethod = "duration"  // duration proximity
	MatchString    MatchMethod = "string"    // ISRC or title similarity
	MatchManual    MatchMethod = "manual"    // user-confirmed
	MatchOfficial  MatchMethod = "official"  // official/topic channel boost
	MatchPreferred MatchMethod = "preferred" // preferred-channel allowlist boost
	MatchUnknown   MatchMethod = "unknown"
)

// Decision identifies who made a match decision.
type Decision string

const (
	DecidedAuto Decision = "auto"
	DecidedUser Decision = "user"
)

// Track represents a music track from any catalog.
// Immutable once fetched from a provider.
type Track struct {
	ID         string   // Catalog-native track identifier
	ISRC       string   // International Standard Recording Code, empty if unknown
	Title      string   // Track title
	Artists    []string // Artist names in catalog order
	Album      string   // Album name, empty if unknown
	DurationMS int      // Duration in milliseconds, 0 if unknown
	Explicit   bool     // Explicit-content flag
	Year       int      // Release year, 0 if unknown
	URL        string   // Canonical source URL, empty if unknown
}

// Playlist represents a playlist in either catalog.
type Playlist struct {
	ID          string
	Name        string
	Description string
	TrackCount  int
	OwnerName   string
	SnapshotID  string // For change detection, empty if the catalog has none
}

// SearchResult is a scored candidate match from a target-catalog search.
type SearchResult struct {
	ID              string      // Target-catalog native id
	Score           float64     // Confidence in [0, 1]
	Title           string
	ChannelID       string
	ChannelTitle    string
	DurationMS      int    // 0 if unknown
	DurationDeltaMS *int   // Candidate minus source duration, nil if either unknown
	URL             string
	MatchedBy       MatchMethod
	Reasons         []string // Human-readable acceptance reasons
	Official        bool     // Canonical/official upload
}

// TransferPlan is the immutable output of the prepare phase.
type TransferPlan struct {
	SourcePlaylist     Playlist
	TargetPlaylistName string
	Tracks             []Track // Source-listing order, preserved through mapping
}

// MatchRecord is the persisted decision for one source track.
//
// At most one record exists per (SourceProvider, SourceTrackID); later
// writes overwrite. An empty TargetID means "no match yet".
type MatchRecord struct {
	SourceProvider string
	SourceTrackID  string
	TargetProvider string
	TargetID       string
	Score          float64
	DecidedBy      Decision
	Via            MatchMethod
	UpdatedAt      time.Time
	Metadata       map[string]string
}

// RunError is one per-track failure recorded in a RunRecord.
type RunError struct {
	TrackID string `json:"track_id"`
	Message string `json:"message"`
}

// RunRecord is one row per transfer attempt. Created with zero counts at
// run start and patched with final counts at run end.
type RunRecord struct {
	ID               string
	Sequence         int
	StartedAt        time.Time
	FinishedAt       *time.Time
	SourcePlaylistID string
	TargetPlaylistID string
	Added            int
	Skipped          int
	Failed           int
	Errors           []RunError
}

// MatchStats summarizes a mapping pass.
type MatchStats struct {
	Total  int
	Auto   int
	Manual int
}

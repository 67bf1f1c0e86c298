package matching

import (
	"strings"

	"github.com/desertthunder/tracklinker/internal/models"
)

// Policy holds the thresholds deciding whether a scored candidate may
// be accepted without user review. Construct from [DefaultPolicy] and
// override individual fields as needed.
type Policy struct {
	// AcceptScore accepts any candidate at or above it outright.
	AcceptScore float64

	// OfficialAcceptScore applies to official or Topic channel uploads.
	OfficialAcceptScore float64

	// DurationAcceptScore applies when the duration delta is within
	// DurationAcceptDeltaMS of the source track.
	DurationAcceptScore float64

	// ISRCHintAcceptScore applies when the source track carries an ISRC,
	// on the grounds that the search was anchored by it.
	ISRCHintAcceptScore float64

	DurationAcceptDeltaMS int
}

// DefaultPolicy returns the stock acceptance thresholds.
func DefaultPolicy() Policy {
	return Policy{
		AcceptScore:           0.85,
		OfficialAcceptScore:   0.6,
		DurationAcceptScore:   0.7,
		ISRCHintAcceptScore:   0.65,
		DurationAcceptDeltaMS: 2000,
	}
}

// ShouldAutoAccept reports whether result is a good enough match for
// track to record without asking the user.
func (p Policy) ShouldAutoAccept(result models.SearchResult, track models.Track) bool {
	if result.Score >= p.AcceptScore {
		return true
	}
	if hasISRCReason(result.Reasons) {
		return true
	}
	if result.Official && result.Score >= p.OfficialAcceptScore {
		return true
	}
	if result.DurationDeltaMS != nil &&
		abs(*result.DurationDeltaMS) <= p.DurationAcceptDeltaMS &&
		result.Score >= p.DurationAcceptScore {
		return true
	}
	if track.ISRC != "" && result.Score >= p.ISRCHintAcceptScore {
		return true
	}
	return false
}

func hasISRCReason(reasons []string) bool {
	for _, reason := range reasons {
		if strings.Contains(strings.ToLower(reason), "isrc") {
			return true
		}
	}
	return false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// package matching scores target-catalog search candidates against a
// source track and decides which matches may be accepted without review.
//
// The baseline signal is duration proximity; ISRC equality, channel
// provenance, title similarity and title keywords adjust the score.
// Every adjustment appends a human-readable reason so low-confidence
// decisions stay explainable.
package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/desertthunder/tracklinker/internal/models"
)

// Scoring constants. Duration tolerance is the greater of the floor and
// 5% of the source duration.
const (
	NeutralScore       = 0.4  // Either duration unknown
	DurationScoreFloor = 0.1  // Minimum duration-ratio score
	MinScore           = 0.05 // Final floor, keeps zero-confidence candidates rankable
	ToleranceFloorMS   = 5000
	TolerancePct       = 0.05

	OfficialBoost       = 0.18
	PreferredBoost      = 0.12
	SimilarityBoost     = 0.08
	SimilarityThreshold = 0.90

	LivePenalty  = 0.18
	CoverPenalty = 0.14
	RemixPenalty = 0.10
	LyricPenalty = 0.05
)

// Candidate is the raw search metadata a provider knows about one result.
type Candidate struct {
	ID           string
	Title        string
	ChannelID    string
	ChannelTitle string
	DurationMS   int // 0 if unknown
	ISRC         string
	URL          string
}

// Options carries caller-supplied scoring hints.
type Options struct {
	PreferredChannelIDs []string
}

// BuildQuery renders the search string used for a track: artists joined
// by ", ", then " - ", then the title.
func BuildQuery(track models.Track) string {
	return strings.Join(track.Artists, ", ") + " - " + track.Title
}

// Evaluate converts raw candidate metadata into a scored, explainable
// [models.SearchResult]. The score is clamped to [MinScore, 1].
func Evaluate(c Candidate, track models.Track, opts Options) models.SearchResult {
	result := models.SearchResult{
		ID:           c.ID,
		Title:        c.Title,
		ChannelID:    c.ChannelID,
		ChannelTitle: c.ChannelTitle,
		DurationMS:   c.DurationMS,
		URL:          c.URL,
		MatchedBy:    models.MatchDuration,
	}

	score := durationScore(c.DurationMS, track.DurationMS)

	if c.DurationMS > 0 && track.DurationMS > 0 {
		delta := c.DurationMS - track.DurationMS
		result.DurationDeltaMS = &delta
		result.Reasons = append(result.Reasons, deltaReason(delta))
	}

	// Exact ISRC equality is definitive: pin the score and skip the
	// remaining heuristics.
	if c.ISRC != "" && strings.EqualFold(c.ISRC, track.ISRC) && track.ISRC != "" {
		result.Score = 1.0
		result.MatchedBy = models.MatchString
		result.Reasons = append(result.Reasons, "ISRC match")
		return result
	}

	channel := strings.ToLower(c.ChannelTitle)
	if strings.HasSuffix(channel, " - topic") ||
		strings.Contains(channel, "official artist channel") ||
		strings.Contains(channel, "official video") ||
		strings.Contains(channel, "provided to youtube") {
		result.Official = true
		score = clamp(score + OfficialBoost)
		result.MatchedBy = models.MatchOfficial
		result.Reasons = append(result.Reasons, "Official / Topic channel")
	}

	if c.ChannelID != "" && contains(opts.PreferredChannelIDs, c.ChannelID) {
		score = clamp(score + PreferredBoost)
		result.MatchedBy = models.MatchPreferred
		result.Reasons = append(result.Reasons, "Preferred channel")
	}

	if track.Title != "" && c.Title != "" {
		similarity := strutil.Similarity(
			strings.ToLower(BuildQuery(track)),
			strings.ToLower(c.Title),
			metrics.NewJaroWinkler(),
		)
		if similarity >= SimilarityThreshold {
			score = clamp(score + SimilarityBoost)
			result.MatchedBy = models.MatchString
			result.Reasons = append(result.Reasons, "Title similarity")
		}
	}

	title := strings.ToLower(c.Title)
	if strings.Contains(title, "live") {
		score = math.Max(0, score-LivePenalty)
		result.Reasons = append(result.Reasons, "Live performance hint")
	}
	if strings.Contains(title, "cover") {
		score = math.Max(0, score-CoverPenalty)
		result.Reasons = append(result.Reasons, "Cover version hint")
	}
	if strings.Contains(title, "remix") {
		score = math.Max(0, score-RemixPenalty)
		result.Reasons = append(result.Reasons, "Remix detected")
	}
	if strings.Contains(title, "lyric") {
		score = math.Max(0, score-LyricPenalty)
		result.Reasons = append(result.Reasons, "Lyric video hint")
	}

	result.Score = math.Max(MinScore, clamp(score))
	return result
}

// SortCandidates orders candidates by descending score; ties keep the
// original catalog-search order.
func SortCandidates(results []models.SearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func durationScore(candidateMS, sourceMS int) float64 {
	if candidateMS <= 0 || sourceMS <= 0 {
		return NeutralScore
	}

	delta := math.Abs(float64(candidateMS - sourceMS))
	tolerance := math.Max(ToleranceFloorMS, float64(sourceMS)*TolerancePct)
	ratio := math.Max(0, 1-delta/tolerance)
	return math.Max(DurationScoreFloor, math.Min(1, ratio))
}

func deltaReason(deltaMS int) string {
	return fmt.Sprintf("Duration delta %+.1fs", float64(deltaMS)/1000)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

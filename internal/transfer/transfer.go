// package transfer implements the playlist transfer pipeline.
//
// The core abstraction is Orchestrator, which maps source tracks to
// target catalog items (match cache first, then cross-catalog link
// resolution, then scored search) and executes chunked playlist
// inserts under a quota budget. Operations emit progress updates via
// channels for non-blocking status reporting to the CLI layer.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklinker/internal/matching"
	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/providers"
	"github.com/desertthunder/tracklinker/internal/quota"
	"github.com/desertthunder/tracklinker/internal/ratelimit"
	"github.com/desertthunder/tracklinker/internal/shared"
	"golang.org/x/time/rate"
)

// MatchCache persists decided matches between runs.
type MatchCache interface {
	Get(sourceProvider, sourceTrackID string) (*models.MatchRecord, error)
	Put(record *models.MatchRecord) error
}

// RunLog records transfer runs and their outcomes.
type RunLog interface {
	Start(sourcePlaylistID string) (*models.RunRecord, error)
	Finalize(run *models.RunRecord) error
}

// Deps carries the orchestrator's collaborators. Source, Target,
// Cache, Runs and Logger are required; Resolver and Limiter are
// optional.
type Deps struct {
	Source   providers.Provider
	Target   providers.Provider
	Cache    MatchCache
	Runs     RunLog
	Resolver providers.LinkResolver

	// Limiter throttles link-resolution calls only; catalog search has
	// its own provider-side quota accounting.
	Limiter *ratelimit.Limiter

	Logger *log.Logger

	Retry  RetryPolicy
	Policy matching.Policy

	// PreferredChannelIDs passes through to candidate scoring.
	PreferredChannelIDs []string
}

// Orchestrator drives the transfer pipeline for one source/target pair.
type Orchestrator struct {
	source   providers.Provider
	target   providers.Provider
	cache    MatchCache
	runs     RunLog
	resolver providers.LinkResolver
	limiter  *ratelimit.Limiter
	logger   *log.Logger

	retry     RetryPolicy
	policy    matching.Policy
	preferred []string
}

// NewOrchestrator wires an orchestrator from deps, filling in the
// default retry policy when none is set.
func NewOrchestrator(deps Deps) *Orchestrator {
	retry := deps.Retry
	if retry.Attempts <= 0 {
		retry = DefaultRetryPolicy()
	}

	return &Orchestrator{
		source:    deps.Source,
		target:    deps.Target,
		cache:     deps.Cache,
		runs:      deps.Runs,
		resolver:  deps.Resolver,
		limiter:   deps.Limiter,
		logger:    deps.Logger,
		retry:     retry,
		policy:    deps.Policy,
		preferred: deps.PreferredChannelIDs,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (o *Orchestrator) sendProgress(progress chan<- Update, update Update) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Prepare fetches the source playlist and its full track list and
// assembles a transfer plan.
func (o *Orchestrator) Prepare(ctx context.Context, sourcePlaylistID, targetName string, progress chan<- Update) (*models.TransferPlan, error) {
	if o.source == nil {
		return nil, fmt.Errorf("%w: source provider not initialized", shared.ErrServiceUnavailable)
	}

	o.sendProgress(progress, preparingUpdate(sourcePlaylistID))

	playlist, err := o.source.GetPlaylist(ctx, sourcePlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source playlist: %w", err)
	}

	tracks, err := o.source.ListTracks(ctx, sourcePlaylistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list source tracks: %w", err)
	}

	if targetName == "" {
		targetName = playlist.Name
	}

	plan := &models.TransferPlan{
		SourcePlaylist:     *playlist,
		TargetPlaylistName: targetName,
		Tracks:             tracks,
	}

	o.sendProgress(progress, preparedUpdate(plan))
	return plan, nil
}

// TrackMapping is the resolution outcome for one source track.
type TrackMapping struct {
	Track models.Track

	// Result is the chosen target item, nil when nothing acceptable
	// was found.
	Result *models.SearchResult

	// Candidates holds the scored search results when the best one was
	// not auto-accepted, for user review.
	Candidates []models.SearchResult

	Via       models.MatchMethod
	FromCache bool
	Accepted  bool
}

// MappingResult aggregates the mapping phase.
type MappingResult struct {
	Mappings  []TrackMapping
	Matched   int
	Pending   int // resolved but awaiting user confirmation
	Unmatched int
}

// Event returns the pipeline event the mapping outcome implies.
func (m *MappingResult) Event() Event {
	if m.Pending > 0 {
		return EventNeedsReview
	}
	return EventMapped
}

// MapTracks resolves every plan track to a target item, in source
// order. Resolution precedence: match cache, then cross-catalog link,
// then scored search. Cache and link failures are logged and the next
// strategy tried; search failures abort the mapping.
func (o *Orchestrator) MapTracks(ctx context.Context, plan *models.TransferPlan, progress chan<- Update) (*MappingResult, error) {
	if o.target == nil {
		return nil, fmt.Errorf("%w: target provider not initialized", shared.ErrServiceUnavailable)
	}

	total := len(plan.Tracks)
	result := &MappingResult{Mappings: make([]TrackMapping, 0, total)}

	for i, track := range plan.Tracks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		o.sendProgress(progress, mappingUpdate(i+1, total, track))

		mapping, err := o.resolveTrack(ctx, track)
		if err != nil {
			return result, fmt.Errorf("%w: %s: %v", shared.ErrMapping, trackLabel(track), err)
		}

		switch {
		case mapping.Accepted:
			result.Matched++
		case mapping.Result != nil:
			result.Pending++
		default:
			result.Unmatched++
		}

		result.Mappings = append(result.Mappings, mapping)
		o.sendProgress(progress, mappedUpdate(i+1, total, mapping))
	}

	if result.Pending > 0 {
		o.sendProgress(progress, awaitingUserUpdate(result.Pending))
	}

	return result, nil
}

// resolveTrack tries each strategy in precedence order for one track.
func (o *Orchestrator) resolveTrack(ctx context.Context, track models.Track) (TrackMapping, error) {
	mapping := TrackMapping{Track: track}

	if record := o.cachedMatch(track); record != nil {
		mapping.Result = &models.SearchResult{
			ID:        record.TargetID,
			Score:     record.Score,
			MatchedBy: record.Via,
			Reasons:   []string{"Cached decision"},
		}
		mapping.Via = record.Via
		mapping.FromCache = true
		mapping.Accepted = true
		return mapping, nil
	}

	if resolved := o.resolveLink(ctx, track); resolved != nil {
		mapping.Result = resolved
		mapping.Via = models.MatchOdesli
		mapping.Accepted = true
		if err := o.persistMatch(track, resolved, models.MatchOdesli); err != nil {
			return mapping, err
		}
		return mapping, nil
	}

	results, err := o.searchTarget(ctx, track)
	if err != nil {
		return mapping, err
	}
	if len(results) == 0 {
		return mapping, nil
	}

	best := results[0]
	if !o.policy.ShouldAutoAccept(best, track) {
		mapping.Candidates = results
		mapping.Result = &best
		mapping.Via = best.MatchedBy
		return mapping, nil
	}

	mapping.Result = &best
	mapping.Via = best.MatchedBy
	mapping.Accepted = true
	if err := o.persistMatch(track, &best, best.MatchedBy); err != nil {
		return mapping, err
	}
	return mapping, nil
}

// cachedMatch consults the match cache; lookup failures are swallowed
// so a broken cache degrades to re-resolution.
func (o *Orchestrator) cachedMatch(track models.Track) *models.MatchRecord {
	if o.cache == nil {
		return nil
	}

	record, err := o.cache.Get(o.source.Name(), track.ID)
	if err != nil {
		if !errors.Is(err, shared.ErrMatchNotFound) {
			o.logger.Warn("match cache lookup failed", "track", track.ID, "error", err)
		}
		return nil
	}
	if record.TargetID == "" {
		return nil
	}

	return record
}

// resolveLink asks the link resolver for a direct cross-catalog match.
// All failures are non-fatal; nil means fall through to search.
func (o *Orchestrator) resolveLink(ctx context.Context, track models.Track) *models.SearchResult {
	if o.resolver == nil {
		return nil
	}

	sourceURL := o.trackURL(track)
	if sourceURL == "" {
		return nil
	}

	targetID, err := WithRetry(ctx, o.retry, func(ctx context.Context) (string, error) {
		return ratelimit.Do(ctx, o.limiter, func(ctx context.Context) (string, error) {
			return o.resolver.Resolve(ctx, sourceURL)
		})
	})
	if err != nil {
		o.logger.Warn("link resolution failed", "track", track.ID, "error", err)
		return nil
	}

	return &models.SearchResult{
		ID:        targetID,
		Score:     1.0,
		Title:     track.Title,
		MatchedBy: models.MatchOdesli,
		Reasons:   []string{"Cross-catalog link"},
	}
}

// trackURL returns the track's catalog URL, constructing one from the
// track id when the source catalog did not provide it.
func (o *Orchestrator) trackURL(track models.Track) string {
	if track.URL != "" {
		return track.URL
	}

	switch o.source.Name() {
	case "spotify":
		return "https://open.spotify.com/track/" + track.ID
	case "youtube":
		return "https://music.youtube.com/watch?v=" + track.ID
	}
	return ""
}

func (o *Orchestrator) searchTarget(ctx context.Context, track models.Track) ([]models.SearchResult, error) {
	query := matching.BuildQuery(track)

	return WithRetry(ctx, o.retry, func(ctx context.Context) ([]models.SearchResult, error) {
		return o.target.Search(ctx, query, track, providers.SearchOptions{
			PreferredChannelIDs: o.preferred,
		})
	})
}

func (o *Orchestrator) persistMatch(track models.Track, result *models.SearchResult, via models.MatchMethod) error {
	return o.recordDecision(track, result, via, models.DecidedAuto)
}

// Confirm records a user decision for a track the policy would not
// auto-accept.
func (o *Orchestrator) Confirm(track models.Track, result *models.SearchResult) error {
	return o.recordDecision(track, result, models.MatchManual, models.DecidedUser)
}

func (o *Orchestrator) recordDecision(track models.Track, result *models.SearchResult, via models.MatchMethod, decidedBy models.Decision) error {
	if o.cache == nil {
		return nil
	}

	record := &models.MatchRecord{
		SourceProvider: o.source.Name(),
		SourceTrackID:  track.ID,
		TargetProvider: o.target.Name(),
		TargetID:       result.ID,
		Score:          result.Score,
		DecidedBy:      decidedBy,
		Via:            via,
		Metadata: map[string]string{
			"source_title": track.Title,
			"target_title": result.Title,
		},
	}

	if err := o.cache.Put(record); err != nil {
		return fmt.Errorf("failed to persist match decision: %w", err)
	}
	return nil
}

// ExecuteOptions tunes the insert phase.
type ExecuteOptions struct {
	// ChunkSize caps tracks per insert batch. Zero means 20.
	ChunkSize int

	// Quota describes the target API budget before this run.
	Quota quota.State

	// TargetPlaylistID appends to an existing playlist instead of
	// creating one.
	TargetPlaylistID string

	// ChunksPerSecond paces insert batches. Zero disables pacing.
	ChunksPerSecond float64
}

// DefaultChunkSize is the insert batch size when none is configured.
const DefaultChunkSize = 20

// ExecuteResult aggregates the insert phase.
type ExecuteResult struct {
	Run      *models.RunRecord
	Playlist *models.Playlist
	Estimate quota.Estimate

	// Truncated counts accepted tracks withheld because the quota
	// budget could not cover their inserts.
	Truncated int

	// Stage is the terminal pipeline stage, complete or canceled.
	Stage Stage
}

// Execute creates (or reuses) the target playlist and inserts every
// accepted mapping in source order, in chunks. Chunk failures are
// recorded per track and do not stop later chunks. Cancellation
// between chunks preserves what was already inserted.
func (o *Orchestrator) Execute(ctx context.Context, plan *models.TransferPlan, mapping *MappingResult, opts ExecuteOptions, progress chan<- Update) (*ExecuteResult, error) {
	if o.target == nil {
		return nil, fmt.Errorf("%w: target provider not initialized", shared.ErrServiceUnavailable)
	}
	if o.runs == nil {
		return nil, fmt.Errorf("%w: run log not initialized", shared.ErrServiceUnavailable)
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	accepted := make([]TrackMapping, 0, len(mapping.Mappings))
	for _, m := range mapping.Mappings {
		if m.Accepted && m.Result != nil {
			accepted = append(accepted, m)
		}
	}

	estimate := quota.EstimateInsertCapacity(opts.Quota, quota.Options{
		IncludePlaylistCreation: opts.TargetPlaylistID == "",
	})

	result := &ExecuteResult{Estimate: estimate}

	toInsert := accepted
	if len(toInsert) > estimate.MaxInserts {
		result.Truncated = len(toInsert) - estimate.MaxInserts
		toInsert = toInsert[:estimate.MaxInserts]
	}

	run, err := o.runs.Start(plan.SourcePlaylist.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}
	result.Run = run
	run.Skipped = mapping.Unmatched + mapping.Pending + result.Truncated

	playlist, err := o.ensurePlaylist(ctx, plan, opts, progress)
	if err != nil {
		result.Stage = StageError
		o.finalize(run)
		return result, err
	}
	result.Playlist = playlist
	run.TargetPlaylistID = playlist.ID

	var pacer *rate.Limiter
	if opts.ChunksPerSecond > 0 {
		pacer = rate.NewLimiter(rate.Limit(opts.ChunksPerSecond), 1)
	}

	totalChunks := (len(toInsert) + chunkSize - 1) / chunkSize
	canceled := false

	for chunk := 0; chunk < totalChunks; chunk++ {
		if ctx.Err() != nil {
			canceled = true
			break
		}

		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				canceled = true
				break
			}
		}

		start := chunk * chunkSize
		end := min(start+chunkSize, len(toInsert))
		batch := toInsert[start:end]

		ids := make([]string, len(batch))
		for i, m := range batch {
			ids[i] = m.Result.ID
		}

		// No retry here: the insert is not idempotent, and a retry after
		// a mid-chunk failure would duplicate the items that landed.
		if err := o.target.AddTracks(ctx, playlist.ID, ids); err != nil {
			// Failed tracks never made it into the playlist, so they
			// count toward the skipped total as well.
			run.Failed += len(batch)
			run.Skipped += len(batch)
			for _, m := range batch {
				run.Errors = append(run.Errors, models.RunError{
					TrackID: m.Track.ID,
					Message: err.Error(),
				})
			}
			o.logger.Warn("chunk insert failed", "chunk", chunk+1, "tracks", len(batch), "error", err)
			o.sendProgress(progress, chunkFailedUpdate(chunk+1, totalChunks, err))
			continue
		}

		run.Added += len(batch)
		o.sendProgress(progress, insertingUpdate(chunk+1, totalChunks, run.Added, len(toInsert)))
	}

	if canceled {
		// Chunks never attempted count as skipped, not failed.
		run.Skipped += len(toInsert) - run.Added - run.Failed
		result.Stage = StageCanceled
		o.finalize(run)
		o.sendProgress(progress, canceledUpdate(run))
		return result, ctx.Err()
	}

	result.Stage = StageComplete
	o.finalize(run)
	o.sendProgress(progress, completeUpdate(run))
	return result, nil
}

// ensurePlaylist reuses the configured target playlist or creates one.
func (o *Orchestrator) ensurePlaylist(ctx context.Context, plan *models.TransferPlan, opts ExecuteOptions, progress chan<- Update) (*models.Playlist, error) {
	if opts.TargetPlaylistID != "" {
		playlist, err := o.target.GetPlaylist(ctx, opts.TargetPlaylistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch target playlist: %w", err)
		}
		return playlist, nil
	}

	o.sendProgress(progress, creatingPlaylistUpdate(plan.TargetPlaylistName))

	description := fmt.Sprintf("Transferred from %s: %s", o.source.Name(), plan.SourcePlaylist.Name)
	playlist, err := o.target.CreatePlaylist(ctx, plan.TargetPlaylistName, description)
	if err != nil {
		return nil, fmt.Errorf("failed to create target playlist: %w", err)
	}

	o.sendProgress(progress, playlistCreatedUpdate(playlist))
	return playlist, nil
}

// finalize writes the run outcome; failures are logged, not returned,
// so a broken run log never masks the transfer result.
func (o *Orchestrator) finalize(run *models.RunRecord) {
	now := time.Now().UTC()
	run.FinishedAt = &now

	if err := o.runs.Finalize(run); err != nil {
		o.logger.Warn("failed to finalize run", "run", run.ID, "error", err)
	}
}

// Run drives the whole pipeline: prepare, map, execute. Mappings that
// need review are skipped rather than blocking an unattended run.
func (o *Orchestrator) Run(ctx context.Context, sourcePlaylistID, targetName string, opts ExecuteOptions, progress chan<- Update) (*ExecuteResult, error) {
	plan, err := o.Prepare(ctx, sourcePlaylistID, targetName, progress)
	if err != nil {
		return nil, err
	}

	mapping, err := o.MapTracks(ctx, plan, progress)
	if err != nil {
		return nil, err
	}

	return o.Execute(ctx, plan, mapping, opts, progress)
}

// ComputeMatchStats tallies cached decisions by who made them.
func ComputeMatchStats(records []models.MatchRecord) models.MatchStats {
	stats := models.MatchStats{Total: len(records)}
	for _, record := range records {
		switch record.DecidedBy {
		case models.DecidedAuto:
			stats.Auto++
		case models.DecidedUser:
			stats.Manual++
		}
	}
	return stats
}

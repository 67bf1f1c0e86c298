package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tracklinker/internal/matching"
	"github.com/desertthunder/tracklinker/internal/providers"
	"github.com/desertthunder/tracklinker/internal/ratelimit"
	"github.com/desertthunder/tracklinker/internal/repositories"
	"github.com/desertthunder/tracklinker/internal/shared"
	"github.com/desertthunder/tracklinker/internal/transfer"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// Odesli allows roughly 10 requests per minute without an API key.
const (
	odesliAnonPerMinute  = 10
	odesliKeyedPerMinute = 60
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	spotify    *providers.SpotifyProvider
	youtube    *providers.YouTubeProvider
	odesli     *providers.OdesliClient
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Spotify    *providers.SpotifyProvider
	YouTube    *providers.YouTubeProvider
	Odesli     *providers.OdesliClient
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		spotify:    opts.Spotify,
		youtube:    opts.YouTube,
		odesli:     opts.Odesli,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, transferCommand, matchesCommand, runsCommand, quotaCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase opens the configured SQLite database and applies pool settings.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	return db, nil
}

// resolveProvider resolves a service name to its provider instance.
func (r *Runner) resolveProvider(name string) (providers.Provider, error) {
	switch name {
	case "spotify":
		if r.spotify == nil {
			return nil, fmt.Errorf("%w: Spotify provider not initialized", shared.ErrServiceUnavailable)
		}
		return r.spotify, nil
	case "youtube", "ytmusic":
		if r.youtube == nil {
			return nil, fmt.Errorf("%w: YouTube provider not initialized", shared.ErrServiceUnavailable)
		}
		return r.youtube, nil
	default:
		return nil, fmt.Errorf("%w: invalid service '%s' (must be 'spotify' or 'youtube')", shared.ErrInvalidArgument, name)
	}
}

// matchingPolicy returns the acceptance thresholds, config values
// overriding the defaults where set.
func (r *Runner) matchingPolicy() matching.Policy {
	policy := matching.DefaultPolicy()
	m := r.config.Matching

	if m.AcceptScore > 0 {
		policy.AcceptScore = m.AcceptScore
	}
	if m.OfficialAcceptScore > 0 {
		policy.OfficialAcceptScore = m.OfficialAcceptScore
	}
	if m.DurationAcceptScore > 0 {
		policy.DurationAcceptScore = m.DurationAcceptScore
	}
	if m.ISRCHintAcceptScore > 0 {
		policy.ISRCHintAcceptScore = m.ISRCHintAcceptScore
	}
	if m.DurationAcceptDelta > 0 {
		policy.DurationAcceptDeltaMS = m.DurationAcceptDelta
	}

	return policy
}

func (r *Runner) retryPolicy() transfer.RetryPolicy {
	policy := transfer.DefaultRetryPolicy()
	if r.config.Transfer.RetryAttempts > 0 {
		policy.Attempts = r.config.Transfer.RetryAttempts
	}
	if r.config.Transfer.RetryBaseMS > 0 {
		policy.BaseDelay = time.Duration(r.config.Transfer.RetryBaseMS) * time.Millisecond
	}
	return policy
}

// orchestrator wires the transfer pipeline over an open database.
func (r *Runner) orchestrator(db *sql.DB) (*transfer.Orchestrator, error) {
	if r.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify provider not initialized", shared.ErrServiceUnavailable)
	}
	if r.youtube == nil {
		return nil, fmt.Errorf("%w: YouTube provider not initialized", shared.ErrServiceUnavailable)
	}

	perMinute := odesliAnonPerMinute
	if r.config.Credentials.Odesli.APIKey != "" {
		perMinute = odesliKeyedPerMinute
	}

	cache := repositories.NewCachedMatches(
		repositories.NewMatchRepository(db),
		repositories.DefaultCacheSize,
		repositories.DefaultCacheTTL,
	)

	return transfer.NewOrchestrator(transfer.Deps{
		Source:              r.spotify,
		Target:              r.youtube,
		Cache:               cache,
		Runs:                repositories.NewRunRepository(db),
		Resolver:            r.odesli,
		Limiter:             ratelimit.New(perMinute, time.Minute),
		Logger:              r.logger,
		Retry:               r.retryPolicy(),
		Policy:              r.matchingPolicy(),
		PreferredChannelIDs: r.config.Matching.PreferredChannelIDs,
	}), nil
}

// saveTokens writes refreshed OAuth tokens for a provider back to the
// config file, or only to memory when no file path is known.
func (r *Runner) saveTokens(provider string, token *oauth2.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token cannot be nil", shared.ErrInvalidArgument)
	}

	switch provider {
	case "spotify":
		r.config.Credentials.Spotify.AccessToken = token.AccessToken
		r.config.Credentials.Spotify.RefreshToken = token.RefreshToken
	case "youtube":
		r.config.Credentials.YouTube.AccessToken = token.AccessToken
		r.config.Credentials.YouTube.RefreshToken = token.RefreshToken
	default:
		return fmt.Errorf("%w: unknown provider '%s'", shared.ErrInvalidArgument, provider)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// package providers defines the catalog Provider interface and its
// adapters.
//
// Spotify (source catalog), YouTube Data API v3 (target catalog) and
// the Odesli link-resolution client.
package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/shared"
)

// Provider is the capability surface a music catalog exposes to the
// transfer pipeline. Implementations wrap one remote API and translate
// its payloads into the neutral model types.
type Provider interface {
	// Name returns the provider's catalog name (e.g. "spotify").
	Name() string

	// Auth establishes credentials for subsequent calls. When
	// interactive is true and no stored token exists, the returned
	// context carries an authorization URL for the user to visit;
	// otherwise a missing token is an error.
	Auth(ctx context.Context, interactive bool) (*AuthContext, error)

	// ListPlaylists retrieves every playlist the authenticated user
	// owns or follows, exhausting pagination.
	ListPlaylists(ctx context.Context) ([]models.Playlist, error)

	// GetPlaylist retrieves a single playlist's metadata by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error)

	// ListTracks retrieves every track of a playlist in playlist order,
	// exhausting pagination.
	ListTracks(ctx context.Context, playlistID string) ([]models.Track, error)

	// Search runs a catalog search for query and returns candidates
	// scored against track, best first.
	Search(ctx context.Context, query string, track models.Track, opts SearchOptions) ([]models.SearchResult, error)

	// CreatePlaylist creates an empty private playlist.
	CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error)

	// AddTracks appends catalog items to a playlist in order.
	AddTracks(ctx context.Context, playlistID string, itemIDs []string) error
}

// AuthContext reports the outcome of an Auth call.
type AuthContext struct {
	Provider      string
	Authenticated bool
	// AuthURL is set when the user must complete an interactive
	// authorization flow in a browser.
	AuthURL string
	Expiry  time.Time
}

// SearchOptions carries per-search tuning for Provider.Search.
type SearchOptions struct {
	// Limit caps the number of candidates requested. Zero means the
	// provider default.
	Limit int

	// PreferredChannelIDs boost candidates uploaded by these channels.
	PreferredChannelIDs []string
}

// classifyStatus maps a non-2xx API status to the matching sentinel.
func classifyStatus(provider string, status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s API status %d", shared.ErrAuthFailed, provider, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s API status %d", shared.ErrRateLimited, provider, status)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s API status %d", shared.ErrPlaylistNotFound, provider, status)
	case status >= 500:
		return fmt.Errorf("%w: %s API status %d", shared.ErrServiceUnavailable, provider, status)
	default:
		return fmt.Errorf("%s API error: status %d", provider, status)
	}
}

// LinkResolver resolves a track's public URL on one catalog to the
// matching item ID on another. Implementations return an empty ID and
// an error when no cross-catalog link exists.
type LinkResolver interface {
	Resolve(ctx context.Context, sourceURL string) (string, error)
}

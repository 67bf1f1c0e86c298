// Spotify Web API implementation of [Provider]
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/desertthunder/tracklinker/internal/matching"
	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	spotifyPageLimit = 50
)

type spotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

type spotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ReleaseDate string `json:"release_date"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SpotifyArtist     `json:"artists"`
	Album        SpotifyAlbum        `json:"album"`
	DurationMS   int                 `json:"duration_ms"`
	Explicit     bool                `json:"explicit"`
	ExternalIDs  spotifyExternalIDs  `json:"external_ids"`
	ExternalURLs spotifyExternalURLs `json:"external_urls"`
	URI          string              `json:"uri"`
}

type spotifyOwner struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type spotifyTrackRef struct {
	Total int `json:"total"`
}

// SpotifyPlaylist represents a Spotify playlist.
type SpotifyPlaylist struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Owner       spotifyOwner    `json:"owner"`
	Public      bool            `json:"public"`
	SnapshotID  string          `json:"snapshot_id"`
	Tracks      spotifyTrackRef `json:"tracks"`
}

type spotifyPlaylistItem struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type spotifyPage[T any] struct {
	Items  []T     `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
	Next   *string `json:"next"`
}

// SpotifyProvider implements [Provider] for the Spotify Web API.
// Uses [oauth2] for authentication.
type SpotifyProvider struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
}

// NewSpotifyProvider creates a Spotify provider from stored credentials.
func NewSpotifyProvider(creds shared.SpotifyConfig) (*SpotifyProvider, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client_id and client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	p := &SpotifyProvider{
		config:     config,
		httpClient: http.DefaultClient,
	}

	if creds.AccessToken != "" {
		p.token = &oauth2.Token{AccessToken: creds.AccessToken}
	}

	return p, nil
}

func (p *SpotifyProvider) Name() string {
	return "spotify"
}

// Auth validates the stored token or, interactively, hands back the
// authorization URL for the user to complete the code flow.
func (p *SpotifyProvider) Auth(ctx context.Context, interactive bool) (*AuthContext, error) {
	if p.token != nil {
		p.httpClient = p.config.Client(ctx, p.token)
		return &AuthContext{
			Provider:      p.Name(),
			Authenticated: true,
			Expiry:        p.token.Expiry,
		}, nil
	}

	if interactive {
		return &AuthContext{
			Provider: p.Name(),
			AuthURL:  p.config.AuthCodeURL(shared.GenerateID(), oauth2.AccessTypeOffline),
		}, nil
	}

	return nil, fmt.Errorf("%w: spotify access token missing", shared.ErrNotAuthenticated)
}

// AuthURL returns the authorization URL for the code flow using the
// caller's state token.
func (p *SpotifyProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange completes the authorization code flow started by Auth.
func (p *SpotifyProvider) Exchange(ctx context.Context, code string) error {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	p.token = token
	p.httpClient = p.config.Client(ctx, token)
	return nil
}

// Token returns the current OAuth token, nil before authentication.
func (p *SpotifyProvider) Token() *oauth2.Token {
	return p.token
}

// doRequest performs an authenticated request against the Spotify API.
func (p *SpotifyProvider) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if p.token == nil {
		return fmt.Errorf("%w: call Auth first", shared.ErrNotAuthenticated)
	}

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, spotifyBaseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+p.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus("spotify", resp.StatusCode); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// ListPlaylists retrieves all of the user's playlists.
func (p *SpotifyProvider) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	offset := 0

	for {
		endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", spotifyPageLimit, offset)

		var page spotifyPage[SpotifyPlaylist]
		if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, sp := range page.Items {
			all = append(all, playlistFromSpotify(sp))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += spotifyPageLimit
	}

	return all, nil
}

// GetPlaylist retrieves a playlist by ID.
func (p *SpotifyProvider) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists/%s", playlistID)

	var sp SpotifyPlaylist
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &sp); err != nil {
		return nil, err
	}

	playlist := playlistFromSpotify(sp)
	return &playlist, nil
}

// ListTracks retrieves every track of a playlist in order.
func (p *SpotifyProvider) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var all []models.Track
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, spotifyPageLimit, offset)

		var page spotifyPage[spotifyPlaylistItem]
		if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			// Local files and removed tracks come back without an ID.
			if item.Track.ID == "" {
				continue
			}
			all = append(all, trackFromSpotify(item.Track))
		}

		if page.Next == nil || len(page.Items) == 0 {
			break
		}
		offset += spotifyPageLimit
	}

	return all, nil
}

// Search runs a track search and scores the results against track.
func (p *SpotifyProvider) Search(ctx context.Context, query string, track models.Track, opts SearchOptions) ([]models.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("/search?q=%s&type=track&limit=%d", url.QueryEscape(query), limit)

	var response struct {
		Tracks spotifyPage[SpotifyTrack] `json:"tracks"`
	}
	if err := p.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(response.Tracks.Items))
	for _, st := range response.Tracks.Items {
		c := matching.Candidate{
			ID:         st.ID,
			Title:      st.Name,
			DurationMS: st.DurationMS,
			ISRC:       st.ExternalIDs.ISRC,
			URL:        st.ExternalURLs.Spotify,
		}
		if len(st.Artists) > 0 {
			c.ChannelID = st.Artists[0].ID
			c.ChannelTitle = st.Artists[0].Name
		}
		results = append(results, matching.Evaluate(c, track, matching.Options{
			PreferredChannelIDs: opts.PreferredChannelIDs,
		}))
	}

	matching.SortCandidates(results)
	return results, nil
}

// CreatePlaylist creates a private playlist for the current user.
func (p *SpotifyProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	var me struct {
		ID string `json:"id"`
	}
	if err := p.doRequest(ctx, http.MethodGet, "/me", nil, &me); err != nil {
		return nil, err
	}

	body := struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}{Name: name, Description: description}

	var sp SpotifyPlaylist
	endpoint := fmt.Sprintf("/users/%s/playlists", me.ID)
	if err := p.doRequest(ctx, http.MethodPost, endpoint, body, &sp); err != nil {
		return nil, fmt.Errorf("%w: create playlist: %v", shared.ErrProviderWrite, err)
	}

	playlist := playlistFromSpotify(sp)
	return &playlist, nil
}

// AddTracks appends tracks to a playlist by ID, in order.
func (p *SpotifyProvider) AddTracks(ctx context.Context, playlistID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	uris := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		uris[i] = "spotify:track:" + id
	}

	body := struct {
		URIs []string `json:"uris"`
	}{URIs: uris}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", playlistID)
	if err := p.doRequest(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("%w: add tracks: %v", shared.ErrProviderWrite, err)
	}

	return nil
}

func playlistFromSpotify(sp SpotifyPlaylist) models.Playlist {
	return models.Playlist{
		ID:          sp.ID,
		Name:        sp.Name,
		Description: sp.Description,
		TrackCount:  sp.Tracks.Total,
		OwnerName:   sp.Owner.DisplayName,
		SnapshotID:  sp.SnapshotID,
	}
}

func trackFromSpotify(st SpotifyTrack) models.Track {
	track := models.Track{
		ID:         st.ID,
		ISRC:       st.ExternalIDs.ISRC,
		Title:      st.Name,
		Album:      st.Album.Name,
		DurationMS: st.DurationMS,
		Explicit:   st.Explicit,
		URL:        st.ExternalURLs.Spotify,
	}

	for _, artist := range st.Artists {
		track.Artists = append(track.Artists, artist.Name)
	}

	if len(st.Album.ReleaseDate) >= 4 {
		if year, err := strconv.Atoi(st.Album.ReleaseDate[:4]); err == nil {
			track.Year = year
		}
	}

	return track
}

// YouTube Data API v3 implementation of [Provider]
//
// Response types based on https://developers.google.com/youtube/v3/docs
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/desertthunder/tracklinker/internal/matching"
	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/quota"
	"github.com/desertthunder/tracklinker/internal/shared"
	"golang.org/x/oauth2"
)

const (
	youtubeAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	youtubeTokenURL = "https://oauth2.googleapis.com/token"
	youtubeBaseURL  = "https://www.googleapis.com/youtube/v3"

	youtubePageLimit   = 50
	youtubeMusicCat    = "10"
	defaultSearchLimit = 5
)

// Music video durations never need more than hours.
var isoDurationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

type youtubeResourceID struct {
	Kind    string `json:"kind"`
	VideoID string `json:"videoId"`
}

type youtubeSnippet struct {
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	ChannelID    string            `json:"channelId"`
	ChannelTitle string            `json:"channelTitle"`
	PlaylistID   string            `json:"playlistId"`
	Position     *int              `json:"position"`
	ResourceID   youtubeResourceID `json:"resourceId"`
}

type youtubeContentDetails struct {
	Duration  string `json:"duration"`
	ItemCount int    `json:"itemCount"`
}

type youtubeItem struct {
	ID             json.RawMessage       `json:"id"`
	Snippet        youtubeSnippet        `json:"snippet"`
	ContentDetails youtubeContentDetails `json:"contentDetails"`
	Status         struct {
		PrivacyStatus string `json:"privacyStatus"`
	} `json:"status"`
}

type youtubePage struct {
	Items         []youtubeItem `json:"items"`
	NextPageToken string        `json:"nextPageToken"`
	PageInfo      struct {
		TotalResults int `json:"totalResults"`
	} `json:"pageInfo"`
}

// YouTubeProvider implements [Provider] for the YouTube Data API v3.
// Every call records its quota cost so the caller can budget inserts
// mid-run.
type YouTubeProvider struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client

	mu        sync.Mutex
	usedUnits int
}

// NewYouTubeProvider creates a YouTube provider from stored credentials.
func NewYouTubeProvider(creds shared.YouTubeConfig) (*YouTubeProvider, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("%w: youtube client_id and client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       []string{"https://www.googleapis.com/auth/youtube"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  youtubeAuthURL,
			TokenURL: youtubeTokenURL,
		},
	}

	p := &YouTubeProvider{
		config:     config,
		httpClient: http.DefaultClient,
	}

	if creds.AccessToken != "" {
		p.token = &oauth2.Token{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
		}
	}

	return p, nil
}

func (p *YouTubeProvider) Name() string {
	return "youtube"
}

// UsedUnits reports the quota units consumed through this provider
// since construction.
func (p *YouTubeProvider) UsedUnits() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.usedUnits
}

func (p *YouTubeProvider) spend(units int) {
	p.mu.Lock()
	p.usedUnits += units
	p.mu.Unlock()
}

// Auth validates the stored token or, interactively, hands back the
// authorization URL for the user to complete the code flow.
func (p *YouTubeProvider) Auth(ctx context.Context, interactive bool) (*AuthContext, error) {
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

	return nil, fmt.Errorf("%w: youtube access token missing", shared.ErrNotAuthenticated)
}

// AuthURL returns the authorization URL for the code flow using the
// caller's state token.
func (p *YouTubeProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange completes the authorization code flow started by Auth.
func (p *YouTubeProvider) Exchange(ctx context.Context, code string) error {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("%w: exchange auth code: %v", shared.ErrAuthFailed, err)
	}
	p.token = token
	p.httpClient = p.config.Client(ctx, token)
	return nil
}

// Token returns the current OAuth token, nil before authentication.
func (p *YouTubeProvider) Token() *oauth2.Token {
	return p.token
}

func (p *YouTubeProvider) doRequest(ctx context.Context, method, endpoint string, cost int, body, result any) error {
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

	req, err := http.NewRequestWithContext(ctx, method, youtubeBaseURL+endpoint, reader)
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

	// The API bills the call whether or not it succeeds.
	p.spend(cost)

	if err := classifyStatus("youtube", resp.StatusCode); err != nil {
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
func (p *YouTubeProvider) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	var all []models.Playlist
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/playlists?part=snippet,contentDetails&mine=true&maxResults=%d", youtubePageLimit)
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page youtubePage
		if err := p.doRequest(ctx, http.MethodGet, endpoint, quota.CostVideosList, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			all = append(all, models.Playlist{
				ID:          itemID(item),
				Name:        item.Snippet.Title,
				Description: item.Snippet.Description,
				TrackCount:  item.ContentDetails.ItemCount,
				OwnerName:   item.Snippet.ChannelTitle,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return all, nil
}

// GetPlaylist retrieves a playlist by ID.
func (p *YouTubeProvider) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	endpoint := fmt.Sprintf("/playlists?part=snippet,contentDetails&id=%s", url.QueryEscape(playlistID))

	var page youtubePage
	if err := p.doRequest(ctx, http.MethodGet, endpoint, quota.CostVideosList, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, fmt.Errorf("%w: youtube playlist %s", shared.ErrPlaylistNotFound, playlistID)
	}

	item := page.Items[0]
	return &models.Playlist{
		ID:          itemID(item),
		Name:        item.Snippet.Title,
		Description: item.Snippet.Description,
		TrackCount:  item.ContentDetails.ItemCount,
		OwnerName:   item.Snippet.ChannelTitle,
	}, nil
}

// ListTracks retrieves every item of a playlist in order.
func (p *YouTubeProvider) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	var all []models.Track
	pageToken := ""

	for {
		endpoint := fmt.Sprintf("/playlistItems?part=snippet&playlistId=%s&maxResults=%d",
			url.QueryEscape(playlistID), youtubePageLimit)
		if pageToken != "" {
			endpoint += "&pageToken=" + url.QueryEscape(pageToken)
		}

		var page youtubePage
		if err := p.doRequest(ctx, http.MethodGet, endpoint, quota.CostVideosList, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			videoID := item.Snippet.ResourceID.VideoID
			if videoID == "" {
				continue
			}
			all = append(all, models.Track{
				ID:      videoID,
				Title:   item.Snippet.Title,
				Artists: []string{item.Snippet.ChannelTitle},
				URL:     "https://www.youtube.com/watch?v=" + videoID,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return all, nil
}

// Search runs a music-category video search, fetches durations for the
// candidates, and scores them against track, best first.
func (p *YouTubeProvider) Search(ctx context.Context, query string, track models.Track, opts SearchOptions) ([]models.SearchResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	endpoint := fmt.Sprintf("/search?part=snippet&type=video&videoCategoryId=%s&maxResults=%d&q=%s",
		youtubeMusicCat, limit, url.QueryEscape(query))

	var page youtubePage
	if err := p.doRequest(ctx, http.MethodGet, endpoint, quota.CostSearchList, nil, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(page.Items))
	for _, item := range page.Items {
		if id := itemID(item); id != "" {
			ids = append(ids, id)
		}
	}

	durations, err := p.videoDurations(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]models.SearchResult, 0, len(page.Items))
	for _, item := range page.Items {
		id := itemID(item)
		if id == "" {
			continue
		}
		c := matching.Candidate{
			ID:           id,
			Title:        item.Snippet.Title,
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
			DurationMS:   durations[id],
			URL:          "https://www.youtube.com/watch?v=" + id,
		}
		results = append(results, matching.Evaluate(c, track, matching.Options{
			PreferredChannelIDs: opts.PreferredChannelIDs,
		}))
	}

	matching.SortCandidates(results)
	return results, nil
}

// videoDurations fetches contentDetails for up to one page of videos
// and returns millisecond durations keyed by video ID.
func (p *YouTubeProvider) videoDurations(ctx context.Context, videoIDs []string) (map[string]int, error) {
	durations := make(map[string]int, len(videoIDs))
	if len(videoIDs) == 0 {
		return durations, nil
	}

	endpoint := fmt.Sprintf("/videos?part=contentDetails&id=%s", url.QueryEscape(strings.Join(videoIDs, ",")))

	var page youtubePage
	if err := p.doRequest(ctx, http.MethodGet, endpoint, quota.CostVideosList, nil, &page); err != nil {
		return nil, err
	}

	for _, item := range page.Items {
		id := itemID(item)
		if ms, err := parseISODuration(item.ContentDetails.Duration); err == nil {
			durations[id] = ms
		}
	}

	return durations, nil
}

// CreatePlaylist creates a private playlist for the current user.
func (p *YouTubeProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	body := map[string]any{
		"snippet": map[string]string{
			"title":       name,
			"description": description,
		},
		"status": map[string]string{
			"privacyStatus": "private",
		},
	}

	var item youtubeItem
	if err := p.doRequest(ctx, http.MethodPost, "/playlists?part=snippet,status", quota.CostPlaylistInsert, body, &item); err != nil {
		return nil, fmt.Errorf("%w: create playlist: %v", shared.ErrProviderWrite, err)
	}

	return &models.Playlist{
		ID:          itemID(item),
		Name:        item.Snippet.Title,
		Description: item.Snippet.Description,
	}, nil
}

// AddTracks appends videos to a playlist in order. The API takes one
// video per insert call.
func (p *YouTubeProvider) AddTracks(ctx context.Context, playlistID string, itemIDs []string) error {
	for _, videoID := range itemIDs {
		body := map[string]any{
			"snippet": map[string]any{
				"playlistId": playlistID,
				"resourceId": map[string]string{
					"kind":    "youtube#video",
					"videoId": videoID,
				},
			},
		}

		if err := p.doRequest(ctx, http.MethodPost, "/playlistItems?part=snippet", quota.CostPlaylistItemInsert, body, nil); err != nil {
			return fmt.Errorf("%w: insert video %s: %v", shared.ErrProviderWrite, videoID, err)
		}
	}

	return nil
}

// itemID unwraps the polymorphic id field: a bare string for most
// resources, an object with a videoId for search results.
func itemID(item youtubeItem) string {
	if len(item.ID) == 0 {
		return ""
	}

	var plain string
	if err := json.Unmarshal(item.ID, &plain); err == nil {
		return plain
	}

	var composite youtubeResourceID
	if err := json.Unmarshal(item.ID, &composite); err == nil {
		return composite.VideoID
	}

	return ""
}

// parseISODuration converts an ISO-8601 duration like "PT4M33S" to
// milliseconds.
func parseISODuration(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
	}

	total := 0
	for i, mult := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		v, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid ISO-8601 duration %q", s)
		}
		total += v * mult
	}

	return total * 1000, nil
}

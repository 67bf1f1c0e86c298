// Odesli (song.link) cross-catalog link resolution client
//
// https://odesli.co exposes a lookup from a track URL on one platform
// to the matching entries on every other platform it knows about.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/desertthunder/tracklinker/internal/shared"
)

const odesliBaseURL = "https://api.song.link/v1-alpha.1/links"

// videoIDRe extracts the 11-character video ID from any of the URL
// shapes YouTube links come in.
var videoIDRe = regexp.MustCompile(`(?:v=|\/videos\/|embed\/|youtu\.be\/|\/shorts\/)([A-Za-z0-9_-]{11})`)

type odesliResponse struct {
	EntityUniqueID  string `json:"entityUniqueId"`
	LinksByPlatform map[string]struct {
		URL string `json:"url"`
	} `json:"linksByPlatform"`
}

// OdesliClient implements [LinkResolver] against the song.link API.
// An API key raises the anonymous rate limit but is not required.
type OdesliClient struct {
	apiKey     string
	httpClient *http.Client
}

// NewOdesliClient creates a resolver with an optional API key.
func NewOdesliClient(creds shared.OdesliConfig) *OdesliClient {
	return &OdesliClient{
		apiKey:     creds.APIKey,
		httpClient: http.DefaultClient,
	}
}

// Resolve looks up sourceURL and returns the YouTube video ID the
// catalog links it to.
func (c *OdesliClient) Resolve(ctx context.Context, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("%w: empty source url", shared.ErrInvalidArgument)
	}

	endpoint := odesliBaseURL + "?url=" + url.QueryEscape(sourceURL)
	if c.apiKey != "" {
		endpoint += "&key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := classifyStatus("odesli", resp.StatusCode); err != nil {
		return "", err
	}

	var payload odesliResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	for _, platform := range []string{"youtubeMusic", "youtube"} {
		link, ok := payload.LinksByPlatform[platform]
		if !ok {
			continue
		}
		if id := ExtractVideoID(link.URL); id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("%w: no youtube link for %s", shared.ErrMatchNotFound, sourceURL)
}

// ExtractVideoID pulls the video ID out of a YouTube URL, returning ""
// when the URL is not a recognizable video link.
func ExtractVideoID(rawURL string) string {
	m := videoIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

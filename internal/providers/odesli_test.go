package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/tracklinker/internal/shared"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed url", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"shorts url", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"music watch url", "https://music.youtube.com/watch?v=dQw4w9WgXcQ&feature=share", "dQw4w9WgXcQ"},
		{"channel url", "https://www.youtube.com/channel/UCabc", ""},
		{"not a url", "garbage", ""},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractVideoID(tt.url); got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestOdesliClient(t *testing.T) {
	newClient := func(handler http.Handler) *OdesliClient {
		c := NewOdesliClient(shared.OdesliConfig{APIKey: "test_key"})
		c.httpClient = handlerClient(handler)
		return c
	}

	t.Run("Resolve", func(t *testing.T) {
		t.Run("Prefers YouTube Music Link", func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("url"); got != "https://open.spotify.com/track/abc" {
					t.Errorf("unexpected url param %q", got)
				}
				if got := r.URL.Query().Get("key"); got != "test_key" {
					t.Errorf("expected api key forwarded, got %q", got)
				}
				json.NewEncoder(w).Encode(odesliResponse{
					LinksByPlatform: map[string]struct {
						URL string `json:"url"`
					}{
						"youtubeMusic": {URL: "https://music.youtube.com/watch?v=musicvideo1"},
						"youtube":      {URL: "https://www.youtube.com/watch?v=plainvideo1"},
					},
				})
			})

			id, err := newClient(handler).Resolve(context.Background(), "https://open.spotify.com/track/abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "musicvideo1" {
				t.Errorf("expected musicvideo1, got %s", id)
			}
		})

		t.Run("Falls Back To YouTube Link", func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(odesliResponse{
					LinksByPlatform: map[string]struct {
						URL string `json:"url"`
					}{
						"youtube": {URL: "https://youtu.be/plainvideo1"},
					},
				})
			})

			id, err := newClient(handler).Resolve(context.Background(), "https://open.spotify.com/track/abc")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if id != "plainvideo1" {
				t.Errorf("expected plainvideo1, got %s", id)
			}
		})

		t.Run("No Cross-Catalog Link", func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(odesliResponse{})
			})

			_, err := newClient(handler).Resolve(context.Background(), "https://open.spotify.com/track/abc")
			if !errors.Is(err, shared.ErrMatchNotFound) {
				t.Errorf("expected ErrMatchNotFound, got %v", err)
			}
		})

		t.Run("Rate Limited", func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			})

			_, err := newClient(handler).Resolve(context.Background(), "https://open.spotify.com/track/abc")
			if !errors.Is(err, shared.ErrRateLimited) {
				t.Errorf("expected ErrRateLimited, got %v", err)
			}
		})

		t.Run("Empty URL", func(t *testing.T) {
			_, err := NewOdesliClient(shared.OdesliConfig{}).Resolve(context.Background(), "")
			if !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got %v", err)
			}
		})
	})

	t.Run("LinkResolver Interface", func(t *testing.T) {
		var _ LinkResolver = NewOdesliClient(shared.OdesliConfig{})
	})
}

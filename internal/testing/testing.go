// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/providers"
	"github.com/desertthunder/tracklinker/internal/shared"
)

// MockProvider is a configurable test double for [providers.Provider].
// Zero-value funcs return empty results; calls are counted.
type MockProvider struct {
	ProviderName string

	AuthFunc           func(ctx context.Context, interactive bool) (*providers.AuthContext, error)
	ListPlaylistsFunc  func(ctx context.Context) ([]models.Playlist, error)
	GetPlaylistFunc    func(ctx context.Context, playlistID string) (*models.Playlist, error)
	ListTracksFunc     func(ctx context.Context, playlistID string) ([]models.Track, error)
	SearchFunc         func(ctx context.Context, query string, track models.Track, opts providers.SearchOptions) ([]models.SearchResult, error)
	CreatePlaylistFunc func(ctx context.Context, name, description string) (*models.Playlist, error)
	AddTracksFunc      func(ctx context.Context, playlistID string, itemIDs []string) error

	SearchCalls    int
	AddTracksCalls [][]string
}

func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

func (m *MockProvider) Auth(ctx context.Context, interactive bool) (*providers.AuthContext, error) {
	if m.AuthFunc != nil {
		return m.AuthFunc(ctx, interactive)
	}
	return &providers.AuthContext{Provider: m.Name(), Authenticated: true}, nil
}

func (m *MockProvider) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if m.ListPlaylistsFunc != nil {
		return m.ListPlaylistsFunc(ctx)
	}
	return nil, nil
}

func (m *MockProvider) GetPlaylist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if m.GetPlaylistFunc != nil {
		return m.GetPlaylistFunc(ctx, playlistID)
	}
	return &models.Playlist{ID: playlistID}, nil
}

func (m *MockProvider) ListTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	if m.ListTracksFunc != nil {
		return m.ListTracksFunc(ctx, playlistID)
	}
	return nil, nil
}

func (m *MockProvider) Search(ctx context.Context, query string, track models.Track, opts providers.SearchOptions) ([]models.SearchResult, error) {
	m.SearchCalls++
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, track, opts)
	}
	return nil, nil
}

func (m *MockProvider) CreatePlaylist(ctx context.Context, name, description string) (*models.Playlist, error) {
	if m.CreatePlaylistFunc != nil {
		return m.CreatePlaylistFunc(ctx, name, description)
	}
	return &models.Playlist{ID: "mock_playlist", Name: name, Description: description}, nil
}

func (m *MockProvider) AddTracks(ctx context.Context, playlistID string, itemIDs []string) error {
	m.AddTracksCalls = append(m.AddTracksCalls, append([]string(nil), itemIDs...))
	if m.AddTracksFunc != nil {
		return m.AddTracksFunc(ctx, playlistID, itemIDs)
	}
	return nil
}

// MockMatchCache is an in-memory test double for the match cache.
type MockMatchCache struct {
	Records map[string]*models.MatchRecord

	GetErr error
	PutErr error

	GetCalls int
	PutCalls int
}

func NewMockMatchCache() *MockMatchCache {
	return &MockMatchCache{Records: make(map[string]*models.MatchRecord)}
}

func (m *MockMatchCache) Get(sourceProvider, sourceTrackID string) (*models.MatchRecord, error) {
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	record, ok := m.Records[sourceProvider+":"+sourceTrackID]
	if !ok {
		return nil, shared.ErrMatchNotFound
	}
	return record, nil
}

func (m *MockMatchCache) Put(record *models.MatchRecord) error {
	m.PutCalls++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.Records[record.SourceProvider+":"+record.SourceTrackID] = record
	return nil
}

// MockRunLog is an in-memory test double for the run log.
type MockRunLog struct {
	Started   []*models.RunRecord
	Finalized []*models.RunRecord

	StartErr    error
	FinalizeErr error

	sequence int
}

func (m *MockRunLog) Start(sourcePlaylistID string) (*models.RunRecord, error) {
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.sequence++
	run := &models.RunRecord{
		ID:               shared.GenerateID(),
		Sequence:         m.sequence,
		SourcePlaylistID: sourcePlaylistID,
	}
	m.Started = append(m.Started, run)
	return run, nil
}

func (m *MockRunLog) Finalize(run *models.RunRecord) error {
	if m.FinalizeErr != nil {
		return m.FinalizeErr
	}
	m.Finalized = append(m.Finalized, run)
	return nil
}

// MockResolver is a test double for [providers.LinkResolver].
type MockResolver struct {
	ResolveFunc  func(ctx context.Context, sourceURL string) (string, error)
	ResolveCalls int
}

func (m *MockResolver) Resolve(ctx context.Context, sourceURL string) (string, error) {
	m.ResolveCalls++
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, sourceURL)
	}
	return "", shared.ErrMatchNotFound
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

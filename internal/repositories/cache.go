package repositories

import (
	"time"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// DefaultCacheSize bounds the in-memory match cache.
	DefaultCacheSize = 1024

	// DefaultCacheTTL keeps entries long enough for a whole transfer
	// session without letting stale decisions linger across days.
	DefaultCacheTTL = time.Hour
)

// CachedMatches is an expirable LRU read-through layer over
// [MatchRepository]. Reads hit memory first; every write goes to
// SQLite and refreshes the in-memory entry.
type CachedMatches struct {
	repo *MatchRepository
	lru  *expirable.LRU[string, models.MatchRecord]
}

// NewCachedMatches wraps repo with an in-memory layer of the given
// size and TTL. Non-positive arguments fall back to the defaults.
func NewCachedMatches(repo *MatchRepository, size int, ttl time.Duration) *CachedMatches {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedMatches{
		repo: repo,
		lru:  expirable.NewLRU[string, models.MatchRecord](size, nil, ttl),
	}
}

// Get retrieves the decided match for a source track, consulting the
// in-memory layer before SQLite.
func (c *CachedMatches) Get(sourceProvider, sourceTrackID string) (*models.MatchRecord, error) {
	key := matchKey(sourceProvider, sourceTrackID)

	if record, ok := c.lru.Get(key); ok {
		return &record, nil
	}

	record, err := c.repo.Get(sourceProvider, sourceTrackID)
	if err != nil {
		return nil, err
	}

	c.lru.Add(key, *record)
	return record, nil
}

// Put records a decision in SQLite and refreshes the in-memory entry.
func (c *CachedMatches) Put(record *models.MatchRecord) error {
	if err := c.repo.Put(record); err != nil {
		return err
	}

	c.lru.Add(matchKey(record.SourceProvider, record.SourceTrackID), *record)
	return nil
}

// Delete removes a decision from both layers.
func (c *CachedMatches) Delete(sourceProvider, sourceTrackID string) error {
	c.lru.Remove(matchKey(sourceProvider, sourceTrackID))
	return c.repo.Delete(sourceProvider, sourceTrackID)
}

// Stats aggregates decision counts from SQLite.
func (c *CachedMatches) Stats(sourceProvider string) (*models.MatchStats, error) {
	return c.repo.Stats(sourceProvider)
}

func matchKey(sourceProvider, sourceTrackID string) string {
	return sourceProvider + ":" + sourceTrackID
}

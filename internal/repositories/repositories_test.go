package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/tracklinker/internal/models"
	"github.com/desertthunder/tracklinker/internal/shared"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func sampleMatch() *models.MatchRecord {
	return &models.MatchRecord{
		SourceProvider: "spotify",
		SourceTrackID:  "track_1",
		TargetProvider: "youtube",
		TargetID:       "vid_00000001",
		Score:          0.91,
		DecidedBy:      models.DecidedAuto,
		Via:            models.MatchOfficial,
		Metadata:       map[string]string{"title": "Window Seat"},
	}
}

func TestNextSequence(t *testing.T) {
	db := setupDB(t)

	first, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NextSequence(db, "runs")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if first != 1 || second != 2 {
		t.Errorf("expected sequences 1, 2; got %d, %d", first, second)
	}
}

func TestMatchRepository(t *testing.T) {
	t.Run("Get Missing", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		_, err := repo.Get("spotify", "absent")
		if !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound, got %v", err)
		}
	})

	t.Run("Put Then Get", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		record := sampleMatch()
		if err := repo.Put(record); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if record.UpdatedAt.IsZero() {
			t.Error("expected UpdatedAt stamped")
		}

		got, err := repo.Get("spotify", "track_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TargetID != "vid_00000001" || got.Via != models.MatchOfficial {
			t.Errorf("unexpected record %+v", got)
		}
		if got.Metadata["title"] != "Window Seat" {
			t.Errorf("metadata not round-tripped: %v", got.Metadata)
		}
	})

	t.Run("Put Overwrites", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		if err := repo.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		updated := sampleMatch()
		updated.TargetID = "vid_00000002"
		updated.DecidedBy = models.DecidedUser
		updated.Via = models.MatchManual
		if err := repo.Put(updated); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := repo.Get("spotify", "track_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TargetID != "vid_00000002" || got.DecidedBy != models.DecidedUser {
			t.Errorf("expected last write to win, got %+v", got)
		}
	})

	t.Run("Put Rejects Empty Key", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		err := repo.Put(&models.MatchRecord{SourceProvider: "spotify"})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		if err := repo.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Delete("spotify", "track_1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := repo.Get("spotify", "track_1"); !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound after delete, got %v", err)
		}
		if err := repo.Delete("spotify", "track_1"); !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound on double delete, got %v", err)
		}
	})

	t.Run("Stats", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		auto := sampleMatch()
		if err := repo.Put(auto); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		manual := sampleMatch()
		manual.SourceTrackID = "track_2"
		manual.DecidedBy = models.DecidedUser
		if err := repo.Put(manual); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		stats, err := repo.Stats("spotify")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stats.Total != 2 || stats.Auto != 1 || stats.Manual != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
	})

	t.Run("List Scoped By Provider", func(t *testing.T) {
		repo := NewMatchRepository(setupDB(t))

		if err := repo.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		other := sampleMatch()
		other.SourceProvider = "tidal"
		if err := repo.Put(other); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		records, err := repo.List("spotify")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(records) != 1 || records[0].SourceProvider != "spotify" {
			t.Errorf("unexpected records %v", records)
		}
	})
}

func TestRunRepository(t *testing.T) {
	t.Run("Start Then Finalize", func(t *testing.T) {
		repo := NewRunRepository(setupDB(t))

		run, err := repo.Start("pl_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if run.ID == "" || run.Sequence != 1 {
			t.Errorf("unexpected run %+v", run)
		}

		run.TargetPlaylistID = "PLnew"
		run.Added = 18
		run.Skipped = 1
		run.Failed = 1
		run.Errors = []models.RunError{{TrackID: "track_9", Message: "no acceptable match"}}

		if err := repo.Finalize(run); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if run.FinishedAt == nil {
			t.Error("expected FinishedAt stamped")
		}

		got, err := repo.Get(run.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Added != 18 || got.Skipped != 1 || got.Failed != 1 {
			t.Errorf("unexpected counts %+v", got)
		}
		if len(got.Errors) != 1 || got.Errors[0].TrackID != "track_9" {
			t.Errorf("errors not round-tripped: %v", got.Errors)
		}
	})

	t.Run("Finalize Unknown Run", func(t *testing.T) {
		repo := NewRunRepository(setupDB(t))

		err := repo.Finalize(&models.RunRecord{ID: "missing"})
		if !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Get Unknown Run", func(t *testing.T) {
		repo := NewRunRepository(setupDB(t))

		_, err := repo.Get("missing")
		if !errors.Is(err, shared.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Recent Newest First", func(t *testing.T) {
		repo := NewRunRepository(setupDB(t))

		first, err := repo.Start("pl_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		second, err := repo.Start("pl_2")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		runs, err := repo.Recent(10)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("expected 2 runs, got %d", len(runs))
		}
		if runs[0].ID != second.ID || runs[1].ID != first.ID {
			t.Errorf("expected newest first, got %v then %v", runs[0].ID, runs[1].ID)
		}

		limited, err := repo.Recent(1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(limited) != 1 || limited[0].ID != second.ID {
			t.Errorf("expected only the newest run, got %v", limited)
		}
	})
}

func TestCachedMatches(t *testing.T) {
	t.Run("Read Through Populates Memory", func(t *testing.T) {
		db := setupDB(t)
		repo := NewMatchRepository(db)
		cache := NewCachedMatches(repo, 8, time.Minute)

		if err := repo.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		got, err := cache.Get("spotify", "track_1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.TargetID != "vid_00000001" {
			t.Errorf("unexpected record %+v", got)
		}

		// Row gone from SQLite, entry still served from memory.
		if _, err := db.Exec("DELETE FROM matches"); err != nil {
			t.Fatalf("failed to clear table: %v", err)
		}
		if _, err := cache.Get("spotify", "track_1"); err != nil {
			t.Errorf("expected memory hit, got %v", err)
		}
	})

	t.Run("Put Writes Both Layers", func(t *testing.T) {
		db := setupDB(t)
		cache := NewCachedMatches(NewMatchRepository(db), 8, time.Minute)

		if err := cache.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row in sqlite, got %d", count)
		}
	})

	t.Run("Delete Evicts Memory", func(t *testing.T) {
		cache := NewCachedMatches(NewMatchRepository(setupDB(t)), 8, time.Minute)

		if err := cache.Put(sampleMatch()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := cache.Delete("spotify", "track_1"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, err := cache.Get("spotify", "track_1"); !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound after delete, got %v", err)
		}
	})

	t.Run("Miss Falls Through", func(t *testing.T) {
		cache := NewCachedMatches(NewMatchRepository(setupDB(t)), 8, time.Minute)

		_, err := cache.Get("spotify", "absent")
		if !errors.Is(err, shared.ErrMatchNotFound) {
			t.Errorf("expected ErrMatchNotFound, got %v", err)
		}
	})
}

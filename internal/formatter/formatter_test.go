package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tracklinker/internal/models"
)

func samplePlaylist() models.Playlist {
	return models.Playlist{
		ID:          "pl_abc",
		Name:        "Night Drive",
		Description: "Late night tracks",
		OwnerName:   "listener",
		TrackCount:  2,
	}
}

func sampleTracks() []models.Track {
	return []models.Track{
		{
			ID:         "t1",
			Title:      "Midnight City",
			Artists:    []string{"M83"},
			Album:      "Hurry Up, We're Dreaming",
			DurationMS: 243_000,
			ISRC:       "FR6V81162475",
		},
		{
			ID:         "t2",
			Title:      "Nightcall",
			Artists:    []string{"Kavinsky", "Lovefoxxx"},
			DurationMS: 258_000,
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleTracks())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "ID,Title,Artists,Album,Duration,ISRC" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[2], "Kavinsky, Lovefoxxx") {
		t.Errorf("expected joined artists, got %s", lines[2])
	}
	if !strings.Contains(lines[1], "FR6V81162475") {
		t.Errorf("expected ISRC column, got %s", lines[1])
	}
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(samplePlaylist(), sampleTracks())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	md := string(data)
	for _, want := range []string{
		"# Night Drive",
		"**Description**: Late night tracks",
		"**Tracks**: 2",
		"1. M83 - Midnight City (Hurry Up, We're Dreaming) [4:03]",
		"2. Kavinsky, Lovefoxxx - Nightcall [4:18]",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(samplePlaylist(), sampleTracks())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	text := string(data)
	if !strings.Contains(text, "Playlist: Night Drive") {
		t.Errorf("expected playlist name, got %s", text)
	}
	if !strings.Contains(text, "2. Kavinsky, Lovefoxxx - Nightcall") {
		t.Errorf("expected numbered track line, got %s", text)
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("picks format by extension", func(t *testing.T) {
		dir := t.TempDir()

		cases := []struct {
			name     string
			filename string
			marker   string
		}{
			{"csv", "out.csv", "ID,Title,Artists"},
			{"markdown", "out.md", "# Night Drive"},
			{"text", "out.txt", "Playlist: Night Drive"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				path := filepath.Join(dir, tc.filename)

				written, err := WriteExport(samplePlaylist(), sampleTracks(), path)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if written != path {
					t.Errorf("expected path %s, got %s", path, written)
				}

				data, err := os.ReadFile(path)
				if err != nil {
					t.Fatalf("failed to read export: %v", err)
				}
				if !strings.Contains(string(data), tc.marker) {
					t.Errorf("expected %q in %s", tc.marker, tc.filename)
				}
			})
		}
	})

	t.Run("defaults filename to playlist id", func(t *testing.T) {
		dir := t.TempDir()
		cwd, _ := os.Getwd()
		if err := os.Chdir(dir); err != nil {
			t.Fatalf("failed to chdir: %v", err)
		}
		defer os.Chdir(cwd)

		written, err := WriteExport(samplePlaylist(), sampleTracks(), "")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if written != "pl_abc_tracks.txt" {
			t.Errorf("expected default filename, got %s", written)
		}
	})
}

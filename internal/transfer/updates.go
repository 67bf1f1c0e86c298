package transfer

import (
	"fmt"

	"github.com/desertthunder/tracklinker/internal/models"
)

// Update represents a progress event during a transfer.
//
// Used to send real-time updates to the CLI layer for display.
type Update struct {
	Stage   Stage  // Pipeline stage
	Step    int    // Current step number within the stage
	Total   int    // Total steps in this stage
	Message string // Human-readable message for display
	Data    any    // Optional stage-specific data
}

func preparingUpdate(name string) Update {
	return Update{
		Stage:   StagePreparing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching source playlist %s...", name),
	}
}

func preparedUpdate(plan *models.TransferPlan) Update {
	return Update{
		Stage:   StagePreparing,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", plan.SourcePlaylist.Name, len(plan.Tracks)),
		Data:    plan,
	}
}

func mappingUpdate(step, total int, track models.Track) Update {
	return Update{
		Stage:   StageMapping,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, trackLabel(track)),
	}
}

func mappedUpdate(step, total int, mapping TrackMapping) Update {
	message := fmt.Sprintf("[%d/%d] no match: %s", step, total, trackLabel(mapping.Track))
	if mapping.Result != nil {
		message = fmt.Sprintf("[%d/%d] %s -> %s (%.2f via %s)",
			step, total, trackLabel(mapping.Track), mapping.Result.ID, mapping.Result.Score, mapping.Via)
	}
	return Update{
		Stage:   StageMapping,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    mapping,
	}
}

func awaitingUserUpdate(pending int) Update {
	return Update{
		Stage:   StageAwaitingUser,
		Step:    0,
		Total:   pending,
		Message: fmt.Sprintf("%d low-confidence matches need review", pending),
	}
}

func creatingPlaylistUpdate(name string) Update {
	return Update{
		Stage:   StageCreatingPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Creating playlist %s...", name),
	}
}

func playlistCreatedUpdate(playlist *models.Playlist) Update {
	return Update{
		Stage:   StageCreatingPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (ID: %s)", playlist.Name, playlist.ID),
		Data:    playlist,
	}
}

func insertingUpdate(chunk, totalChunks, inserted, total int) Update {
	return Update{
		Stage:   StageInserting,
		Step:    chunk,
		Total:   totalChunks,
		Message: fmt.Sprintf("Inserting chunk %d/%d (%d/%d tracks)", chunk, totalChunks, inserted, total),
	}
}

func chunkFailedUpdate(chunk, totalChunks int, err error) Update {
	return Update{
		Stage:   StageInserting,
		Step:    chunk,
		Total:   totalChunks,
		Message: fmt.Sprintf("Chunk %d/%d failed: %v", chunk, totalChunks, err),
	}
}

func completeUpdate(run *models.RunRecord) Update {
	return Update{
		Stage:   StageComplete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Transfer complete: %d added, %d skipped, %d failed", run.Added, run.Skipped, run.Failed),
		Data:    run,
	}
}

func canceledUpdate(run *models.RunRecord) Update {
	return Update{
		Stage:   StageCanceled,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Transfer canceled: %d added before stopping", run.Added),
		Data:    run,
	}
}

func trackLabel(track models.Track) string {
	if len(track.Artists) == 0 {
		return track.Title
	}
	return track.Artists[0] + " - " + track.Title
}

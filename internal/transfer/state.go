package transfer

// Stage is a phase of the transfer pipeline.
type Stage int

const (
	StageIdle Stage = iota
	StagePreparing
	StageMapping
	StageAwaitingUser
	StageCreatingPlaylist
	StageInserting
	StageComplete
	StageCanceled
	StageError
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StagePreparing:
		return "preparing"
	case StageMapping:
		return "mapping"
	case StageAwaitingUser:
		return "awaiting_user"
	case StageCreatingPlaylist:
		return "creating_playlist"
	case StageInserting:
		return "inserting"
	case StageComplete:
		return "complete"
	case StageCanceled:
		return "canceled"
	case StageError:
		return "error"
	default:
		return ""
	}
}

// Terminal reports whether the pipeline has finished, successfully or not.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageCanceled || s == StageError
}

// Event advances the pipeline between stages.
type Event int

const (
	EventStart Event = iota
	EventPrepared
	EventMapped
	EventNeedsReview
	EventConfirmed
	EventPlaylistReady
	EventInserted
	EventCancel
	EventFail
)

// Next returns the stage the pipeline moves to when event fires in
// stage. Cancellation and failure are accepted from any non-terminal
// stage; terminal stages absorb every event; any other event that does
// not apply to the current stage leaves it unchanged.
func Next(s Stage, e Event) Stage {
	if s.Terminal() {
		return s
	}

	switch e {
	case EventCancel:
		return StageCanceled
	case EventFail:
		return StageError
	}

	switch s {
	case StageIdle:
		if e == EventStart {
			return StagePreparing
		}
	case StagePreparing:
		if e == EventPrepared {
			return StageMapping
		}
	case StageMapping:
		switch e {
		case EventMapped:
			return StageCreatingPlaylist
		case EventNeedsReview:
			return StageAwaitingUser
		}
	case StageAwaitingUser:
		if e == EventConfirmed {
			return StageCreatingPlaylist
		}
	case StageCreatingPlaylist:
		if e == EventPlaylistReady {
			return StageInserting
		}
	case StageInserting:
		if e == EventInserted {
			return StageComplete
		}
	}

	return s
}

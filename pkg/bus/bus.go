package bus

// Stage identifies where a transcription run currently is.
type Stage string

const (
	StageUploading    Stage = "uploading"
	StageTranscribing Stage = "transcribing"
	StageSaved        Stage = "saved"
	StageConverted    Stage = "converted"
	StageDelivered    Stage = "delivered"
	StageFailed       Stage = "failed"
)

// Status is a progress update published by a background run.
type Status struct {
	Stage   Stage
	Message string // human-readable, e.g. "Transcribing with 2 speakers…"
	Path    string // file the update refers to, if any
}

// StatusBus carries status updates from the goroutine doing the network call to the one
// rendering progress.
type StatusBus struct {
	Updates chan Status
}

// NewStatusBus creates a new initialized StatusBus.
func NewStatusBus() *StatusBus {
	return &StatusBus{
		Updates: make(chan Status, 100),
	}
}

// Publish queues an update. Updates are dropped when the buffer is full so a run never
// blocks on a slow or absent reader.
func (b *StatusBus) Publish(s Status) {
	if b == nil {
		return
	}
	select {
	case b.Updates <- s:
	default:
	}
}

// Drain discards queued updates.
func (b *StatusBus) Drain() {
	for {
		select {
		case <-b.Updates:
		default:
			return
		}
	}
}

package providers

import (
	"context"
	"encoding/json"
)

// TranscriptionRequest holds the parameters of one transcription call.
type TranscriptionRequest struct {
	AudioPath string
	// NumSpeakers is a hint for the diarization model; 0 means auto-detect.
	NumSpeakers int
	Language    string
}

// TranscriptionProvider sends audio to a speech-to-text and diarization backend.
type TranscriptionProvider interface {
	Name() string
	// Transcribe returns the backend's result as a JSON document carrying a "segments"
	// list (or "output.segments").
	Transcribe(ctx context.Context, req TranscriptionRequest) (json.RawMessage, error)
}

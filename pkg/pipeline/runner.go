package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/history"
	"mp3transcript/pkg/providers"
	"mp3transcript/pkg/transcript"

	"github.com/rs/zerolog"
)

// Runner performs the file-level steps of a run: transcribe, save JSON, convert, save
// Markdown. It holds no per-run state and may be shared by several sessions.
type Runner struct {
	provider providers.TranscriptionProvider
	status   *bus.StatusBus
	history  *history.Store
	log      zerolog.Logger
	language string
}

// NewRunner wires a runner. status and hist may be nil.
func NewRunner(provider providers.TranscriptionProvider, status *bus.StatusBus, hist *history.Store, log zerolog.Logger) *Runner {
	return &Runner{
		provider: provider,
		status:   status,
		history:  hist,
		log:      log,
	}
}

// WithLanguage sets the language hint passed to the provider.
func (r *Runner) WithLanguage(lang string) *Runner {
	r.language = lang
	return r
}

// Status returns the bus the runner publishes progress on, possibly nil.
func (r *Runner) Status() *bus.StatusBus {
	return r.status
}

// Result is the outcome of a transcription.
type Result struct {
	AudioPath string
	JSONPath  string
	Raw       json.RawMessage
}

// Transcribe sends audioPath to the provider and writes the raw result beside it as
// <name>.json. numSpeakers 0 lets the model detect the speaker count.
func (r *Runner) Transcribe(ctx context.Context, audioPath string, numSpeakers int) (*Result, error) {
	r.status.Publish(bus.Status{Stage: bus.StageUploading, Message: "Uploading…", Path: audioPath})

	msg := "Transcribing…"
	if numSpeakers > 0 {
		msg = fmt.Sprintf("Transcribing with %d speakers…", numSpeakers)
	}
	r.status.Publish(bus.Status{Stage: bus.StageTranscribing, Message: msg, Path: audioPath})

	raw, err := r.provider.Transcribe(ctx, providers.TranscriptionRequest{
		AudioPath:   audioPath,
		NumSpeakers: numSpeakers,
		Language:    r.language,
	})
	if err != nil {
		r.fail(audioPath, err)
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	jsonPath := JSONPath(audioPath)
	if err := SaveJSON(jsonPath, raw); err != nil {
		r.fail(audioPath, err)
		return nil, fmt.Errorf("failed to save JSON: %w", err)
	}
	r.log.Info().Str("file", jsonPath).Str("provider", r.provider.Name()).Msg("saved transcription JSON")
	r.status.Publish(bus.Status{Stage: bus.StageSaved, Message: "Saved JSON: " + filepath.Base(jsonPath), Path: jsonPath})
	r.record("ok", fmt.Sprintf("%s -> %s", audioPath, filepath.Base(jsonPath)))

	return &Result{AudioPath: audioPath, JSONPath: jsonPath, Raw: raw}, nil
}

// ReadTranscript formats the diarization JSON at jsonPath.
func (r *Runner) ReadTranscript(jsonPath string) (string, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", jsonPath, err)
	}
	text := transcript.FormatJSON(data)
	if text == transcript.NoSegmentsText {
		r.log.Warn().Str("file", jsonPath).Msg("no speaker segments in JSON")
	}
	return text, nil
}

// WriteMarkdown writes the transcript text to mdPath.
func (r *Runner) WriteMarkdown(mdPath, text string) error {
	if err := os.WriteFile(mdPath, []byte(text), 0644); err != nil {
		r.record("failed", fmt.Sprintf("%s: %v", mdPath, err))
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	r.log.Info().Str("file", mdPath).Msg("saved transcript")
	r.status.Publish(bus.Status{Stage: bus.StageConverted, Message: "Transcript saved to: " + filepath.Base(mdPath), Path: mdPath})
	r.record("ok", "wrote "+mdPath)
	return nil
}

// Convert formats jsonPath, applies renames and writes the Markdown file beside it.
func (r *Runner) Convert(jsonPath, mdPath string, renames transcript.RenameMap) (string, error) {
	text, err := r.ReadTranscript(jsonPath)
	if err != nil {
		return "", err
	}
	if mdPath == "" {
		mdPath = MarkdownPath(jsonPath)
	}
	if err := r.WriteMarkdown(mdPath, transcript.Rename(text, renames)); err != nil {
		return "", err
	}
	return mdPath, nil
}

func (r *Runner) fail(audioPath string, err error) {
	r.log.Error().Err(err).Str("file", audioPath).Msg("run failed")
	r.status.Publish(bus.Status{Stage: bus.StageFailed, Message: err.Error(), Path: audioPath})
	r.record("failed", fmt.Sprintf("%s: %v", audioPath, err))
}

func (r *Runner) record(status, content string) {
	if r.history == nil {
		return
	}
	if err := r.history.Append(status, content); err != nil {
		r.log.Warn().Err(err).Msg("could not append to history")
	}
}

// SaveJSON writes raw indented by two spaces, keeping key order and non-ASCII text as-is.
func SaveJSON(path string, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("invalid JSON from provider: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// JSONPath returns the sibling .json path of an audio file.
func JSONPath(audioPath string) string {
	return withExt(audioPath, ".json")
}

// MarkdownPath returns the sibling .md path of an audio or JSON file.
func MarkdownPath(path string) string {
	return withExt(path, ".md")
}

// HasTranscription reports whether audioPath already has a sibling .json.
func HasTranscription(audioPath string) bool {
	_, err := os.Stat(JSONPath(audioPath))
	return err == nil
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

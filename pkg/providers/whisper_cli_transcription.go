package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// WhisperCLITranscriptionProvider implements TranscriptionProvider using the local whisper
// CLI. Whisper does not diarize, so every segment formats as UNKNOWN.
type WhisperCLITranscriptionProvider struct {
	Model  string
	Binary string
	log    zerolog.Logger
}

// NewWhisperCLITranscriptionProvider creates a new Whisper CLI transcription provider.
func NewWhisperCLITranscriptionProvider(model string, log zerolog.Logger) *WhisperCLITranscriptionProvider {
	if model == "" {
		model = "small"
	}
	return &WhisperCLITranscriptionProvider{
		Model:  model,
		Binary: "whisper",
		log:    log,
	}
}

func (p *WhisperCLITranscriptionProvider) Name() string { return "whisper-cli" }

func (p *WhisperCLITranscriptionProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (json.RawMessage, error) {
	tmpDir, err := os.MkdirTemp("", "whisper_out_*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for whisper: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	args := whisperArgs(req, p.Model, tmpDir)
	p.log.Info().Str("cmd", p.Binary+" "+strings.Join(args, " ")).Msg("running whisper CLI")
	cmd := exec.CommandContext(ctx, p.Binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("whisper CLI failed: %w\nOutput: %s", err, string(output))
	}
	p.log.Debug().Msg("whisper CLI finished")

	// Whisper writes <audio basename>.json into the output dir.
	base := filepath.Base(req.AudioPath)
	jsonFile := filepath.Join(tmpDir, strings.TrimSuffix(base, filepath.Ext(base))+".json")
	content, err := os.ReadFile(jsonFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output file: %w", err)
	}
	if !json.Valid(content) {
		return nil, fmt.Errorf("whisper output %s is not valid JSON", filepath.Base(jsonFile))
	}
	return content, nil
}

func whisperArgs(req TranscriptionRequest, model, outDir string) []string {
	args := []string{
		req.AudioPath,
		"--model", model,
		"--output_dir", outDir,
		"--output_format", "json",
	}
	if req.Language != "" {
		args = append(args, "--language", req.Language)
	}
	return args
}

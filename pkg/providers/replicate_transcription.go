package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/replicate/replicate-go"
	"github.com/rs/zerolog"
)

// ReplicateTranscriptionProvider runs a diarization model hosted on Replicate,
// thomasmol/whisper-diarization by default.
type ReplicateTranscriptionProvider struct {
	client  *replicate.Client
	Model   string // owner/name
	Version string // empty resolves the latest version on every call
	log     zerolog.Logger
}

// NewReplicateTranscriptionProvider creates a provider authenticated with token.
func NewReplicateTranscriptionProvider(token, model, version string, log zerolog.Logger, opts ...replicate.ClientOption) (*ReplicateTranscriptionProvider, error) {
	if model == "" {
		model = "thomasmol/whisper-diarization"
	}
	client, err := replicate.NewClient(append([]replicate.ClientOption{replicate.WithToken(token)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create replicate client: %w", err)
	}
	return &ReplicateTranscriptionProvider{
		client:  client,
		Model:   model,
		Version: version,
		log:     log,
	}, nil
}

func (p *ReplicateTranscriptionProvider) Name() string { return "replicate" }

func (p *ReplicateTranscriptionProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (json.RawMessage, error) {
	version, err := p.resolveVersion(ctx)
	if err != nil {
		return nil, err
	}

	p.log.Debug().Str("file", req.AudioPath).Msg("uploading audio")
	file, err := p.client.CreateFileFromPath(ctx, req.AudioPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upload audio file: %w", err)
	}
	fileURL := file.URLs["get"]
	if fileURL == "" {
		return nil, fmt.Errorf("upload of %s returned no file URL", req.AudioPath)
	}

	identifier := p.Model + ":" + version
	p.log.Info().Str("model", identifier).Int("num_speakers", req.NumSpeakers).Msg("running prediction")
	output, err := p.client.Run(ctx, identifier, buildReplicateInput(fileURL, req), nil)
	if err != nil {
		return nil, fmt.Errorf("replicate prediction failed: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(output); err != nil {
		return nil, fmt.Errorf("failed to encode prediction output: %w", err)
	}
	return bytes.TrimSpace(buf.Bytes()), nil
}

// resolveVersion returns the pinned version or looks up the model's latest one.
func (p *ReplicateTranscriptionProvider) resolveVersion(ctx context.Context) (string, error) {
	if p.Version != "" {
		return p.Version, nil
	}
	owner, name, ok := strings.Cut(p.Model, "/")
	if !ok || owner == "" || name == "" {
		return "", fmt.Errorf("invalid model %q (want owner/name)", p.Model)
	}
	model, err := p.client.GetModel(ctx, owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to look up model %s: %w", p.Model, err)
	}
	if model.LatestVersion == nil || model.LatestVersion.ID == "" {
		return "", fmt.Errorf("model %s has no published version", p.Model)
	}
	return model.LatestVersion.ID, nil
}

func buildReplicateInput(fileURL string, req TranscriptionRequest) replicate.PredictionInput {
	input := replicate.PredictionInput{"file": fileURL}
	if req.NumSpeakers > 0 {
		input["num_speakers"] = req.NumSpeakers
	}
	if req.Language != "" {
		input["language"] = req.Language
	}
	return input
}

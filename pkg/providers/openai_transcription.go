package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mp3transcript/pkg/transcript"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAITranscriptionProvider implements TranscriptionProvider for OpenAI-compatible APIs
// (including local ones such as LocalAI). Segments carry no speaker unless the server adds
// one, so they format as UNKNOWN.
type OpenAITranscriptionProvider struct {
	client *openai.Client
	Model  string
	log    zerolog.Logger
}

// NewOpenAITranscriptionProvider creates a new OpenAI transcription provider.
func NewOpenAITranscriptionProvider(baseURL, apiKey, model string, log zerolog.Logger) *OpenAITranscriptionProvider {
	if model == "" {
		model = openai.Whisper1
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/audio/transcriptions")
	}
	return &OpenAITranscriptionProvider{
		client: openai.NewClientWithConfig(cfg),
		Model:  model,
		log:    log,
	}
}

func (p *OpenAITranscriptionProvider) Name() string { return "openai" }

func (p *OpenAITranscriptionProvider) Transcribe(ctx context.Context, req TranscriptionRequest) (json.RawMessage, error) {
	p.log.Info().Str("model", p.Model).Str("file", req.AudioPath).Msg("transcribing")
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.Model,
		FilePath: req.AudioPath,
		Language: req.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI-compatible transcription failed: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		seg := transcript.Segment{Start: &s.Start}
		text := s.Text
		seg.Text = &text
		segments = append(segments, seg)
	}
	if len(segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		segments = append(segments, transcript.NewSegment(0, resp.Text, transcript.UnknownSpeaker))
	}

	data, err := json.Marshal(transcript.NewDocument(segments...))
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcription: %w", err)
	}
	return data, nil
}

package providers

import (
	"errors"
	"fmt"

	"mp3transcript/pkg/config"

	"github.com/rs/zerolog"
)

// ErrUnknownProvider is returned for a provider name New does not know.
var ErrUnknownProvider = errors.New("unknown transcription provider")

// New builds the transcription provider selected in cfg.
func New(cfg *config.AppConfig, log zerolog.Logger) (TranscriptionProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderReplicate:
		return NewReplicateTranscriptionProvider(cfg.ReplicateToken, cfg.Model, cfg.ModelVersion, log)
	case config.ProviderOpenAI:
		return NewOpenAITranscriptionProvider(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.OpenAIModel, log), nil
	case config.ProviderWhisperCLI:
		return NewWhisperCLITranscriptionProvider(cfg.WhisperModel, log), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
}

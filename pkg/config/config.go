package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mp3transcript/pkg/logger"

	"github.com/spf13/viper"
)

const (
	dirName  = ".mp3transcript"
	fileName = "config.json"

	ProviderReplicate  = "replicate"
	ProviderOpenAI     = "openai"
	ProviderWhisperCLI = "whisper-cli"

	DefaultModel = "thomasmol/whisper-diarization"
)

// ErrMissingToken is returned when the selected provider has no API credential.
var ErrMissingToken = errors.New("missing API token")

// AppConfig holds the user's API credentials and transcription preferences.
type AppConfig struct {
	Provider       string `mapstructure:"provider" json:"provider"`
	ReplicateToken string `mapstructure:"replicate_api_token" json:"replicate_api_token,omitempty"`
	Model          string `mapstructure:"model" json:"model,omitempty"`                 // e.g. "thomasmol/whisper-diarization"
	ModelVersion   string `mapstructure:"model_version" json:"model_version,omitempty"` // empty means latest

	OpenAIKey     string `mapstructure:"openai_api_key" json:"openai_api_key,omitempty"`
	OpenAIBaseURL string `mapstructure:"openai_base_url" json:"openai_base_url,omitempty"`
	OpenAIModel   string `mapstructure:"openai_model" json:"openai_model,omitempty"`

	WhisperModel string `mapstructure:"whisper_model" json:"whisper_model,omitempty"`
	Language     string `mapstructure:"language" json:"language,omitempty"`

	TelegramToken  string `mapstructure:"telegram_token" json:"telegram_token,omitempty"`
	TelegramChatID string `mapstructure:"telegram_chat_id" json:"telegram_chat_id,omitempty"`

	logger.Config `mapstructure:",squash"`
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string][]string{
	"provider":            {"MP3T_PROVIDER"},
	"replicate_api_token": {"REPLICATE_API_TOKEN"},
	"model":               {"MP3T_MODEL"},
	"model_version":       {"MP3T_MODEL_VERSION"},
	"openai_api_key":      {"OPENAI_API_KEY"},
	"openai_base_url":     {"OPENAI_BASE_URL"},
	"openai_model":        {"MP3T_OPENAI_MODEL"},
	"whisper_model":       {"MP3T_WHISPER_MODEL"},
	"language":            {"MP3T_LANGUAGE"},
	"telegram_token":      {"TELEGRAM_BOT_TOKEN"},
	"telegram_chat_id":    {"TELEGRAM_CHAT_ID"},
	"log_level":           {"MP3T_LOG_LEVEL"},
	"log_format":          {"MP3T_LOG_FORMAT"},
}

// Dir returns ~/.mp3transcript, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create %s directory: %w", dirName, err)
	}
	return dir, nil
}

// DefaultPath returns the absolute path to ~/.mp3transcript/config.json.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the config file at path (a missing file is fine) and applies environment
// overrides. An empty path uses DefaultPath.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("provider", ProviderReplicate)
	v.SetDefault("model", DefaultModel)
	v.SetDefault("openai_model", "whisper-1")
	v.SetDefault("whisper_model", "small")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", logger.FormatConsole)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	return &cfg, nil
}

// Validate reports a missing credential for the selected provider.
func (cfg *AppConfig) Validate() error {
	switch cfg.Provider {
	case ProviderReplicate:
		if cfg.ReplicateToken == "" {
			return fmt.Errorf("%w: REPLICATE_API_TOKEN not found in .env or config", ErrMissingToken)
		}
	case ProviderOpenAI:
		// Local OpenAI-compatible servers run without a key.
		if cfg.OpenAIKey == "" && cfg.OpenAIBaseURL == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY not found in .env or config", ErrMissingToken)
		}
	}
	return nil
}

// TelegramEnabled reports whether finished transcripts should be delivered to Telegram.
func (cfg *AppConfig) TelegramEnabled() bool {
	return cfg.TelegramToken != "" && cfg.TelegramChatID != ""
}

// Save writes the config to path (DefaultPath when empty).
func (cfg *AppConfig) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Contains API keys (rw-------)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config to disk: %w", err)
	}
	return nil
}

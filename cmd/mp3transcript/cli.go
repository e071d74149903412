package main

import (
	"context"
	"fmt"

	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/channels/telegram"
	"mp3transcript/pkg/config"
	"mp3transcript/pkg/history"
	"mp3transcript/pkg/logger"
	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/providers"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
)

var CLI struct {
	Config    string           `help:"Path to the JSON config file (default ~/.mp3transcript/config.json)" type:"path" env:"MP3T_CONFIG"`
	LogLevel  string           `help:"Log level (trace, debug, info, warn, error); overrides the config"`
	LogFormat string           `help:"Log output format (console or json); overrides the config"`
	Version   kong.VersionFlag `help:"Print the version and exit"`

	Transcribe TranscribeCMD `cmd:"" help:"Transcribe MP3 files, interactively when no flags are given" default:"withargs"`
	Convert    ConvertCMD    `cmd:"" help:"Convert a diarization JSON file into a Markdown transcript"`
	Speakers   SpeakersCMD   `cmd:"" help:"List the speaker IDs found in a JSON or Markdown transcript"`
	Preview    PreviewCMD    `cmd:"" help:"Render a transcript in the terminal"`
	Watch      WatchCMD      `cmd:"" help:"Transcribe every new MP3 dropped into a directory"`
	Configure  ConfigureCMD  `cmd:"" help:"Interactively write the config file"`
	Reset      ResetCMD      `cmd:"" help:"Clear the run history"`
}

// App is what every command receives: the signal-aware context, configuration and logger.
type App struct {
	ctx context.Context
	cfg *config.AppConfig
	log zerolog.Logger
}

func (a *App) history() *history.Store {
	dir, err := config.Dir()
	if err != nil {
		a.log.Warn().Err(err).Msg("run history disabled")
		return nil
	}
	store, err := history.NewStore(dir)
	if err != nil {
		a.log.Warn().Err(err).Msg("run history disabled")
		return nil
	}
	return store
}

// transcriber builds a runner backed by the configured provider. A missing credential is
// returned as config.ErrMissingToken.
func (a *App) transcriber(status *bus.StatusBus) (*pipeline.Runner, error) {
	provider, err := providers.New(a.cfg, logger.Component(a.log, "provider"))
	if err != nil {
		return nil, err
	}
	a.log.Debug().Str("provider", provider.Name()).Msg("transcription provider ready")
	return pipeline.NewRunner(provider, status, a.history(), logger.Component(a.log, "pipeline")).
		WithLanguage(a.cfg.Language), nil
}

// converter builds a runner that only formats existing JSON.
func (a *App) converter() *pipeline.Runner {
	return pipeline.NewRunner(nil, nil, a.history(), logger.Component(a.log, "pipeline"))
}

// telegram returns the configured deliverer, or nil when Telegram is not set up.
func (a *App) telegram() (*telegram.Deliverer, error) {
	if !a.cfg.TelegramEnabled() {
		return nil, nil
	}
	d, err := telegram.NewDeliverer(a.cfg.TelegramToken, a.cfg.TelegramChatID, logger.Component(a.log, "telegram"))
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return d, nil
}

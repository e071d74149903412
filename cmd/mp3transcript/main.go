package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mp3transcript/pkg/config"
	"mp3transcript/pkg/logger"
	"mp3transcript/pkg/watch"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// .env values never override variables already set in the environment.
	envFile, envErr := config.LoadEnv(config.EnvCandidates()...)

	kctx := kong.Parse(&CLI,
		kong.Name("mp3transcript"),
		kong.Description(
			`  Transcribe MP3 files with speaker diarization and turn the result into a readable Markdown transcript.

Credentials are read from .env (next to the binary, the working directory or your home directory),
the environment, or ~/.mp3transcript/config.json (run 'mp3transcript configure').

Version: ${version}
`,
		),
		kong.UsageOnError(),
		kong.Vars{
			"version":          version,
			"default_schedule": watch.DefaultSchedule,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		logger.Init(logger.Config{})
		log.Fatal().Err(err).Msg("❌ Failed to load configuration")
	}
	if CLI.LogLevel != "" {
		cfg.Level = CLI.LogLevel
	}
	if CLI.LogFormat != "" {
		cfg.Format = CLI.LogFormat
	}
	l := logger.Init(cfg.Config)

	switch {
	case envErr != nil:
		l.Warn().Err(envErr).Str("file", envFile).Msg("could not load .env file")
	case envFile != "":
		l.Debug().Str("file", envFile).Msg("loaded .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = kctx.Run(&App{ctx: ctx, cfg: cfg, log: l})
	stop()
	if err != nil {
		l.Fatal().Err(err).Msg("❌ " + kctx.Command() + " failed")
	}
}

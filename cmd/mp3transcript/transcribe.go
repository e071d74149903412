package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"mp3transcript/pkg/audio"
	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/logger"
	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/prompt"
	"mp3transcript/pkg/session"
	"mp3transcript/pkg/transcript"
)

type TranscribeCMD struct {
	Files    []string `arg:"" optional:"" type:"path" help:"MP3 files to transcribe"`
	Speakers int      `short:"n" default:"0" help:"Number of speakers (1-10), 0 lets the model detect it"`
	Batch    bool     `short:"b" help:"Process the given files without prompting"`
	Markdown bool     `short:"m" help:"In batch mode, also write the Markdown transcript"`
	Rename   []string `short:"r" placeholder:"OLD=NEW" help:"In batch mode, rename a speaker, e.g. SPEAKER_00=Alice (repeatable)"`
}

func (t *TranscribeCMD) Validate() error {
	if t.Speakers != 0 {
		if _, err := prompt.ParseSpeakerCount(strconv.Itoa(t.Speakers)); err != nil {
			return err
		}
	}
	if !t.Batch && len(t.Files) > 1 {
		return errors.New("pass --batch to transcribe several files at once")
	}
	if t.Batch && len(t.Files) == 0 {
		return errors.New("--batch needs at least one file")
	}
	return nil
}

func (t *TranscribeCMD) Run(app *App) error {
	if t.Batch {
		return t.runBatch(app)
	}

	var first string
	if len(t.Files) == 1 {
		if _, err := audio.Inspect(t.Files[0]); err != nil {
			return err
		}
		first = t.Files[0]
	}

	runner, err := app.transcriber(bus.NewStatusBus())
	if err != nil {
		return err
	}
	sess := session.New(prompt.NewTerminal(), runner, os.Stderr, logger.Component(app.log, "session"))
	d, err := app.telegram()
	if err != nil {
		return err
	}
	if d != nil {
		sess.WithDeliverer(d)
	}
	return sess.Run(app.ctx, first)
}

func (t *TranscribeCMD) runBatch(app *App) error {
	renames, err := transcript.ParseRenames(t.Rename)
	if err != nil {
		return err
	}
	runner, err := app.transcriber(nil)
	if err != nil {
		return err
	}
	d, err := app.telegram()
	if err != nil {
		return err
	}

	var failed int
	for _, file := range t.Files {
		info, err := audio.Inspect(file)
		if err != nil {
			app.log.Error().Err(err).Str("file", file).Msg("skipping file")
			failed++
			continue
		}
		app.log.Info().Str("file", info.DisplayName()).Msg("🎙️ transcribing")

		res, err := runner.Transcribe(app.ctx, file, t.Speakers)
		if err != nil {
			app.log.Error().Err(err).Str("file", file).Msg("transcription failed")
			failed++
			if app.ctx.Err() != nil {
				return app.ctx.Err()
			}
			continue
		}
		out := res.JSONPath
		fmt.Println(res.JSONPath)

		if t.Markdown || len(renames) > 0 {
			mdPath, err := runner.Convert(res.JSONPath, pipeline.MarkdownPath(file), renames)
			if err != nil {
				app.log.Error().Err(err).Str("file", res.JSONPath).Msg("conversion failed")
				failed++
				continue
			}
			out = mdPath
			fmt.Println(mdPath)
		}

		if d != nil {
			if err := d.Deliver(app.ctx, out, info.DisplayName()); err != nil {
				app.log.Warn().Err(err).Str("file", out).Msg("delivery failed")
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(t.Files))
	}
	return nil
}

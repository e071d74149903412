package main

import (
	"mp3transcript/pkg/logger"
	"mp3transcript/pkg/transcript"
	"mp3transcript/pkg/watch"
)

type WatchCMD struct {
	Dir      string   `arg:"" type:"existingdir" help:"Inbox directory to watch for MP3 files"`
	Schedule string   `short:"s" default:"${default_schedule}" help:"Cron schedule with seconds, or a descriptor such as @every 30s"`
	Speakers int      `short:"n" default:"0" help:"Number of speakers passed to every transcription, 0 auto-detects"`
	Rename   []string `short:"r" placeholder:"OLD=NEW" help:"Rename a speaker in every transcript (repeatable)"`
	Once     bool     `help:"Process the pending files once and exit"`
}

func (w *WatchCMD) Run(app *App) error {
	renames, err := transcript.ParseRenames(w.Rename)
	if err != nil {
		return err
	}
	runner, err := app.transcriber(nil)
	if err != nil {
		return err
	}

	s := watch.NewScheduler(w.Dir, w.Schedule, runner, logger.Component(app.log, "watch")).
		WithSpeakers(w.Speakers).
		WithRenames(renames)
	d, err := app.telegram()
	if err != nil {
		return err
	}
	if d != nil {
		s.WithDeliverer(d).WithNotifier(d)
	}

	if w.Once {
		report, err := s.RunOnce(app.ctx)
		if err != nil {
			return err
		}
		s.ReportFailures(app.ctx, report.Failed)
		app.log.Info().Int("converted", len(report.Converted)).Int("failed", len(report.Failed)).Msg("✅ inbox processed")
		return nil
	}

	if err := s.Start(app.ctx); err != nil {
		return err
	}
	app.log.Info().Msg("👀 watching, press Ctrl-C to stop")
	<-app.ctx.Done()
	return nil
}

package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mp3transcript/pkg/audio"
	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/transcript"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultSchedule polls the inbox once a minute.
const DefaultSchedule = "@every 1m"

// DefaultSettle is how long a file must stay unmodified before a pass picks it up, so files
// still being copied are not uploaded half-written.
const DefaultSettle = 2 * time.Second

// ErrBusy is returned by RunOnce while a previous pass is still running.
var ErrBusy = errors.New("previous pass still running")

// Deliverer sends a finished file somewhere outside the local disk.
type Deliverer interface {
	Deliver(ctx context.Context, path, caption string) error
}

// Notifier posts a short text message, e.g. to the chat transcripts are delivered to.
type Notifier interface {
	SendMessage(ctx context.Context, content string) error
}

// Report summarises one pass over the inbox.
type Report struct {
	Converted []string // Markdown files written
	Failed    []string // audio files that could not be processed
}

// Scheduler transcribes and converts every new MP3 dropped into a directory.
type Scheduler struct {
	dir         string
	schedule    string // robfig cron spec with seconds, e.g. "@every 30s" or "0 */5 * * * *"
	runner      *pipeline.Runner
	deliver     Deliverer
	notifier    Notifier
	numSpeakers int
	renames     transcript.RenameMap
	log         zerolog.Logger

	settle     time.Duration
	now        func() time.Time
	cronRunner *cron.Cron
	mu         sync.Mutex
	busy       bool
	// failed holds the modification time of each file whose run failed. The file is not
	// retried until it changes.
	failed map[string]time.Time
}

// NewScheduler creates a scheduler over dir. An empty schedule uses DefaultSchedule.
func NewScheduler(dir, schedule string, runner *pipeline.Runner, log zerolog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	return &Scheduler{
		dir:        dir,
		schedule:   schedule,
		runner:     runner,
		log:        log,
		settle:     DefaultSettle,
		now:        time.Now,
		cronRunner: cron.New(cron.WithSeconds()),
		failed:     make(map[string]time.Time),
	}
}

// WithDeliverer sends each Markdown file through d after it is written.
func (s *Scheduler) WithDeliverer(d Deliverer) *Scheduler {
	s.deliver = d
	return s
}

// WithNotifier reports files that failed in a pass through n.
func (s *Scheduler) WithNotifier(n Notifier) *Scheduler {
	s.notifier = n
	return s
}

// WithSpeakers passes a fixed speaker count to every transcription; 0 auto-detects.
func (s *Scheduler) WithSpeakers(n int) *Scheduler {
	s.numSpeakers = n
	return s
}

// WithRenames applies the same speaker names to every transcript.
func (s *Scheduler) WithRenames(m transcript.RenameMap) *Scheduler {
	s.renames = m
	return s
}

// Start runs a first pass immediately, then schedules passes until ctx is cancelled. New
// MP3 files also trigger a pass once the inbox settles; when the directory cannot be
// watched the schedule alone drives processing.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cronRunner.AddFunc(s.schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}

	watcher, err := s.notify(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("file events unavailable, relying on schedule")
	}

	s.cronRunner.Start()
	s.log.Info().Str("dir", s.dir).Str("schedule", s.schedule).Msg("watching inbox")

	go s.tick(ctx)
	go func() {
		<-ctx.Done()
		if watcher != nil {
			_ = watcher.Close()
		}
		<-s.cronRunner.Stop().Done()
		s.log.Info().Msg("watcher stopped")
	}()
	return nil
}

// notify starts an fsnotify watcher on the inbox that schedules a pass after MP3 writes.
func (s *Scheduler) notify(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(s.dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("unable to watch %s: %w", s.dir, err)
	}

	go func() {
		// Wait past the settle window so the last write counts as settled.
		delay := s.settle + s.settle/2
		var timer *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create|fsnotify.Write) || !audio.IsMP3Name(event.Name) {
					continue
				}
				s.log.Debug().Str("file", event.Name).Msg("inbox changed")
				if timer == nil {
					timer = time.AfterFunc(delay, func() { s.tick(ctx) })
				} else {
					timer.Reset(delay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Error().Err(err).Msg("inbox watcher error")
			}
		}
	}()
	return watcher, nil
}

func (s *Scheduler) tick(ctx context.Context) {
	report, err := s.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		s.log.Debug().Msg("skipping pass, previous one still running")
	case err != nil:
		s.log.Error().Err(err).Msg("pass failed")
	case len(report.Converted)+len(report.Failed) > 0:
		s.log.Info().Int("converted", len(report.Converted)).Int("failed", len(report.Failed)).Msg("pass finished")
	}
	s.ReportFailures(ctx, report.Failed)
}

// ReportFailures sends the names of failed files to the notifier, if one is set.
func (s *Scheduler) ReportFailures(ctx context.Context, failed []string) {
	if s.notifier == nil || len(failed) == 0 {
		return
	}
	names := make([]string, 0, len(failed))
	for _, p := range failed {
		names = append(names, filepath.Base(p))
	}
	msg := fmt.Sprintf("⚠️ Could not transcribe %s. Replace or touch the file to retry.", strings.Join(names, ", "))
	if err := s.notifier.SendMessage(ctx, msg); err != nil {
		s.log.Warn().Err(err).Msg("could not report failures")
	}
}

// RunOnce processes every pending file in the inbox. Overlapping calls return ErrBusy.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return Report{}, ErrBusy
	}
	s.busy = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	var report Report
	pending, err := Pending(s.dir, s.now().Add(-s.settle))
	if err != nil {
		return report, err
	}

	for _, f := range pending {
		if mod, ok := s.failed[f.Path]; ok && mod.Equal(f.ModTime) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		mdPath, err := s.process(ctx, f.Path)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.log.Error().Err(err).Str("file", f.Path).Msg("could not process file")
			s.failed[f.Path] = f.ModTime
			report.Failed = append(report.Failed, f.Path)
			continue
		}
		delete(s.failed, f.Path)
		report.Converted = append(report.Converted, mdPath)
	}
	return report, nil
}

func (s *Scheduler) process(ctx context.Context, audioPath string) (string, error) {
	res, err := s.runner.Transcribe(ctx, audioPath, s.numSpeakers)
	if err != nil {
		return "", err
	}
	mdPath, err := s.runner.Convert(res.JSONPath, pipeline.MarkdownPath(audioPath), s.renames)
	if err != nil {
		return "", err
	}
	if s.deliver != nil {
		if err := s.deliver.Deliver(ctx, mdPath, filepath.Base(mdPath)); err != nil {
			s.log.Warn().Err(err).Str("file", mdPath).Msg("delivery failed")
		} else {
			s.runner.Status().Publish(bus.Status{Stage: bus.StageDelivered, Message: "Delivered " + filepath.Base(mdPath), Path: mdPath})
		}
	}
	return mdPath, nil
}

// File is an inbox entry waiting for transcription.
type File struct {
	Path    string
	ModTime time.Time
}

// Pending lists the MP3 files in dir that have no sibling .json yet and were last modified
// no later than settledBefore, sorted by name.
func Pending(dir string, settledBefore time.Time) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var out []File
	for _, e := range entries {
		if e.IsDir() || !audio.IsMP3Name(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if pipeline.HasTranscription(p) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(settledBefore) {
			continue
		}
		out = append(out, File{Path: p, ModTime: info.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

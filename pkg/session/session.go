package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/prompt"
	"mp3transcript/pkg/transcript"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

const (
	askAutoDetect = "No speaker count specified. Continue with auto-detection?"
	askMarkdown   = "Would you like to create a .md transcript with speaker renaming?"
	askRename     = "Do you want to turn speaker variables into names?"
	askAnother    = "Process another file?"

	noSpeakers = "No speakers found in the transcript."
)

// Deliverer sends a finished file somewhere outside the local disk.
type Deliverer interface {
	Deliver(ctx context.Context, path, caption string) error
}

// Session drives the interactive flow for one user: pick a file, transcribe it in the
// background while showing progress, then optionally convert and rename speakers.
type Session struct {
	prompter prompt.Prompter
	runner   *pipeline.Runner
	out      io.Writer
	log      zerolog.Logger
	deliver  Deliverer
	tick     time.Duration
}

// New creates a session. Progress is rendered on out.
func New(p prompt.Prompter, runner *pipeline.Runner, out io.Writer, log zerolog.Logger) *Session {
	return &Session{
		prompter: p,
		runner:   runner,
		out:      out,
		log:      log,
		tick:     100 * time.Millisecond,
	}
}

// WithDeliverer sends each finished transcript through d.
func (s *Session) WithDeliverer(d Deliverer) *Session {
	s.deliver = d
	return s
}

// Run processes files until the user declines to continue. A non-empty first path skips
// the file prompt for the first round.
func (s *Session) Run(ctx context.Context, first string) error {
	path := first
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if path == "" {
			p, err := s.prompter.AudioPath()
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			path = p
		}

		if err := s.ProcessFile(ctx, path); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !errors.Is(err, prompt.ErrAborted) {
				s.prompter.Notify("Error: " + err.Error())
			}
		}
		path = ""

		again, err := s.prompter.Confirm(askAnother)
		if err != nil || !again {
			return nil
		}
	}
}

// ProcessFile runs one file through the whole flow.
func (s *Session) ProcessFile(ctx context.Context, audioPath string) error {
	numSpeakers, err := s.prompter.SpeakerCount()
	if errors.Is(err, prompt.ErrAborted) {
		ok, cerr := s.prompter.Confirm(askAutoDetect)
		if cerr != nil || !ok {
			return prompt.ErrAborted
		}
		numSpeakers, err = 0, nil
	}
	if err != nil {
		return err
	}

	res, err := s.transcribe(ctx, audioPath, numSpeakers)
	if err != nil {
		return err
	}
	s.prompter.Notify("Transcription saved to: " + res.JSONPath)

	convert, err := s.prompter.Confirm(askMarkdown)
	if err != nil {
		return err
	}
	if !convert {
		s.send(ctx, res.JSONPath)
		return nil
	}

	text, err := s.runner.ReadTranscript(res.JSONPath)
	if err != nil {
		return err
	}

	var renames transcript.RenameMap
	rename, err := s.prompter.Confirm(askRename)
	if err != nil {
		return err
	}
	if rename {
		speakers := transcript.ExtractSpeakers(text)
		if len(speakers) == 0 {
			s.prompter.Notify(noSpeakers)
		} else if renames, err = prompt.CollectRenames(s.prompter, speakers); err != nil {
			return err
		}
	}

	mdPath := pipeline.MarkdownPath(audioPath)
	if err := s.runner.WriteMarkdown(mdPath, transcript.Rename(text, renames)); err != nil {
		return err
	}
	s.prompter.Notify("Transcript saved to: " + mdPath)
	s.send(ctx, mdPath)
	return nil
}

type outcome struct {
	res *pipeline.Result
	err error
}

// transcribe runs the network call on its own goroutine and spins until it returns,
// describing each status update it receives.
func (s *Session) transcribe(ctx context.Context, audioPath string, numSpeakers int) (*pipeline.Result, error) {
	var updates <-chan bus.Status
	if st := s.runner.Status(); st != nil {
		st.Drain()
		updates = st.Updates
	}

	done := make(chan outcome, 1)
	go func() {
		res, err := s.runner.Transcribe(ctx, audioPath, numSpeakers)
		done <- outcome{res: res, err: err}
	}()

	bar := progressbar.NewOptions(
		-1,
		progressbar.OptionSetWriter(s.out),
		progressbar.OptionSetDescription(filepath.Base(audioPath)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case st := <-updates:
			bar.Describe(st.Message)
			s.log.Debug().Str("stage", string(st.Stage)).Msg(st.Message)
		case <-ticker.C:
			_ = bar.Add(1)
		case o := <-done:
			_ = bar.Finish()
			fmt.Fprintln(s.out)
			return o.res, o.err
		}
	}
}

func (s *Session) send(ctx context.Context, path string) {
	if s.deliver == nil {
		return
	}
	if err := s.deliver.Deliver(ctx, path, filepath.Base(path)); err != nil {
		s.log.Warn().Err(err).Str("file", path).Msg("delivery failed")
		s.prompter.Notify("Could not deliver " + filepath.Base(path) + ": " + err.Error())
		return
	}
	s.runner.Status().Publish(bus.Status{Stage: bus.StageDelivered, Message: "Delivered " + filepath.Base(path), Path: path})
	s.prompter.Notify("Delivered " + filepath.Base(path))
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/prompt"
	"mp3transcript/pkg/transcript"

	"github.com/charmbracelet/glamour"
)

type ConvertCMD struct {
	JSON        string   `arg:"" type:"existingfile" help:"Diarization JSON file"`
	Out         string   `short:"o" type:"path" help:"Markdown output path (default: beside the JSON)"`
	Rename      []string `short:"r" placeholder:"OLD=NEW" help:"Rename a speaker, e.g. SPEAKER_00=Alice (repeatable, applied in order)"`
	Interactive bool     `short:"i" help:"Ask for a name for each speaker found"`
}

func (c *ConvertCMD) Run(app *App) error {
	renames, err := transcript.ParseRenames(c.Rename)
	if err != nil {
		return err
	}

	runner := app.converter()
	text, err := runner.ReadTranscript(c.JSON)
	if err != nil {
		return err
	}

	if c.Interactive {
		term := prompt.NewTerminal()
		speakers := transcript.ExtractSpeakers(text)
		if len(speakers) == 0 {
			term.Notify("No speakers found in the transcript.")
		} else {
			asked, err := prompt.CollectRenames(term, speakers)
			if errors.Is(err, prompt.ErrAborted) {
				return nil
			}
			if err != nil {
				return err
			}
			renames = append(renames, asked...)
		}
	}

	mdPath := c.Out
	if mdPath == "" {
		mdPath = pipeline.MarkdownPath(c.JSON)
	}
	if err := runner.WriteMarkdown(mdPath, transcript.Rename(text, renames)); err != nil {
		return err
	}
	fmt.Println(mdPath)
	return nil
}

type SpeakersCMD struct {
	File string `arg:"" type:"existingfile" help:"Diarization JSON or formatted transcript"`
}

func (s *SpeakersCMD) Run(app *App) error {
	text, err := loadTranscript(app, s.File)
	if err != nil {
		return err
	}
	speakers := transcript.ExtractSpeakers(text)
	if len(speakers) == 0 {
		fmt.Fprintln(os.Stderr, "No speakers found in the transcript.")
		return nil
	}
	for _, id := range speakers {
		fmt.Println(id)
	}
	return nil
}

type PreviewCMD struct {
	File   string   `arg:"" type:"existingfile" help:"Diarization JSON or Markdown transcript"`
	Rename []string `short:"r" placeholder:"OLD=NEW" help:"Rename a speaker before rendering (repeatable)"`
	Raw    bool     `help:"Print the text without rendering"`
}

func (p *PreviewCMD) Run(app *App) error {
	renames, err := transcript.ParseRenames(p.Rename)
	if err != nil {
		return err
	}
	text, err := loadTranscript(app, p.File)
	if err != nil {
		return err
	}
	text = transcript.Rename(text, renames)

	renderMode := "dark"
	if os.Getenv("COLOR") != "" {
		renderMode = os.Getenv("COLOR")
	}
	if p.Raw || os.Getenv("NO_COLOR") != "" {
		fmt.Println(text)
		return nil
	}
	out, err := glamour.Render(text, renderMode)
	if err != nil {
		app.log.Debug().Err(err).Msg("could not render markdown")
		fmt.Println(text)
		return nil
	}
	fmt.Print(out)
	return nil
}

// loadTranscript formats a JSON file, or reads any other file as already formatted text.
func loadTranscript(app *App, path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return app.converter().ReadTranscript(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

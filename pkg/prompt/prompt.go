package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mp3transcript/pkg/audio"
	"mp3transcript/pkg/transcript"

	"github.com/manifoldco/promptui"
)

const (
	MinSpeakers = 1
	MaxSpeakers = 10
)

// ErrAborted is returned when the user cancels a prompt (Ctrl-C / Ctrl-D).
var ErrAborted = errors.New("prompt aborted")

// Prompter asks the user for the decisions a run needs.
type Prompter interface {
	// AudioPath asks for the MP3 to transcribe.
	AudioPath() (string, error)
	// SpeakerCount returns the expected number of speakers, 0 for auto-detection.
	SpeakerCount() (int, error)
	Confirm(label string) (bool, error)
	// SpeakerName asks for a display name; blank keeps the ID.
	SpeakerName(id string) (string, error)
	Notify(msg string)
}

// ParseSpeakerCount validates speaker-count input. Blank means auto-detection (0).
func ParseSpeakerCount(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return 0, errors.New("please enter a valid number")
	}
	if n < MinSpeakers || n > MaxSpeakers {
		return 0, fmt.Errorf("please enter a number between %d and %d", MinSpeakers, MaxSpeakers)
	}
	return n, nil
}

// ValidateAudioPath accepts existing MP3 files.
func ValidateAudioPath(input string) error {
	_, err := audio.Inspect(strings.TrimSpace(input))
	return err
}

// CollectRenames asks for a name for each speaker, in the given order, and skips blanks.
func CollectRenames(p Prompter, speakers []string) (transcript.RenameMap, error) {
	var m transcript.RenameMap
	for _, id := range speakers {
		name, err := p.SpeakerName(id)
		if err != nil {
			return nil, err
		}
		m = m.Add(id, name)
	}
	return m, nil
}

// Terminal is a Prompter backed by promptui.
type Terminal struct {
	Stdin  io.ReadCloser
	Stdout io.WriteCloser
}

// NewTerminal returns a prompter on the process's stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{Stdin: os.Stdin, Stdout: os.Stdout}
}

func (t *Terminal) run(p promptui.Prompt) (string, error) {
	p.Stdin = t.Stdin
	p.Stdout = t.Stdout
	out, err := p.Run()
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return "", ErrAborted
	}
	return out, err
}

func (t *Terminal) AudioPath() (string, error) {
	out, err := t.run(promptui.Prompt{
		Label:    "Select an MP3 file",
		Validate: ValidateAudioPath,
	})
	return strings.TrimSpace(out), err
}

func (t *Terminal) SpeakerCount() (int, error) {
	out, err := t.run(promptui.Prompt{
		Label: fmt.Sprintf("How many speakers are in this audio file? (%d-%d, blank for auto-detection)", MinSpeakers, MaxSpeakers),
		Validate: func(s string) error {
			_, err := ParseSpeakerCount(s)
			return err
		},
	})
	if err != nil {
		return 0, err
	}
	return ParseSpeakerCount(out)
}

func (t *Terminal) Confirm(label string) (bool, error) {
	_, err := t.run(promptui.Prompt{Label: label, IsConfirm: true})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort):
		return false, nil
	default:
		return false, err
	}
}

func (t *Terminal) SpeakerName(id string) (string, error) {
	out, err := t.run(promptui.Prompt{
		Label: fmt.Sprintf("Enter new name for %s (leave blank to keep original)", id),
	})
	return strings.TrimSpace(out), err
}

func (t *Terminal) Notify(msg string) {
	fmt.Fprintln(t.Stdout, msg)
}

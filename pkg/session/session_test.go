package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mp3transcript/pkg/bus"
	"mp3transcript/pkg/pipeline"
	"mp3transcript/pkg/prompt"
	"mp3transcript/pkg/providers"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diarized = `{"segments":[
	{"start":0,"text":"Hello there.","speaker":"SPEAKER_00"},
	{"start":4,"text":"Hi!","speaker":"SPEAKER_01"}
]}`

type fakeProvider struct {
	raw  string
	err  error
	reqs []providers.TranscriptionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Transcribe(ctx context.Context, req providers.TranscriptionRequest) (json.RawMessage, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.raw), nil
}

// script answers prompts from queues; an exhausted queue aborts.
type script struct {
	paths    []string
	count    int
	countErr error
	confirms map[string][]bool
	names    map[string]string
	notes    []string
}

func (s *script) AudioPath() (string, error) {
	if len(s.paths) == 0 {
		return "", prompt.ErrAborted
	}
	p := s.paths[0]
	s.paths = s.paths[1:]
	return p, nil
}

func (s *script) SpeakerCount() (int, error) { return s.count, s.countErr }

func (s *script) Confirm(label string) (bool, error) {
	answers := s.confirms[label]
	if len(answers) == 0 {
		return false, prompt.ErrAborted
	}
	s.confirms[label] = answers[1:]
	return answers[0], nil
}

func (s *script) SpeakerName(id string) (string, error) { return s.names[id], nil }

func (s *script) Notify(msg string) { s.notes = append(s.notes, msg) }

type recorder struct{ paths []string }

func (r *recorder) Deliver(ctx context.Context, path, caption string) error {
	r.paths = append(r.paths, path)
	return nil
}

func newSession(t *testing.T, provider *fakeProvider, sc *script) (*Session, string) {
	t.Helper()
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "meeting.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0644))

	runner := pipeline.NewRunner(provider, bus.NewStatusBus(), nil, zerolog.Nop())
	s := New(sc, runner, io.Discard, zerolog.Nop())
	s.tick = time.Millisecond
	return s, audioPath
}

func TestProcessFileWithRenames(t *testing.T) {
	provider := &fakeProvider{raw: diarized}
	sc := &script{
		count: 2,
		confirms: map[string][]bool{
			askMarkdown: {true},
			askRename:   {true},
		},
		names: map[string]string{"SPEAKER_00": "Alice"},
	}
	s, audioPath := newSession(t, provider, sc)
	rec := &recorder{}
	s.WithDeliverer(rec)

	require.NoError(t, s.ProcessFile(context.Background(), audioPath))

	require.Len(t, provider.reqs, 1)
	assert.Equal(t, 2, provider.reqs[0].NumSpeakers)

	mdPath := pipeline.MarkdownPath(audioPath)
	data, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	want := "\n--- [TIMER: 00:00] ---\n" +
		"\n" +
		"**Alice**: Hello there.\n" +
		"\n" +
		"Speaker SPEAKER_01: Hi!"
	assert.Equal(t, want, string(data))

	assert.Equal(t, []string{mdPath}, rec.paths)
	assert.Contains(t, sc.notes, "Transcript saved to: "+mdPath)
	assert.Contains(t, sc.notes, "Delivered meeting.md")

	var stages []bus.Stage
	for len(s.runner.Status().Updates) > 0 {
		stages = append(stages, (<-s.runner.Status().Updates).Stage)
	}
	require.NotEmpty(t, stages)
	assert.Equal(t, bus.StageDelivered, stages[len(stages)-1])
}

func TestProcessFileAutoDetectAfterAbort(t *testing.T) {
	provider := &fakeProvider{raw: diarized}
	sc := &script{
		countErr: prompt.ErrAborted,
		confirms: map[string][]bool{
			askAutoDetect: {true},
			askMarkdown:   {false},
		},
	}
	s, audioPath := newSession(t, provider, sc)
	rec := &recorder{}
	s.WithDeliverer(rec)

	require.NoError(t, s.ProcessFile(context.Background(), audioPath))
	require.Len(t, provider.reqs, 1)
	assert.Equal(t, 0, provider.reqs[0].NumSpeakers)

	assert.FileExists(t, pipeline.JSONPath(audioPath))
	assert.NoFileExists(t, pipeline.MarkdownPath(audioPath))
	assert.Equal(t, []string{pipeline.JSONPath(audioPath)}, rec.paths)
}

func TestProcessFileCancelledAtSpeakerCount(t *testing.T) {
	provider := &fakeProvider{raw: diarized}
	sc := &script{
		countErr: prompt.ErrAborted,
		confirms: map[string][]bool{askAutoDetect: {false}},
	}
	s, audioPath := newSession(t, provider, sc)

	err := s.ProcessFile(context.Background(), audioPath)
	assert.ErrorIs(t, err, prompt.ErrAborted)
	assert.Empty(t, provider.reqs)
}

func TestProcessFileNoSpeakers(t *testing.T) {
	provider := &fakeProvider{raw: `{"segments":[{"start":0,"text":"mumble"}]}`}
	sc := &script{
		confirms: map[string][]bool{
			askMarkdown: {true},
			askRename:   {true},
		},
	}
	s, audioPath := newSession(t, provider, sc)

	require.NoError(t, s.ProcessFile(context.Background(), audioPath))
	assert.Contains(t, sc.notes, noSpeakers)

	data, err := os.ReadFile(pipeline.MarkdownPath(audioPath))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Speaker UNKNOWN: mumble")
}

func TestRunReportsErrorAndContinues(t *testing.T) {
	provider := &fakeProvider{err: errors.New("service unavailable")}
	sc := &script{
		confirms: map[string][]bool{askAnother: {true, false}},
	}
	s, audioPath := newSession(t, provider, sc)
	sc.paths = []string{audioPath}

	require.NoError(t, s.Run(context.Background(), audioPath))

	assert.Len(t, provider.reqs, 2)
	require.Len(t, sc.notes, 2)
	assert.Equal(t, "Error: transcription failed: service unavailable", sc.notes[0])
}

func TestRunStopsWhenFilePromptAborted(t *testing.T) {
	provider := &fakeProvider{raw: diarized}
	s, _ := newSession(t, provider, &script{confirms: map[string][]bool{}})

	assert.NoError(t, s.Run(context.Background(), ""))
	assert.Empty(t, provider.reqs)
}

func TestRunHonoursCancelledContext(t *testing.T) {
	s, audioPath := newSession(t, &fakeProvider{raw: diarized}, &script{confirms: map[string][]bool{}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Run(ctx, audioPath), context.Canceled)
}

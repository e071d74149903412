package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mp3transcript/pkg/config"
	"mp3transcript/pkg/transcript"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectsProvider(t *testing.T) {
	log := zerolog.Nop()

	p, err := New(&config.AppConfig{Provider: config.ProviderReplicate, ReplicateToken: "r8_x"}, log)
	require.NoError(t, err)
	assert.Equal(t, "replicate", p.Name())

	p, err = New(&config.AppConfig{Provider: config.ProviderOpenAI, OpenAIKey: "sk"}, log)
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	p, err = New(&config.AppConfig{Provider: config.ProviderWhisperCLI}, log)
	require.NoError(t, err)
	assert.Equal(t, "whisper-cli", p.Name())
}

func TestNewErrors(t *testing.T) {
	_, err := New(&config.AppConfig{Provider: config.ProviderReplicate}, zerolog.Nop())
	assert.ErrorIs(t, err, config.ErrMissingToken)

	_, err = New(&config.AppConfig{Provider: "assemblyai"}, zerolog.Nop())
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestBuildReplicateInput(t *testing.T) {
	in := buildReplicateInput("https://example.com/f", TranscriptionRequest{AudioPath: "a.mp3"})
	assert.Equal(t, "https://example.com/f", in["file"])
	assert.NotContains(t, in, "num_speakers")
	assert.NotContains(t, in, "language")

	in = buildReplicateInput("u", TranscriptionRequest{NumSpeakers: 3, Language: "en"})
	assert.Equal(t, 3, in["num_speakers"])
	assert.Equal(t, "en", in["language"])
}

func TestReplicateRejectsBadModelName(t *testing.T) {
	p, err := NewReplicateTranscriptionProvider("r8_x", "no-slash", "", zerolog.Nop())
	require.NoError(t, err)

	_, err = p.resolveVersion(context.Background())
	assert.ErrorContains(t, err, "owner/name")

	p.Version = "pinned"
	v, err := p.resolveVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pinned", v)
}

func TestOpenAITranscriptionMapsSegments(t *testing.T) {
	var gotPath, gotFormat, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotFormat = r.FormValue("response_format")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"task": "transcribe",
			"language": "english",
			"duration": 12.5,
			"text": "hello there general",
			"segments": [
				{"id": 0, "start": 0.0, "end": 2.0, "text": " hello there"},
				{"id": 1, "start": 2.0, "end": 4.0, "text": " general"}
			]
		}`))
	}))
	defer srv.Close()

	audioPath := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake"), 0644))

	p := NewOpenAITranscriptionProvider(srv.URL+"/v1/", "sk-test", "", zerolog.Nop())
	raw, err := p.Transcribe(context.Background(), TranscriptionRequest{AudioPath: audioPath})
	require.NoError(t, err)

	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "verbose_json", gotFormat)

	doc, err := transcript.ParseDocument(raw)
	require.NoError(t, err)
	require.Len(t, doc.Segments(), 2)
	assert.Equal(t, 2.0, doc.Segments()[1].StartSec())
	assert.Equal(t, transcript.UnknownSpeaker, doc.Segments()[1].SpeakerID())
	assert.Equal(t, "Speaker UNKNOWN: hello there general\n", strings.TrimPrefix(transcript.Format(doc), "\n--- [TIMER: 00:00] ---\n\n"))
}

func TestOpenAITranscriptionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer srv.Close()

	audioPath := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake"), 0644))

	p := NewOpenAITranscriptionProvider(srv.URL, "bad", "whisper-1", zerolog.Nop())
	_, err := p.Transcribe(context.Background(), TranscriptionRequest{AudioPath: audioPath})
	assert.Error(t, err)
}

func TestWhisperArgs(t *testing.T) {
	args := whisperArgs(TranscriptionRequest{AudioPath: "/a/talk.mp3", Language: "de"}, "small", "/tmp/out")
	assert.Equal(t, []string{
		"/a/talk.mp3",
		"--model", "small",
		"--output_dir", "/tmp/out",
		"--output_format", "json",
		"--language", "de",
	}, args)
}

func TestWhisperCLIMissingBinary(t *testing.T) {
	p := NewWhisperCLITranscriptionProvider("", zerolog.Nop())
	p.Binary = filepath.Join(t.TempDir(), "no-such-whisper")

	_, err := p.Transcribe(context.Background(), TranscriptionRequest{AudioPath: "x.mp3"})
	assert.ErrorContains(t, err, "whisper CLI failed")
}

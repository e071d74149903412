package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSpeakers(t *testing.T) {
	text := "Speaker SPEAKER_10: a\n\nSpeaker SPEAKER_01: b\n\nSpeaker SPEAKER_10: c\n\nSpeaker UNKNOWN: d\n"

	assert.Equal(t, []string{"SPEAKER_01", "SPEAKER_10"}, ExtractSpeakers(text))
	assert.Empty(t, ExtractSpeakers("Speaker UNKNOWN: nobody\n"))
}

func TestExtractSpeakersRoundTrip(t *testing.T) {
	doc := NewDocument(
		NewSegment(0, "a", "SPEAKER_02"),
		NewSegment(1, "b", "SPEAKER_00"),
		NewSegment(2, "c", "guest"),
		NewSegment(3, "d", "SPEAKER_02"),
		Segment{Text: strPtr("e")},
	)

	assert.Equal(t, []string{"SPEAKER_00", "SPEAKER_02"}, ExtractSpeakers(Format(doc)))
}

func TestApplyRenamesEmptyMapIsIdentity(t *testing.T) {
	text := "Speaker SPEAKER_00: hello\n"
	assert.Equal(t, text, ApplyRenames(text, nil))
	assert.Equal(t, text, AddSeparation(text, nil))
	assert.Equal(t, text, Rename(text, RenameMap{}))
}

func TestApplyRenames(t *testing.T) {
	text := "Speaker SPEAKER_00: hi\n\nSpeaker SPEAKER_01: hey\n\nSpeaker SPEAKER_00: bye\n"
	m := RenameMap{}.Add("SPEAKER_00", "Alice")

	want := "**Alice**: hi\n\nSpeaker SPEAKER_01: hey\n\n**Alice**: bye\n"
	assert.Equal(t, want, ApplyRenames(text, m))
}

func TestApplyRenamesIsOrderDependent(t *testing.T) {
	text := "Speaker SPEAKER_00: a\n\nSpeaker SPEAKER_01: b\n"

	// The first entry turns SPEAKER_00 into a name that the second entry then matches.
	first := RenameMap{
		{From: "SPEAKER_00", To: "Speaker SPEAKER_01"},
		{From: "SPEAKER_01", To: "Bob"},
	}
	assert.Equal(t, "****Bob****: a\n\n**Bob**: b\n", ApplyRenames(text, first))

	reversed := RenameMap{
		{From: "SPEAKER_01", To: "Bob"},
		{From: "SPEAKER_00", To: "Speaker SPEAKER_01"},
	}
	assert.Equal(t, "**Speaker SPEAKER_01**: a\n\n**Bob**: b\n", ApplyRenames(text, reversed))
}

func TestAddSeparation(t *testing.T) {
	m := RenameMap{}.Add("SPEAKER_00", "Alice")
	text := ApplyRenames(Format(NewDocument(
		NewSegment(0, "Hi", "SPEAKER_00"),
		NewSegment(10, "Hello", "SPEAKER_01"),
		NewSegment(20, "Again", "SPEAKER_00"),
	)), m)

	want := "\n--- [TIMER: 00:00] ---\n" +
		"\n" +
		"**Alice**: Hi\n" +
		"\n" +
		"Speaker SPEAKER_01: Hello\n" +
		"\n" +
		"**Alice**: Again"
	assert.Equal(t, want, AddSeparation(text, m))
}

func TestAddSeparationInsertsWhenNotPrecededByBlank(t *testing.T) {
	m := RenameMap{}.Add("SPEAKER_00", "Alice")
	text := "**Alice**: one\n  **Alice**: two\nplain\n**Alice**: three"

	want := "\n**Alice**: one\n\n  **Alice**: two\nplain\n\n**Alice**: three"
	assert.Equal(t, want, AddSeparation(text, m))
}

func TestRenameMapSkipsBlankNames(t *testing.T) {
	m := RenameMap{}.Add("SPEAKER_00", "  ").Add("SPEAKER_01", " Bob ")
	assert.Equal(t, RenameMap{{From: "SPEAKER_01", To: "Bob"}}, m)
}

func TestParseRenames(t *testing.T) {
	m, err := ParseRenames([]string{"SPEAKER_01=Bob", "SPEAKER_00=", "SPEAKER_02 = Carol Jones"})
	require.NoError(t, err)
	assert.Equal(t, RenameMap{
		{From: "SPEAKER_01", To: "Bob"},
		{From: "SPEAKER_02", To: "Carol Jones"},
	}, m)

	_, err = ParseRenames([]string{"SPEAKER_00"})
	assert.ErrorIs(t, err, ErrInvalidRename)

	_, err = ParseRenames([]string{"=Alice"})
	assert.ErrorIs(t, err, ErrInvalidRename)
}

func TestRenameAppliesPairsAndSeparates(t *testing.T) {
	m := RenameMap{Pair{From: "SPEAKER_01", To: "Bob"}}
	text := "Speaker SPEAKER_00: a\nSpeaker SPEAKER_01: b\n"

	assert.Equal(t, "Speaker SPEAKER_00: a\n\n**Bob**: b", Rename(text, m))
	assert.Equal(t, text, Rename(text, RenameMap{}))
}

func strPtr(s string) *string { return &s }

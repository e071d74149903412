package transcript

import (
	"encoding/json"
	"sort"
)

// UnknownSpeaker is used for segments that carry no speaker label.
const UnknownSpeaker = "UNKNOWN"

// Segment is one span of transcribed speech as returned by the diarization service.
// Every field is optional on the wire.
type Segment struct {
	Start   *float64 `json:"start,omitempty"`
	Text    *string  `json:"text,omitempty"`
	Speaker *string  `json:"speaker,omitempty"`
}

// NewSegment returns a segment with every field present.
func NewSegment(start float64, text, speaker string) Segment {
	return Segment{Start: &start, Text: &text, Speaker: &speaker}
}

// StartSec returns the start time in seconds, 0 when absent or negative.
func (s Segment) StartSec() float64 {
	if s.Start == nil || *s.Start < 0 {
		return 0
	}
	return *s.Start
}

// Content returns the segment text, empty when absent.
func (s Segment) Content() string {
	if s.Text == nil {
		return ""
	}
	return *s.Text
}

// SpeakerID returns the speaker label, UnknownSpeaker when absent.
func (s Segment) SpeakerID() string {
	if s.Speaker == nil {
		return UnknownSpeaker
	}
	return *s.Speaker
}

// Document is a diarization result. The service nests the segment list either at the
// top level or under "output"; Segments resolves the two shapes into one list.
type Document struct {
	TopLevel []Segment
	Output   []Segment
	// HasOutput is set when an "output" object carried a "segments" key.
	HasOutput bool
}

// NewDocument builds a document with top-level segments.
func NewDocument(segments ...Segment) Document {
	return Document{TopLevel: segments}
}

// ParseDocument decodes a diarization JSON document. An "output" value that is not an
// object is ignored.
func ParseDocument(data []byte) (Document, error) {
	var raw struct {
		Segments []Segment       `json:"segments"`
		Output   json.RawMessage `json:"output"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}

	doc := Document{TopLevel: raw.Segments}
	if len(raw.Output) == 0 {
		return doc, nil
	}

	var output map[string]json.RawMessage
	if err := json.Unmarshal(raw.Output, &output); err != nil {
		return doc, nil
	}
	if segs, ok := output["segments"]; ok {
		if err := json.Unmarshal(segs, &doc.Output); err != nil {
			return Document{}, err
		}
		doc.HasOutput = true
	}
	return doc, nil
}

// Segments returns the canonical segment list: "output.segments" when present,
// otherwise the top-level "segments".
func (d Document) Segments() []Segment {
	if d.HasOutput {
		return d.Output
	}
	return d.TopLevel
}

// MarshalJSON writes the canonical top-level shape.
func (d Document) MarshalJSON() ([]byte, error) {
	segs := d.Segments()
	if segs == nil {
		segs = []Segment{}
	}
	return json.Marshal(struct {
		Segments []Segment `json:"segments"`
	}{Segments: segs})
}

// sortedByStart returns a stably sorted copy; equal starts keep input order.
func sortedByStart(segments []Segment) []Segment {
	out := make([]Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartSec() < out[j].StartSec()
	})
	return out
}

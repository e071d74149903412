package transcript

import (
	"fmt"
	"math"
	"strings"
)

// NoSegmentsText is returned when a document has no resolvable segments.
const NoSegmentsText = "[No speaker segments found in JSON]\n"

// TimerInterval is the spacing of timer markers, in seconds.
const TimerInterval = 300

// FormatJSON parses a diarization document and formats it. Malformed input yields
// NoSegmentsText.
func FormatJSON(data []byte) string {
	doc, err := ParseDocument(data)
	if err != nil {
		return NoSegmentsText
	}
	return Format(doc)
}

// Format turns a diarization document into speaker-grouped transcript text with a timer
// marker at every five-minute boundary.
func Format(doc Document) string {
	segments := doc.Segments()
	if len(segments) == 0 {
		return NoSegmentsText
	}

	earliest := 0.0
	found := false
	for _, seg := range segments {
		if seg.Start == nil {
			continue
		}
		if start := seg.StartSec(); !found || start < earliest {
			earliest = start
			found = true
		}
	}
	nextTimer := math.Floor(earliest/TimerInterval) * TimerInterval

	var (
		b              strings.Builder
		currentSpeaker string
		haveSpeaker    bool
		current        strings.Builder
	)
	flush := func(trailer string) {
		if current.Len() == 0 {
			return
		}
		fmt.Fprintf(&b, "Speaker %s: %s%s", currentSpeaker, strings.TrimSpace(current.String()), trailer)
		current.Reset()
	}

	for _, seg := range sortedByStart(segments) {
		start := seg.StartSec()
		for start >= nextTimer {
			flush("\n\n")
			fmt.Fprintf(&b, "\n--- [TIMER: %s] ---\n\n", SecondsToTimestamp(nextTimer))
			nextTimer += TimerInterval
		}

		speaker := seg.SpeakerID()
		if !haveSpeaker || speaker != currentSpeaker {
			flush("\n\n")
			currentSpeaker = speaker
			haveSpeaker = true
		}

		if text := strings.TrimSpace(seg.Content()); text != "" {
			current.WriteString(text)
			current.WriteByte(' ')
		}
	}
	flush("\n")

	return b.String()
}

// SecondsToTimestamp renders whole seconds as h:mm:ss from one hour on, mm:ss below.
// Negative input renders as 00:00.
func SecondsToTimestamp(seconds float64) string {
	total := int64(math.Floor(math.Max(seconds, 0)))
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var speakerPattern = regexp.MustCompile(`Speaker (SPEAKER_\d+)`)

// ErrInvalidRename is returned for a rename pair that is not of the form OLD=NEW.
var ErrInvalidRename = errors.New("invalid rename")

// Pair maps one speaker ID to a display name.
type Pair struct {
	From string
	To   string
}

// RenameMap is an ordered list of renames. Replacements run in list order, so when a
// new name overlaps another entry's ID the earlier entry wins.
type RenameMap []Pair

// Add appends a rename; a blank name keeps the original ID and is ignored.
func (m RenameMap) Add(from, to string) RenameMap {
	to = strings.TrimSpace(to)
	if to == "" {
		return m
	}
	return append(m, Pair{From: from, To: to})
}

// ParseRenames parses OLD=NEW pairs, keeping their order. Pairs with an empty NEW are
// skipped.
func ParseRenames(pairs []string) (RenameMap, error) {
	var m RenameMap
	for _, p := range pairs {
		from, to, ok := strings.Cut(p, "=")
		from = strings.TrimSpace(from)
		if !ok || from == "" {
			return nil, fmt.Errorf("%w: %q (want OLD=NEW)", ErrInvalidRename, p)
		}
		m = m.Add(from, to)
	}
	return m, nil
}

// ExtractSpeakers returns the distinct SPEAKER_<digits> IDs labelled in text, sorted.
func ExtractSpeakers(text string) []string {
	seen := make(map[string]struct{})
	for _, match := range speakerPattern.FindAllStringSubmatch(text, -1) {
		seen[match[1]] = struct{}{}
	}
	speakers := make([]string, 0, len(seen))
	for s := range seen {
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)
	return speakers
}

// ApplyRenames replaces every "Speaker <ID>" with "**<name>**".
func ApplyRenames(text string, m RenameMap) string {
	for _, r := range m {
		text = strings.ReplaceAll(text, "Speaker "+r.From, marker(r.To))
	}
	return text
}

// AddSeparation inserts a blank line before every line that starts with a renamed speaker
// marker, unless the line before it is already blank.
func AddSeparation(text string, m RenameMap) string {
	if len(m) == 0 {
		return text
	}

	markers := make([]string, 0, len(m))
	for _, r := range m {
		markers = append(markers, marker(r.To))
	}

	lines := splitLines(text)
	out := make([]string, 0, len(lines)*2)
	for _, line := range lines {
		if startsWithAny(strings.TrimSpace(line), markers) {
			if len(out) == 0 || strings.TrimSpace(out[len(out)-1]) != "" {
				out = append(out, "")
			}
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// Rename applies the renames and separates the renamed speaker blocks.
func Rename(text string, m RenameMap) string {
	return AddSeparation(ApplyRenames(text, m), m)
}

func marker(name string) string {
	return "**" + name + "**"
}

func startsWithAny(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// splitLines splits on line breaks without producing a trailing empty element for a final
// newline.
func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

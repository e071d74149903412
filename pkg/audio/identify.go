package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

var (
	ErrNotFound = errors.New("file not found")
	ErrNotMP3   = errors.New("not an MP3 file")
)

// Info describes an audio file chosen for transcription.
type Info struct {
	Path string
	Size int64
	// Identified is set when the stream itself was recognised as MP3, rather than only
	// the file extension.
	Identified bool
	Title      string
	Artist     string
}

// DisplayName returns the ID3 title when present, otherwise the file name.
func (i Info) DisplayName() string {
	if i.Title != "" {
		return i.Title
	}
	return filepath.Base(i.Path)
}

// IsMP3Name reports whether path has an .mp3 extension.
func IsMP3Name(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".mp3")
}

// Inspect checks that path is a readable MP3 file. A file is accepted when either its
// content is identified as MP3 or its extension is .mp3.
func Inspect(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return Info{}, err
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("%w: %s is a directory", ErrNotMP3, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	info := Info{Path: path, Size: fi.Size()}

	_, fileType, idErr := tag.Identify(f)
	if idErr == nil && fileType == tag.MP3 {
		info.Identified = true
	}
	if !info.Identified && !IsMP3Name(path) {
		return Info{}, fmt.Errorf("%w: %s", ErrNotMP3, path)
	}

	if _, err := f.Seek(0, io.SeekStart); err == nil {
		if m, err := tag.ReadFrom(f); err == nil {
			info.Title = strings.TrimSpace(m.Title())
			info.Artist = strings.TrimSpace(m.Artist())
		}
	}
	return info, nil
}

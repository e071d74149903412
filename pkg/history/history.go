package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store is the flat-file log of transcription runs.
type Store struct {
	historyFile string
	now         func() time.Time
}

// NewStore initializes the history store inside dir, creating the directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history dir: %w", err)
	}
	return &Store{
		historyFile: filepath.Join(dir, "HISTORY.md"),
		now:         time.Now,
	}, nil
}

// Path returns the location of HISTORY.md.
func (s *Store) Path() string {
	return s.historyFile
}

// Append logs one run outcome, e.g. ("OK", "talk.mp3 -> talk.md").
func (s *Store) Append(status, content string) error {
	timestamp := s.now().Format("2006-01-02 15:04:05")
	entry := fmt.Sprintf("[%s] %s: %s\n", timestamp, strings.ToUpper(status), content)

	f, err := os.OpenFile(s.historyFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(entry)
	return err
}

// Read returns the whole history, empty when nothing was logged yet.
func (s *Store) Read() string {
	data, err := os.ReadFile(s.historyFile)
	if err != nil {
		return ""
	}
	return string(data)
}

// Reset deletes the history file.
func (s *Store) Reset() error {
	if err := os.Remove(s.historyFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

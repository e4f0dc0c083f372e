// Package history keeps the filename → text mappings shown on the index page.
// The mappings are read once from pipe-delimited flat files at startup and
// updated in memory as uploads are processed; the server never writes them
// back.
package history

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/Tephenbaay/imagescribeAI/internal/logger"
)

// ErrMalformedLine is returned by ParseLine for lines that do not have the
// "<label>: <filename> | <label>: <text>" shape.
var ErrMalformedLine = errors.New("line format is incorrect")

const (
	fieldSeparator = "|"
	labelSeparator = ": "
)

// Entry is one filename → text pair.
type Entry struct {
	Filename string
	Text     string
}

// Store is a concurrency-safe filename → text mapping.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]string)}
}

// ParseLine parses a single history line such as
// "Filename: foo.jpg | Caption: a dog". Both halves must carry a label.
func ParseLine(line string) (Entry, error) {
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != 2 {
		return Entry{}, ErrMalformedLine
	}

	filenamePart := strings.Split(strings.TrimSpace(parts[0]), labelSeparator)
	textPart := strings.Split(strings.TrimSpace(parts[1]), labelSeparator)
	if len(filenamePart) != 2 || len(textPart) != 2 {
		return Entry{}, ErrMalformedLine
	}

	return Entry{Filename: filenamePart[1], Text: textPart[1]}, nil
}

// Load reads a history file. Malformed lines are logged and skipped; a
// missing or unreadable file is logged and yields an empty store.
func Load(ctx context.Context, path string) *Store {
	store := NewStore()
	log := logger.FromContext(ctx).WithField("file", path)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("History file not found")
		} else {
			log.WithError(err).Warn("Failed to open history file")
		}
		return store
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	lineNo := 0
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			lineNo++
			if strings.TrimSpace(line) != "" {
				entry, parseErr := ParseLine(line)
				if parseErr != nil {
					log.WithField("line", lineNo).Warnf("%v: %s", parseErr, strings.TrimSpace(line))
				} else {
					store.entries[entry.Filename] = entry.Text
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.WithError(err).Warn("Stopped reading history file early")
			}
			break
		}
	}

	log.WithField(logger.FieldCount, len(store.entries)).Info("Loaded history file")
	return store
}

// Get returns the text stored for filename.
func (s *Store) Get(filename string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	text, ok := s.entries[filename]
	return text, ok
}

// Set stores text for filename, replacing any previous value.
func (s *Store) Set(filename, text string) {
	s.mu.Lock()
	s.entries[filename] = text
	s.mu.Unlock()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Snapshot returns a copy of the mapping.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

// Entries returns the entries sorted by filename.
func (s *Store) Entries() []Entry {
	snapshot := s.Snapshot()
	entries := make([]Entry, 0, len(snapshot))
	for filename, text := range snapshot {
		entries = append(entries, Entry{Filename: filename, Text: text})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Filename < entries[j].Filename
	})
	return entries
}

// String implements fmt.Stringer for debugging.
func (s *Store) String() string {
	return fmt.Sprintf("history.Store(%d entries)", s.Len())
}

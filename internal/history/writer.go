package history

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Writer appends history lines in the format Load reads back. It is used by
// the batch scribe to produce the captions and descriptions files.
type Writer struct {
	mu    sync.Mutex
	f     *os.File
	label string
}

// OpenWriter opens path for appending. label names the text column, for
// example "Caption" or "Description".
func OpenWriter(path, label string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open history file %s: %w", path, err)
	}
	return &Writer{f: f, label: label}, nil
}

// Append writes one "Filename: <name> | <label>: <text>" line.
func (w *Writer) Append(filename, text string) error {
	line := fmt.Sprintf("Filename%s%s %s %s%s%s\n",
		labelSeparator, flatten(filename), fieldSeparator, w.label, labelSeparator, flatten(text))

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append history line: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.f.Close()
}

// flatten folds text onto one line and neutralises the separators so the
// written line always parses back into the same entry.
func flatten(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = strings.ReplaceAll(text, fieldSeparator, "/")
	return strings.ReplaceAll(text, labelSeparator, " - ")
}

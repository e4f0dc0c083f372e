package storage

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// SecureFilename reduces a client-supplied filename to a flat, ASCII-only
// name that is safe to join onto a storage directory: path separators become
// word breaks, words are joined with "_", and anything outside
// [A-Za-z0-9_.-] is dropped along with leading and trailing dots and
// underscores. The result may be empty.
func SecureFilename(name string) string {
	decomposed := norm.NFKD.String(name)

	var ascii strings.Builder
	for _, r := range decomposed {
		switch {
		case r == '/' || r == '\\':
			ascii.WriteByte(' ')
		case r < 0x80:
			ascii.WriteRune(r)
		}
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var out strings.Builder
	for _, r := range joined {
		if isFilenameRune(r) {
			out.WriteRune(r)
		}
	}
	return strings.Trim(out.String(), "._")
}

// SafeFilename is SecureFilename with a random fallback for names that
// sanitize to nothing.
func SafeFilename(name string) string {
	if cleaned := SecureFilename(name); cleaned != "" {
		return cleaned
	}
	return uuid.New().String()
}

func isFilenameRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '.' || r == '-'
}

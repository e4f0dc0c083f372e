package service

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// TextEnhancer tidies a generated paragraph.
type TextEnhancer interface {
	Enhance(text string) string
}

// SentenceEnhancer re-segments a paragraph into sentences with the Punkt
// English model and joins them with single spaces. It does not rewrite
// words; stray line breaks and runs of whitespace between sentences go away.
type SentenceEnhancer struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewSentenceEnhancer loads the bundled English Punkt training data.
func NewSentenceEnhancer() (*SentenceEnhancer, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &SentenceEnhancer{tokenizer: tokenizer}, nil
}

// Enhance segments text and rejoins the sentences.
func (e *SentenceEnhancer) Enhance(text string) string {
	segmented := e.tokenizer.Tokenize(text)
	parts := make([]string, 0, len(segmented))
	for _, sent := range segmented {
		// sentences may still carry internal newlines
		if cleaned := strings.Join(strings.Fields(sent.Text), " "); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}

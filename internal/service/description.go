package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/Tephenbaay/imagescribeAI/internal/prompts"
)

// DescriptionService turns a caption into a two-paragraph description: a
// templated first paragraph and a second paragraph sampled from a language
// model that continues the first.
type DescriptionService struct {
	generator TextGenerator
	enhancer  TextEnhancer

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDescriptionService creates a description service. A nil rng is seeded
// from the clock; a nil enhancer leaves paragraphs as generated.
func NewDescriptionService(generator TextGenerator, enhancer TextEnhancer, rng *rand.Rand) *DescriptionService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DescriptionService{
		generator: generator,
		enhancer:  enhancer,
		rng:       rng,
	}
}

// FirstParagraph fills the description template for caption, drawing the
// environment, background and mood words independently.
func (s *DescriptionService) FirstParagraph(caption string) string {
	s.mu.Lock()
	environment := pick(s.rng, prompts.EnvironmentOptions)
	background := pick(s.rng, prompts.BackgroundOptions)
	mood := pick(s.rng, prompts.MoodOptions)
	s.mu.Unlock()

	return fmt.Sprintf(prompts.FirstParagraphFormat,
		caption, strings.ToLower(caption), environment, background, mood)
}

func pick(rng *rand.Rand, options []string) string {
	return options[rng.Intn(len(options))]
}

// EnsureCompleteSentence makes p end with a period. Text that already ends
// with one is returned unchanged; otherwise trailing commas, periods and
// exclamation marks are stripped before the period is appended.
func EnsureCompleteSentence(p string) string {
	if strings.HasSuffix(p, ".") {
		return p
	}
	return strings.TrimRight(p, ",.!") + "."
}

// SecondParagraph picks the paragraph after the first blank line of a
// generated text. When nothing but whitespace follows a blank line, the
// whole text is used.
func SecondParagraph(generated string) string {
	blocks := strings.Split(generated, "\n\n")
	for _, block := range blocks[1:] {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			return trimmed
		}
	}
	return strings.TrimSpace(generated)
}

// Describe produces both paragraphs for caption.
func (s *DescriptionService) Describe(ctx context.Context, caption string) (domain.Description, error) {
	first := s.FirstParagraph(caption)

	generated, err := s.generator.Generate(ctx, first)
	if err != nil {
		return domain.Description{}, fmt.Errorf("failed to expand description: %w", err)
	}

	second := SecondParagraph(generated)
	if second == "" {
		return domain.Description{}, ErrEmptyGeneration
	}
	second = EnsureCompleteSentence(second)

	if s.enhancer != nil {
		first = s.enhancer.Enhance(first)
		second = s.enhancer.Enhance(second)
	}
	return domain.Description{First: first, Second: second}, nil
}

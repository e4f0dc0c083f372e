package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Tephenbaay/imagescribeAI/internal/prompts"
	"github.com/go-resty/resty/v2"
)

// FallbackCategory is used when a chat model answers outside the label set.
const FallbackCategory = "other"

// Categorizer assigns a single category label to an image.
type Categorizer interface {
	Categorize(ctx context.Context, img *PreparedImage) (string, error)
}

// CategoryService classifies images with a hosted model.
type CategoryService struct {
	client   *resty.Client
	provider string
	model    string
	endpoint string
	labels   []string
}

// NewCategoryService creates a category service. labels is the closed set
// offered to chat models; image-classification models use their own labels.
func NewCategoryService(cfg *ModelConfig, labels []string) (*CategoryService, error) {
	endpoint, err := modelEndpoint(cfg, "/chat/completions")
	if err != nil {
		return nil, err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}
	return &CategoryService{
		client:   newModelClient(cfg),
		provider: provider,
		model:    cfg.Model,
		endpoint: endpoint,
		labels:   labels,
	}, nil
}

// GetModel returns the model name.
func (s *CategoryService) GetModel() string {
	return s.model
}

type classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Categorize returns the category label for img.
func (s *CategoryService) Categorize(ctx context.Context, img *PreparedImage) (string, error) {
	if s.provider == ProviderOpenAI {
		return s.categorizeWithChat(ctx, img)
	}
	return s.categorizeWithInference(ctx, img)
}

func (s *CategoryService) categorizeWithInference(ctx context.Context, img *PreparedImage) (string, error) {
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "image/jpeg").
		SetBody(img.Data).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call classification API: %w", err)
	}
	if err := checkHuggingFace("classification API", httpResp); err != nil {
		return "", err
	}

	var results []classification
	if err := json.Unmarshal(httpResp.Body(), &results); err != nil {
		return "", fmt.Errorf("failed to decode classification response: %w", err)
	}
	return topLabel(results), nil
}

// topLabel returns the highest scoring label, or FallbackCategory.
func topLabel(results []classification) string {
	best := -1
	for i, r := range results {
		if best < 0 || r.Score > results[best].Score {
			best = i
		}
	}
	if best < 0 || strings.TrimSpace(results[best].Label) == "" {
		return FallbackCategory
	}
	return strings.TrimSpace(results[best].Label)
}

func (s *CategoryService) categorizeWithChat(ctx context.Context, img *PreparedImage) (string, error) {
	req := openAIChatRequest{
		Model:     s.model,
		Messages:  imageMessages(prompts.CategorySystemPrompt, prompts.CategoryUserPrompt(s.labels), img.DataURL()),
		MaxTokens: 10,
	}
	answer, err := chatCompletion(s.client.R().SetContext(ctx).SetHeader("Content-Type", "application/json"), s.endpoint, req)
	if err != nil {
		return "", err
	}
	return matchLabel(answer, s.labels), nil
}

// matchLabel maps a free-form answer onto labels, ignoring case and
// surrounding punctuation.
func matchLabel(answer string, labels []string) string {
	cleaned := strings.Trim(strings.TrimSpace(answer), ".\"'`")
	for _, label := range labels {
		if strings.EqualFold(cleaned, label) {
			return label
		}
	}
	return FallbackCategory
}

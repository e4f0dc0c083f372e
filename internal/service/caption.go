package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tephenbaay/imagescribeAI/internal/prompts"
	"github.com/go-resty/resty/v2"
)

// Captioner produces a short caption for an image.
type Captioner interface {
	Caption(ctx context.Context, img *PreparedImage) (string, error)
}

// CaptionService captions images with a hosted vision-language model: a
// BLIP-style image-to-text model on the Hugging Face inference API, or an
// OpenAI-compatible chat model that accepts images.
type CaptionService struct {
	client   *resty.Client
	provider string
	model    string
	endpoint string
}

// NewCaptionService creates a caption service.
// Parameters:
//   - cfg: provider, model, credentials and timeout.
//
// Returns:
//   - *CaptionService: initialized client wrapper.
//   - error: ErrUnsupportedProvider for unknown providers.
func NewCaptionService(cfg *ModelConfig) (*CaptionService, error) {
	endpoint, err := modelEndpoint(cfg, "/chat/completions")
	if err != nil {
		return nil, err
	}
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}
	return &CaptionService{
		client:   newModelClient(cfg),
		provider: provider,
		model:    cfg.Model,
		endpoint: endpoint,
	}, nil
}

// GetModel returns the model name being used.
func (s *CaptionService) GetModel() string {
	return s.model
}

// Caption generates a caption for a prepared image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - img: RGB JPEG produced by PrepareImage.
//
// Returns:
//   - string: trimmed caption.
//   - error: non-nil if the API request fails or the caption is empty.
func (s *CaptionService) Caption(ctx context.Context, img *PreparedImage) (string, error) {
	var (
		caption string
		err     error
	)
	if s.provider == ProviderOpenAI {
		caption, err = s.captionWithChat(ctx, img)
	} else {
		caption, err = s.captionWithInference(ctx, img)
	}
	if err != nil {
		return "", err
	}

	caption = strings.TrimSpace(caption)
	if caption == "" {
		return "", ErrEmptyCaption
	}
	return caption, nil
}

func (s *CaptionService) captionWithInference(ctx context.Context, img *PreparedImage) (string, error) {
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "image/jpeg").
		SetBody(img.Data).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call captioning API: %w", err)
	}
	if err := checkHuggingFace("captioning API", httpResp); err != nil {
		return "", err
	}
	return decodeGeneratedText(httpResp.Body())
}

func (s *CaptionService) captionWithChat(ctx context.Context, img *PreparedImage) (string, error) {
	req := openAIChatRequest{
		Model:     s.model,
		Messages:  imageMessages(prompts.CaptionSystemPrompt, prompts.CaptionUserPrompt, img.DataURL()),
		MaxTokens: 50,
	}
	caption, err := chatCompletion(s.client.R().SetContext(ctx).SetHeader("Content-Type", "application/json"), s.endpoint, req)
	if err != nil {
		return "", fmt.Errorf("captioning failed: %w", err)
	}
	return strings.Trim(caption, " \n\"'"), nil
}

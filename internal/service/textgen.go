package service

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// TextGenerator continues a prompt with a language model. The returned text
// starts with the prompt itself, the way GPT-2 pipelines return it.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationParams are the fixed decoding parameters for paragraph expansion.
type GenerationParams struct {
	MaxNewTokens      int
	NoRepeatNgramSize int
	Temperature       float64
	TopP              float64
	TopK              int
}

// DefaultGenerationParams mirrors the sampling setup used for descriptions.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{
		MaxNewTokens:      150,
		NoRepeatNgramSize: 2,
		Temperature:       0.7,
		TopP:              0.95,
		TopK:              50,
	}
}

// TextGenService calls a hosted text-generation model.
type TextGenService struct {
	client   *resty.Client
	provider string
	model    string
	endpoint string
	params   GenerationParams
}

// NewTextGenService creates a text generation service.
func NewTextGenService(cfg *ModelConfig, params GenerationParams) (*TextGenService, error) {
	endpoint, err := modelEndpoint(cfg, "/completions")
	if err != nil {
		return nil, err
	}
	client := newModelClient(cfg)
	client.SetHeader("Content-Type", "application/json")

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderHuggingFace
	}
	return &TextGenService{
		client:   client,
		provider: provider,
		model:    cfg.Model,
		endpoint: endpoint,
		params:   params,
	}, nil
}

// Hugging Face text-generation request structures
type textGenRequest struct {
	Inputs     string            `json:"inputs"`
	Parameters textGenParameters `json:"parameters"`
	Options    textGenOptions    `json:"options"`
}

type textGenParameters struct {
	MaxNewTokens       int     `json:"max_new_tokens"`
	NoRepeatNgramSize  int     `json:"no_repeat_ngram_size,omitempty"`
	Temperature        float64 `json:"temperature"`
	TopP               float64 `json:"top_p"`
	TopK               int     `json:"top_k"`
	DoSample           bool    `json:"do_sample"`
	ReturnFullText     bool    `json:"return_full_text"`
	NumReturnSequences int     `json:"num_return_sequences"`
}

type textGenOptions struct {
	WaitForModel bool `json:"wait_for_model"`
	UseCache     bool `json:"use_cache"`
}

// OpenAI-compatible legacy completion structures
type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

// Generate samples a continuation of prompt.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prompt: text to continue.
//
// Returns:
//   - string: prompt followed by the generated continuation.
//   - error: non-nil if the API request fails.
func (s *TextGenService) Generate(ctx context.Context, prompt string) (string, error) {
	if s.provider == ProviderOpenAI {
		return s.generateWithCompletions(ctx, prompt)
	}
	return s.generateWithInference(ctx, prompt)
}

func (s *TextGenService) generateWithInference(ctx context.Context, prompt string) (string, error) {
	req := textGenRequest{
		Inputs: prompt,
		Parameters: textGenParameters{
			MaxNewTokens:       s.params.MaxNewTokens,
			NoRepeatNgramSize:  s.params.NoRepeatNgramSize,
			Temperature:        s.params.Temperature,
			TopP:               s.params.TopP,
			TopK:               s.params.TopK,
			DoSample:           true,
			ReturnFullText:     true,
			NumReturnSequences: 1,
		},
		// sampled output must not be served from the API cache
		Options: textGenOptions{WaitForModel: true, UseCache: false},
	}

	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call text generation API: %w", err)
	}
	if err := checkHuggingFace("text generation API", httpResp); err != nil {
		return "", err
	}
	return decodeGeneratedText(httpResp.Body())
}

func (s *TextGenService) generateWithCompletions(ctx context.Context, prompt string) (string, error) {
	req := completionRequest{
		Model:       s.model,
		Prompt:      prompt,
		MaxTokens:   s.params.MaxNewTokens,
		Temperature: s.params.Temperature,
		TopP:        s.params.TopP,
	}

	var resp completionResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call completions API: %w", err)
	}
	if !httpResp.IsSuccess() {
		if resp.Error != nil {
			return "", fmt.Errorf("completions API returned error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("completions API returned error: HTTP %d", httpResp.StatusCode())
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completions response")
	}
	return prompt + resp.Choices[0].Text, nil
}

package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"

	defaultHuggingFaceURL = "https://api-inference.huggingface.co"
	defaultOpenAIURL      = "https://api.openai.com/v1"
)

// Sentinel errors shared by the model clients.
var (
	ErrUnsupportedProvider = errors.New("unsupported model provider")
	ErrEmptyCaption        = errors.New("captioning model returned an empty caption")
	ErrEmptyGeneration     = errors.New("language model returned no usable text")
)

// ModelConfig holds the connection settings of one hosted model.
type ModelConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// newModelClient builds a resty client with auth and timeout applied.
func newModelClient(cfg *ModelConfig) *resty.Client {
	client := resty.New()
	if cfg.APIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	}
	client.SetHeader("Accept", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client.SetTimeout(timeout)
	return client
}

// modelEndpoint resolves the URL a provider's requests go to.
func modelEndpoint(cfg *ModelConfig, openAIPath string) (string, error) {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	switch cfg.Provider {
	case ProviderHuggingFace, "":
		if baseURL == "" {
			baseURL = defaultHuggingFaceURL
		}
		return baseURL + "/models/" + cfg.Model, nil
	case ProviderOpenAI:
		if baseURL == "" {
			baseURL = defaultOpenAIURL
		}
		return baseURL + openAIPath, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// huggingFaceError is the body the inference API returns on failure,
// e.g. {"error": "Model gpt2 is currently loading", "estimated_time": 20}.
type huggingFaceError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"`
}

// checkHuggingFace turns a non-2xx inference API response into an error.
func checkHuggingFace(api string, resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	var apiErr huggingFaceError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("%s returned error: HTTP %d: %s", api, resp.StatusCode(), apiErr.Error)
	}
	return fmt.Errorf("%s returned error: HTTP %d: %s", api, resp.StatusCode(), string(resp.Body()))
}

// generatedText is the element type of image-to-text and text-generation
// responses.
type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// decodeGeneratedText reads the first generated_text of an inference
// response. Some deployments answer with a bare object instead of a list.
func decodeGeneratedText(body []byte) (string, error) {
	var list []generatedText
	if err := json.Unmarshal(body, &list); err == nil {
		if len(list) == 0 {
			return "", nil
		}
		return list[0].GeneratedText, nil
	}
	var single generatedText
	if err := json.Unmarshal(body, &single); err != nil {
		return "", fmt.Errorf("failed to decode inference response: %w", err)
	}
	return single.GeneratedText, nil
}

// OpenAI-compatible chat completion structures
type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string for system, []interface{} for user with images
}

type openAITextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIImageContent struct {
	Type     string         `json:"type"`
	ImageURL openAIImageURL `json:"image_url"`
}

type openAIImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *openAIError `json:"error,omitempty"`
}

// chatCompletion posts a chat request and returns the first choice.
func chatCompletion(r *resty.Request, endpoint string, req openAIChatRequest) (string, error) {
	var resp openAIChatResponse
	httpResp, err := r.SetBody(req).SetResult(&resp).SetError(&resp).Post(endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call chat API: %w", err)
	}

	if !httpResp.IsSuccess() {
		errorMsg := fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), string(httpResp.Body()))
		if resp.Error != nil {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return "", fmt.Errorf("chat API returned error: %s", errorMsg)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("chat API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response (status: %d)", httpResp.StatusCode())
	}
	return resp.Choices[0].Message.Content, nil
}

func imageMessages(systemPrompt, userPrompt, dataURL string) []openAIMessage {
	return []openAIMessage{
		{Role: "system", Content: systemPrompt},
		{
			Role: "user",
			Content: []interface{}{
				openAITextContent{Type: "text", Text: userPrompt},
				openAIImageContent{
					Type:     "image_url",
					ImageURL: openAIImageURL{URL: dataURL, Detail: "low"},
				},
			},
		},
	}
}

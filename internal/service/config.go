package service

import "github.com/Tephenbaay/imagescribeAI/internal/config"

// ModelConfigFrom converts a model section of the app config.
func ModelConfigFrom(m config.ModelConfig) *ModelConfig {
	return &ModelConfig{
		Provider: m.Provider,
		Model:    m.Model,
		APIKey:   m.APIKey,
		BaseURL:  m.BaseURL,
		Timeout:  m.Timeout(),
	}
}

// GenerationParamsFrom overlays configured decoding parameters on the
// defaults. Zero values keep the default.
func GenerationParamsFrom(cfg *config.TextGenConfig) GenerationParams {
	params := DefaultGenerationParams()
	if cfg.MaxNewTokens > 0 {
		params.MaxNewTokens = cfg.MaxNewTokens
	}
	if cfg.NoRepeatNgramSize > 0 {
		params.NoRepeatNgramSize = cfg.NoRepeatNgramSize
	}
	if cfg.Temperature > 0 {
		params.Temperature = cfg.Temperature
	}
	if cfg.TopP > 0 {
		params.TopP = cfg.TopP
	}
	if cfg.TopK > 0 {
		params.TopK = cfg.TopK
	}
	return params
}

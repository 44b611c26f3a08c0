package llms

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ErrEmptyResponse is returned when the model answers without any text,
// e.g. when the prompt was blocked.
var ErrEmptyResponse = errors.New("empty model response")

type CompletionModel interface {
	Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error)
}

func NewCompletionModel(ctx context.Context, config *Config, logger *zerolog.Logger) (CompletionModel, error) {
	httpClient := lib.NewRetryingHTTPClient(logger, config.Timeout, lib.NewUsageTracker(logger))

	switch config.Provider {
	case ProviderGemini:
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires GEMINI_API_KEY")
		}
		model, err := NewGeminiModel(ctx, config.GeminiAPIKey, config.GeminiBaseURL, config.Model, httpClient)
		if err != nil {
			return nil, fmt.Errorf("create gemini model: %w", err)
		}
		return model, nil
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithModel(config.Model),
			openai.WithHTTPClient(httpClient),
		}
		if config.OpenAIAPIKey != "" {
			opts = append(opts, openai.WithToken(config.OpenAIAPIKey))
		}
		openaiModel, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("create OpenAI model: %w", err)
		}
		return openaiModel, nil
	case ProviderOllama:
		return NewOllamaModel(config.OllamaBaseURL, config.Model, httpClient, config.OllamaContextSize), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}

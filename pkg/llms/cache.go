package llms

import (
	"context"
	"fmt"

	"github.com/Vichigato-yt/pocketmortysprueba/pkg/lib"
	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

// CachedCompletionModel memoizes completions by prompt.
// Asking for the same character twice does not hit the provider again.
type CachedCompletionModel struct {
	model   CompletionModel
	modelID string
	cache   *lib.Cache[string]
}

func NewCachedCompletionModel(model CompletionModel, modelID string, cache *lib.Cache[string]) *CachedCompletionModel {
	return &CachedCompletionModel{
		model:   model,
		modelID: modelID,
		cache:   cache,
	}
}

func (cm *CachedCompletionModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return cm.cache.GetOrLoad(cm.cacheKey(prompt), func() (string, error) {
		return cm.model.Call(ctx, prompt, options...)
	})
}

func (cm *CachedCompletionModel) cacheKey(prompt string) string {
	return fmt.Sprintf("completion:%s", lib.HashParams(cm.modelID, prompt))
}

// NewCachedModelFromConfig builds the configured completion model behind a
// prompt cache that lives for config.CacheTTL.
func NewCachedModelFromConfig(ctx context.Context, config *Config, logger *zerolog.Logger) (*CachedCompletionModel, error) {
	model, err := NewCompletionModel(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	cache := lib.NewCache[string](config.CacheTTL, logger)
	return NewCachedCompletionModel(model, fmt.Sprintf("%s/%s", config.Provider, config.Model), cache), nil
}

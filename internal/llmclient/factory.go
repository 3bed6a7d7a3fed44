// File: internal/llmclient/factory.go
package llmclient

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
)

// NewClient creates a single LLMClient for one model entry.
func NewClient(cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI, config.ProviderOpenRouter, config.ProviderOllama:
		return NewOpenAIClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider configured: %q. Supported: [%s %s %s]",
			cfg.Provider, config.ProviderOpenAI, config.ProviderOpenRouter, config.ProviderOllama)
	}
}

// NewRouterFromConfig builds the tiered router from the llm config section:
// one client for the default fast model, one for the default powerful model.
// The two tiers may name the same model entry, in which case the client is
// shared.
func NewRouterFromConfig(cfg config.LLMRouterConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	fastCfg, ok := cfg.Models[cfg.DefaultFastModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry %q for the fast tier", cfg.DefaultFastModel)
	}
	powerfulCfg, ok := cfg.Models[cfg.DefaultPowerfulModel]
	if !ok {
		return nil, fmt.Errorf("llm.models has no entry %q for the powerful tier", cfg.DefaultPowerfulModel)
	}

	fastClient, err := NewClient(fastCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("building fast tier client: %w", err)
	}

	powerfulClient := fastClient
	if cfg.DefaultPowerfulModel != cfg.DefaultFastModel {
		powerfulClient, err = NewClient(powerfulCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("building powerful tier client: %w", err)
		}
	}

	return NewRouter(logger, fastClient, powerfulClient)
}

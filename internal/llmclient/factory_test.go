package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelasco-eng/ariadne/api/schemas"
	"github.com/avelasco-eng/ariadne/internal/config"
)

// -- Test Cases: Factory Initialization --

// Verifies that the factory correctly builds the Router by looking up model
// configurations from the map.
func TestNewRouterFromConfig_Success(t *testing.T) {
	logger := setupTestLogger(t)

	fastConfig := getValidLLMConfig()
	fastConfig.Model = "gpt-4o-mini"
	fastConfig.APIKey = "key-fast"

	powerfulConfig := getValidLLMConfig()
	powerfulConfig.Model = "gpt-4o"
	powerfulConfig.APIKey = "key-powerful"

	const fastName = "FastAlias"
	const powerfulName = "PowerfulAlias"

	cfg := config.LLMRouterConfig{
		DefaultFastModel:     fastName,
		DefaultPowerfulModel: powerfulName,
		Models: map[string]config.LLMModelConfig{
			fastName:     fastConfig,
			powerfulName: powerfulConfig,
		},
	}

	client, err := NewRouterFromConfig(cfg, logger)
	require.NoError(t, err, "NewRouterFromConfig should succeed for a valid configuration")
	require.NotNil(t, client)
	t.Cleanup(func() { client.Close() })

	router, ok := client.(*Router)
	require.True(t, ok, "The created client should be of type *Router")

	// White box: verify the underlying clients were created and configured.
	fastClient, okFast := router.clients[schemas.TierFast].(*OpenAIClient)
	require.True(t, okFast, "Fast client should be an instance of *OpenAIClient")
	assert.Equal(t, "gpt-4o-mini", fastClient.config.Model)
	assert.Equal(t, "key-fast", fastClient.config.APIKey)

	powerfulClient, okPowerful := router.clients[schemas.TierPowerful].(*OpenAIClient)
	require.True(t, okPowerful, "Powerful client should be an instance of *OpenAIClient")
	assert.Equal(t, "gpt-4o", powerfulClient.config.Model)
	assert.NotSame(t, fastClient, powerfulClient)
}

// Verifies both tiers share one client when they name the same model entry.
func TestNewRouterFromConfig_SharedClient(t *testing.T) {
	logger := setupTestLogger(t)
	cfg := config.LLMRouterConfig{
		DefaultFastModel:     "only",
		DefaultPowerfulModel: "only",
		Models: map[string]config.LLMModelConfig{
			"only": getValidLLMConfig(),
		},
	}

	client, err := NewRouterFromConfig(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	router := client.(*Router)
	assert.Same(t, router.clients[schemas.TierFast], router.clients[schemas.TierPowerful])
}

// Verifies the robustness checks against missing entries in the models map.
func TestNewRouterFromConfig_Failure_MissingConfiguration(t *testing.T) {
	logger := setupTestLogger(t)
	validConfig := getValidLLMConfig()
	const validName = "ValidModel"

	tests := []struct {
		name          string
		routerConfig  config.LLMRouterConfig
		expectedError string
	}{
		{
			name: "Fast Model Not Found in Map",
			routerConfig: config.LLMRouterConfig{
				DefaultFastModel:     "MissingModel",
				DefaultPowerfulModel: validName,
				Models:               map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: `llm.models has no entry "MissingModel" for the fast tier`,
		},
		{
			name: "Powerful Model Not Found in Map",
			routerConfig: config.LLMRouterConfig{
				DefaultFastModel:     validName,
				DefaultPowerfulModel: "MissingModel",
				Models:               map[string]config.LLMModelConfig{validName: validConfig},
			},
			expectedError: `llm.models has no entry "MissingModel" for the powerful tier`,
		},
		{
			name:          "Empty Router Config",
			routerConfig:  config.LLMRouterConfig{},
			expectedError: "for the fast tier",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewRouterFromConfig(tt.routerConfig, logger)
			assert.Error(t, err)
			assert.Nil(t, client)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

// Verifies NewClient rejects unknown providers and missing keys.
func TestNewClient_Validation(t *testing.T) {
	logger := setupTestLogger(t)

	unknown := getValidLLMConfig()
	unknown.Provider = "mystery"
	_, err := NewClient(unknown, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown or unsupported LLM provider")

	missingKey := getValidLLMConfig()
	missingKey.APIKey = ""
	_, err = NewClient(missingKey, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	// Ollama runs locally and needs no key.
	ollama := getValidLLMConfig()
	ollama.Provider = config.ProviderOllama
	ollama.APIKey = ""
	client, err := NewClient(ollama, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
}

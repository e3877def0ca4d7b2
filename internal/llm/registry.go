package llm

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// ProviderFactory creates providers.
type ProviderFactory func(cfg ProviderConfig) (Provider, error)

// DefaultModels maps provider names to their default models.
var DefaultModels = map[string]string{
	"openai":     "gpt-4o",
	"anthropic":  "claude-sonnet-4-20250514",
	"openrouter": "openai/gpt-4o-mini",
}

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{}
)

// RegisterProvider adds a provider factory; typically called from init.
func RegisterProvider(name string, factory ProviderFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// NewProvider creates a provider by name.
func NewProvider(name string, cfg ProviderConfig) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s (available: %s)",
			name, strings.Join(AvailableProviders(), ", "))
	}
	return factory(cfg)
}

// AvailableProviders returns the sorted list of registered providers.
func AvailableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}

// DetectProvider picks a provider based on available API keys.
// Priority: OPENAI_API_KEY > ANTHROPIC_API_KEY > OPENROUTER_API_KEY.
func DetectProvider() (provider string, apiKey string) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return "openai", key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return "anthropic", key
	}
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		return "openrouter", key
	}
	return "", ""
}

// GetDefaultModel returns the default model for a provider.
func GetDefaultModel(provider string) string {
	return DefaultModels[provider]
}

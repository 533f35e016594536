package ai

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrUnknownProvider is returned for provider names with no registered factory.
var ErrUnknownProvider = errors.New("unknown provider")

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	// APIKey authenticates keyed providers (OpenAI, OpenRouter).
	APIKey string
	// BaseURL overrides the provider endpoint, e.g. for proxies or tests.
	BaseURL string
	// Host is the Ollama server address.
	Host string
}

const (
	openRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaHost = "http://127.0.0.1:11434"
)

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[name] = f }

// NewRuntime creates a Runtime for the given provider if registered.
func NewRuntime(name string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownProvider, name, strings.Join(Providers(), ", "))
	}
	return f(cfg)
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// init registers built-in runtimes.
func init() {
	RegisterRuntime(ProviderOpenAI, func(c RuntimeConfig) (Runtime, error) {
		return NewClient(ProviderOpenAI, c)
	})
	RegisterRuntime(ProviderOpenRouter, func(c RuntimeConfig) (Runtime, error) {
		if c.BaseURL == "" {
			c.BaseURL = openRouterBaseURL
		}
		return NewClient(ProviderOpenRouter, c)
	})
	RegisterRuntime(ProviderOllama, func(c RuntimeConfig) (Runtime, error) {
		if c.BaseURL == "" {
			host := strings.TrimRight(c.Host, "/")
			if host == "" {
				host = defaultOllamaHost
			}
			c.BaseURL = host + "/v1"
		}
		return NewClient(ProviderOllama, c)
	})
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/KaramelBytes/datasage-cli/internal/ai"
	cfgpkg "github.com/KaramelBytes/datasage-cli/internal/config"
	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/utils"
	"github.com/KaramelBytes/datasage-cli/internal/ux"
)

// runtimeOptions are the per-command overrides for prose generation.
type runtimeOptions struct {
	Mode     string
	Provider string
	Model    string
}

func (o *runtimeOptions) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.Mode, "mode", "", "AI mode: auto | mock | live (default from config ai_mode)")
	fs.StringVar(&o.Provider, "provider", "", "provider: openai | openrouter | ollama (default from config)")
	fs.StringVar(&o.Model, "model", "", "model name (default: provider default)")
}

// apiKeyEnv maps keyed providers to the conventional environment variable.
var apiKeyEnv = map[string]string{
	ai.ProviderOpenAI:     "OPENAI_API_KEY",
	ai.ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// buildNarrator resolves mode, provider, credential and model. A missing
// credential is not an error; the narrator then falls back to canned text.
func buildNarrator(cfg *cfgpkg.Global, opts runtimeOptions, logger *slog.Logger) (*insight.Narrator, error) {
	if cfg == nil {
		cfg = cfgpkg.Default()
	}
	modeName := opts.Mode
	if modeName == "" {
		modeName = cfg.AIMode
	}
	mode, err := insight.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	narrOpts := insight.Options{Mode: mode, Logger: logger, PromptTokenLimit: cfg.PromptTokenLimit}
	if mode == insight.ModeMock {
		return insight.NewNarrator(narrOpts), nil
	}

	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = cfg.Provider
	}
	if provider == "" {
		provider = ai.ProviderOpenAI
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		if env, ok := apiKeyEnv[provider]; ok {
			apiKey = os.Getenv(env)
		}
	}
	httpTimeout := 60 * time.Second
	if cfg.HTTPTimeoutSec > 0 {
		httpTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
	}

	rt, err := ai.NewRuntime(provider, ai.RuntimeConfig{
		HTTPTimeout: httpTimeout,
		APIKey:      apiKey,
		Host:        cfg.OllamaHost,
	})
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		logger.Debug("no credential configured", "provider", provider)
		return insight.NewNarrator(narrOpts), nil
	case err != nil:
		return nil, err
	}

	model := selectModel(cfg, provider, opts.Model)
	narrOpts.PromptTokenLimit = ai.PromptBudget(model, cfg.PromptTokenLimit, cfg.InsightsMaxTokens)
	narrOpts.Live = insight.NewLiveGenerator(rt, insight.LiveConfig{
		Model:             model,
		InsightsMaxTokens: cfg.InsightsMaxTokens,
		ExplainMaxTokens:  cfg.ExplainMaxTokens,
		Temperature:       cfg.Temperature,
	})
	logger.Debug("live generation configured", "provider", provider, "model", model)
	return insight.NewNarrator(narrOpts), nil
}

func selectModel(cfg *cfgpkg.Global, provider, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if cfg != nil && cfg.Model != "" {
		return cfg.Model
	}
	return ai.DefaultModel(provider)
}

// writeJSON saves v as indented JSON and reports the path on w.
func writeJSON(w io.Writer, path string, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	ux.Success(w, "Saved output to %s", path)
	return nil
}

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(b))
	return nil
}

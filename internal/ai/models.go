package ai

// ModelInfo carries metadata used to size prompts.
type ModelInfo struct {
	Name          string
	ContextTokens int // approximate context window
}

var models = map[string]ModelInfo{
	"gpt-3.5-turbo":        {Name: "gpt-3.5-turbo", ContextTokens: 16385},
	"gpt-4o-mini":          {Name: "gpt-4o-mini", ContextTokens: 128000},
	"gpt-4o":               {Name: "gpt-4o", ContextTokens: 128000},
	"openai/gpt-3.5-turbo": {Name: "openai/gpt-3.5-turbo", ContextTokens: 16385},
	"openai/gpt-4o-mini":   {Name: "openai/gpt-4o-mini", ContextTokens: 128000},
	"llama3.1:8b":          {Name: "llama3.1:8b", ContextTokens: 131072},
	"llama3.2:3b":          {Name: "llama3.2:3b", ContextTokens: 131072},
}

var defaultModels = map[string]string{
	ProviderOpenAI:     "gpt-3.5-turbo",
	ProviderOpenRouter: "openai/gpt-3.5-turbo",
	ProviderOllama:     "llama3.1:8b",
}

// DefaultModel returns the model used when none is configured for provider.
func DefaultModel(provider string) string {
	if m, ok := defaultModels[provider]; ok {
		return m
	}
	return defaultModels[ProviderOpenAI]
}

// LookupModel returns metadata for a known model.
func LookupModel(name string) (ModelInfo, bool) {
	m, ok := models[name]
	return m, ok
}

// PromptBudget caps limit so that the prompt plus maxTokens of completion fit
// the model's context window. Unknown models keep limit unchanged.
func PromptBudget(model string, limit, maxTokens int) int {
	m, ok := models[model]
	if !ok || m.ContextTokens <= 0 {
		return limit
	}
	room := m.ContextTokens - maxTokens
	if room <= 0 {
		return limit
	}
	if limit <= 0 || limit > room {
		return room
	}
	return limit
}

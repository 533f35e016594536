package insight

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/ai"
)

// Task names the kind of prose a Prompt asks for.
type Task string

const (
	TaskInsights Task = "insights"
	TaskExplain  Task = "explanation"
)

// Prompt is the input to a Generator.
type Prompt struct {
	Task Task
	// DatasetName and Columns feed the canned insights text.
	DatasetName string
	Columns     int
	// Content is the summary rendering for insights, or the insights text for
	// an explanation.
	Content string
}

// Generator produces prose for a prompt.
type Generator interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

const analystPrompt = "You are a data analyst."

// LiveConfig tunes the chat requests a LiveGenerator sends.
type LiveConfig struct {
	Model             string
	InsightsMaxTokens int
	ExplainMaxTokens  int
	Temperature       float64
}

// LiveGenerator sends prompts to a language model through an ai.Runtime.
type LiveGenerator struct {
	rt  ai.Runtime
	cfg LiveConfig
}

// NewLiveGenerator wraps rt. Zero token limits fall back to 400 for insights
// and 300 for explanations.
func NewLiveGenerator(rt ai.Runtime, cfg LiveConfig) *LiveGenerator {
	if cfg.InsightsMaxTokens <= 0 {
		cfg.InsightsMaxTokens = 400
	}
	if cfg.ExplainMaxTokens <= 0 {
		cfg.ExplainMaxTokens = 300
	}
	return &LiveGenerator{rt: rt, cfg: cfg}
}

// Generate performs exactly one chat completion request.
func (g *LiveGenerator) Generate(ctx context.Context, p Prompt) (string, error) {
	req := ai.GenerateRequest{Model: g.cfg.Model, Temperature: g.cfg.Temperature}
	switch p.Task {
	case TaskInsights:
		req.MaxTokens = g.cfg.InsightsMaxTokens
		req.Messages = []ai.Message{
			{Role: ai.RoleSystem, Content: analystPrompt},
			{Role: ai.RoleUser, Content: p.Content},
		}
	case TaskExplain:
		req.MaxTokens = g.cfg.ExplainMaxTokens
		req.Messages = []ai.Message{{Role: ai.RoleUser, Content: p.Content}}
	default:
		return "", fmt.Errorf("unknown task %q", p.Task)
	}
	resp, err := g.rt.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}

// CannedGenerator returns fixed text and never fails.
type CannedGenerator struct{}

func (CannedGenerator) Generate(_ context.Context, p Prompt) (string, error) {
	if p.Task == TaskExplain {
		return cannedExplanation, nil
	}
	return CannedInsights(p.DatasetName, p.Columns), nil
}

// CannedInsights is the fallback insights text for a dataset.
func CannedInsights(name string, columns int) string {
	if name == "" {
		name = "dataset"
	}
	return fmt.Sprintf(`1. The dataset '%s' contains %d columns.
2. Some columns have missing values, which may affect analysis accuracy.
3. Numerical columns show variation, indicating diverse data patterns.
4. Data cleaning and feature selection would improve model readiness.
5. The dataset is suitable for exploratory and predictive analysis.`, name, columns)
}

const cannedExplanation = `This dataset has multiple columns with different types of data.
Some values are missing, so cleaning is needed before analysis.
Overall, the data shows useful patterns and can support decision-making.`

package ux

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/strategy"
)

func TestRenderReport(t *testing.T) {
	target := "churn"
	r := &strategy.Report{
		Shape:              strategy.Shape{Rows: 4, Columns: 3},
		NumericColumns:     []string{"age", "churn"},
		CategoricalColumns: []string{"city"},
		DatetimeColumns:    []string{},
		TargetGuess:        &target,
		ProblemType:        strategy.ProblemClassification,
		RecommendedModels:  []string{"Logistic Regression", "Random Forest"},
		EDARecommendations: []string{"Check class balance of 'churn'"},
		ConfirmedTarget:    "age",
	}
	var buf bytes.Buffer
	RenderReport(&buf, "ML Strategy", r)
	out := buf.String()

	assert.Contains(t, out, "=== ML Strategy ===")
	assert.Contains(t, out, "4 rows × 3 columns")
	assert.Contains(t, out, "age, churn")
	assert.Contains(t, out, "(none)")
	assert.Contains(t, out, "Classification")
	assert.Contains(t, out, "Confirmed target")
	assert.Contains(t, out, "• Check class balance of 'churn'")
}

func TestRenderNarration(t *testing.T) {
	var buf bytes.Buffer
	RenderNarration(&buf, "AI Insights", insight.Narration{Text: "\nsome text\n", Source: insight.SourceLive})
	assert.Contains(t, buf.String(), "some text")
	assert.NotContains(t, buf.String(), "canned")

	buf.Reset()
	RenderNarration(&buf, "AI Insights", insight.Narration{Text: "x", Source: insight.SourceCanned, Fallback: errors.New("quota exceeded")})
	assert.Contains(t, buf.String(), "(canned text: quota exceeded)")
}

func TestStatusLines(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "Saved %s", "out.json")
	Warn(&buf, "processed %d rows", 9)
	Error(&buf, errors.New("boom"))
	out := buf.String()
	assert.Contains(t, out, "✓ Saved out.json")
	assert.Contains(t, out, "⚠ Warning: processed 9 rows")
	assert.Contains(t, out, "✗ Error: boom")
}

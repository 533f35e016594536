// Package ux renders datasage results for the terminal.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/strategy"
)

var (
	colorAccent  = lipgloss.Color("#2CD7C7")
	colorPrimary = lipgloss.Color("#20B9B4")
	colorBorder  = lipgloss.Color("#16858E")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#5C7A84")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle   = lipgloss.NewStyle().Foreground(colorPrimary).Width(22)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	errStyle     = lipgloss.NewStyle().Foreground(colorError)
	okStyle      = lipgloss.NewStyle().Foreground(colorAccent)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorBorder).Padding(0, 1)
	problemStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
)

// Success prints a "✓ msg" status line.
func Success(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, okStyle.Render("✓"), fmt.Sprintf(format, a...))
}

// Warn prints a "⚠ Warning: msg" status line.
func Warn(w io.Writer, format string, a ...any) {
	fmt.Fprintln(w, warnStyle.Render("⚠ Warning:"), fmt.Sprintf(format, a...))
}

// Error prints a "✗ Error: msg" status line.
func Error(w io.Writer, err error) {
	fmt.Fprintln(w, errStyle.Render("✗ Error:"), err)
}

// Heading renders a section title.
func Heading(w io.Writer, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render("=== "+title+" ==="))
}

func list(items []string) string {
	if len(items) == 0 {
		return mutedStyle.Render("(none)")
	}
	return strings.Join(items, ", ")
}

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

// RenderReport writes a boxed, human-readable strategy report.
func RenderReport(w io.Writer, title string, r *strategy.Report) {
	target := mutedStyle.Render("(none)")
	if r.TargetGuess != nil {
		target = *r.TargetGuess
	}
	rows := []string{
		row("Shape", fmt.Sprintf("%d rows × %d columns", r.Shape.Rows, r.Shape.Columns)),
		row("Numeric columns", list(r.NumericColumns)),
		row("Categorical columns", list(r.CategoricalColumns)),
		row("Datetime columns", list(r.DatetimeColumns)),
		row("Target guess", target),
	}
	if r.ConfirmedTarget != "" {
		rows = append(rows, row("Confirmed target", r.ConfirmedTarget))
	}
	rows = append(rows,
		row("Problem type", problemStyle.Render(string(r.ProblemType))),
		row("Recommended models", list(r.RecommendedModels)),
	)
	if len(r.EDARecommendations) > 0 {
		rows = append(rows, "", titleStyle.Render("EDA recommendations"))
		for _, s := range r.EDARecommendations {
			rows = append(rows, "• "+s)
		}
	}
	Heading(w, title)
	fmt.Fprintln(w, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...)))
}

// RenderNarration writes generated prose under a heading and notes canned output.
func RenderNarration(w io.Writer, title string, n insight.Narration) {
	Heading(w, title)
	fmt.Fprintln(w, strings.TrimSpace(n.Text))
	switch {
	case n.Fallback != nil:
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("(canned text: %v)", n.Fallback)))
	case n.Source == insight.SourceCanned:
		fmt.Fprintln(w, mutedStyle.Render("(canned text)"))
	}
}

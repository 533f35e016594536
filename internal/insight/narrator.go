package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/datasage-cli/internal/analysis"
	"github.com/KaramelBytes/datasage-cli/internal/utils"
)

// Mode selects between live and canned prose.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeMock Mode = "mock"
	ModeLive Mode = "live"
)

var (
	// ErrNoCredential is recorded when live mode is requested without a configured model.
	ErrNoCredential = errors.New("no language-model credential configured")
	ErrUnknownMode  = errors.New("unknown ai mode")
)

// ParseMode accepts auto, mock or live (case-insensitive). Empty means auto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeMock, ModeLive:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (use auto|mock|live)", ErrUnknownMode, s)
}

// Source tells where a narration's text came from.
type Source string

const (
	SourceLive   Source = "live"
	SourceCanned Source = "canned"
)

// Narration is generated prose plus its provenance.
type Narration struct {
	Text   string
	Source Source
	// Fallback holds the reason live generation was skipped or failed.
	Fallback error
}

// FellBack reports whether canned text replaced an attempted or requested live call.
func (n Narration) FellBack() bool { return n.Fallback != nil }

func (n Narration) MarshalJSON() ([]byte, error) {
	out := struct {
		Text     string `json:"text"`
		Source   Source `json:"source"`
		Fallback string `json:"fallback,omitempty"`
	}{Text: n.Text, Source: n.Source}
	if n.Fallback != nil {
		out.Fallback = n.Fallback.Error()
	}
	return json.Marshal(out)
}

// Options configures a Narrator.
type Options struct {
	Mode Mode
	// Live is nil when no credential is configured.
	Live   Generator
	Logger *slog.Logger
	// PromptTokenLimit caps the summary sent for insights; 0 means 3000.
	PromptTokenLimit int
}

// Narrator turns summaries into insights and insights into plain English.
// Its methods never fail: any live problem degrades to canned text.
type Narrator struct {
	mode       Mode
	live       Generator
	canned     Generator
	logger     *slog.Logger
	tokenLimit int
}

func NewNarrator(opt Options) *Narrator {
	if opt.Mode == "" {
		opt.Mode = ModeAuto
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.PromptTokenLimit <= 0 {
		opt.PromptTokenLimit = 3000
	}
	return &Narrator{
		mode:       opt.Mode,
		live:       opt.Live,
		canned:     CannedGenerator{},
		logger:     opt.Logger,
		tokenLimit: opt.PromptTokenLimit,
	}
}

// Mode returns the configured mode.
func (n *Narrator) Mode() Mode { return n.mode }

// Insights generates analyst insights for a dataset summary.
func (n *Narrator) Insights(ctx context.Context, s *analysis.Summary) Narration {
	p := Prompt{Task: TaskInsights}
	if s != nil {
		p.DatasetName = s.Name
		p.Columns = len(s.Columns)
		p.Content = utils.TruncateToTokenLimit(s.Markdown(), n.tokenLimit)
	}
	return n.narrate(ctx, p)
}

// Explain rewrites insights in plain English.
func (n *Narrator) Explain(ctx context.Context, insights string) Narration {
	return n.narrate(ctx, Prompt{Task: TaskExplain, Content: insights})
}

func (n *Narrator) narrate(ctx context.Context, p Prompt) Narration {
	switch {
	case n.mode == ModeMock:
		return n.cannedText(ctx, p, nil)
	case n.live == nil && n.mode == ModeLive:
		n.logger.Warn("live generation requested without credential; using canned text", "task", p.Task)
		return n.cannedText(ctx, p, ErrNoCredential)
	case n.live == nil:
		return n.cannedText(ctx, p, nil)
	}

	text, err := n.live.Generate(ctx, p)
	if err != nil {
		n.logger.Warn("live generation failed; using canned text", "task", p.Task, "error", err)
		return n.cannedText(ctx, p, err)
	}
	n.logger.Debug("live generation succeeded", "task", p.Task, "chars", len(text))
	return Narration{Text: text, Source: SourceLive}
}

func (n *Narrator) cannedText(ctx context.Context, p Prompt, reason error) Narration {
	text, _ := n.canned.Generate(ctx, p)
	return Narration{Text: text, Source: SourceCanned, Fallback: reason}
}

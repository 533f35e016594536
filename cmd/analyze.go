package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasage-cli/internal/analysis"
	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/strategy"
	"github.com/KaramelBytes/datasage-cli/internal/ux"
)

var (
	anaFlags        datasetFlags
	anaRuntime      runtimeOptions
	anaTarget       string
	anaInteractive  bool
	anaSkipInsights bool
	anaJSON         bool
	anaOutputPath   string
)

type analyzeResult struct {
	Summary     *analysis.Summary  `json:"summary"`
	Strategy    *strategy.Report   `json:"strategy"`
	Confirmed   *strategy.Report   `json:"strategy_confirmed"`
	Insights    *insight.Narration `json:"insights,omitempty"`
	Explanation *insight.Narration `json:"explanation,omitempty"`
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>",
	Short: "Run the full pipeline: summary, strategy, target confirmation, insights",
	Long: `Analyze loads a table and runs every stage in order: the data summary, the
auto-detected ML strategy, target confirmation (--target, --interactive, or the
guessed target), the strategy annotated with the confirmed target, then AI
insights and a plain-English explanation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := anaFlags.load(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		errOut := cmd.ErrOrStderr()

		// A dataset without rows still gets a strategy report.
		s, err := analysis.Summarize(ds.Name, ds, analysis.DefaultOptions())
		switch {
		case errors.Is(err, analysis.ErrEmptyDataset):
			ux.Warn(errOut, "summary unavailable: %v", err)
		case err != nil:
			return err
		}
		res := analyzeResult{Summary: s, Strategy: strategy.Recommend(ds)}

		target, err := chooseTarget(ds, res.Strategy, anaTarget, anaInteractive)
		if err != nil {
			return err
		}
		if target == "" {
			target = defaultTarget(ds, res.Strategy)
		}
		if res.Confirmed, err = strategy.ConfirmTarget(ds, strategy.Recommend(ds), target); err != nil {
			return err
		}

		if !anaSkipInsights && s != nil {
			narr, err := buildNarrator(cfg, anaRuntime, slog.Default())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			ins := narr.Insights(ctx, s)
			exp := narr.Explain(ctx, ins.Text)
			res.Insights, res.Explanation = &ins, &exp
		}

		if s != nil {
			for _, w := range s.Warnings {
				ux.Warn(errOut, "%s", w)
			}
		}
		if anaJSON {
			if err := printJSON(out, res); err != nil {
				return err
			}
		} else {
			if s != nil {
				ux.Heading(out, "Dataset Summary")
				fmt.Fprint(out, s.Markdown())
			}
			ux.RenderReport(out, "ML Strategy Recommendation (Auto-detected)", res.Strategy)
			ux.Success(out, "Selected target variable: %s", target)
			ux.RenderReport(out, "ML Strategy (After Target Confirmation)", res.Confirmed)
			if res.Insights != nil {
				ux.RenderNarration(out, "AI Insights", *res.Insights)
				ux.RenderNarration(out, "Plain-English Explanation", *res.Explanation)
			}
		}
		if anaOutputPath != "" {
			return writeJSON(errOut, anaOutputPath, res)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaFlags.register(analyzeCmd.Flags())
	anaRuntime.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVar(&anaTarget, "target", "", "confirm this column as the target variable")
	analyzeCmd.Flags().BoolVarP(&anaInteractive, "interactive", "i", false, "pick the target column from a prompt")
	analyzeCmd.Flags().BoolVar(&anaSkipInsights, "skip-insights", false, "skip AI insights and explanation")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "print all results as JSON")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "write all results as JSON to this file")
}

package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasage-cli/internal/analysis"
	"github.com/KaramelBytes/datasage-cli/internal/insight"
	"github.com/KaramelBytes/datasage-cli/internal/ux"
)

var (
	insFlags     datasetFlags
	insRuntime   runtimeOptions
	insNoExplain bool
	insJSON      bool
)

type insightsResult struct {
	Insights    insight.Narration  `json:"insights"`
	Explanation *insight.Narration `json:"explanation,omitempty"`
}

var insightsCmd = &cobra.Command{
	Use:   "insights <file>",
	Short: "Generate analyst insights and a plain-English explanation for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := insFlags.load(args[0])
		if err != nil {
			return err
		}
		s, err := analysis.Summarize(ds.Name, ds, analysis.DefaultOptions())
		if err != nil {
			return err
		}
		narr, err := buildNarrator(cfg, insRuntime, slog.Default())
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		res := insightsResult{Insights: narr.Insights(ctx, s)}
		if !insNoExplain {
			exp := narr.Explain(ctx, res.Insights.Text)
			res.Explanation = &exp
		}

		out := cmd.OutOrStdout()
		if insJSON {
			return printJSON(out, res)
		}
		ux.RenderNarration(out, "AI Insights", res.Insights)
		if res.Explanation != nil {
			ux.RenderNarration(out, "Plain-English Explanation", *res.Explanation)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(insightsCmd)
	insFlags.register(insightsCmd.Flags())
	insRuntime.register(insightsCmd.Flags())
	insightsCmd.Flags().BoolVar(&insNoExplain, "no-explain", false, "skip the plain-English explanation")
	insightsCmd.Flags().BoolVar(&insJSON, "json", false, "print the narrations as JSON")
}

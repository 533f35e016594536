package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasage-cli/internal/analysis"
	"github.com/KaramelBytes/datasage-cli/internal/utils"
	"github.com/KaramelBytes/datasage-cli/internal/ux"
)

var (
	sumFlags      datasetFlags
	sumJSON       bool
	sumOutputPath string
	sumNoCorr     bool
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Summarize a CSV/TSV/XLSX table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := sumFlags.load(args[0])
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.Correlations = !sumNoCorr
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		s, err := analysis.Summarize(ds.Name, ds, opt)
		if err != nil {
			return err
		}
		for _, w := range s.Warnings {
			ux.Warn(cmd.ErrOrStderr(), "%s", w)
		}

		out := cmd.OutOrStdout()
		if sumJSON {
			if err := printJSON(out, s); err != nil {
				return err
			}
		} else {
			fmt.Fprint(out, s.Markdown())
		}
		if sumOutputPath == "" {
			return nil
		}
		if sumJSON {
			return writeJSON(cmd.ErrOrStderr(), sumOutputPath, s)
		}
		if err := utils.SafeWriteFile(sumOutputPath, []byte(s.Markdown())); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		ux.Success(cmd.ErrOrStderr(), "Saved output to %s", sumOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumFlags.register(summaryCmd.Flags())
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print the summary as JSON")
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "also write the summary to this file")
	summaryCmd.Flags().BoolVar(&sumNoCorr, "no-corr", false, "skip numeric correlations")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 0, "robust z-score threshold for outliers (default 3.5)")
}

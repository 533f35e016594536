package cmd

import (
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datasage-cli/internal/dataset"
	"github.com/KaramelBytes/datasage-cli/internal/strategy"
	"github.com/KaramelBytes/datasage-cli/internal/ux"
)

var (
	stratFlags       datasetFlags
	stratTarget      string
	stratInteractive bool
	stratJSON        bool
	stratOutputPath  string
)

// promptTarget asks the user to pick a target column. Tests replace it.
var promptTarget = func(names []string, def string) (string, error) {
	selected := def
	err := huh.NewSelect[string]().
		Title("Select / Confirm the target column").
		Options(huh.NewOptions(names...)...).
		Value(&selected).
		Run()
	return selected, err
}

// defaultTarget is the guessed target when it names a column, else the first column.
func defaultTarget(ds *dataset.Dataset, r *strategy.Report) string {
	if g := r.Target(); g != "" {
		if _, ok := ds.Column(g); ok {
			return g
		}
	}
	if names := ds.Names(); len(names) > 0 {
		return names[0]
	}
	return ""
}

// chooseTarget returns the explicit target, or asks for one when interactive.
// It returns "" when neither applies.
func chooseTarget(ds *dataset.Dataset, r *strategy.Report, explicit string, interactive bool) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if interactive && ds.Cols() > 0 {
		return promptTarget(ds.Names(), defaultTarget(ds, r))
	}
	return "", nil
}

var strategyCmd = &cobra.Command{
	Use:   "strategy <file>",
	Short: "Recommend an ML problem type, models and EDA steps for a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := stratFlags.load(args[0])
		if err != nil {
			return err
		}
		report := strategy.Recommend(ds)
		target, err := chooseTarget(ds, report, stratTarget, stratInteractive)
		if err != nil {
			return err
		}
		if target != "" {
			if report, err = strategy.ConfirmTarget(ds, report, target); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if stratJSON {
			if err := printJSON(out, report); err != nil {
				return err
			}
		} else {
			ux.RenderReport(out, "ML Strategy Recommendation", report)
		}
		if stratOutputPath != "" {
			return writeJSON(cmd.ErrOrStderr(), stratOutputPath, report)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(strategyCmd)
	stratFlags.register(strategyCmd.Flags())
	strategyCmd.Flags().StringVar(&stratTarget, "target", "", "confirm this column as the target variable")
	strategyCmd.Flags().BoolVarP(&stratInteractive, "interactive", "i", false, "pick the target column from a prompt")
	strategyCmd.Flags().BoolVar(&stratJSON, "json", false, "print the report as JSON")
	strategyCmd.Flags().StringVarP(&stratOutputPath, "output", "o", "", "write the report as JSON to this file")
}

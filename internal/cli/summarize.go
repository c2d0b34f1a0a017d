package cli

import (
	"github.com/okian/incomelens/internal/adapters/dataset"
	"github.com/spf13/cobra"
)

func newSummarizeCommand(opts *globalOptions) *cobra.Command {
	var (
		file  string
		clean bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a census CSV dataset",
		Long: `Summarize a census CSV dataset.

Prints the row count, per-column missing values, distinct values and numeric
statistics. With --clean the rows are cleaned first: categorical gaps become
Unknown, missing income becomes <=50K and numeric columns are coerced to
non-negative numbers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, err := dataset.LoadFile(file)
			if err != nil {
				return err
			}
			if clean {
				table = dataset.Clean(table)
			}
			return render(cmd.OutOrStdout(), opts.output, dataset.Analyze(table))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file with a header row")
	cmd.Flags().BoolVar(&clean, "clean", false, "Clean rows before summarizing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"report-converter/internal/convert"
)

func newRequestsCmd(a *app) *cobra.Command {
	var (
		choices string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "requests <report.xml>",
		Short: "Export calculation requests for the report's measures",
		Long: `Requests writes one calculation request per bound measure. Answer them
with any generator and pass the results to convert with --results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(args[0], choices, false)
			if err != nil {
				return err
			}

			reqs, err := s.CalculationRequests()
			if err != nil {
				return err
			}

			data, err := convert.MarshalRequests(reqs)
			if err != nil {
				return err
			}

			return writeOutput(cmd.OutOrStdout(), out, data)
		},
	}

	cmd.Flags().StringVar(&choices, "choices", "", "choices file to apply")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")

	return cmd
}

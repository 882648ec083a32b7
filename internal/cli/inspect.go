package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		choices         string
		excludeUnmapped bool
		dump            bool
	)

	cmd := &cobra.Command{
		Use:   "inspect <report.xml>",
		Short: "Show how each data item of a report resolves",
		Long: `Inspect parses a report, resolves its data items against the mapping
table and lists the outcome per item together with every diagnostic.

Examples:
  # Show resolution status
  report-converter inspect -m mappings.yaml report.xml

  # Dump the parsed report structure
  report-converter inspect -m mappings.yaml --dump report.xml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(args[0], choices, excludeUnmapped)
			if s == nil {
				return err
			}

			w := cmd.OutOrStdout()

			if dump {
				spew.Fdump(w, s.Report())
			}

			report := s.Report()
			fmt.Fprintf(w, "Report %q: %d pages, %d visuals, %d data items\n\n",
				report.Name, len(report.Pages), len(report.Visuals()), len(report.DataItems()))

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ITEM\tSTATUS\tTARGET\tVISUALS")

			for _, b := range s.Resolution().Bindings() {
				target := "-"
				if b.Bound() {
					target = b.Target.String()
				}

				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", b.Item.ID, b.Status, target, len(b.Visuals))
			}

			if err := tw.Flush(); err != nil {
				return err
			}

			fmt.Fprintln(w)
			printDiagnostics(w, s.Diagnostics())

			return err
		},
	}

	cmd.Flags().StringVar(&choices, "choices", "", "choices file to apply")
	cmd.Flags().BoolVar(&excludeUnmapped, "exclude-unmapped", false, "exclude every item without a mapping")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the parsed report")

	return cmd
}

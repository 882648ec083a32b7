package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"report-converter/internal/calc"
	"report-converter/internal/convert"
	"report-converter/internal/serialize"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		choices         string
		results         string
		excludeUnmapped bool
		outDir          string
		archivePath     string
	)

	cmd := &cobra.Command{
		Use:   "convert <report.xml>",
		Short: "Convert a report into a PBIP project",
		Long: `Convert runs the whole pipeline and writes the project files under the
output directory. Measures with no expression are written as pending and
listed in the diagnostics.

Expressions come from --results when given. Otherwise the configured
calculation provider is asked; with provider "none" every measure stays
pending.

Examples:
  # Convert with the built-in templates
  report-converter convert -m mappings.yaml report.xml

  # Settle ambiguities and also write a zip archive
  report-converter convert -m mappings.yaml --choices choices.yaml --archive report.zip report.xml
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			s, err := a.openSession(args[0], choices, excludeUnmapped)
			if err != nil {
				if s != nil {
					printDiagnostics(cmd.ErrOrStderr(), s.Diagnostics())
				}

				return err
			}

			var res []calc.Result

			if results != "" {
				if res, err = convert.LoadResults(results); err != nil {
					return err
				}
			} else {
				d, err := a.dispatcher(ctx)
				if err != nil {
					return err
				}

				if d != nil {
					if res, err = s.Calculate(ctx, d); err != nil {
						return err
					}
				}
			}

			out, err := s.Build(res)
			if err != nil {
				printDiagnostics(cmd.ErrOrStderr(), s.Diagnostics())
				return err
			}

			printDiagnostics(cmd.ErrOrStderr(), out.Diagnostics)

			dir := outDir
			if dir == "" {
				dir = a.cfg.Output.Dir
			}

			if err := serialize.WriteFiles(out.Artifacts, dir); err != nil {
				return err
			}

			zipPath := archivePath
			if zipPath == "" {
				zipPath = a.cfg.Output.Archive
			}

			if zipPath != "" {
				if err := os.MkdirAll(filepath.Dir(zipPath), dirPerm); err != nil {
					return fmt.Errorf("creating archive directory: %w", err)
				}

				if err := os.WriteFile(zipPath, out.Archive, filePerm); err != nil {
					return fmt.Errorf("writing archive: %w", err)
				}
			}

			a.logger.Info("Wrote project",
				zap.String("dir", dir),
				zap.String("archive", zipPath),
				zap.Int("files", len(out.Artifacts)))

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files for %q to %s (%d pending measures)\n",
				len(out.Artifacts), out.Model.Name, dir, len(out.Model.Pending()))

			return nil
		},
	}

	cmd.Flags().StringVar(&choices, "choices", "", "choices file to apply")
	cmd.Flags().StringVar(&results, "results", "", "calculation results file")
	cmd.Flags().BoolVar(&excludeUnmapped, "exclude-unmapped", false, "exclude every item without a mapping")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory, overrides output.dir")
	cmd.Flags().StringVar(&archivePath, "archive", "", "also write the project as a zip archive")

	return cmd
}

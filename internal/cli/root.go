// Package cli implements the report-converter command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"report-converter/internal/config"
	"report-converter/internal/logging"
)

const (
	version  = "0.1.0"
	dirPerm  = 0o755
	filePerm = 0o644
)

// ErrMissingMapping is returned when no mapping table is configured.
var ErrMissingMapping = errors.New("no mapping table configured, set mapping.path or --mapping")

// app carries state shared by every subcommand.
type app struct {
	configFile string
	mapping    string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "report-converter",
		Short: "Convert Cognos report specifications into PBIP projects",
		Long: `report-converter reads a Cognos report specification, maps every data item
to a column of the target semantic model and writes a Power BI project
(PBIP) with the report layout, visuals, filters and measures.

Ambiguous mappings are settled with a choices file; measure expressions
come from a results file or from the configured calculation provider.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default is ./report-converter.yaml)")
	root.PersistentFlags().StringVarP(&a.mapping, "mapping", "m", "", "mapping table, overrides mapping.path")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newRequestsCmd(a))
	root.AddCommand(newCalculateCmd(a))
	root.AddCommand(newConvertCmd(a))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(".", a.configFile)
	if err != nil {
		return err
	}

	if a.mapping != "" {
		cfg.Mapping.Path = a.mapping
	}

	level := cfg.Log.Level
	if a.verbose {
		level = "debug"
	}

	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger

	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the report-converter version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "report-converter %s\n", version)
		},
	}
}

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}

	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

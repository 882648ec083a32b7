package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"report-converter/internal/calcsvc"
	"report-converter/internal/config"
	"report-converter/internal/convert"
)

// ErrNoProvider is returned when calculation is requested without a provider.
var ErrNoProvider = errors.New("no calculation provider configured, set calculation.provider")

func newCalculateCmd(a *app) *cobra.Command {
	var (
		choices string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "calculate <report.xml>",
		Short: "Generate measure expressions with the configured provider",
		Long: `Calculate answers the report's calculation requests with the provider
named by calculation.provider ("template" or "bedrock") and writes a
results file for convert --results.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()

			s, err := a.openSession(args[0], choices, false)
			if err != nil {
				return err
			}

			d, err := a.dispatcher(ctx)
			if err != nil {
				return err
			}

			if d == nil {
				return ErrNoProvider
			}

			results, err := s.Calculate(ctx, d)
			if err != nil {
				return err
			}

			printDiagnostics(cmd.ErrOrStderr(), s.Diagnostics())

			data, err := convert.MarshalResults(results)
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

// dispatcher builds the configured generator. It returns nil when the
// provider is "none".
func (a *app) dispatcher(ctx context.Context) (*calcsvc.Dispatcher, error) {
	c := a.cfg.Calculation

	var gen calcsvc.Generator

	switch strings.ToLower(c.Provider) {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderTemplate:
		gen = calcsvc.TemplateGenerator{}
	case config.ProviderBedrock:
		bg, err := calcsvc.NewBedrockGenerator(ctx, calcsvc.BedrockConfig{
			ModelID: c.ModelID,
			Region:  c.Region,
			Profile: c.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("creating bedrock generator: %w", err)
		}

		gen = bg
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidProvider, c.Provider)
	}

	return calcsvc.NewDispatcher(gen,
		calcsvc.WithParallelism(c.Parallelism),
		calcsvc.WithTimeout(c.Timeout),
		calcsvc.WithLogger(a.logger),
	), nil
}

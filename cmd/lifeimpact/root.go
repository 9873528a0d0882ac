package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amped/longevity/internal/app"
	"github.com/amped/longevity/internal/config"
	"github.com/amped/longevity/internal/domain/model"
	"github.com/amped/longevity/pkg/logger"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	file    string
	period  string
	noColor bool
	asJSON  bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "lifeimpact",
		Short: "Estimate the lifespan impact of health readings",
		Long: `Evaluate a snapshot of health readings against the impact model.

The snapshot is a YAML document with a profile, a list of metrics and an
optional completeness block. Calibration overrides are read from the same
configuration sources as the server (LONGEVITY_CONFIG and LONGEVITY_* env).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor || opts.asJSON {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Snapshot YAML file (- for stdin)")
	root.PersistentFlags().StringVarP(&opts.period, "period", "p", string(model.PeriodDay), "Period: day, month or year")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print results as JSON")

	root.AddCommand(
		newImpactCmd(opts),
		newAggregateCmd(opts),
		newProjectCmd(opts),
		newRecommendCmd(opts),
	)
	return root
}

// newEngine builds an engine from the process configuration. The CLI never
// talks to Redis; the memo stays in process.
func newEngine(cmd *cobra.Command) (*app.Engine, error) {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	if cfg.CacheBackend == config.CacheRedis {
		cfg.CacheBackend = config.CacheMemory
	}
	e, _, err := app.FromConfig(cmd.Context(), cfg, logger.Nop())
	return e, err
}

func (o *options) timePeriod() (model.TimePeriod, error) {
	p, ok := model.ParsePeriod(o.period)
	if !ok {
		return "", fmt.Errorf("unknown period %q", o.period)
	}
	return p, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

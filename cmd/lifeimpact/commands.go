package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/amped/longevity/internal/domain/model"
)

func newImpactCmd(opts *options) *cobra.Command {
	var (
		metricType string
		value      float64
	)
	cmd := &cobra.Command{
		Use:   "impact",
		Short: "Show the daily impact of each reading",
		Long: `Show the daily lifespan impact of every reading in the snapshot, or of a
single reading given with --type and --value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var metrics []model.HealthMetric
			if metricType != "" {
				mt, ok := model.ParseMetricType(metricType)
				if !ok {
					return fmt.Errorf("unknown metric type %q", metricType)
				}
				metrics = model.WithIDs([]model.HealthMetric{{
					Type:   mt,
					Value:  value,
					Source: model.SourceUserInput,
				}})
			} else {
				s, err := loadSnapshot(opts.file, cmd.InOrStdin())
				if err != nil {
					return err
				}
				metrics = s.Metrics
			}

			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			type row struct {
				ID     string            `json:"id"`
				Type   model.MetricType  `json:"type"`
				Value  float64           `json:"value"`
				Impact model.ImpactValue `json:"impact"`
			}
			rows := make([]row, 0, len(metrics))
			for _, m := range metrics {
				rows = append(rows, row{ID: m.ID, Type: m.Type, Value: m.Value, Impact: engine.CalculateImpact(cmd.Context(), m)})
			}
			if opts.asJSON {
				return printJSON(cmd, rows)
			}

			w := cmd.OutOrStdout()
			header(w, "Daily impact")
			for _, r := range rows {
				fmt.Fprintf(w, "  %-26s %12s  %s\n", r.Type, formatValue(r.Value), minutes(r.Impact))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&metricType, "type", "t", "", "Metric type of a single reading")
	cmd.Flags().Float64VarP(&value, "value", "v", 0, "Value of a single reading")
	return cmd
}

func newAggregateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Combine the snapshot's readings over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := opts.timePeriod()
			if err != nil {
				return err
			}
			s, err := loadSnapshot(opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			data := engine.AggregateImpact(cmd.Context(), s.Metrics, period)
			if opts.asJSON {
				return printJSON(cmd, data)
			}

			w := cmd.OutOrStdout()
			header(w, fmt.Sprintf("Impact per %s", data.TimePeriod))
			for _, mt := range model.AllMetricTypes {
				iv, ok := data.MetricContributions[mt]
				if !ok {
					continue
				}
				fmt.Fprintf(w, "  %-26s %s\n", mt, minutes(iv))
			}
			fmt.Fprintf(w, "  %-26s %s\n", bold("total"), minutes(data.TotalImpact))
			return nil
		},
	}
}

func newProjectCmd(opts *options) *cobra.Command {
	var dailyTotal float64
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project adjusted life expectancy for the snapshot's profile",
		Long: `Project adjusted life expectancy from the snapshot's profile and readings.
--daily-total replaces the readings with a fixed daily impact in minutes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSnapshot(opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			var p model.LifeProjection
			if cmd.Flags().Changed("daily-total") {
				p = engine.ProjectLifespan(cmd.Context(), s.Profile, dailyTotal, s.Completeness)
			} else {
				p = engine.ProjectFromMetrics(cmd.Context(), s.Profile, s.Metrics, s.Completeness)
			}
			if opts.asJSON {
				return printJSON(cmd, struct {
					model.LifeProjection
					NetImpactYears float64 `json:"net_impact_years"`
				}{p, p.NetImpactYears()})
			}

			w := cmd.OutOrStdout()
			header(w, "Life projection")
			fmt.Fprintf(w, "  %-12s %d\n", "age", p.CurrentAge)
			fmt.Fprintf(w, "  %-12s %.1f years\n", "baseline", p.BaselineLifeExpectancyYears)
			fmt.Fprintf(w, "  %-12s %s\n", "adjusted", bold(fmt.Sprintf("%.1f years", p.AdjustedLifeExpectancyYears)))
			fmt.Fprintf(w, "  %-12s %s\n", "net", years(p.NetImpactYears()))
			fmt.Fprintf(w, "  %-12s %.0f%% (±%.1f years)\n", "confidence", p.ConfidencePercentage*100, p.ConfidenceIntervalYears)
			return nil
		},
	}
	cmd.Flags().Float64Var(&dailyTotal, "daily-total", 0, "Daily impact in minutes to project instead of the readings")
	return cmd
}

func newRecommendCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "recommend",
		Short: "Suggest the single most valuable change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			period, err := opts.timePeriod()
			if err != nil {
				return err
			}
			s, err := loadSnapshot(opts.file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			rec, ok := engine.Recommend(cmd.Context(), s.Metrics, period)
			w := cmd.OutOrStdout()
			if !ok {
				if opts.asJSON {
					return printJSON(cmd, nil)
				}
				fmt.Fprintln(w, gray("No recommendation: the snapshot has no usable readings"))
				return nil
			}
			if opts.asJSON {
				return printJSON(cmd, rec)
			}

			header(w, "Recommendation")
			fmt.Fprintf(w, "  %s\n", bold(rec.ActionText))
			fmt.Fprintf(w, "  %-8s %s\n", "metric", rec.Metric)
			fmt.Fprintf(w, "  %-8s %s\n", "now", minutes(rec.CurrentImpact))
			fmt.Fprintf(w, "  %-8s %s per %s\n", "gain", green(fmt.Sprintf("+%.1f min", rec.BenefitMinutes)), rec.Period)
			return nil
		},
	}
}

var (
	bold  = color.New(color.Bold).SprintFunc()
	cyan  = color.New(color.FgCyan, color.Bold).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	gray  = color.New(color.FgHiBlack).SprintFunc()
)

func header(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n", cyan(title))
}

// minutes renders an impact coloured by its direction.
func minutes(iv model.ImpactValue) string {
	s := fmt.Sprintf("%+.1f min", iv.LifespanImpactMinutes)
	switch iv.Direction {
	case model.DirectionPositive:
		return green(s)
	case model.DirectionNegative:
		return red(s)
	default:
		return gray(fmt.Sprintf("%.1f min", 0.0))
	}
}

func years(v float64) string {
	s := fmt.Sprintf("%+.2f years", v)
	switch {
	case v > 0:
		return green(s)
	case v < 0:
		return red(s)
	}
	return gray(s)
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/services/monthly"
)

var monthlyFlags struct {
	agg      string
	start    string
	tz       string
	priceDir string
	sentDir  string
	chartDir string
	aligned  bool
	csv      string
}

var monthlyCmd = &cobra.Command{
	Use:   "monthly <TICKER>",
	Short: "Chart monthly price against monthly sentiment for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := monthly.OptionsFromConfig(a.Config, strings.ToUpper(args[0]))
		if monthlyFlags.agg != "" {
			opts.PriceAgg = monthlyFlags.agg
		}
		if monthlyFlags.start != "" {
			start, err := time.Parse("2006-01-02", monthlyFlags.start)
			if err != nil {
				return fmt.Errorf("invalid --start %q: want YYYY-MM-DD", monthlyFlags.start)
			}
			opts.Start = start
		}
		opts.Timezone = firstNonEmpty(monthlyFlags.tz, opts.Timezone)
		opts.PriceDir = firstNonEmpty(monthlyFlags.priceDir, opts.PriceDir)
		opts.SentimentDir = firstNonEmpty(monthlyFlags.sentDir, opts.SentimentDir)
		opts.ChartDir = firstNonEmpty(monthlyFlags.chartDir, opts.ChartDir)
		opts.Aligned = monthlyFlags.aligned
		opts.CSVPath = monthlyFlags.csv

		result, err := a.MonthlyService.Plot(cmd.Context(), opts)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintf(w, "Month\t%s\tsent\tsent_pct\tdays\t\n", opts.PriceCol)
		for _, m := range result.Monthly {
			sent := "NaN"
			if m.HasSentiment() {
				sent = fmt.Sprintf("%.4f", m.Sentiment)
			}
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%.1f\t%d\t\n", m.Month.Format("2006-01-02"), m.Price, sent, m.SentimentPct, m.Days)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		for _, path := range []string{result.ChartPath, result.AlignedPath, result.CSVPath} {
			if path != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	f := monthlyCmd.Flags()
	f.StringVar(&monthlyFlags.agg, "agg", "", "Monthly price aggregation: mean or last")
	f.StringVar(&monthlyFlags.start, "start", "", "Drop months ending before this date (YYYY-MM-DD)")
	f.StringVar(&monthlyFlags.tz, "tz", "", "Timezone sentiment timestamps are keyed to")
	f.StringVar(&monthlyFlags.priceDir, "price-dir", "", "Folder of <TICKER>.csv price files")
	f.StringVar(&monthlyFlags.sentDir, "sent-dir", "", "Folder of <TICKER>.csv sentiment files")
	f.StringVar(&monthlyFlags.chartDir, "chart-dir", "", "Folder charts are written to")
	f.BoolVar(&monthlyFlags.aligned, "aligned", false, "Also chart sentiment rescaled to start at the first price")
	f.StringVar(&monthlyFlags.csv, "csv", "", "Also write the monthly table to this CSV")
}

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/services/cleanse"
)

var cleanseFlags struct {
	stocks    string
	removed   string
	lookup    string
	news      string
	newsOut   string
	lookupOut string
	strict    bool
	dryRun    bool
}

var cleanseCmd = &cobra.Command{
	Use:   "cleanse",
	Short: "Move price files not in the lookup aside and filter the datasets to the remaining tickers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := a.Config.Paths
		report, err := a.CleanseService.Run(cmd.Context(), cleanse.Options{
			StocksDir:     firstNonEmpty(cleanseFlags.stocks, paths.StocksDir),
			RemovedDir:    firstNonEmpty(cleanseFlags.removed, paths.StocksRemovedDir),
			LookupPath:    firstNonEmpty(cleanseFlags.lookup, paths.CleanseLookup),
			NewsPath:      firstNonEmpty(cleanseFlags.news, paths.NewsRaw),
			NewsOutPath:   firstNonEmpty(cleanseFlags.newsOut, paths.NewsFiltered),
			LookupOutPath: firstNonEmpty(cleanseFlags.lookupOut, paths.LookupFiltered),
			Strict:        cleanseFlags.strict,
			DryRun:        cleanseFlags.dryRun,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, name := range report.Moved {
			fmt.Fprintf(out, "Moved: %s\n", name)
		}
		fmt.Fprintln(out, "Rows before & after:")
		fmt.Fprintf(out, "Analyst: %s -> %s\n", humanize.Comma(int64(report.NewsBefore)), humanize.Comma(int64(report.NewsAfter)))
		fmt.Fprintf(out, "Lookup : %s -> %s\n", humanize.Comma(int64(report.LookupBefore)), humanize.Comma(int64(report.LookupAfter)))
		return nil
	},
}

func init() {
	f := cleanseCmd.Flags()
	f.StringVar(&cleanseFlags.stocks, "stocks", "", "Folder of per-ticker price CSVs")
	f.StringVar(&cleanseFlags.removed, "removed", "", "Folder invalid price CSVs are moved to")
	f.StringVar(&cleanseFlags.lookup, "lookup", "", "Lookup CSV defining the valid tickers")
	f.StringVar(&cleanseFlags.news, "news", "", "News CSV to filter")
	f.StringVar(&cleanseFlags.newsOut, "news-out", "", "Filtered news output CSV")
	f.StringVar(&cleanseFlags.lookupOut, "lookup-out", "", "Filtered lookup output CSV")
	f.BoolVar(&cleanseFlags.strict, "strict", false, "Fail when lookup tickers and price files disagree")
	f.BoolVar(&cleanseFlags.dryRun, "dry-run", false, "Report what would change without moving or writing")
}

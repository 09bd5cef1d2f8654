package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/services/lookup"
)

var lookupFlags struct {
	news string
	meta string
	out  string
}

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Build the ticker lookup table from the news dataset and symbol registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths := a.Config.Paths
		result, err := a.LookupService.Build(cmd.Context(), lookup.Options{
			NewsPath: firstNonEmpty(lookupFlags.news, paths.NewsRaw),
			MetaPath: firstNonEmpty(lookupFlags.meta, paths.SymbolsMeta),
			OutPath:  firstNonEmpty(lookupFlags.out, paths.Lookup),
			Preview:  5,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Found %s unique stocks, %s matched\n",
			humanize.Comma(int64(result.NewsTickers)), humanize.Comma(int64(result.NewsTickers-result.Unmatched)))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s (%s rows)\n", result.OutPath, humanize.Comma(int64(result.Rows)))
		return nil
	},
}

func init() {
	lookupCmd.Flags().StringVar(&lookupFlags.news, "news", "", "News CSV with a stock column")
	lookupCmd.Flags().StringVar(&lookupFlags.meta, "meta", "", "Symbol registry CSV")
	lookupCmd.Flags().StringVar(&lookupFlags.out, "out", "", "Output lookup CSV")
}

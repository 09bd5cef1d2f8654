package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/finsent/internal/services/prices"
)

var pricesFlags struct {
	from     string
	to       string
	exchange string
	period   string
	priceDir string
}

var pricesCmd = &cobra.Command{
	Use:   "prices <TICKER>...",
	Short: "Download daily price history into the price folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := a.PricesService()
		if err != nil {
			return err
		}

		opts := prices.Options{
			PriceDir: firstNonEmpty(pricesFlags.priceDir, a.Config.Paths.PriceDir),
			Exchange: firstNonEmpty(pricesFlags.exchange, a.Config.Clients.EODHD.Exchange),
			Period:   pricesFlags.period,
		}
		if opts.From, err = parseDate("from", pricesFlags.from); err != nil {
			return err
		}
		if opts.To, err = parseDate("to", pricesFlags.to); err != nil {
			return err
		}

		results, err := svc.FetchAll(cmd.Context(), args, opts)
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote: %s (%d bars, %s to %s)\n",
				r.Path, r.Bars, r.First.Format("2006-01-02"), r.Last.Format("2006-01-02"))
		}
		return err
	},
}

func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", flag, value)
	}
	return t, nil
}

func init() {
	f := pricesCmd.Flags()
	f.StringVar(&pricesFlags.from, "from", "", "First date to fetch (YYYY-MM-DD)")
	f.StringVar(&pricesFlags.to, "to", "", "Last date to fetch (YYYY-MM-DD)")
	f.StringVar(&pricesFlags.exchange, "exchange", "", "Exchange suffix for bare tickers")
	f.StringVar(&pricesFlags.period, "period", "d", "Bar period: d, w or m")
	f.StringVar(&pricesFlags.priceDir, "price-dir", "", "Folder <TICKER>.csv files are written to")
}

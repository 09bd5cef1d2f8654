// Package prices downloads daily price history into the per-ticker CSV
// files read by the monthly job.
package prices

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

// Header is the column layout of a written price file
var Header = []string{"Date", "Open", "High", "Low", "Close", "Adj Close", "Volume"}

// Options controls where and how much history is fetched
type Options struct {
	PriceDir string
	Exchange string // appended to bare tickers, e.g. "US"
	From     time.Time
	To       time.Time
	Period   string // d, w or m; daily when empty
}

// Result describes one written file
type Result struct {
	Ticker string
	Symbol string
	Path   string
	Bars   int
	First  time.Time
	Last   time.Time
}

// Service fetches and stores price history
type Service struct {
	eodhd   interfaces.EODHDClient
	storage interfaces.TableStorage
	logger  *common.Logger
}

// NewService creates a new prices service
func NewService(eodhd interfaces.EODHDClient, storage interfaces.TableStorage, logger *common.Logger) *Service {
	return &Service{
		eodhd:   eodhd,
		storage: storage,
		logger:  logger,
	}
}

// Symbol returns the exchange-qualified symbol and the file ticker for a
// user-supplied ticker. "AAPL" with exchange US is AAPL.US stored as AAPL.csv.
func Symbol(ticker, exchange string) (symbol, file string) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	exchange = strings.ToUpper(strings.TrimSpace(exchange))
	if exchange == "" {
		return ticker, ticker
	}
	suffix := "." + exchange
	if strings.HasSuffix(ticker, suffix) {
		return ticker, strings.TrimSuffix(ticker, suffix)
	}
	if strings.Contains(ticker, ".") {
		return ticker, ticker
	}
	return ticker + suffix, ticker
}

// Fetch downloads the daily bars of ticker and writes <PriceDir>/<TICKER>.csv
// ordered oldest first.
func (s *Service) Fetch(ctx context.Context, ticker string, opts Options) (*Result, error) {
	symbol, file := Symbol(ticker, opts.Exchange)
	if symbol == "" {
		return nil, fmt.Errorf("empty ticker")
	}

	period := opts.Period
	if period == "" {
		period = "d"
	}

	resp, err := s.eodhd.GetEOD(ctx, symbol,
		interfaces.WithDateRange(opts.From, opts.To),
		interfaces.WithOrder("a"),
		interfaces.WithPeriod(period),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", symbol, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no price data returned for %s", symbol)
	}

	bars := append([]models.EODBar(nil), resp.Data...)
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	path := filepath.Join(opts.PriceDir, file+".csv")
	if err := s.storage.WriteTable(path, BarsTable(bars)); err != nil {
		return nil, err
	}

	result := &Result{
		Ticker: file,
		Symbol: symbol,
		Path:   path,
		Bars:   len(bars),
		First:  bars[0].Date,
		Last:   bars[len(bars)-1].Date,
	}
	s.logger.Info().
		Str("symbol", symbol).
		Str("path", path).
		Int("bars", result.Bars).
		Str("first", result.First.Format("2006-01-02")).
		Str("last", result.Last.Format("2006-01-02")).
		Msg("Price history written")
	return result, nil
}

// FetchAll fetches each ticker in turn. A failed ticker is logged and the
// rest still run; the joined errors are returned at the end.
func (s *Service) FetchAll(ctx context.Context, tickers []string, opts Options) ([]*Result, error) {
	var results []*Result
	var errs []error
	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.Fetch(ctx, ticker, opts)
		if err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker).Msg("Price fetch failed")
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// BarsTable lays bars out in the price file format
func BarsTable(bars []models.EODBar) *tablefs.Table {
	t := tablefs.NewTable(Header...)
	for _, b := range bars {
		t.Rows = append(t.Rows, []string{
			b.Date.Format("2006-01-02"),
			formatPrice(b.Open),
			formatPrice(b.High),
			formatPrice(b.Low),
			formatPrice(b.Close),
			formatPrice(b.AdjClose),
			strconv.FormatInt(b.Volume, 10),
		})
	}
	return t
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

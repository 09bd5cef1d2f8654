// Package monthly joins a ticker's daily prices with its sentiment series,
// rolls both up to calendar months and charts them.
package monthly

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // sentiment timestamps are keyed to exchange days

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

var (
	// ErrMissingFile is returned when the price or sentiment file is absent
	ErrMissingFile = errors.New("missing file")

	// ErrMissingColumn is returned when a price or sentiment value column is absent
	ErrMissingColumn = errors.New("missing column")

	// ErrMissingDateColumn is returned when no date column is found in the sentiment file
	ErrMissingDateColumn = errors.New("could not find a date/datetime column in sentiment file")

	// ErrInvalidAggregation is returned for a price aggregation other than mean or last
	ErrInvalidAggregation = errors.New("invalid price aggregation")
)

// fallback sentiment date columns, tried in order
var altDateCols = []string{"Date", "datetime", "Datetime", "time", "published", "Timestamp"}

// Options selects the ticker and how its files are read
type Options struct {
	Ticker        string
	PriceDir      string
	SentimentDir  string
	PriceCol      string
	DateColPrice  string
	DateColSent   string
	SentimentCols []string
	PriceAgg      string
	Start         time.Time
	Timezone      string

	// Plot only
	ChartDir string
	Size     ChartSize
	Aligned  bool
	CSVPath  string
}

// OptionsFromConfig fills Options from the monthly and paths config
func OptionsFromConfig(cfg *common.Config, ticker string) Options {
	return Options{
		Ticker:        ticker,
		PriceDir:      cfg.Paths.PriceDir,
		SentimentDir:  cfg.Paths.SentimentDir,
		PriceCol:      cfg.Monthly.PriceCol,
		DateColPrice:  cfg.Monthly.DateColPrice,
		DateColSent:   cfg.Monthly.DateColSent,
		SentimentCols: cfg.Monthly.SentimentCols,
		PriceAgg:      cfg.Monthly.PriceAgg,
		Start:         cfg.Monthly.GetStart(),
		Timezone:      cfg.Monthly.Timezone,
		ChartDir:      cfg.Paths.ChartDir,
		Size:          ChartSize{Width: cfg.Monthly.ChartWidth, Height: cfg.Monthly.ChartHeight},
	}
}

// PlotResult is the monthly table plus the files written for it
type PlotResult struct {
	Monthly     []models.MonthlyAggregate
	ChartPath   string
	AlignedPath string
	CSVPath     string
}

// Service aggregates and plots monthly price vs. sentiment
type Service struct {
	storage interfaces.TableStorage
	logger  *common.Logger
}

// NewService creates a new monthly service
func NewService(storage interfaces.TableStorage, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Aggregate builds the monthly table for opts.Ticker
func (s *Service) Aggregate(ctx context.Context, opts Options) ([]models.MonthlyAggregate, error) {
	opts = withDefaults(opts)
	if opts.PriceAgg != AggMean && opts.PriceAgg != AggLast {
		return nil, fmt.Errorf("%w: '%s' (want mean or last)", ErrInvalidAggregation, opts.PriceAgg)
	}
	loc, err := time.LoadLocation(opts.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", opts.Timezone, err)
	}

	pricePath := filepath.Join(opts.PriceDir, opts.Ticker+".csv")
	sentPath := filepath.Join(opts.SentimentDir, opts.Ticker+".csv")
	if !s.storage.Exists(pricePath) {
		return nil, fmt.Errorf("%w: price file %s", ErrMissingFile, pricePath)
	}
	if !s.storage.Exists(sentPath) {
		return nil, fmt.Errorf("%w: sentiment file %s", ErrMissingFile, sentPath)
	}

	priceTbl, err := s.storage.ReadTable(pricePath)
	if err != nil {
		return nil, err
	}
	if !priceTbl.Has(opts.DateColPrice) {
		return nil, fmt.Errorf("%w: price file must contain '%s' column", ErrMissingColumn, opts.DateColPrice)
	}
	if !priceTbl.Has(opts.PriceCol) {
		return nil, fmt.Errorf("%w: price file must contain '%s' column", ErrMissingColumn, opts.PriceCol)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentTbl, err := s.storage.ReadTable(sentPath)
	if err != nil {
		return nil, err
	}
	sentCol := firstPresent(sentTbl, opts.SentimentCols)
	if sentCol == "" {
		return nil, fmt.Errorf("%w: sentiment file must contain one of %v", ErrMissingColumn, opts.SentimentCols)
	}
	dateCol := opts.DateColSent
	if !sentTbl.Has(dateCol) {
		dateCol = firstPresent(sentTbl, altDateCols)
	}
	if dateCol == "" {
		return nil, ErrMissingDateColumn
	}

	prices := loadPrices(priceTbl, opts.DateColPrice, opts.PriceCol)
	sentiment := loadSentiment(sentTbl, dateCol, sentCol, loc)
	daily := DailySentiment(sentiment)
	months := Monthly(prices, daily, opts.PriceAgg, opts.Start)

	s.logger.Info().
		Str("ticker", opts.Ticker).
		Int("price_rows", len(prices)).
		Int("sentiment_rows", len(sentiment)).
		Int("sentiment_days", len(daily)).
		Int("months", len(months)).
		Str("sentiment_col", sentCol).
		Str("date_col", dateCol).
		Msg("Monthly aggregation complete")

	return months, nil
}

// Plot aggregates, then writes the monthly chart and, when asked, the
// aligned chart and a CSV of the monthly table.
func (s *Service) Plot(ctx context.Context, opts Options) (*PlotResult, error) {
	opts = withDefaults(opts)
	months, err := s.Aggregate(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &PlotResult{Monthly: months}

	if opts.CSVPath != "" {
		if err := s.storage.WriteTable(opts.CSVPath, MonthlyTable(months, opts.PriceCol)); err != nil {
			return nil, fmt.Errorf("failed to write monthly table: %w", err)
		}
		result.CSVPath = opts.CSVPath
	}

	if len(months) == 0 {
		s.logger.Warn().Str("ticker", opts.Ticker).Msg("No months to plot")
		return result, nil
	}

	png, err := RenderMonthlyChart(opts.Ticker, opts.PriceAgg, months, opts.Size)
	if err != nil {
		return nil, err
	}
	result.ChartPath = filepath.Join(opts.ChartDir, opts.Ticker+"_monthly.png")
	if err := s.storage.WriteRaw(result.ChartPath, png); err != nil {
		return nil, err
	}
	s.logger.Info().Str("path", result.ChartPath).Msg("Monthly chart written")

	if opts.Aligned {
		png, err := RenderAlignedChart(opts.Ticker, months, opts.Size)
		if err != nil {
			return nil, err
		}
		result.AlignedPath = filepath.Join(opts.ChartDir, opts.Ticker+"_aligned.png")
		if err := s.storage.WriteRaw(result.AlignedPath, png); err != nil {
			return nil, err
		}
		s.logger.Info().Str("path", result.AlignedPath).Msg("Aligned chart written")
	}

	return result, nil
}

// MonthlyTable lays the monthly rows out as Month, <priceCol>, sent, sent_pct
func MonthlyTable(months []models.MonthlyAggregate, priceCol string) *tablefs.Table {
	t := tablefs.NewTable("Month", priceCol, "sent", "sent_pct")
	for _, m := range months {
		t.Rows = append(t.Rows, []string{
			m.Month.Format("2006-01-02"),
			formatFloat(m.Price),
			formatFloat(m.Sentiment),
			formatFloat(m.SentimentPct),
		})
	}
	return t
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstPresent(t *tablefs.Table, cols []string) string {
	for _, c := range cols {
		if t.Has(c) {
			return c
		}
	}
	return ""
}

func withDefaults(opts Options) Options {
	if opts.PriceDir == "" {
		opts.PriceDir = "data/stock_price"
	}
	if opts.SentimentDir == "" {
		opts.SentimentDir = "data/stock_sentiment"
	}
	if opts.PriceCol == "" {
		opts.PriceCol = "Close"
	}
	if opts.DateColPrice == "" {
		opts.DateColPrice = "Date"
	}
	if opts.DateColSent == "" {
		opts.DateColSent = "date"
	}
	if len(opts.SentimentCols) == 0 {
		opts.SentimentCols = []string{"avg_sentiment", "sentiment", "label"}
	}
	opts.PriceAgg = strings.ToLower(opts.PriceAgg)
	if opts.PriceAgg == "" {
		opts.PriceAgg = AggMean
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	if opts.Timezone == "" {
		opts.Timezone = "America/New_York"
	}
	if opts.ChartDir == "" {
		opts.ChartDir = "charts"
	}
	if opts.Size.Width <= 0 {
		opts.Size.Width = 1000
	}
	if opts.Size.Height <= 0 {
		opts.Size.Height = 500
	}
	return opts
}

// Package lookup builds the ticker lookup table from the news dataset and
// an exchange symbol registry.
package lookup

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

// StockCol is the ticker column shared by the news and lookup tables
const StockCol = "stock"

// registry column names normalised on load
var metaRenames = map[string]string{
	"Symbol":        StockCol,
	"Security Name": "security_name",
}

// Options locates the inputs and output of a build
type Options struct {
	NewsPath string
	MetaPath string
	OutPath  string
	// Preview is the number of rows logged after writing
	Preview int
}

// Result summarises a build
type Result struct {
	Table       *tablefs.Table
	NewsTickers int
	MetaRows    int
	Rows        int
	Unmatched   int
	OutPath     string
}

// Service builds lookup tables
type Service struct {
	storage interfaces.TableStorage
	logger  *common.Logger
}

// NewService creates a new lookup service
func NewService(storage interfaces.TableStorage, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Build joins the sorted distinct news tickers against the registry, numbers
// the rows from zero and writes the result.
func (s *Service) Build(ctx context.Context, opts Options) (*Result, error) {
	news, err := s.storage.ReadTable(opts.NewsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read news: %w", err)
	}
	tickers, err := news.Distinct(StockCol)
	if err != nil {
		return nil, fmt.Errorf("news %s: %w", opts.NewsPath, err)
	}
	s.logger.Info().
		Str("path", opts.NewsPath).
		Str("tickers", humanize.Comma(int64(len(tickers)))).
		Msg("Found unique stocks in news")

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meta, err := s.storage.ReadTable(opts.MetaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbol registry: %w", err)
	}
	meta.Rename(metaRenames)
	if !meta.Has(StockCol) {
		return nil, fmt.Errorf("symbol registry %s: %w: '%s'", opts.MetaPath, tablefs.ErrColumnNotFound, StockCol)
	}

	out := Join(tickers, meta)

	if err := s.storage.WriteTable(opts.OutPath, out); err != nil {
		return nil, fmt.Errorf("failed to write lookup: %w", err)
	}

	result := &Result{
		Table:       out,
		NewsTickers: len(tickers),
		MetaRows:    meta.Len(),
		Rows:        out.Len(),
		Unmatched:   len(tickers) - countMatched(out),
		OutPath:     opts.OutPath,
	}

	s.logger.Info().
		Str("path", opts.OutPath).
		Str("rows", humanize.Comma(int64(result.Rows))).
		Int("unmatched_tickers", result.Unmatched).
		Msg("Lookup table written")
	for _, row := range out.Head(opts.Preview) {
		s.logger.Info().Str("id", row["id"]).Str("stock", row[StockCol]).Str("security_name", row["security_name"]).Msg("Lookup row")
	}

	return result, nil
}

// Join inner-joins tickers (already sorted) against meta on the stock
// column. Rows follow ticker order, registry duplicates fan out, and the
// id column counts output rows from zero. Columns are id, stock, then the
// remaining registry columns in their original order.
func Join(tickers []string, meta *tablefs.Table) *tablefs.Table {
	stockIdx := meta.Index(StockCol)

	header := []string{"id", StockCol}
	var rest []int
	for i, h := range meta.Header {
		if i == stockIdx {
			continue
		}
		header = append(header, h)
		rest = append(rest, i)
	}
	out := tablefs.NewTable(header...)

	byStock := make(map[string][][]string, meta.Len())
	for _, row := range meta.Rows {
		byStock[row[stockIdx]] = append(byStock[row[stockIdx]], row)
	}

	for _, ticker := range tickers {
		for _, row := range byStock[ticker] {
			rec := make([]string, 0, len(header))
			rec = append(rec, strconv.Itoa(out.Len()), ticker)
			for _, i := range rest {
				rec = append(rec, row[i])
			}
			out.Rows = append(out.Rows, rec)
		}
	}
	return out
}

func countMatched(t *tablefs.Table) int {
	seen := make(map[string]struct{})
	idx := t.Index(StockCol)
	for _, row := range t.Rows {
		seen[row[idx]] = struct{}{}
	}
	return len(seen)
}

// Package cleanse prunes the per-ticker price files and the derived datasets
// down to the tickers present in the lookup table.
package cleanse

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
)

// StockCol is the ticker column of the news and lookup tables
const StockCol = "stock"

// ErrTickerSetMismatch is returned in strict mode when the lookup tickers and
// the remaining price files disagree.
var ErrTickerSetMismatch = errors.New("lookup tickers and price files disagree")

// Options locates the folders and tables of a cleanse run
type Options struct {
	StocksDir     string
	RemovedDir    string
	LookupPath    string
	NewsPath      string
	NewsOutPath   string
	LookupOutPath string
	Strict        bool
	DryRun        bool
}

// Report describes what a run did
type Report struct {
	Moved        []string // file names moved (or that would be moved) to RemovedDir
	Kept         int      // price files left in StocksDir
	LookupOnly   []string // lookup tickers with no price file
	NewsBefore   int
	NewsAfter    int
	LookupBefore int
	LookupAfter  int
}

// Service runs dataset cleanses
type Service struct {
	storage interfaces.TableStorage
	logger  *common.Logger
}

// NewService creates a new cleanse service
func NewService(storage interfaces.TableStorage, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger,
	}
}

// Run moves price files whose ticker is not in the lookup table to the
// removed folder, then filters the news and lookup tables to the tickers
// whose files remain. A rerun after a crash picks up where the moves stopped.
func (s *Service) Run(ctx context.Context, opts Options) (*Report, error) {
	if !opts.DryRun {
		if err := s.storage.EnsureDir(opts.RemovedDir); err != nil {
			return nil, err
		}
	}

	lookup, err := s.storage.ReadTable(opts.LookupPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup: %w", err)
	}
	lookupTickers, err := lookup.Distinct(StockCol)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", opts.LookupPath, err)
	}
	valid := toSet(lookupTickers)

	files, err := s.storage.ListTickers(opts.StocksDir)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	var remaining []string
	for _, ticker := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if _, ok := valid[ticker]; ok {
			remaining = append(remaining, ticker)
			continue
		}

		name := ticker + ".csv"
		if !opts.DryRun {
			src := filepath.Join(opts.StocksDir, name)
			dst := filepath.Join(opts.RemovedDir, name)
			if err := s.storage.MoveFile(src, dst); err != nil {
				return report, err
			}
		}
		report.Moved = append(report.Moved, name)
		s.logger.Debug().Str("file", name).Str("to", opts.RemovedDir).Bool("dry_run", opts.DryRun).Msg("Moved")
	}

	if !opts.DryRun {
		// recompute from what is actually on disk
		remaining, err = s.storage.ListTickers(opts.StocksDir)
		if err != nil {
			return report, err
		}
	}
	report.Kept = len(remaining)

	s.logger.Info().
		Int("moved", len(report.Moved)).
		Str("kept", humanize.Comma(int64(report.Kept))).
		Bool("dry_run", opts.DryRun).
		Msg("Cleanup done")

	kept := toSet(remaining)
	report.LookupOnly = missingFrom(lookupTickers, kept)
	extra := missingFrom(remaining, valid)
	if len(report.LookupOnly) > 0 || len(extra) > 0 {
		s.logger.Warn().
			Int("lookup_without_file", len(report.LookupOnly)).
			Int("files_not_in_lookup", len(extra)).
			Str("sample", sample(append(report.LookupOnly, extra...), 5)).
			Msg("Lookup tickers and price files disagree, filtering by price files")
		if opts.Strict {
			return report, fmt.Errorf("%w: %d lookup tickers without a price file, %d price files not in lookup",
				ErrTickerSetMismatch, len(report.LookupOnly), len(extra))
		}
	}

	news, err := s.storage.ReadTable(opts.NewsPath)
	if err != nil {
		return report, fmt.Errorf("failed to read news: %w", err)
	}
	newsFiltered, err := news.FilterIn(StockCol, kept)
	if err != nil {
		return report, fmt.Errorf("news %s: %w", opts.NewsPath, err)
	}
	lookupFiltered, err := lookup.FilterIn(StockCol, kept)
	if err != nil {
		return report, fmt.Errorf("lookup %s: %w", opts.LookupPath, err)
	}

	report.NewsBefore, report.NewsAfter = news.Len(), newsFiltered.Len()
	report.LookupBefore, report.LookupAfter = lookup.Len(), lookupFiltered.Len()

	if !opts.DryRun {
		if err := s.storage.WriteTable(opts.NewsOutPath, newsFiltered); err != nil {
			return report, fmt.Errorf("failed to write filtered news: %w", err)
		}
		if err := s.storage.WriteTable(opts.LookupOutPath, lookupFiltered); err != nil {
			return report, fmt.Errorf("failed to write filtered lookup: %w", err)
		}
	}

	s.logger.Info().
		Str("before", humanize.Comma(int64(report.NewsBefore))).
		Str("after", humanize.Comma(int64(report.NewsAfter))).
		Str("path", opts.NewsOutPath).
		Msg("Analyst rows filtered")
	s.logger.Info().
		Str("before", humanize.Comma(int64(report.LookupBefore))).
		Str("after", humanize.Comma(int64(report.LookupAfter))).
		Str("path", opts.LookupOutPath).
		Msg("Lookup rows filtered")

	return report, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// missingFrom returns the sorted values not in set
func missingFrom(values []string, set map[string]struct{}) []string {
	var out []string
	for _, v := range values {
		if _, ok := set[v]; !ok {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func sample(values []string, n int) string {
	if len(values) <= n {
		return strings.Join(values, ",")
	}
	return strings.Join(values[:n], ",") + fmt.Sprintf(",... (+%d)", len(values)-n)
}

// Package sentiment labels news headlines as positive, neutral or negative,
// either with a hosted language model or a local lexicon.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/patrickmn/go-cache"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/interfaces"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/checkpoint"
)

// SentimentCol is the column the labels are written to
const SentimentCol = "sentiment"

// ErrMissingTitleColumn is returned when the input has no title column
var ErrMissingTitleColumn = errors.New("input must have a title column")

const (
	DefaultConcurrency = 4
	DefaultMaxRetries  = 3
	DefaultMinBackoff  = time.Second
	DefaultMaxBackoff  = 30 * time.Second
	DefaultMemoTTL     = 24 * time.Hour
)

// Options configures a classification run
type Options struct {
	InputPath  string
	OutputPath string
	TitleCol   string

	Concurrency int
	MaxRetries  int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration

	Checkpoint    bool
	CheckpointDir string

	// Preview is the number of labelled rows logged after writing
	Preview int
}

// OptionsFromConfig fills Options from the classify and paths config
func OptionsFromConfig(cfg *common.Config) Options {
	return Options{
		InputPath:     cfg.Classify.Input,
		OutputPath:    cfg.Classify.Output,
		TitleCol:      cfg.Classify.TitleCol,
		Concurrency:   cfg.Classify.Concurrency,
		MaxRetries:    cfg.Classify.MaxRetries,
		MinBackoff:    cfg.Classify.GetMinBackoff(),
		MaxBackoff:    cfg.Classify.GetMaxBackoff(),
		Checkpoint:    cfg.Classify.Checkpoint,
		CheckpointDir: cfg.Paths.CheckpointDir,
		Preview:       5,
	}
}

// RunReport summarises a run
type RunReport struct {
	Strategy   string
	Rows       int
	Counts     map[models.Label]int
	Classified int // rows labelled by a classifier call in this run
	Resumed    int // rows restored from the checkpoint
	Memoized   int // rows answered from an earlier identical title
	Failed     int // rows left unknown after retries were exhausted
	OutputPath string
	Elapsed    time.Duration
}

// Runner classifies every row of a headline table
type Runner struct {
	classifier interfaces.Classifier
	storage    interfaces.TableStorage
	logger     *common.Logger
	memo       *cache.Cache
}

// NewRunner creates a runner for classifier
func NewRunner(classifier interfaces.Classifier, storage interfaces.TableStorage, logger *common.Logger) *Runner {
	return &Runner{
		classifier: classifier,
		storage:    storage,
		logger:     logger,
		memo:       cache.New(DefaultMemoTTL, time.Hour),
	}
}

// job is one distinct title and the rows carrying it
type job struct {
	title string
	rows  []int
}

// Run reads the input table, labels every title and writes the table with a
// sentiment column. Rows keep their input order. With checkpointing on,
// finished rows are recorded as they complete and skipped by a later run.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunReport, error) {
	opts = withDefaults(opts)
	start := time.Now()

	tbl, err := r.storage.ReadTable(opts.InputPath)
	if err != nil {
		return nil, err
	}
	if !tbl.Has(opts.TitleCol) {
		return nil, fmt.Errorf("%w: '%s' in %s", ErrMissingTitleColumn, opts.TitleCol, opts.InputPath)
	}
	titles, _ := tbl.Column(opts.TitleCol)

	report := &RunReport{
		Strategy:   r.classifier.Name(),
		Rows:       len(titles),
		Counts:     make(map[models.Label]int),
		OutputPath: opts.OutputPath,
	}
	labels := make([]models.Label, len(titles))
	done := make([]bool, len(titles))

	var cp *checkpoint.Store
	if opts.Checkpoint {
		cp, err = checkpoint.Open(r.logger, opts.CheckpointDir, checkpoint.Key(opts.InputPath, r.classifier.Name()))
		if err != nil {
			return nil, err
		}
		defer cp.Close()

		entries, err := cp.Load()
		if err != nil {
			return nil, err
		}
		for row, e := range entries {
			if row < 0 || row >= len(titles) || e.Hash != checkpoint.HashTitle(titles[row]) {
				continue
			}
			labels[row] = e.Label
			done[row] = true
			report.Resumed++
			r.memo.Set(r.memoKey(titles[row]), e.Label, cache.DefaultExpiration)
		}
		if report.Resumed > 0 {
			r.logger.Info().Int("rows", report.Resumed).Str("checkpoint", cp.Path()).Msg("Resuming from checkpoint")
		}
	}

	// group pending rows by title so each distinct title is classified once
	var jobs []*job
	byTitle := make(map[string]*job)
	for row, title := range titles {
		if done[row] {
			continue
		}
		if cached, ok := r.memo.Get(r.memoKey(title)); ok {
			labels[row] = cached.(models.Label)
			done[row] = true
			report.Memoized++
			r.record(cp, row, title, labels[row])
			continue
		}
		if j, ok := byTitle[title]; ok {
			j.rows = append(j.rows, row)
			continue
		}
		j := &job{title: title, rows: []int{row}}
		byTitle[title] = j
		jobs = append(jobs, j)
	}

	r.logger.Info().
		Str("strategy", r.classifier.Name()).
		Str("rows", humanize.Comma(int64(len(titles)))).
		Str("distinct_pending", humanize.Comma(int64(len(jobs)))).
		Int("concurrency", opts.Concurrency).
		Msg("Classifying headlines")

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, opts.Concurrency)
	)

dispatch:
	for _, j := range jobs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break dispatch
		}

		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			defer func() { <-sem }()

			label, err := r.classifyWithRetry(ctx, j.title, opts)

			mu.Lock()
			defer mu.Unlock()
			for _, row := range j.rows {
				labels[row] = label
			}
			if err != nil {
				report.Failed += len(j.rows)
				if ctx.Err() == nil {
					r.logger.Warn().Err(err).Str("title", truncate(j.title, 80)).Int("rows", len(j.rows)).Msg("Classification failed, labelled unknown")
				}
				return
			}
			report.Classified++
			report.Memoized += len(j.rows) - 1
			r.memo.Set(r.memoKey(j.title), label, cache.DefaultExpiration)
			for _, row := range j.rows {
				r.record(cp, row, j.title, label)
			}
		}(j)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("classification interrupted: %w", err)
	}

	values := make([]string, len(labels))
	for i, l := range labels {
		if l == "" {
			l = models.LabelUnknown
		}
		values[i] = string(l)
		report.Counts[l]++
	}
	if err := tbl.SetColumn(SentimentCol, values); err != nil {
		return report, err
	}
	if err := r.storage.WriteTable(opts.OutputPath, tbl); err != nil {
		return report, fmt.Errorf("failed to write %s: %w", opts.OutputPath, err)
	}

	// a clean run needs no resume point; failed rows keep it so a rerun retries only them
	if cp != nil && report.Failed == 0 {
		if err := cp.Remove(); err != nil {
			r.logger.Warn().Err(err).Msg("Failed to remove checkpoint")
		}
	}

	report.Elapsed = time.Since(start)
	r.logger.Info().
		Str("path", opts.OutputPath).
		Int("positive", report.Counts[models.LabelPositive]).
		Int("neutral", report.Counts[models.LabelNeutral]).
		Int("negative", report.Counts[models.LabelNegative]).
		Int("unknown", report.Counts[models.LabelUnknown]).
		Int("resumed", report.Resumed).
		Int("memoized", report.Memoized).
		Int("failed", report.Failed).
		Str("elapsed", report.Elapsed.Round(time.Millisecond).String()).
		Msg("Wrote classified headlines")
	for i := 0; i < opts.Preview && i < len(titles); i++ {
		r.logger.Info().Str("title", truncate(titles[i], 80)).Str("sentiment", values[i]).Msg("Preview")
	}

	return report, nil
}

// classifyWithRetry retries client errors with exponential backoff. After the
// last attempt the label is unknown and the error is returned.
func (r *Runner) classifyWithRetry(ctx context.Context, title string, opts Options) (models.Label, error) {
	delay := opts.MinBackoff
	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		label, err := r.classifier.Classify(ctx, title)
		if err == nil {
			return label, nil
		}
		lastErr = err
		if ctx.Err() != nil || attempt == opts.MaxRetries {
			break
		}

		r.logger.Debug().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Msg("Retrying classification")
		select {
		case <-ctx.Done():
			return models.LabelUnknown, ctx.Err()
		case <-time.After(delay):
		}
		delay = min(delay*2, opts.MaxBackoff)
	}
	return models.LabelUnknown, fmt.Errorf("gave up after %d attempts: %w", opts.MaxRetries+1, lastErr)
}

// record appends a finished row to the checkpoint, if one is open
func (r *Runner) record(cp *checkpoint.Store, row int, title string, label models.Label) {
	if cp == nil {
		return
	}
	if err := cp.Append(checkpoint.Entry{Row: row, Hash: checkpoint.HashTitle(title), Label: label}); err != nil {
		r.logger.Warn().Err(err).Int("row", row).Msg("Failed to record checkpoint")
	}
}

func (r *Runner) memoKey(title string) string {
	return r.classifier.Name() + "\x00" + title
}

func withDefaults(opts Options) Options {
	if opts.TitleCol == "" {
		opts.TitleCol = "title"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = DefaultMinBackoff
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = max(DefaultMaxBackoff, opts.MinBackoff)
	}
	if opts.CheckpointDir == "" {
		opts.CheckpointDir = "data/checkpoints"
	}
	return opts
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

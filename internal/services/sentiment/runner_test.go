package sentiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/checkpoint"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
	testcommon "github.com/bobmcallan/finsent/test/common"
)

type runnerFixture struct {
	opts   Options
	store  *tablefs.Store
	logger *common.Logger
}

func newRunnerFixture(t *testing.T, csv string) *runnerFixture {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "tables", "test_sample.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0755))
	require.NoError(t, os.WriteFile(input, []byte(csv), 0644))

	logger := common.NewSilentLogger()
	return &runnerFixture{
		opts: Options{
			InputPath:     input,
			OutputPath:    filepath.Join(dir, "tables", "test_sample_with_sentiment.csv"),
			Concurrency:   4,
			MaxRetries:    3,
			MinBackoff:    time.Millisecond,
			MaxBackoff:    2 * time.Millisecond,
			Checkpoint:    true,
			CheckpointDir: filepath.Join(dir, "checkpoints"),
		},
		store:  tablefs.NewStore(logger),
		logger: logger,
	}
}

func (f *runnerFixture) runner(c *RemoteClassifier) *Runner {
	return NewRunner(c, f.store, f.logger)
}

func (f *runnerFixture) output(t *testing.T) *tablefs.Table {
	t.Helper()
	tbl, err := f.store.ReadTable(f.opts.OutputPath)
	require.NoError(t, err)
	return tbl
}

func sentiments(t *testing.T, tbl *tablefs.Table) []string {
	t.Helper()
	col, err := tbl.Column(SentimentCol)
	require.NoError(t, err)
	return col
}

func TestRun_PreservesOrderUnderConcurrency(t *testing.T) {
	var b strings.Builder
	b.WriteString("title,stock\n")
	mock := testcommon.NewMockLLMClient()
	mock.Delay = 5 * time.Millisecond
	want := make([]string, 20)
	for i := 0; i < 20; i++ {
		title := fmt.Sprintf("headline %02d", i)
		fmt.Fprintf(&b, "%s,T%d\n", title, i)
		if i%2 == 0 {
			mock.Replies[title] = `{"label": "positive"}`
			want[i] = "positive"
		} else {
			mock.Replies[title] = `[{"label": "negative"}]`
			want[i] = "negative"
		}
	}
	f := newRunnerFixture(t, b.String())

	report, err := f.runner(NewRemoteClassifier(mock, "gemini")).Run(context.Background(), f.opts)
	require.NoError(t, err)

	assert.Equal(t, want, sentiments(t, f.output(t)))
	assert.Equal(t, 20, report.Classified)
	assert.Equal(t, 10, report.Counts[models.LabelPositive])
	assert.Equal(t, 10, report.Counts[models.LabelNegative])
	assert.LessOrEqual(t, mock.PeakInFlight(), 4)
	assert.Greater(t, mock.PeakInFlight(), 1)
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	f := newRunnerFixture(t, "title\nalpha\nbeta\ngamma\n")
	mock := testcommon.NewMockLLMClient()
	mock.Default = `{"label": "positive"}`
	mock.FailFirst = 2

	report, err := f.runner(NewRemoteClassifier(mock, "gemini")).Run(context.Background(), f.opts)
	require.NoError(t, err)

	assert.Equal(t, 9, mock.Calls())
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []string{"positive", "positive", "positive"}, sentiments(t, f.output(t)))
}

func TestRun_ExhaustedRetriesAreNotRemembered(t *testing.T) {
	f := newRunnerFixture(t, "title\nalpha\nbeta\n")
	f.opts.MaxRetries = 0
	mock := testcommon.NewMockLLMClient()
	mock.Default = `{"label": "negative"}`
	mock.FailFirst = 2
	runner := f.runner(NewRemoteClassifier(mock, "gemini"))

	// first and second runs exhaust their single attempt per title
	for i := 0; i < 2; i++ {
		report, err := runner.Run(context.Background(), f.opts)
		require.NoError(t, err)
		assert.Equal(t, 2, report.Failed)
		assert.Equal(t, 0, report.Resumed)
		assert.Equal(t, 0, report.Memoized)
		assert.Equal(t, []string{"unknown", "unknown"}, sentiments(t, f.output(t)))
	}

	report, err := runner.Run(context.Background(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, []string{"negative", "negative"}, sentiments(t, f.output(t)))
	assert.Equal(t, 6, mock.Calls())
}

func TestRun_EmptyReplyIsUnknownWithoutRetry(t *testing.T) {
	f := newRunnerFixture(t, "title\nblocked\nfine\n")
	mock := testcommon.NewMockLLMClient()
	mock.Replies["blocked"] = ""
	mock.Replies["fine"] = `{"label": "positive"}`

	report, err := f.runner(NewRemoteClassifier(mock, "gemini")).Run(context.Background(), f.opts)
	require.NoError(t, err)

	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, 1, report.Counts[models.LabelUnknown])
	assert.Equal(t, []string{"unknown", "positive"}, sentiments(t, f.output(t)))
	assert.NoFileExists(t, filepath.Join(f.opts.CheckpointDir, checkpoint.Key(f.opts.InputPath, "gemini")+".jsonl"))
}

func TestRun_DuplicateTitlesClassifiedOnce(t *testing.T) {
	f := newRunnerFixture(t, "title\nsame\nother\nsame\nsame\n")
	f.opts.Checkpoint = false
	mock := testcommon.NewMockLLMClient()
	mock.Replies["same"] = `{"label": "positive"}`
	mock.Replies["other"] = `{"label": "negative"}`
	runner := f.runner(NewRemoteClassifier(mock, "gemini"))

	report, err := runner.Run(context.Background(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, 2, report.Memoized)
	assert.Equal(t, []string{"positive", "negative", "positive", "positive"}, sentiments(t, f.output(t)))

	report, err = runner.Run(context.Background(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls(), "second run answers from the memo")
	assert.Equal(t, 4, report.Memoized)
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	f := newRunnerFixture(t, "title\nfirst\nsecond\nthird\n")

	cp, err := checkpoint.Open(f.logger, f.opts.CheckpointDir, checkpoint.Key(f.opts.InputPath, "gemini"))
	require.NoError(t, err)
	require.NoError(t, cp.Append(checkpoint.Entry{Row: 0, Hash: checkpoint.HashTitle("first"), Label: models.LabelNegative}))
	// the title at row 1 changed since it was recorded
	require.NoError(t, cp.Append(checkpoint.Entry{Row: 1, Hash: checkpoint.HashTitle("edited"), Label: models.LabelPositive}))
	require.NoError(t, cp.Close())

	mock := testcommon.NewMockLLMClient()
	report, err := f.runner(NewRemoteClassifier(mock, "gemini")).Run(context.Background(), f.opts)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Resumed)
	assert.Equal(t, 2, mock.Calls())
	assert.Equal(t, []string{"negative", "neutral", "neutral"}, sentiments(t, f.output(t)))
	assert.NoFileExists(t, cp.Path(), "completed run removes its checkpoint")
}

func TestRun_MissingTitleColumn(t *testing.T) {
	f := newRunnerFixture(t, "headline,stock\nx,A\n")
	mock := testcommon.NewMockLLMClient()

	_, err := f.runner(NewRemoteClassifier(mock, "gemini")).Run(context.Background(), f.opts)
	assert.ErrorIs(t, err, ErrMissingTitleColumn)
	assert.Equal(t, 0, mock.Calls())
	assert.NoFileExists(t, f.opts.OutputPath)
}

func TestRun_CancelledDoesNotWriteOutput(t *testing.T) {
	f := newRunnerFixture(t, "title\na\nb\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.runner(NewRemoteClassifier(testcommon.NewMockLLMClient(), "gemini")).Run(ctx, f.opts)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, f.opts.OutputPath)
}

func TestRun_LexiconReplacesSentimentColumn(t *testing.T) {
	f := newRunnerFixture(t, "title,stock,sentiment\nstock surges on record profit,A,old\nmarkets flat amid holiday,B,old\n")

	runner := NewRunner(NewLexiconClassifier(), f.store, f.logger)
	report, err := runner.Run(context.Background(), f.opts)
	require.NoError(t, err)
	assert.Equal(t, "lexicon", report.Strategy)

	out := f.output(t)
	assert.Equal(t, []string{"title", "stock", "sentiment"}, out.Header)
	assert.Equal(t, [][]string{
		{"stock surges on record profit", "A", "positive"},
		{"markets flat amid holiday", "B", "neutral"},
	}, out.Rows)
}

func TestRemoteClassifier_MalformedReplyIsUnknownWithoutError(t *testing.T) {
	mock := testcommon.NewMockLLMClient()
	mock.Default = "{not json"
	c := NewRemoteClassifier(mock, "gemini")

	label, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, models.LabelUnknown, label)

	mock.Default = ""
	label, err = c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, models.LabelUnknown, label)

	mock.FailFirst = 10
	label, err = c.Classify(context.Background(), "failing title")
	assert.Error(t, err)
	assert.Equal(t, models.LabelUnknown, label)
}

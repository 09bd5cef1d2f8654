package prices

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
	testcommon "github.com/bobmcallan/finsent/test/common"
)

func TestSymbol(t *testing.T) {
	tests := []struct {
		ticker, exchange, symbol, file string
	}{
		{"aapl", "US", "AAPL.US", "AAPL"},
		{"AAPL.US", "US", "AAPL.US", "AAPL"},
		{"BHP.AU", "US", "BHP.AU", "BHP.AU"},
		{"NVDA", "", "NVDA", "NVDA"},
	}
	for _, tt := range tests {
		symbol, file := Symbol(tt.ticker, tt.exchange)
		if symbol != tt.symbol || file != tt.file {
			t.Errorf("Symbol(%q, %q) = %q, %q; want %q, %q", tt.ticker, tt.exchange, symbol, file, tt.symbol, tt.file)
		}
	}
}

func TestFetch_WritesAscendingFile(t *testing.T) {
	mock := testcommon.NewMockEODHDClient()
	mock.EODData["NVDA.US"] = &models.EODResponse{Data: []models.EODBar{
		{Date: time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), Open: 2, High: 3, Low: 1, Close: 2.5, AdjClose: 2.4, Volume: 200},
		{Date: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5, AdjClose: 1.4, Volume: 100},
	}}

	logger := common.NewSilentLogger()
	store := tablefs.NewStore(logger)
	svc := NewService(mock, store, logger)
	dir := t.TempDir()

	res, err := svc.Fetch(context.Background(), "nvda", Options{PriceDir: dir, Exchange: "US"})
	require.NoError(t, err)
	assert.Equal(t, "NVDA.US", res.Symbol)
	assert.Equal(t, 2, res.Bars)
	assert.Equal(t, filepath.Join(dir, "NVDA.csv"), res.Path)
	require.Len(t, mock.Params, 1)
	assert.Equal(t, "d", mock.Params[0].Period)
	assert.Equal(t, "a", mock.Params[0].Order)

	tbl, err := store.ReadTable(res.Path)
	require.NoError(t, err)
	assert.Equal(t, Header, tbl.Header)
	assert.Equal(t, []string{"2020-01-02", "1", "2", "0.5", "1.5", "1.4", "100"}, tbl.Rows[0])
	assert.Equal(t, "2020-01-03", tbl.Rows[1][0])
}

func TestFetch_PassesPeriod(t *testing.T) {
	mock := testcommon.NewMockEODHDClient()
	logger := common.NewSilentLogger()
	svc := NewService(mock, tablefs.NewStore(logger), logger)

	_, err := svc.Fetch(context.Background(), "MSFT", Options{PriceDir: t.TempDir(), Exchange: "US", Period: "w"})
	require.NoError(t, err)
	require.Len(t, mock.Params, 1)
	assert.Equal(t, "w", mock.Params[0].Period)
}

func TestFetchAll_ContinuesPastFailures(t *testing.T) {
	mock := testcommon.NewMockEODHDClient()
	mock.Errors["BAD.US"] = errors.New("boom")

	logger := common.NewSilentLogger()
	svc := NewService(mock, tablefs.NewStore(logger), logger)

	results, err := svc.FetchAll(context.Background(), []string{"BAD", "GOOD"}, Options{PriceDir: t.TempDir(), Exchange: "US"})
	assert.Error(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "GOOD", results[0].Ticker)
	assert.Equal(t, []string{"BAD.US", "GOOD.US"}, mock.Tickers)
}

package tablefs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return NewStore(common.NewSilentLogger())
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStore_ReadTable_PadsAndStripsBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	writeFile(t, path, "\ufefftitle,stock,date\n\"Apple, Inc. beats\",AAPL,2020-01-02\nshort row,MSFT\n")

	store := newTestStore()
	tbl, err := store.ReadTable(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "stock", "date"}, tbl.Header)
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"Apple, Inc. beats", "AAPL", "2020-01-02"}, tbl.Rows[0])
	assert.Equal(t, []string{"short row", "MSFT", ""}, tbl.Rows[1])
}

func TestStore_ReadTable_RejectsLongRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	writeFile(t, path, "title,stock\nMicrosoft beats,MSFT\nApple, Inc. beats,AAPL,extra\n")

	tbl, err := newTestStore().ReadTable(path)
	require.ErrorIs(t, err, ErrMalformedRow)
	assert.Nil(t, tbl)
	assert.Contains(t, err.Error(), "line 3")
}

func TestStore_ReadTable_Missing(t *testing.T) {
	store := newTestStore()
	_, err := store.ReadTable(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestStore_ReadTable_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	writeFile(t, path, "")

	_, err := newTestStore().ReadTable(path)
	assert.Error(t, err)
}

func TestStore_WriteTable_CreatesParentsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tables", "nested", "out.csv")
	tbl := NewTable("id", "stock")
	tbl.Rows = [][]string{{"0", "A"}, {"1", "C,D"}}

	store := newTestStore()
	require.NoError(t, store.WriteTable(path, tbl))

	got, err := store.ReadTable(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, got.Header)
	assert.Equal(t, tbl.Rows, got.Rows)

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStore_ListTickers(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "MSFT.csv"), "Date,Close\n")
	writeFile(t, filepath.Join(dir, "AAPL.csv"), "Date,Close\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	tickers, err := newTestStore().ListTickers(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)
}

func TestStore_MoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src", "B.csv")
	dst := filepath.Join(dir, "removed", "B.csv")
	writeFile(t, src, "Date,Close\n")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0755))

	require.NoError(t, newTestStore().MoveFile(src, dst))
	assert.NoFileExists(t, src)
	assert.FileExists(t, dst)
}

func TestTable_SetColumn(t *testing.T) {
	tbl := NewTable("title")
	tbl.Rows = [][]string{{"a"}, {"b"}}

	require.NoError(t, tbl.SetColumn("sentiment", []string{"positive", "negative"}))
	assert.Equal(t, []string{"title", "sentiment"}, tbl.Header)
	assert.Equal(t, []string{"b", "negative"}, tbl.Rows[1])

	// replacing keeps the header width
	require.NoError(t, tbl.SetColumn("sentiment", []string{"neutral", "neutral"}))
	assert.Len(t, tbl.Header, 2)
	assert.Equal(t, "neutral", tbl.Rows[0][1])

	assert.Error(t, tbl.SetColumn("x", []string{"only one"}))
}

func TestTable_DistinctAndFilterIn(t *testing.T) {
	tbl := NewTable("stock", "title")
	tbl.Rows = [][]string{{"C", "1"}, {"A", "2"}, {"", "3"}, {"C", "4"}, {"B", "5"}}

	distinct, err := tbl.Distinct("stock")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, distinct)

	kept, err := tbl.FilterIn("stock", map[string]struct{}{"C": {}})
	require.NoError(t, err)
	assert.Equal(t, 2, kept.Len())

	_, err = tbl.FilterIn("ticker", nil)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

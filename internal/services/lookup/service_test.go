package lookup

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/storage/tablefs"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newService() (*Service, *tablefs.Store) {
	logger := common.NewSilentLogger()
	store := tablefs.NewStore(logger)
	return NewService(store, logger), store
}

func TestBuild_InnerJoinSortedWithIDs(t *testing.T) {
	dir := t.TempDir()
	news := filepath.Join(dir, "news.csv")
	meta := filepath.Join(dir, "meta.csv")
	out := filepath.Join(dir, "out", "lookup.csv")

	writeFile(t, news, "title,date,stock\nx,2020-01-01,C\ny,2020-01-02,B\nz,2020-01-03,A\nw,2020-01-04,C\nv,2020-01-05,\n")
	writeFile(t, meta, "Nasdaq Traded,Symbol,Security Name,Listing Exchange\nY,C,Charlie Corp,N\nY,A,Alpha Inc,Q\nY,Z,Zulu Ltd,N\n")

	svc, store := newService()
	result, err := svc.Build(context.Background(), Options{NewsPath: news, MetaPath: meta, OutPath: out, Preview: 5})
	require.NoError(t, err)

	assert.Equal(t, 3, result.NewsTickers)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 1, result.Unmatched)

	got, err := store.ReadTable(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "stock", "Nasdaq Traded", "security_name", "Listing Exchange"}, got.Header)
	assert.Equal(t, [][]string{
		{"0", "A", "Y", "Alpha Inc", "Q"},
		{"1", "C", "Y", "Charlie Corp", "N"},
	}, got.Rows)
}

func TestJoin_DuplicateRegistryRowsFanOut(t *testing.T) {
	meta := tablefs.NewTable("stock", "security_name")
	meta.Rows = [][]string{{"A", "Alpha common"}, {"B", "Beta"}, {"A", "Alpha preferred"}}

	out := Join([]string{"A", "B"}, meta)
	require.Equal(t, 3, out.Len())
	assert.Equal(t, []string{"0", "A", "Alpha common"}, out.Rows[0])
	assert.Equal(t, []string{"1", "A", "Alpha preferred"}, out.Rows[1])
	assert.Equal(t, []string{"2", "B", "Beta"}, out.Rows[2])
}

func TestBuild_Errors(t *testing.T) {
	dir := t.TempDir()
	svc, _ := newService()

	_, err := svc.Build(context.Background(), Options{
		NewsPath: filepath.Join(dir, "missing.csv"),
		MetaPath: filepath.Join(dir, "meta.csv"),
		OutPath:  filepath.Join(dir, "out.csv"),
	})
	assert.ErrorIs(t, err, tablefs.ErrFileNotFound)

	news := filepath.Join(dir, "news.csv")
	writeFile(t, news, "title,ticker\nx,A\n")
	_, err = svc.Build(context.Background(), Options{NewsPath: news, MetaPath: news, OutPath: filepath.Join(dir, "out.csv")})
	assert.ErrorIs(t, err, tablefs.ErrColumnNotFound)

	writeFile(t, news, "title,stock\nx,A\n")
	meta := filepath.Join(dir, "meta.csv")
	writeFile(t, meta, "Ticker,Security Name\nA,Alpha\n")
	_, err = svc.Build(context.Background(), Options{NewsPath: news, MetaPath: meta, OutPath: filepath.Join(dir, "out.csv")})
	assert.ErrorIs(t, err, tablefs.ErrColumnNotFound)
	assert.NoFileExists(t, filepath.Join(dir, "out.csv"))
}

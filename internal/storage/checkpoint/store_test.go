package checkpoint

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bobmcallan/finsent/internal/common"
	"github.com/bobmcallan/finsent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AppendLoadReopen(t *testing.T) {
	dir := t.TempDir()
	logger := common.NewSilentLogger()

	store, err := Open(logger, dir, "sample-gemini")
	require.NoError(t, err)

	require.NoError(t, store.Append(Entry{Row: 0, Hash: HashTitle("a"), Label: models.LabelPositive}))
	require.NoError(t, store.Append(Entry{Row: 2, Hash: HashTitle("c"), Label: models.LabelNegative}))
	require.NoError(t, store.Close())

	reopened, err := Open(logger, dir, "sample-gemini")
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.LabelNegative, entries[2].Label)
	assert.Equal(t, HashTitle("a"), entries[0].Hash)
}

func TestStore_LoadSkipsTornLine(t *testing.T) {
	dir := t.TempDir()
	logger := common.NewSilentLogger()

	store, err := Open(logger, dir, "torn")
	require.NoError(t, err)
	require.NoError(t, store.Append(Entry{Row: 1, Hash: "h", Label: models.LabelNeutral}))
	require.NoError(t, store.Close())

	f, err := os.OpenFile(store.Path(), os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"row":2,"hash":"x","lab`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened, err := Open(logger, dir, "torn")
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, 1)
}

func TestStore_ConcurrentAppend(t *testing.T) {
	store, err := Open(common.NewSilentLogger(), t.TempDir(), "concurrent")
	require.NoError(t, err)
	defer store.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(row int) {
			defer wg.Done()
			assert.NoError(t, store.Append(Entry{Row: row, Hash: "h", Label: models.LabelNeutral}))
		}(i)
	}
	wg.Wait()

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestStore_Remove(t *testing.T) {
	store, err := Open(common.NewSilentLogger(), t.TempDir(), "done")
	require.NoError(t, err)

	require.NoError(t, store.Remove())
	assert.NoFileExists(t, store.Path())
	assert.Error(t, store.Append(Entry{Row: 0}))
}

func TestKey_StablePerInputAndStrategy(t *testing.T) {
	a := Key("tables/test_sample.csv", "gemini")
	assert.Equal(t, a, Key("tables/test_sample.csv", "gemini"))
	assert.NotEqual(t, a, Key("tables/test_sample.csv", "lexicon"))
	assert.NotContains(t, a, string(filepath.Separator))
}

package store_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guidryheal-create/trader.exe-sub001/internal/adapters/store"
	"github.com/guidryheal-create/trader.exe-sub001/internal/application/common"
)

func TestMemoryStore_GetSetDel(t *testing.T) {
	// Arrange
	s := store.NewMemoryStore()
	ctx := context.Background()

	// Act / Assert
	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set(ctx, "key", "value"))
	got, err := s.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", got)

	require.NoError(t, s.Del(ctx, "key"))
	_, err = s.Get(ctx, "key")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStore_ListRangeSemantics(t *testing.T) {
	// Arrange
	s := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.LPush(ctx, "list", "c"))
	require.NoError(t, s.LPush(ctx, "list", "b"))
	require.NoError(t, s.LPush(ctx, "list", "a"))

	// Act / Assert - full range via -1
	all, err := s.LRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, all)

	// bounded range, stop inclusive
	head, err := s.LRange(ctx, "list", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, head)

	// out of range yields empty, not error
	empty, err := s.LRange(ctx, "list", 5, 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemoryStore_LTrimCapsList(t *testing.T) {
	// Arrange
	s := store.NewMemoryStore()
	ctx := context.Background()
	for _, v := range []string{"e", "d", "c", "b", "a"} {
		require.NoError(t, s.LPush(ctx, "list", v))
	}

	// Act
	require.NoError(t, s.LTrim(ctx, "list", 0, 2))

	// Assert
	got, err := s.LRange(ctx, "list", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestMemoryStore_HashOps(t *testing.T) {
	// Arrange
	s := store.NewMemoryStore()
	ctx := context.Background()

	// Act / Assert
	require.NoError(t, s.HSet(ctx, "hash", "field", "1"))
	got, err := s.HGet(ctx, "hash", "field")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	n, err := s.HIncrBy(ctx, "hash", "counter", 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.HIncrBy(ctx, "hash", "counter", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	all, err := s.HGetAll(ctx, "hash")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"field": "1", "counter": "5"}, all)
}

func TestFileStore_SaveLoadJSON(t *testing.T) {
	// Arrange
	files := store.NewFileStore(t.TempDir())
	doc := map[string]interface{}{"hello": "world"}

	// Act
	require.NoError(t, files.SaveJSON(filepath.Join("nested", "doc.json"), doc))

	var loaded map[string]interface{}
	err := files.LoadJSON(filepath.Join("nested", "doc.json"), &loaded)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, doc, loaded)
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	// Arrange
	files := store.NewFileStore(t.TempDir())

	// Act
	var doc map[string]interface{}
	err := files.LoadJSON("absent.json", &doc)

	// Assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestManagerStore_ConfigRoundTrip(t *testing.T) {
	// Arrange
	kv := store.NewMemoryStore()
	files := store.NewFileStore(t.TempDir())
	ms := store.NewManagerStore(kv, files, "dex", "config/dex_manager_config.json")
	ctx := context.Background()

	cfg := common.NewManagerConfig()
	cfg.Process["cycle_hours"] = float64(8)
	cfg.Runtime["watchlist_enabled"] = false

	// Act
	require.NoError(t, ms.SaveConfig(ctx, cfg))
	loaded, err := ms.LoadConfig(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, float64(8), loaded.Process["cycle_hours"])
	assert.Equal(t, false, loaded.Runtime["watchlist_enabled"])
}

func TestManagerStore_LoadConfigFallsBackToFileMirror(t *testing.T) {
	// Arrange - write through a store with both targets, then read through
	// one whose KV is empty
	dir := t.TempDir()
	files := store.NewFileStore(dir)
	writer := store.NewManagerStore(store.NewMemoryStore(), files, "dex", "config/dex_manager_config.json")
	ctx := context.Background()

	cfg := common.NewManagerConfig()
	cfg.Process["cycle_hours"] = float64(6)
	require.NoError(t, writer.SaveConfig(ctx, cfg))

	reader := store.NewManagerStore(store.NewMemoryStore(), files, "dex", "config/dex_manager_config.json")

	// Act
	loaded, err := reader.LoadConfig(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, float64(6), loaded.Process["cycle_hours"])
}

func TestManagerStore_LoadConfigNotFound(t *testing.T) {
	// Arrange
	ms := store.NewManagerStore(store.NewMemoryStore(), store.NewFileStore(t.TempDir()), "dex", "config/dex_manager_config.json")

	// Act
	_, err := ms.LoadConfig(context.Background())

	// Assert
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestManagerStore_HistoryListsAreCappedAndNamespaced(t *testing.T) {
	// Arrange
	kv := store.NewMemoryStore()
	ms := store.NewManagerStore(kv, nil, "polymarket", "config/polymarket_manager_config.json")
	ctx := context.Background()

	// Act - push past the cycle cap
	for i := 0; i < store.MaxCycleHistory+25; i++ {
		require.NoError(t, ms.PushCycleHistory(ctx, map[string]interface{}{"n": i}))
	}

	// Assert
	entries, err := ms.History(ctx, "cycles", store.MaxCycleHistory+100)
	require.NoError(t, err)
	assert.Len(t, entries, store.MaxCycleHistory)

	// newest first
	var newest map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &newest))
	assert.Equal(t, float64(store.MaxCycleHistory+24), newest["n"])

	// keys are namespaced by manager prefix
	raw, err := kv.LRange(ctx, "polymarket:history:cycles", 0, 0)
	require.NoError(t, err)
	assert.Len(t, raw, 1)
}

func TestManagerStore_SetPoolIndexWritesPairAndSymbolKeys(t *testing.T) {
	// Arrange
	kv := store.NewMemoryStore()
	ms := store.NewManagerStore(kv, nil, "dex", "")
	ctx := context.Background()

	// Act
	err := ms.SetPoolIndex(ctx, "WETH/USDC", []string{"WETH", "USDC"}, map[string]interface{}{
		"fee": 3000,
	})

	// Assert
	require.NoError(t, err)
	pair, err := kv.Get(ctx, "uviswap:pools:pair:WETH/USDC")
	require.NoError(t, err)
	assert.Contains(t, pair, "3000")
	for _, sym := range []string{"WETH", "USDC"} {
		entry, err := kv.HGet(ctx, "uviswap:pools:symbol:"+sym, "WETH/USDC")
		require.NoError(t, err)
		assert.Contains(t, entry, "3000")
	}
}

func TestManagerStore_Metrics(t *testing.T) {
	// Arrange
	ms := store.NewManagerStore(store.NewMemoryStore(), nil, "polymarket", "")
	ctx := context.Background()

	// Act
	require.NoError(t, ms.IncrMetric(ctx, "trades_today", 1))
	require.NoError(t, ms.IncrMetric(ctx, "trades_today", 1))
	metrics, err := ms.Metrics(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "2", metrics["trades_today"])
}

package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alejandrodnm/p2pbot/internal/adapters/storage"
	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFile_AppendAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	ledger := storage.NewJSONFile(path)
	ctx := context.Background()

	want := []domain.TradeRecord{makeTrade(1, "100"), makeTrade(2, "40"), makeTrade(3, "7.25")}
	for _, rec := range want {
		require.NoError(t, ledger.Append(ctx, rec))
	}

	got, err := ledger.All(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assertSameTrade(t, want[i], got[i])
	}
}

func TestJSONFile_DocumentFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	ledger := storage.NewJSONFile(path)
	require.NoError(t, ledger.Append(context.Background(), makeTrade(1, "100")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)

	doc := docs[0]
	assert.Equal(t, "2025-05-01T09:01:00Z", doc["date"])
	assert.IsType(t, float64(0), doc["buy_price"], "los importes son números, no strings")
	assert.InDelta(t, 1.5, doc["buy_price"], 1e-9)
	assert.InDelta(t, 1.52, doc["sell_price"], 1e-9)
	assert.InDelta(t, 100, doc["amount"], 1e-9)
	assert.InDelta(t, 1.3333, doc["profit"], 1e-3)
}

func TestJSONFile_ReadsLegacyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	legacy := `[
  {"date": "2024-11-02T18:04:05.123456", "buy_price": 1.7, "sell_price": 1.72, "amount": 100.0, "profit": 1.1764705882352944}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	got, err := storage.NewJSONFile(path).All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2024, got[0].Date.Year())
	assert.Equal(t, 18, got[0].Date.Hour())
	assert.Equal(t, "100", got[0].Amount.String())
}

func TestJSONFile_MissingFileIsEmpty(t *testing.T) {
	ledger := storage.NewJSONFile(filepath.Join(t.TempDir(), "nope.json"))
	got, err := ledger.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONFile_CorruptFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trades.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"date": 12`), 0o600))

	ledger := storage.NewJSONFile(path)
	got, err := ledger.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	// la copia del documento corrupto queda al lado
	matches, err := filepath.Glob(filepath.Join(dir, "trades.json.corrupt-*"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)

	// el siguiente append arranca un ledger nuevo
	require.NoError(t, ledger.Append(context.Background(), makeTrade(1, "5")))
	got, err = ledger.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestJSONFile_BadRecordInvalidatesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	doc := `[{"date": "yesterday", "buy_price": 1, "sell_price": 1, "amount": 1, "profit": 0}]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	got, err := storage.NewJSONFile(path).All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestJSONFile_ConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")
	ledger := storage.NewJSONFile(path)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, ledger.Append(ctx, makeTrade(i, "10")))
		}(i)
	}
	wg.Wait()

	got, err := ledger.All(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 20, "ningún append se pierde")
}

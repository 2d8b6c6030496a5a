package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/tidwall/buntdb"
)

const tradeKeyPrefix = "trade:"

// Bunt implementa ports.Ledger usando BuntDB.
// Las claves llevan un secuencial con padding para que el orden lexicográfico sea el de inserción.
type Bunt struct {
	lastID int64
	db     *buntdb.DB
}

// NewBunt abre el archivo (o ":memory:") y recupera el último secuencial usado.
func NewBunt(path string) (*Bunt, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewBunt: open %q: %w", path, err)
	}

	b := &Bunt{db: db}
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.DescendKeys(tradeKeyPrefix+"*", func(key, _ string) bool {
			id, err := strconv.ParseInt(strings.TrimPrefix(key, tradeKeyPrefix), 10, 64)
			if err == nil {
				b.lastID = id
			}
			return false // sólo la clave más alta
		})
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewBunt: load sequence: %w", err)
	}
	return b, nil
}

func tradeKey(id int64) string {
	return fmt.Sprintf("%s%020d", tradeKeyPrefix, id)
}

// Append guarda el trade con el siguiente secuencial.
func (b *Bunt) Append(_ context.Context, rec domain.TradeRecord) error {
	content, err := json.Marshal(toDoc(rec))
	if err != nil {
		return fmt.Errorf("storage.Bunt.Append: marshal: %w", err)
	}

	return b.db.Update(func(tx *buntdb.Tx) error {
		id := atomic.AddInt64(&b.lastID, 1)
		if _, _, err := tx.Set(tradeKey(id), string(content), nil); err != nil {
			return fmt.Errorf("storage.Bunt.Append: set: %w", err)
		}
		return nil
	})
}

// All recorre las claves en orden ascendente. Los valores ilegibles se saltan con un warning.
func (b *Bunt) All(_ context.Context) ([]domain.TradeRecord, error) {
	trades := []domain.TradeRecord{}
	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(tradeKeyPrefix+"*", func(key, value string) bool {
			var doc tradeDoc
			if err := json.Unmarshal([]byte(value), &doc); err != nil {
				slog.Warn("skipping unreadable trade", "key", key, "err", err)
				return true
			}
			rec, err := fromDoc(doc)
			if err != nil {
				slog.Warn("skipping unreadable trade", "key", key, "err", err)
				return true
			}
			trades = append(trades, rec)
			return true
		})
	})
	if err != nil {
		slog.Warn("buntdb ledger unreadable, treating as empty",
			"err", fmt.Errorf("%w: %w", domain.ErrLedgerUnreadable, err),
		)
		return []domain.TradeRecord{}, nil
	}
	return trades, nil
}

// Close cierra la base de datos.
func (b *Bunt) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

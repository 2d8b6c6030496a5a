package storage

// sqlite.go: ledger sobre SQLite (pure Go, sin CGo).
//
// Una fila por trade; el id autoincremental conserva el orden de inserción.
// Los importes se guardan como TEXT con la representación exacta del decimal.

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    date       TEXT NOT NULL,
    buy_price  TEXT NOT NULL,
    sell_price TEXT NOT NULL,
    amount     TEXT NOT NULL,
    profit     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
`

// SQLite implementa ports.Ledger usando SQLite.
type SQLite struct {
	db *sql.DB
}

// NewSQLite abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLite: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLite: apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

// Append inserta el trade al final del historial.
func (s *SQLite) Append(ctx context.Context, rec domain.TradeRecord) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (date, buy_price, sell_price, amount, profit) VALUES (?, ?, ?, ?, ?)`,
		rec.Date.Format(time.RFC3339Nano),
		rec.BuyPrice.String(),
		rec.SellPrice.String(),
		rec.Amount.String(),
		rec.Profit.String(),
	); err != nil {
		return fmt.Errorf("storage.SQLite.Append: insert: %w", err)
	}
	return nil
}

// All devuelve los trades en orden de inserción.
// Un error de lectura se registra y se devuelve un ledger vacío.
func (s *SQLite) All(ctx context.Context) ([]domain.TradeRecord, error) {
	trades, err := s.query(ctx)
	if err != nil {
		slog.Warn("sqlite ledger unreadable, treating as empty",
			"err", fmt.Errorf("%w: %w", domain.ErrLedgerUnreadable, err),
		)
		return []domain.TradeRecord{}, nil
	}
	return trades, nil
}

func (s *SQLite) query(ctx context.Context) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, buy_price, sell_price, amount, profit
		FROM trades
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	trades := []domain.TradeRecord{}
	for rows.Next() {
		var date string
		var rec domain.TradeRecord
		if err := rows.Scan(&date, &rec.BuyPrice, &rec.SellPrice, &rec.Amount, &rec.Profit); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if rec.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		trades = append(trades, rec)
	}
	return trades, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLite) Close() error {
	return s.db.Close()
}

package storage

// jsonfile.go: ledger como un único documento JSON.
//
// Cada Append lee el documento completo, agrega y lo reescribe entero.
// La escritura va a un archivo temporal + rename: nunca queda medio documento en disco.

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
)

// JSONFile implementa ports.Ledger sobre un archivo JSON.
type JSONFile struct {
	path string
	now  func() time.Time
	mu   sync.Mutex

	quarantined uint64 // hash del último documento corrupto copiado
}

// NewJSONFile crea el ledger en path. El archivo se crea en el primer Append.
func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path, now: time.Now}
}

// Append agrega rec y reescribe el documento.
func (s *JSONFile) Append(_ context.Context, rec domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	trades := s.load()
	trades = append(trades, rec)
	if err := s.save(trades); err != nil {
		return fmt.Errorf("storage.JSONFile.Append: %w", err)
	}
	return nil
}

// All devuelve el documento completo. Nunca falla: ausente o corrupto = vacío.
func (s *JSONFile) All(_ context.Context) ([]domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

// Close no tiene recursos que liberar.
func (s *JSONFile) Close() error {
	return nil
}

// load lee el documento. Debe llamarse con mu tomado.
func (s *JSONFile) load() []domain.TradeRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("ledger read failed, treating as empty",
				"path", s.path,
				"err", fmt.Errorf("%w: %w", domain.ErrLedgerUnreadable, err),
			)
		}
		return []domain.TradeRecord{}
	}

	trades, err := decodeLedger(data)
	if err != nil {
		slog.Warn("ledger corrupt, treating as empty",
			"path", s.path,
			"err", fmt.Errorf("%w: %w", domain.ErrLedgerUnreadable, err),
		)
		s.quarantine(data)
		return []domain.TradeRecord{}
	}
	return trades
}

// quarantine guarda una copia del documento corrupto antes de que el próximo Append lo reemplace.
// Cada contenido corrupto se copia una sola vez. Debe llamarse con mu tomado.
func (s *JSONFile) quarantine(data []byte) {
	h := fnv.New64a()
	h.Write(data)
	sum := h.Sum64()
	if sum == s.quarantined {
		return
	}

	backup := fmt.Sprintf("%s.corrupt-%s", s.path, s.now().Format("20060102-150405"))
	if _, err := os.Stat(backup); err == nil {
		s.quarantined = sum
		return
	}
	if err := os.WriteFile(backup, data, 0o600); err != nil {
		slog.Warn("ledger backup failed", "path", backup, "err", err)
		return
	}
	s.quarantined = sum
	slog.Info("corrupt ledger copied aside", "backup", backup)
}

// save reemplaza el documento completo. Debe llamarse con mu tomado.
func (s *JSONFile) save(trades []domain.TradeRecord) error {
	data, err := encodeLedger(trades)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

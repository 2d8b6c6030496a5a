package ports

import (
	"context"

	"github.com/alejandrodnm/p2pbot/internal/domain"
)

// Ledger es el historial append-only de trades confirmados.
type Ledger interface {
	// Append agrega el trade al final del historial y lo persiste.
	Append(ctx context.Context, rec domain.TradeRecord) error

	// All devuelve todos los trades en orden de inserción.
	// Un almacenamiento ausente o corrupto devuelve un slice vacío, no un error.
	All(ctx context.Context) ([]domain.TradeRecord, error)

	// Close libera el almacenamiento.
	Close() error
}

package ports

import (
	"context"

	"github.com/alejandrodnm/p2pbot/internal/domain"
)

// PriceSource obtiene el mejor precio publicado para un lado del par configurado.
type PriceSource interface {
	// Quote devuelve el precio del primer anuncio listado para side.
	// Cualquier fallo (red, timeout, lista vacía, precio ilegible) envuelve domain.ErrSourceUnavailable.
	Quote(ctx context.Context, side domain.Side) (domain.Quote, error)
}

package ports

import (
	"context"

	"github.com/alejandrodnm/p2pbot/internal/domain"
)

// Notifier recibe las oportunidades que califican durante el loop de escaneo.
type Notifier interface {
	NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error
}

// Channel entrega respuestas y alertas a un operador concreto.
// Telegram en producción, consola en dry-run.
type Channel interface {
	Deliver(ctx context.Context, operatorID int64, reply domain.Reply) error
}

// NotifierFunc adapta una función a Notifier.
type NotifierFunc func(ctx context.Context, opp domain.Opportunity) error

// NotifyOpportunity llama a f(ctx, opp).
func (f NotifierFunc) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	return f(ctx, opp)
}

// Package operator traduce los comandos del operador a operaciones del scanner,
// del workflow y del ledger, y arma las respuestas que muestra el canal.
package operator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	"github.com/alejandrodnm/p2pbot/internal/scanner"
	"github.com/alejandrodnm/p2pbot/internal/workflow"
)

// Scanner es lo que el servicio necesita del ScanController.
type Scanner interface {
	Toggle(ctx context.Context) bool
	Snapshot() scanner.Status
	CheckNow(ctx context.Context) (domain.Opportunity, error)
}

// Option configura un Service.
type Option func(*Service)

// WithFiat cambia la moneda mostrada en los textos (AZN por defecto).
func WithFiat(fiat string) Option {
	return func(s *Service) { s.fiat = fiat }
}

// WithClock reemplaza time.Now en los sellos de hora de las respuestas.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRecentLimit cambia cuántos trades lista AllTrades.
func WithRecentLimit(n int) Option {
	return func(s *Service) { s.recentLimit = n }
}

// Service atiende a un único operador. Implementa ports.Notifier para el scanner.
type Service struct {
	scan    Scanner
	flow    *workflow.Workflow
	ledger  ports.Ledger
	channel ports.Channel

	fiat        string
	recentLimit int
	now         func() time.Time

	mu       sync.Mutex
	operator int64
	hasOp    bool
}

var _ ports.Notifier = (*Service)(nil)

// New crea el servicio. channel puede ser nil si nadie recibe alertas (modo check).
func New(scan Scanner, flow *workflow.Workflow, ledger ports.Ledger, channel ports.Channel, opts ...Option) *Service {
	s := &Service{
		scan:        scan,
		flow:        flow,
		ledger:      ledger,
		channel:     channel,
		fiat:        "AZN",
		recentLimit: 10,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Operator devuelve el operador activo, si alguno envió /start.
func (s *Service) Operator() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operator, s.hasOp
}

// owns indica si op es el operador activo. Con claim, op se registra si todavía no hay ninguno.
func (s *Service) owns(op int64, claim bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasOp {
		if !claim {
			return false
		}
		s.operator, s.hasOp = op, true
		slog.Info("operator registered", "operator", op)
		return true
	}
	return s.operator == op
}

// Start registra al operador activo y muestra el estado.
func (s *Service) Start(_ context.Context, op int64) domain.Reply {
	s.mu.Lock()
	prev, had := s.operator, s.hasOp
	s.operator, s.hasOp = op, true
	s.mu.Unlock()

	if had && prev != op {
		slog.Info("active operator replaced", "previous", prev, "operator", op)
	} else {
		slog.Info("operator registered", "operator", op)
	}
	return domain.Reply{
		Text: s.statusText("👋 Welcome to Binance P2P Bot!", s.scan.Snapshot()),
		Menu: domain.MenuMain,
	}
}

// MainMenu muestra el estado actual con el menú principal.
func (s *Service) MainMenu(_ context.Context) domain.Reply {
	return domain.Reply{Text: s.statusText("🏠 Main Menu", s.scan.Snapshot()), Menu: domain.MenuMain}
}

// Settings muestra el intervalo y el umbral vigentes.
func (s *Service) Settings(_ context.Context) domain.Reply {
	return domain.Reply{Text: s.settingsText(s.scan.Snapshot()), Menu: domain.MenuSettings}
}

// Toggle arranca o detiene el loop de escaneo.
func (s *Service) Toggle(ctx context.Context) domain.Reply {
	if s.scan.Toggle(ctx) {
		return domain.Reply{Text: "🟢 Scanning started.", Menu: domain.MenuMain}
	}
	return domain.Reply{Text: "🔴 Scanning stopped.", Menu: domain.MenuMain}
}

// CheckNow ejecuta un tick manual. Si la fuente falla muestra la última observación conocida.
func (s *Service) CheckNow(ctx context.Context) domain.Reply {
	st := s.scan.Snapshot()
	opp, err := s.scan.CheckNow(ctx)
	if err != nil {
		slog.Warn("manual check failed", "err", err)
		if st.Last == nil {
			return domain.Reply{
				Text: fmt.Sprintf("❌ No data available\n🕐 %s", s.now().Format(clockLayout)),
				Menu: domain.MenuMain,
			}
		}
		opp = *st.Last
	}

	text := s.checkText(opp, s.now())
	if !opp.Qualifies {
		return domain.Reply{Text: text, Menu: domain.MenuMain}
	}

	s.flow.Offer(opp)
	return domain.Reply{
		Text:        text + "\n\nDid you take this trade?",
		Menu:        domain.MenuDecision,
		Opportunity: &opp,
	}
}

// Stats muestra el agregado de la ventana pedida.
func (s *Service) Stats(ctx context.Context, period domain.Period) domain.Reply {
	trades, err := s.ledger.All(ctx)
	if err != nil {
		slog.Warn("ledger read failed", "err", err)
		trades = nil
	}
	now := s.now()
	st, ok := domain.Aggregate(trades, period.Days(), now)
	return domain.Reply{Text: s.statsText(st, ok, now), Menu: domain.MenuMain}
}

// AllTrades lista los últimos trades registrados.
func (s *Service) AllTrades(ctx context.Context) domain.Reply {
	trades, err := s.ledger.All(ctx)
	if err != nil {
		slog.Warn("ledger read failed", "err", err)
		trades = nil
	}
	return domain.Reply{Text: s.tradesText(trades), Menu: domain.MenuMain}
}

// BeginChangeInterval pide el nuevo intervalo en segundos.
func (s *Service) BeginChangeInterval(_ context.Context) domain.Reply {
	s.flow.BeginConfig(workflow.ConfigInterval)
	return domain.Reply{Text: "⏱ Send new interval in seconds:", Menu: domain.MenuSettings}
}

// BeginChangeYield pide el nuevo umbral de spread.
func (s *Service) BeginChangeYield(_ context.Context) domain.Reply {
	s.flow.BeginConfig(workflow.ConfigYield)
	return domain.Reply{Text: "🎯 Send new yield (e.g. 0.02):", Menu: domain.MenuSettings}
}

// Confirm acepta la oportunidad id y pide el monto invertido.
// Sin operador registrado (alerta de un check manual) op pasa a ser el operador activo.
func (s *Service) Confirm(_ context.Context, op int64, id string) domain.Reply {
	if !s.owns(op, true) {
		slog.Warn("confirm from non-active operator ignored", "operator", op, "opportunity", id)
		return domain.Reply{}
	}
	if _, err := s.flow.Accept(id); err != nil {
		slog.Info("confirm rejected", "opportunity", id, "err", err)
		return domain.Reply{Text: "⌛ This opportunity is no longer available.", Menu: domain.MenuMain}
	}
	return domain.Reply{Text: fmt.Sprintf("💰 Enter the amount you invested (in %s):", s.fiat)}
}

// Decline descarta la oportunidad id.
func (s *Service) Decline(_ context.Context, op int64, id string) domain.Reply {
	if !s.owns(op, false) {
		slog.Warn("decline from non-active operator ignored", "operator", op, "opportunity", id)
		return domain.Reply{}
	}
	s.flow.Decline(id)
	return domain.Reply{Text: "✅ Trade not taken. Continuing to monitor...", Menu: domain.MenuMain}
}

// Text procesa un texto libre del operador. Devuelve una Reply vacía si nada lo esperaba
// o si op no es el operador activo.
func (s *Service) Text(ctx context.Context, op int64, text string) domain.Reply {
	if !s.owns(op, false) {
		slog.Debug("text from non-active operator ignored", "operator", op)
		return domain.Reply{}
	}
	out, err := s.flow.HandleText(ctx, text)
	switch {
	case err == nil:
	case errors.Is(err, workflow.ErrNothingPending):
		slog.Debug("text ignored", "operator", op)
		return domain.Reply{}
	case errors.Is(err, domain.ErrInvalidNumber):
		return domain.Reply{Text: "❌ Invalid number.", Menu: domain.MenuSettings}
	case errors.Is(err, domain.ErrInvalidAmount):
		return domain.Reply{Text: "❌ Invalid amount. Please enter a number:", Menu: domain.MenuMain}
	default:
		slog.Error("trade not saved", "operator", op, "err", err)
		return domain.Reply{Text: "❌ Could not save the trade. Send the amount again:"}
	}

	switch out.Kind {
	case workflow.OutcomeIntervalSet:
		return domain.Reply{
			Text: fmt.Sprintf("✅ Interval set to %d seconds.", int(out.Interval.Seconds())),
			Menu: domain.MenuSettings,
		}
	case workflow.OutcomeThresholdSet:
		return domain.Reply{
			Text: fmt.Sprintf("✅ Yield threshold set to %s %s.", out.Threshold, s.fiat),
			Menu: domain.MenuSettings,
		}
	default:
		return domain.Reply{Text: s.recordedText(out.Trade), Menu: domain.MenuMain}
	}
}

// NotifyOpportunity registra la oferta y alerta al operador activo.
// Sin operador registrado la alerta se descarta.
func (s *Service) NotifyOpportunity(ctx context.Context, opp domain.Opportunity) error {
	op, ok := s.Operator()
	if !ok || s.channel == nil {
		slog.Debug("no operator registered, alert dropped", "opportunity", opp.ID)
		return nil
	}

	s.flow.Offer(opp)
	reply := domain.Reply{Text: s.alertText(opp), Menu: domain.MenuDecision, Opportunity: &opp}
	if err := s.channel.Deliver(ctx, op, reply); err != nil {
		return fmt.Errorf("operator.NotifyOpportunity: deliver: %w", err)
	}
	return nil
}

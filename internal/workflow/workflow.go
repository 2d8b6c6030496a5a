// Package workflow lleva la conversación con el operador: oferta de una oportunidad,
// confirmación, captura del monto invertido y cambios de configuración por texto.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownOpportunity se devuelve cuando el id no está (o ya no está) registrado.
	ErrUnknownOpportunity = errors.New("opportunity expired or unknown")
	// ErrNothingPending se devuelve al recibir texto sin nada que lo espere.
	ErrNothingPending = errors.New("nothing pending")
)

// maxOffers acota el registro de oportunidades ofrecidas.
const maxOffers = 32

// State es el estado conversacional del operador.
type State int

const (
	StateIdle State = iota
	StateAwaitingTradeConfirmation
	StateAwaitingAmount
	StateAwaitingConfigValue
)

func (s State) String() string {
	switch s {
	case StateAwaitingTradeConfirmation:
		return "awaiting_trade_confirmation"
	case StateAwaitingAmount:
		return "awaiting_amount"
	case StateAwaitingConfigValue:
		return "awaiting_config_value"
	default:
		return "idle"
	}
}

// ConfigKind indica qué valor de configuración se espera por texto.
type ConfigKind int

const (
	ConfigNone ConfigKind = iota
	ConfigInterval
	ConfigYield
)

// PendingTrade es la oportunidad aceptada cuyo monto todavía no se ingresó.
type PendingTrade struct {
	OpportunityID string
	BuyPrice      decimal.Decimal
	SellPrice     decimal.Decimal
	ProfitPerUnit decimal.Decimal
}

// OutcomeKind describe qué produjo un texto del operador.
type OutcomeKind int

const (
	OutcomeTradeRecorded OutcomeKind = iota + 1
	OutcomeIntervalSet
	OutcomeThresholdSet
)

// Outcome es el resultado de HandleText. Sólo el campo que corresponde a Kind está cargado.
type Outcome struct {
	Kind      OutcomeKind
	Trade     domain.TradeRecord
	Interval  time.Duration
	Threshold decimal.Decimal
}

// Tuner recibe los cambios de configuración de escaneo (implementado por scanner.Scanner).
type Tuner interface {
	SetInterval(d time.Duration) error
	SetThreshold(v decimal.Decimal)
}

// Option configura un Workflow.
type Option func(*Workflow)

// WithClock reemplaza time.Now para fechar trades.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// Workflow guarda la sesión del operador activo. Es seguro para uso concurrente.
type Workflow struct {
	ledger ports.Ledger
	tuner  Tuner
	now    func() time.Time

	mu       sync.Mutex
	offers   map[string]domain.Opportunity
	order    []string
	offered  bool
	pending  *PendingTrade
	changing ConfigKind
}

// New crea un Workflow en Idle.
func New(ledger ports.Ledger, tuner Tuner, opts ...Option) *Workflow {
	w := &Workflow{
		ledger: ledger,
		tuner:  tuner,
		now:    time.Now,
		offers: make(map[string]domain.Opportunity),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State devuelve el estado actual. La espera de configuración tiene prioridad,
// luego el monto pendiente, luego la oferta sin decidir.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked()
}

func (w *Workflow) stateLocked() State {
	switch {
	case w.changing != ConfigNone:
		return StateAwaitingConfigValue
	case w.pending != nil:
		return StateAwaitingAmount
	case w.offered:
		return StateAwaitingTradeConfirmation
	default:
		return StateIdle
	}
}

// Pending devuelve una copia del trade pendiente, si lo hay.
func (w *Workflow) Pending() (PendingTrade, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return PendingTrade{}, false
	}
	return *w.pending, true
}

// Offer registra una oportunidad mostrada al operador.
func (w *Workflow) Offer(opp domain.Opportunity) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.offers[opp.ID]; !ok {
		w.order = append(w.order, opp.ID)
	}
	w.offers[opp.ID] = opp
	for len(w.order) > maxOffers {
		delete(w.offers, w.order[0])
		w.order = w.order[1:]
	}
	w.offered = true
}

// Lookup devuelve una oportunidad ofrecida que sigue registrada.
func (w *Workflow) Lookup(id string) (domain.Opportunity, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	opp, ok := w.offers[id]
	return opp, ok
}

// Accept pasa a AwaitingAmount con los precios de la oportunidad id.
func (w *Workflow) Accept(id string) (PendingTrade, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	opp, ok := w.offers[id]
	if !ok {
		return PendingTrade{}, fmt.Errorf("workflow.Accept: %s: %w", id, ErrUnknownOpportunity)
	}
	w.forgetLocked(id)

	p := PendingTrade{
		OpportunityID: opp.ID,
		BuyPrice:      opp.BuyPrice,
		SellPrice:     opp.SellPrice,
		ProfitPerUnit: opp.Spread,
	}
	w.pending = &p
	w.offered = false
	return p, nil
}

// Decline descarta la oferta id sin tocar el ledger. Un id desconocido no es error.
// El trade pendiente sólo se descarta si salió de esa misma oportunidad.
func (w *Workflow) Decline(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.forgetLocked(id)
	w.offered = false
	if w.pending != nil && w.pending.OpportunityID == id {
		w.pending = nil
	}
}

// BeginConfig pasa a esperar un valor de configuración.
func (w *Workflow) BeginConfig(kind ConfigKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.changing = kind
}

// HandleText interpreta un texto libre según el estado: primero configuración, después monto.
func (w *Workflow) HandleText(ctx context.Context, text string) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text = strings.TrimSpace(text)

	switch {
	case w.changing == ConfigInterval:
		w.changing = ConfigNone
		return w.setInterval(text)
	case w.changing == ConfigYield:
		w.changing = ConfigNone
		return w.setThreshold(text)
	case w.pending != nil:
		return w.recordTrade(ctx, text)
	default:
		return Outcome{}, ErrNothingPending
	}
}

func (w *Workflow) setInterval(text string) (Outcome, error) {
	secs, err := strconv.Atoi(text)
	if err != nil || secs <= 0 {
		return Outcome{}, fmt.Errorf("workflow.HandleText: interval %q: %w", text, domain.ErrInvalidNumber)
	}
	d := time.Duration(secs) * time.Second
	if err := w.tuner.SetInterval(d); err != nil {
		return Outcome{}, fmt.Errorf("workflow.HandleText: %w", err)
	}
	return Outcome{Kind: OutcomeIntervalSet, Interval: d}, nil
}

func (w *Workflow) setThreshold(text string) (Outcome, error) {
	v, err := decimal.NewFromString(text)
	if err != nil {
		return Outcome{}, fmt.Errorf("workflow.HandleText: yield %q: %w", text, domain.ErrInvalidNumber)
	}
	w.tuner.SetThreshold(v)
	return Outcome{Kind: OutcomeThresholdSet, Threshold: v}, nil
}

// recordTrade valida el monto y lo agrega al ledger. Si algo falla el trade pendiente se conserva.
func (w *Workflow) recordTrade(ctx context.Context, text string) (Outcome, error) {
	amount, err := decimal.NewFromString(text)
	if err != nil {
		return Outcome{}, fmt.Errorf("workflow.HandleText: amount %q: %w", text, domain.ErrInvalidAmount)
	}

	p := w.pending
	rec, err := domain.NewTradeRecord(w.now(), p.BuyPrice, p.SellPrice, amount, p.ProfitPerUnit)
	if err != nil {
		return Outcome{}, fmt.Errorf("workflow.HandleText: %w", err)
	}

	if err := w.ledger.Append(ctx, rec); err != nil {
		return Outcome{}, fmt.Errorf("workflow.HandleText: ledger append: %w", err)
	}

	slog.Info("trade recorded",
		"opportunity", p.OpportunityID,
		"amount", rec.Amount,
		"profit", rec.Profit,
	)
	w.pending = nil
	return Outcome{Kind: OutcomeTradeRecorded, Trade: rec}, nil
}

func (w *Workflow) forgetLocked(id string) {
	if _, ok := w.offers[id]; !ok {
		return
	}
	delete(w.offers, id)
	for i, v := range w.order {
		if v == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
}

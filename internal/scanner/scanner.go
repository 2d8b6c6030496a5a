package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/ports"
	"github.com/shopspring/decimal"
)

// Config contiene los valores iniciales del estado de escaneo.
type Config struct {
	Interval  time.Duration
	Threshold decimal.Decimal
}

// DefaultConfig devuelve 60s de intervalo y 0.01 de spread mínimo.
func DefaultConfig() Config {
	return Config{
		Interval:  60 * time.Second,
		Threshold: decimal.RequireFromString("0.01"),
	}
}

// Status es una copia del estado de escaneo para mostrar al operador.
type Status struct {
	Running   bool
	Interval  time.Duration
	Threshold decimal.Decimal
	Last      *domain.Opportunity
}

// Sleeper espera d o hasta que ctx se cancele.
type Sleeper func(ctx context.Context, d time.Duration)

// Option configura un Scanner.
type Option func(*Scanner)

// WithSleeper reemplaza la espera entre ticks (tests).
func WithSleeper(sleep Sleeper) Option {
	return func(s *Scanner) { s.sleep = sleep }
}

// Scanner es el ScanController: dueño del flag running y del loop periódico.
//
// Stop no interrumpe nada: el worker termina el tick y el sleep en curso y recién
// entonces sale. Cada Start incrementa gen; un worker sólo hace ticks mientras su
// gen sea la vigente, así un stop+start durante un sleep no deja dos workers escaneando.
type Scanner struct {
	source   ports.PriceSource
	notifier ports.Notifier
	sleep    Sleeper

	mu        sync.Mutex
	running   bool
	gen       uint64
	interval  time.Duration
	threshold decimal.Decimal
	last      *domain.Opportunity

	tickMu  sync.Mutex // serializa ticks del loop y CheckNow
	workers sync.WaitGroup
	alive   atomic.Int32
}

// New crea un Scanner detenido.
func New(cfg Config, source ports.PriceSource, notifier ports.Notifier, opts ...Option) *Scanner {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	s := &Scanner{
		source:    source,
		notifier:  notifier,
		sleep:     sleepCtx,
		interval:  cfg.Interval,
		threshold: cfg.Threshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start pasa a Running y lanza un worker. Devuelve false si ya estaba corriendo.
func (s *Scanner) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.workers.Add(1)
	s.alive.Add(1)
	go s.loop(ctx, gen)
	return true
}

// Stop pasa a Stopped. El worker sale después de su sleep actual.
// Devuelve false si ya estaba detenido.
func (s *Scanner) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return false
	}
	s.running = false
	return true
}

// Toggle alterna entre Running y Stopped y devuelve el nuevo estado.
func (s *Scanner) Toggle(ctx context.Context) bool {
	if s.Stop() {
		return false
	}
	s.Start(ctx)
	return true
}

// Running indica si el loop está activo.
func (s *Scanner) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Wait bloquea hasta que todos los workers hayan salido.
func (s *Scanner) Wait() {
	s.workers.Wait()
}

// ActiveWorkers devuelve cuántos workers siguen vivos (incluidos los que esperan su último sleep).
func (s *Scanner) ActiveWorkers() int {
	return int(s.alive.Load())
}

// Snapshot devuelve una copia del estado actual.
func (s *Scanner) Snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Running:   s.running,
		Interval:  s.interval,
		Threshold: s.threshold,
	}
	if s.last != nil {
		last := *s.last
		st.Last = &last
	}
	return st
}

// SetInterval cambia la espera entre ticks. Aplica desde el próximo sleep.
func (s *Scanner) SetInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("scanner.SetInterval: %s: %w", d, domain.ErrInvalidNumber)
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	slog.Info("scan interval updated", "interval", d)
	return nil
}

// SetThreshold cambia el spread mínimo que dispara una notificación.
func (s *Scanner) SetThreshold(v decimal.Decimal) {
	s.mu.Lock()
	s.threshold = v
	s.mu.Unlock()
	slog.Info("yield threshold updated", "threshold", v)
}

// CheckNow ejecuta exactamente un tick, corra o no el loop, y actualiza la última observación.
// No notifica: quien llama muestra el resultado.
func (s *Scanner) CheckNow(ctx context.Context) (domain.Opportunity, error) {
	return s.tick(ctx)
}

func (s *Scanner) active(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running && s.gen == gen
}

func (s *Scanner) currentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// loop hace tick → notify → sleep mientras su generación siga vigente.
func (s *Scanner) loop(ctx context.Context, gen uint64) {
	defer s.workers.Done()
	defer s.alive.Add(-1)

	slog.Info("scan loop started", "gen", gen, "interval", s.currentInterval())

	for s.active(gen) {
		if err := s.runCycle(ctx); err != nil {
			slog.Warn("scan tick skipped", "err", err)
		}

		// El intervalo se lee al empezar el sleep: un cambio durante la espera aplica al siguiente.
		s.sleep(ctx, s.currentInterval())
		if ctx.Err() != nil {
			slog.Info("scan loop cancelled", "gen", gen)
			return
		}
	}

	slog.Info("scan loop stopped", "gen", gen)
}

// runCycle ejecuta un tick y notifica si la oportunidad califica.
func (s *Scanner) runCycle(ctx context.Context) error {
	start := time.Now()

	opp, err := s.tick(ctx)
	if err != nil {
		return err
	}

	if opp.Qualifies && s.notifier != nil {
		if err := s.notifier.NotifyOpportunity(ctx, opp); err != nil {
			slog.Warn("notifier error", "err", err, "opportunity", opp.ID)
		}
	}

	slog.Info("scan tick complete",
		"buy", opp.BuyPrice,
		"sell", opp.SellPrice,
		"spread", opp.Spread,
		"qualifies", opp.Qualifies,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// tick consulta ambos lados, detecta y guarda la observación.
// Un fallo en cualquiera de los lados deja el estado intacto.
func (s *Scanner) tick(ctx context.Context) (domain.Opportunity, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	buy, sell, err := quotePair(ctx, s.source)
	if err != nil {
		return domain.Opportunity{}, fmt.Errorf("scanner.tick: %w", err)
	}

	s.mu.Lock()
	threshold := s.threshold
	s.mu.Unlock()

	opp := domain.Detect(buy, sell, threshold)

	s.mu.Lock()
	s.last = &opp
	s.mu.Unlock()

	return opp, nil
}

// IsSourceError indica si err viene de la fuente de precios.
func IsSourceError(err error) bool {
	return errors.Is(err, domain.ErrSourceUnavailable)
}

// sleepCtx espera d respetando el contexto.
func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

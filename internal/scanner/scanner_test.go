package scanner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alejandrodnm/p2pbot/internal/domain"
	"github.com/alejandrodnm/p2pbot/internal/scanner"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockSource struct {
	mu    sync.Mutex
	buy   string
	sell  string
	err   error
	calls int
}

func (m *mockSource) Quote(_ context.Context, side domain.Side) (domain.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.Quote{}, m.err
	}
	price := m.buy
	if side == domain.SideSell {
		price = m.sell
	}
	return domain.Quote{Side: side, Price: decimal.RequireFromString(price)}, nil
}

func (m *mockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockSource) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

type mockNotifier struct {
	mu       sync.Mutex
	notified []domain.Opportunity
	err      error
}

func (m *mockNotifier) NotifyOpportunity(_ context.Context, opp domain.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, opp)
	return m.err
}

func (m *mockNotifier) Notified() []domain.Opportunity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Opportunity(nil), m.notified...)
}

// sleepCall es un sleep bloqueado hasta que el test lo libere.
type sleepCall struct {
	d    time.Duration
	done chan struct{}
}

type gate struct {
	calls chan sleepCall
}

func newGate() *gate {
	return &gate{calls: make(chan sleepCall, 8)}
}

func (g *gate) sleep(ctx context.Context, d time.Duration) {
	c := sleepCall{d: d, done: make(chan struct{})}
	g.calls <- c
	select {
	case <-c.done:
	case <-ctx.Done():
	}
}

func (g *gate) next(t *testing.T) sleepCall {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("worker never reached its sleep")
		return sleepCall{}
	}
}

// --- helpers ---

func newTestScanner(src *mockSource, n *mockNotifier, g *gate) *scanner.Scanner {
	cfg := scanner.DefaultConfig()
	return scanner.New(cfg, src, n, scanner.WithSleeper(g.sleep))
}

func waitWorkers(t *testing.T, s *scanner.Scanner, want int) {
	t.Helper()
	assert.Eventually(t, func() bool { return s.ActiveWorkers() == want },
		2*time.Second, 5*time.Millisecond, "workers vivos = %d", s.ActiveWorkers())
}

// --- tests ---

func TestScanner_TickNotifiesQualifyingOpportunity(t *testing.T) {
	src := &mockSource{buy: "1.500", sell: "1.520"}
	n := &mockNotifier{}
	g := newGate()
	s := newTestScanner(src, n, g)

	require.True(t, s.Start(context.Background()))
	c := g.next(t)

	notified := n.Notified()
	require.Len(t, notified, 1)
	assert.True(t, decimal.RequireFromString("0.020").Equal(notified[0].Spread))
	assert.True(t, notified[0].Qualifies)
	assert.Equal(t, 60*time.Second, c.d)

	last := s.Snapshot().Last
	require.NotNil(t, last)
	assert.Equal(t, notified[0].ID, last.ID)

	s.Stop()
	close(c.done)
	s.Wait()
}

func TestScanner_NonQualifyingTickOnlyUpdatesObservation(t *testing.T) {
	src := &mockSource{buy: "1.700", sell: "1.705"}
	n := &mockNotifier{}
	g := newGate()
	s := newTestScanner(src, n, g)

	s.Start(context.Background())
	c := g.next(t)

	assert.Empty(t, n.Notified())
	require.NotNil(t, s.Snapshot().Last)
	assert.False(t, s.Snapshot().Last.Qualifies)

	s.Stop()
	close(c.done)
	s.Wait()
}

func TestScanner_SourceFailureSkipsTick(t *testing.T) {
	src := &mockSource{buy: "1.500", sell: "1.520"}
	n := &mockNotifier{}
	g := newGate()
	s := newTestScanner(src, n, g)

	_, err := s.CheckNow(context.Background())
	require.NoError(t, err)
	before := s.Snapshot().Last

	src.Fail(domain.ErrSourceUnavailable)
	s.Start(context.Background())
	c := g.next(t) // el loop sigue aunque el tick falle

	assert.Empty(t, n.Notified())
	assert.Equal(t, before.ID, s.Snapshot().Last.ID, "sin cambio de estado")

	close(c.done)
	c = g.next(t) // segundo tick, también fallido, el loop no murió
	s.Stop()
	close(c.done)
	s.Wait()
}

func TestScanner_StopMidSleepWaitsForSleep(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)

	s.Start(context.Background())
	c := g.next(t)
	require.Equal(t, 2, src.Calls())

	require.True(t, s.Stop())
	assert.False(t, s.Running())
	assert.Equal(t, 1, s.ActiveWorkers(), "el worker sigue en su sleep")

	close(c.done)
	s.Wait()
	assert.Equal(t, 0, s.ActiveWorkers())
	assert.Equal(t, 2, src.Calls(), "no hay tick después del stop")
}

func TestScanner_RestartDuringSleepDoesNotDuplicateWorkers(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)
	ctx := context.Background()

	s.Start(ctx)
	old := g.next(t)
	s.Stop()

	require.True(t, s.Start(ctx))
	fresh := g.next(t) // el nuevo worker hace su tick inmediato
	assert.Equal(t, 4, src.Calls())

	close(old.done)
	waitWorkers(t, s, 1)
	assert.Equal(t, 4, src.Calls(), "el worker viejo sale sin escanear")

	s.Stop()
	close(fresh.done)
	s.Wait()
	assert.Equal(t, 4, src.Calls())
}

func TestScanner_StartWhileRunningIsNoop(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)
	ctx := context.Background()

	require.True(t, s.Start(ctx))
	c := g.next(t)
	assert.False(t, s.Start(ctx))
	assert.Equal(t, 1, s.ActiveWorkers())

	s.Stop()
	close(c.done)
	s.Wait()
}

func TestScanner_IntervalChangeAppliesToNextSleep(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)

	s.Start(context.Background())
	first := g.next(t)
	assert.Equal(t, 60*time.Second, first.d)

	require.NoError(t, s.SetInterval(30*time.Second))
	assert.Equal(t, 60*time.Second, first.d, "el sleep en curso no se acorta")

	close(first.done)
	second := g.next(t)
	assert.Equal(t, 30*time.Second, second.d)

	s.Stop()
	close(second.done)
	s.Wait()
}

func TestScanner_SetIntervalRejectsNonPositive(t *testing.T) {
	s := newTestScanner(&mockSource{}, &mockNotifier{}, newGate())
	err := s.SetInterval(0)
	assert.True(t, errors.Is(err, domain.ErrInvalidNumber))
	assert.Equal(t, 60*time.Second, s.Snapshot().Interval)
}

func TestScanner_ThresholdAppliesToNextTick(t *testing.T) {
	src := &mockSource{buy: "1.500", sell: "1.520"}
	n := &mockNotifier{}
	s := newTestScanner(src, n, newGate())

	s.SetThreshold(decimal.RequireFromString("0.05"))
	opp, err := s.CheckNow(context.Background())
	require.NoError(t, err)
	assert.False(t, opp.Qualifies)
	assert.True(t, decimal.RequireFromString("0.05").Equal(opp.Threshold))
}

func TestScanner_CheckNowIsIndependentOfLoop(t *testing.T) {
	src := &mockSource{buy: "1.500", sell: "1.520"}
	n := &mockNotifier{}
	s := newTestScanner(src, n, newGate())

	opp, err := s.CheckNow(context.Background())
	require.NoError(t, err)

	assert.True(t, opp.Qualifies)
	assert.False(t, s.Running())
	assert.Equal(t, 0, s.ActiveWorkers())
	assert.Empty(t, n.Notified(), "check manual no notifica")
	require.NotNil(t, s.Snapshot().Last)
	assert.Equal(t, opp.ID, s.Snapshot().Last.ID)
}

func TestScanner_CheckNowSourceError(t *testing.T) {
	src := &mockSource{err: domain.ErrSourceUnavailable}
	s := newTestScanner(src, &mockNotifier{}, newGate())

	_, err := s.CheckNow(context.Background())
	require.Error(t, err)
	assert.True(t, scanner.IsSourceError(err))
	assert.Nil(t, s.Snapshot().Last)
}

func TestScanner_NotifierErrorDoesNotStopLoop(t *testing.T) {
	src := &mockSource{buy: "1.500", sell: "1.520"}
	n := &mockNotifier{err: errors.New("telegram down")}
	g := newGate()
	s := newTestScanner(src, n, g)

	s.Start(context.Background())
	c := g.next(t)
	close(c.done)
	c = g.next(t)
	assert.Len(t, n.Notified(), 2)

	s.Stop()
	close(c.done)
	s.Wait()
}

func TestScanner_Toggle(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)
	ctx := context.Background()

	assert.True(t, s.Toggle(ctx))
	c := g.next(t)
	assert.True(t, s.Running())

	assert.False(t, s.Toggle(ctx))
	assert.False(t, s.Running())

	close(c.done)
	s.Wait()
}

func TestScanner_ContextCancelEndsLoop(t *testing.T) {
	src := &mockSource{buy: "1.5", sell: "1.6"}
	g := newGate()
	s := newTestScanner(src, &mockNotifier{}, g)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	g.next(t)

	cancel()
	s.Wait()
	assert.Equal(t, 0, s.ActiveWorkers())
}

// oneSidedSource falla sólo en el lado indicado.
type oneSidedSource struct {
	failing domain.Side
}

func (o oneSidedSource) Quote(_ context.Context, side domain.Side) (domain.Quote, error) {
	if side == o.failing {
		return domain.Quote{}, domain.ErrSourceUnavailable
	}
	return domain.Quote{Side: side, Price: decimal.RequireFromString("1.5")}, nil
}

func TestScanner_EitherSideFailingSkipsTick(t *testing.T) {
	for _, side := range []domain.Side{domain.SideBuy, domain.SideSell} {
		t.Run(string(side), func(t *testing.T) {
			s := scanner.New(scanner.DefaultConfig(), oneSidedSource{failing: side}, &mockNotifier{})

			_, err := s.CheckNow(context.Background())
			require.Error(t, err)
			assert.True(t, scanner.IsSourceError(err))
			assert.Contains(t, err.Error(), strings.ToLower(string(side)))
			assert.Nil(t, s.Snapshot().Last)
		})
	}
}

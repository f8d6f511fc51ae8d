package cycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantpilot/advisor/internal/advisor"
	"github.com/quantpilot/advisor/internal/database"
	"github.com/quantpilot/advisor/internal/models"
	"github.com/quantpilot/advisor/internal/snapshot"
)

type fakeReader struct {
	snap *models.PortfolioSnapshot
	err  error
}

func (f *fakeReader) Read(kind models.CycleKind) (*models.PortfolioSnapshot, error) {
	snap := f.snap
	if snap == nil {
		snap = &models.PortfolioSnapshot{Kind: kind}
	}
	snap.Kind = kind
	return snap, f.err
}

type fakeSyncer struct {
	tickers []string
	candles []*models.Candle
	err     error
}

func (f *fakeSyncer) Sync(ctx context.Context, tickers []string) ([]*models.Candle, error) {
	f.tickers = tickers
	return f.candles, f.err
}

type fakeAdvisor struct {
	decision *models.Decision
	research *models.Research
	err      error
	block    chan struct{}
}

func (f *fakeAdvisor) DailyDecision(ctx context.Context, prompt string) (*models.Decision, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.decision, nil
}

func (f *fakeAdvisor) WeeklyResearch(ctx context.Context, prompt string) (*models.Research, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.research, nil
}

type fakeStore struct {
	mu       sync.Mutex
	batches  []*database.TradeBatch
	notes    []*models.ResearchNote
	pending  [][]*models.PendingOrder
	consumed [][]int
	applyErr error
	saveErr  error
}

func (f *fakeStore) ApplyTradeBatch(b *database.TradeBatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.applyErr != nil {
		return f.applyErr
	}
	f.batches = append(f.batches, b)
	return nil
}

func (f *fakeStore) SaveResearchOutcome(note *models.ResearchNote, pending []*models.PendingOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.notes = append(f.notes, note)
	f.pending = append(f.pending, pending)
	return nil
}

func (f *fakeStore) ConsumePendingOrders(ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.consumed = append(f.consumed, ids)
	return nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func newTestController(reader SnapshotReader, syncer CandleSyncer, adv advisor.Advisor, store Store) *Controller {
	cfg := Config{
		TacticalTimeout:  time.Second,
		StrategicTimeout: time.Second,
		FallbackTickers:  []string{"AAPL", "MSFT", "GOOGL"},
	}
	return NewController(reader, syncer, adv, store, nil, cfg, zerolog.Nop())
}

func snapWithBook() *models.PortfolioSnapshot {
	return &models.PortfolioSnapshot{
		Positions: []*models.Position{
			{Ticker: "AAPL", Qty: dec("10"), AvgPrice: dec("100")},
		},
		Cash: &models.CashSnapshot{Amount: dec("5000")},
	}
}

func TestRunTactical_AppliesDecisionOrders(t *testing.T) {
	reader := &fakeReader{snap: snapWithBook()}
	syncer := &fakeSyncer{}
	adv := &fakeAdvisor{decision: &models.Decision{
		Summary: "add to AAPL",
		Orders:  []models.OrderRequest{{Ticker: "AAPL", Qty: dec("5"), Price: dec("120")}},
	}}
	store := &fakeStore{}

	ctrl := newTestController(reader, syncer, adv, store)
	run, err := ctrl.RunTactical(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, models.CycleTactical, run.Kind)
	assert.Equal(t, 1, run.OrdersApplied)
	assert.Equal(t, []string{"AAPL"}, syncer.tickers)

	require.Len(t, store.batches, 1)
	batch := store.batches[0]
	require.Len(t, batch.Orders, 1)
	assert.Equal(t, "AAPL", batch.Orders[0].Ticker)
	assert.True(t, batch.Cash.Amount.Equal(dec("4400")))
}

func TestRunTactical_EmptyBookUsesFallbackTickers(t *testing.T) {
	reader := &fakeReader{err: &snapshot.EmptyDataError{Tables: []string{"positions", "cash_snapshots"}}}
	syncer := &fakeSyncer{}
	adv := &fakeAdvisor{decision: &models.Decision{Summary: "sit tight"}}
	store := &fakeStore{}

	ctrl := newTestController(reader, syncer, adv, store)
	run, err := ctrl.RunTactical(context.Background())
	require.NoError(t, err, "empty tables degrade the snapshot, they do not abort the cycle")

	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, []string{"AAPL", "MSFT", "GOOGL"}, syncer.tickers)
}

func TestRunTactical_NoOrdersStillConsumesAdvisories(t *testing.T) {
	snap := snapWithBook()
	snap.PendingAdvisories = []*models.PendingOrder{
		{ID: 7, Ticker: "NVDA", Qty: dec("3"), Price: dec("900")},
	}
	reader := &fakeReader{snap: snap}
	adv := &fakeAdvisor{decision: &models.Decision{Summary: "hold"}}
	store := &fakeStore{}

	ctrl := newTestController(reader, &fakeSyncer{}, adv, store)
	run, err := ctrl.RunTactical(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, 0, run.OrdersApplied)
	assert.Empty(t, store.batches, "no orders means nothing applied")
	require.Len(t, store.consumed, 1)
	assert.Equal(t, []int{7}, store.consumed[0], "surfaced advisories must not resurface tomorrow")
}

func TestRunTactical_AdvisorTimeoutFailsWithoutPersisting(t *testing.T) {
	adv := &fakeAdvisor{err: advisor.ErrDecisionTimeout}
	store := &fakeStore{}

	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, store)
	run, err := ctrl.RunTactical(context.Background())
	require.ErrorIs(t, err, advisor.ErrDecisionTimeout)

	assert.Equal(t, StateFailed, run.State)
	assert.NotEmpty(t, run.Error)
	assert.Empty(t, store.batches, "a failed cycle must not persist anything")
	assert.Empty(t, store.consumed)
}

func TestRunTactical_RejectsOverlappingTrigger(t *testing.T) {
	block := make(chan struct{})
	adv := &fakeAdvisor{block: block, decision: &models.Decision{Summary: "hold"}}
	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, &fakeStore{})

	started := make(chan struct{})
	go func() {
		close(started)
		_, _ = ctrl.RunTactical(context.Background())
	}()
	<-started
	time.Sleep(20 * time.Millisecond) // let the first cycle reach the advisor

	_, err := ctrl.RunStrategic(context.Background())
	assert.ErrorIs(t, err, ErrCycleInFlight, "overlapping trigger is dropped, not queued")

	close(block)
}

func TestRunTactical_StoreFailureMarksRunFailed(t *testing.T) {
	adv := &fakeAdvisor{decision: &models.Decision{
		Orders: []models.OrderRequest{{Ticker: "AAPL", Qty: dec("1"), Price: dec("100")}},
	}}
	store := &fakeStore{applyErr: errors.New("connection reset")}

	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, store)
	run, err := ctrl.RunTactical(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateFailed, run.State)
}

func TestRunTactical_MergesSyncedCandlesIntoSnapshot(t *testing.T) {
	snap := snapWithBook()
	snap.Candles = []*models.Candle{
		{Ticker: "AAPL", Close: dec("100"), Date: day("2026-08-27")},
	}
	fresh := &models.Candle{Ticker: "AAPL", Close: dec("130"), Date: day("2026-08-28")}
	adv := &fakeAdvisor{decision: &models.Decision{
		Orders: []models.OrderRequest{{Ticker: "AAPL", Qty: dec("0"), Price: dec("0")}},
	}}
	store := &fakeStore{}

	ctrl := newTestController(&fakeReader{snap: snap}, &fakeSyncer{candles: []*models.Candle{fresh}}, adv, store)
	_, err := ctrl.RunTactical(context.Background())
	require.NoError(t, err)

	require.Len(t, store.batches, 1)
	total := store.batches[0].Cash.TotalPortfolioAmount
	require.NotNil(t, total)
	// 5000 cash + 10 shares at the freshly synced 130 close.
	assert.True(t, total.Equal(dec("6300")), "total should value positions at the synced close, got %s", total)
}

func TestRunStrategic_PersistsResearchAndAdvisories(t *testing.T) {
	adv := &fakeAdvisor{research: &models.Research{
		Text: "rotate toward semis over the next month",
		Orders: []models.OrderRequest{
			{Ticker: "NVDA", Qty: dec("2"), Price: dec("900")},
		},
	}}
	store := &fakeStore{}

	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, store)
	run, err := ctrl.RunStrategic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, run.State)
	assert.Equal(t, models.CycleStrategic, run.Kind)
	require.Len(t, store.notes, 1)
	assert.Equal(t, "rotate toward semis over the next month", store.notes[0].Body)
	require.Len(t, store.pending, 1)
	require.Len(t, store.pending[0], 1)
	assert.Equal(t, "NVDA", store.pending[0][0].Ticker)
	assert.Empty(t, store.batches, "strategic cycles never execute orders")
}

func TestLastRun_ReflectsMostRecentCycle(t *testing.T) {
	adv := &fakeAdvisor{decision: &models.Decision{Summary: "hold"}}
	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, &fakeStore{})

	assert.Nil(t, ctrl.LastRun())

	_, err := ctrl.RunTactical(context.Background())
	require.NoError(t, err)

	last := ctrl.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, models.CycleTactical, last.Kind)
	assert.Equal(t, StateDone, last.State)
	assert.False(t, last.FinishedAt.IsZero())
}

func TestLastRun_SafeToPollWhileCycleInFlight(t *testing.T) {
	block := make(chan struct{})
	adv := &fakeAdvisor{block: block, decision: &models.Decision{Summary: "hold"}}
	ctrl := newTestController(&fakeReader{snap: snapWithBook()}, &fakeSyncer{}, adv, &fakeStore{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = ctrl.RunTactical(context.Background())
	}()

	// Hammer the status endpoint's read path while the cycle moves
	// through its states; the race detector flags any unguarded write.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					if run := ctrl.LastRun(); run != nil {
						_ = run.State
						_ = run.FinishedAt
						_ = run.OrdersApplied
					}
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond) // let the cycle reach the advisor
	close(block)
	<-done
	close(stop)
	wg.Wait()

	last := ctrl.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, StateDone, last.State)
	assert.False(t, last.FinishedAt.IsZero())
}

func day(s string) time.Time {
	t, _ := time.Parse(models.DateFormat, s)
	return t
}

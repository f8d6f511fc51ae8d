// Package cycle sequences the two temporal flows over shared persisted
// state: the daily tactical cycle that executes orders and the weekly
// strategic cycle that writes research and advisories. Only one cycle of
// either kind may be in flight at a time.
package cycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantpilot/advisor/internal/advisor"
	"github.com/quantpilot/advisor/internal/database"
	"github.com/quantpilot/advisor/internal/marketdata"
	"github.com/quantpilot/advisor/internal/models"
	"github.com/quantpilot/advisor/internal/portfolio"
	"github.com/quantpilot/advisor/internal/snapshot"
)

// ErrCycleInFlight rejects a trigger that arrives while another cycle is
// running. The trigger is dropped, never queued: financial state must not
// be touched by two overlapping cycles.
var ErrCycleInFlight = errors.New("another cycle is already in flight")

// State is one step of a cycle's lifecycle.
type State string

const (
	StateCollecting       State = "COLLECTING"
	StateAwaitingDecision State = "AWAITING_DECISION"
	StateApplying         State = "APPLYING"
	StateDone             State = "DONE"
	StateFailed           State = "FAILED"
)

// Run records one cycle invocation for logging, events, and the API.
type Run struct {
	Kind          models.CycleKind `json:"kind"`
	State         State            `json:"state"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at,omitempty"`
	OrdersApplied int              `json:"orders_applied"`
	Error         string           `json:"error,omitempty"`
}

// SnapshotReader builds the point-in-time view handed to the advisor.
type SnapshotReader interface {
	Read(kind models.CycleKind) (*models.PortfolioSnapshot, error)
}

// CandleSyncer merges fresh bars into the Store before a decision.
type CandleSyncer interface {
	Sync(ctx context.Context, tickers []string) ([]*models.Candle, error)
}

// Store is the subset of the database layer the controller writes through.
type Store interface {
	ApplyTradeBatch(b *database.TradeBatch) error
	SaveResearchOutcome(note *models.ResearchNote, pending []*models.PendingOrder) error
	ConsumePendingOrders(ids []int) error
}

// EventPublisher announces cycle outcomes; a nil publisher disables it.
type EventPublisher interface {
	PublishOrdersExecuted(ctx context.Context, date time.Time, orders []*models.Order) error
	PublishCycleCompleted(ctx context.Context, run Run) error
}

// Config carries the controller's tunables.
type Config struct {
	TacticalTimeout  time.Duration
	StrategicTimeout time.Duration
	FallbackTickers  []string
}

// Controller owns the in-memory portfolio view for the duration of one
// cycle and discards it after persisting results.
type Controller struct {
	reader    SnapshotReader
	syncer    CandleSyncer
	advisor   advisor.Advisor
	store     Store
	publisher EventPublisher
	cfg       Config
	log       zerolog.Logger

	inflight sync.Mutex

	// mu guards lastRun and every field write on the run it points to;
	// LastRun copies the struct under the same lock.
	mu      sync.Mutex
	lastRun *Run
}

// NewController wires the cycle controller.
func NewController(reader SnapshotReader, syncer CandleSyncer, adv advisor.Advisor, store Store, publisher EventPublisher, cfg Config, log zerolog.Logger) *Controller {
	return &Controller{
		reader:    reader,
		syncer:    syncer,
		advisor:   adv,
		store:     store,
		publisher: publisher,
		cfg:       cfg,
		log:       log.With().Str("component", "cycle").Logger(),
	}
}

// LastRun returns a copy of the most recent run record, or nil before the
// first cycle.
func (c *Controller) LastRun() *Run {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastRun == nil {
		return nil
	}
	run := *c.lastRun
	return &run
}

// RunTactical executes one daily cycle: snapshot, candle sync, decision,
// atomic order application.
func (c *Controller) RunTactical(ctx context.Context) (*Run, error) {
	if !c.inflight.TryLock() {
		c.log.Warn().Str("kind", string(models.CycleTactical)).Msg("Trigger skipped: cycle in flight")
		return nil, ErrCycleInFlight
	}
	defer c.inflight.Unlock()

	run := c.beginRun(models.CycleTactical)
	today := dateOnly(time.Now().UTC())

	snap, err := c.collect(ctx, run, models.CycleTactical)
	if err != nil {
		return run, c.fail(run, err)
	}

	c.transition(run, StateAwaitingDecision)
	decisionCtx, cancel := context.WithTimeout(ctx, c.cfg.TacticalTimeout)
	defer cancel()

	prompt := advisor.DailyPrompt(snapshot.Serialize(snap), today)
	decision, err := c.advisor.DailyDecision(decisionCtx, prompt)
	if err != nil {
		return run, c.fail(run, err)
	}

	consumedIDs := pendingIDs(snap.PendingAdvisories)

	if len(decision.Orders) == 0 {
		// Nothing to apply; advisories were still surfaced and must not
		// resurface tomorrow.
		if err := c.store.ConsumePendingOrders(consumedIDs); err != nil {
			return run, c.fail(run, err)
		}
		c.log.Info().Msg("No orders today")
		c.finish(ctx, run)
		return run, nil
	}

	c.transition(run, StateApplying)
	result, err := portfolio.ApplyOrders(snap, today, decision.Orders)
	if err != nil {
		return run, c.fail(run, err)
	}

	batch := &database.TradeBatch{
		Date:               today,
		Orders:             result.Orders,
		Positions:          result.Positions,
		Cash:               result.Cash,
		ConsumedPendingIDs: consumedIDs,
	}
	if err := c.store.ApplyTradeBatch(batch); err != nil {
		return run, c.fail(run, err)
	}
	c.recordOrdersApplied(run, len(result.Orders))

	c.log.Info().
		Int("orders", len(result.Orders)).
		Str("cash", result.Cash.Amount.String()).
		Msg("Order batch applied")

	if c.publisher != nil {
		if err := c.publisher.PublishOrdersExecuted(ctx, today, result.Orders); err != nil {
			c.log.Warn().Err(err).Msg("Failed to publish order events")
		}
	}

	c.finish(ctx, run)
	return run, nil
}

// RunStrategic executes one weekly cycle: snapshot with the trailing week
// of orders, candle sync, deep research, and persistence of the research
// note plus advisories for the next tactical cycle.
func (c *Controller) RunStrategic(ctx context.Context) (*Run, error) {
	if !c.inflight.TryLock() {
		c.log.Warn().Str("kind", string(models.CycleStrategic)).Msg("Trigger skipped: cycle in flight")
		return nil, ErrCycleInFlight
	}
	defer c.inflight.Unlock()

	run := c.beginRun(models.CycleStrategic)
	today := dateOnly(time.Now().UTC())

	snap, err := c.collect(ctx, run, models.CycleStrategic)
	if err != nil {
		return run, c.fail(run, err)
	}

	c.transition(run, StateAwaitingDecision)
	researchCtx, cancel := context.WithTimeout(ctx, c.cfg.StrategicTimeout)
	defer cancel()

	prompt := advisor.WeeklyPrompt(snapshot.Serialize(snap), today)
	research, err := c.advisor.WeeklyResearch(researchCtx, prompt)
	if err != nil {
		return run, c.fail(run, err)
	}

	c.transition(run, StateApplying)
	note := &models.ResearchNote{Date: today, Body: research.Text}
	pending := make([]*models.PendingOrder, 0, len(research.Orders))
	for _, o := range research.Orders {
		pending = append(pending, &models.PendingOrder{
			Date:   today,
			Ticker: o.Ticker,
			Qty:    o.Qty,
			Price:  o.Price,
		})
	}
	if err := c.store.SaveResearchOutcome(note, pending); err != nil {
		return run, c.fail(run, err)
	}

	c.log.Info().Int("advisories", len(pending)).Int("chars", len(research.Text)).Msg("Research recorded")

	c.finish(ctx, run)
	return run, nil
}

// collect runs the COLLECTING stage shared by both cycles: read the
// snapshot, sync candles for the position universe, and fold the synced
// bars back into the snapshot so the decision sees the freshest closes on
// record.
func (c *Controller) collect(ctx context.Context, run *Run, kind models.CycleKind) (*models.PortfolioSnapshot, error) {
	snap, err := c.reader.Read(kind)
	if err != nil {
		var emptyErr *snapshot.EmptyDataError
		if !errors.As(err, &emptyErr) {
			return nil, err
		}
		c.log.Warn().Err(emptyErr).Msg("Proceeding with reduced context")
	}

	tickers := snap.Tickers()
	if len(tickers) == 0 {
		tickers = c.cfg.FallbackTickers
	}

	synced, err := c.syncer.Sync(ctx, tickers)
	if err != nil {
		var partialErr *marketdata.PartialFetchError
		if !errors.As(err, &partialErr) {
			return nil, err
		}
		c.log.Warn().Strs("tickers", partialErr.Tickers()).Msg("Partial candle fetch, continuing")
	}
	mergeCandles(snap, synced)

	return snap, nil
}

// mergeCandles overlays freshly synced bars onto the snapshot's candles,
// keeping the previously stored bar for tickers whose fetch failed.
func mergeCandles(snap *models.PortfolioSnapshot, synced []*models.Candle) {
	if len(synced) == 0 {
		return
	}
	byTicker := make(map[string]*models.Candle, len(snap.Candles))
	for _, c := range snap.Candles {
		byTicker[c.Ticker] = c
	}
	for _, c := range synced {
		byTicker[c.Ticker] = c
	}
	merged := make([]*models.Candle, 0, len(byTicker))
	for _, c := range byTicker {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Ticker < merged[j].Ticker })
	snap.Candles = merged
}

func (c *Controller) beginRun(kind models.CycleKind) *Run {
	run := &Run{Kind: kind, State: StateCollecting, StartedAt: time.Now()}
	c.mu.Lock()
	c.lastRun = run
	c.mu.Unlock()
	c.log.Info().Str("kind", string(kind)).Msg("Cycle started")
	return run
}

func (c *Controller) transition(run *Run, state State) {
	c.mu.Lock()
	run.State = state
	c.mu.Unlock()
	c.log.Debug().Str("kind", string(run.Kind)).Str("state", string(state)).Msg("Cycle state")
}

func (c *Controller) recordOrdersApplied(run *Run, n int) {
	c.mu.Lock()
	run.OrdersApplied = n
	c.mu.Unlock()
}

func (c *Controller) fail(run *Run, err error) error {
	c.mu.Lock()
	run.State = StateFailed
	run.FinishedAt = time.Now()
	run.Error = err.Error()
	c.mu.Unlock()
	c.log.Error().Err(err).Str("kind", string(run.Kind)).Msg("Cycle failed")
	return err
}

func (c *Controller) finish(ctx context.Context, run *Run) {
	c.mu.Lock()
	run.State = StateDone
	run.FinishedAt = time.Now()
	c.mu.Unlock()
	c.log.Info().
		Str("kind", string(run.Kind)).
		Dur("elapsed", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Cycle done")

	if c.publisher != nil {
		if err := c.publisher.PublishCycleCompleted(ctx, *run); err != nil {
			c.log.Warn().Err(err).Msg("Failed to publish cycle event")
		}
	}
}

func pendingIDs(pending []*models.PendingOrder) []int {
	ids := make([]int, 0, len(pending))
	for _, p := range pending {
		ids = append(ids, p.ID)
	}
	return ids
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

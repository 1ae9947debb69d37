// Package engine orchestrates the position lifecycle. Each tick runs to
// completion under one lock: settle expired markets, walk the exit cascade,
// evaluate the entry path, persist the ledger, hand events to the sinks.
// The engine never performs price I/O; it only consumes the tick input it
// is given.
package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/updown/journal"
	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
	"github.com/rustyeddy/updown/pkg/id"
	"github.com/rustyeddy/updown/risk"
)

// Close and open reasons carried on trade events.
const (
	ReasonEntry             = "ENTRY"
	ReasonFlipClose         = "FLIP_CLOSE"
	ReasonStopLoss          = "STOP_LOSS"
	ReasonStopLossBreakeven = "STOP_LOSS_BREAKEVEN"
	ReasonHalfTime          = "HALF_TIME"
	ReasonEarlyTakeProfit   = "EARLY_TAKE_PROFIT"
	ReasonTakeProfit        = "TAKE_PROFIT"
	ReasonExpiry            = "EXPIRY"
)

// Engine drives one ledger. The mutex serializes OnTick: overlapping ticks
// against the same ledger are disallowed, so a host with overlapping timers
// still gets one-at-a-time semantics.
type Engine struct {
	mu     sync.Mutex
	policy risk.Policy
	led    *ledger.Ledger
	store  ledger.Store
	gate   *risk.EntryGate
	log    *zap.Logger
	sinks  []journal.Journal
}

// New builds an engine around an already-loaded ledger. The sinks receive
// every emitted trade event; their failures are logged and isolated.
func New(policy risk.Policy, led *ledger.Ledger, store ledger.Store, log *zap.Logger, sinks ...journal.Journal) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		policy: policy,
		led:    led,
		store:  store,
		gate:   risk.NewEntryGate(policy),
		log:    log,
		sinks:  sinks,
	}
}

// Ledger exposes the engine's state for inspection. Callers must not
// mutate it.
func (e *Engine) Ledger() *ledger.Ledger { return e.led }

// OnTick processes one market snapshot plus signal and returns the trade
// events it produced, in execution order. Nothing escapes: an unexpected
// fault degrades to whatever was applied before it, logged, never a panic
// to the caller.
func (e *Engine) OnTick(ctx context.Context, in market.TickInput) (events []journal.TradeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("tick fault, degraded to partial no-op", zap.Any("fault", r))
		}
	}()

	now := in.Time
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if e.led.ResetDailyIfNewUTCDay(now) {
		e.log.Info("daily counters reset", zap.Time("at", now))
	}

	events = append(events, e.settleExpired(in, now)...)
	events = append(events, e.evaluateExits(in, now)...)
	events = append(events, e.evaluateEntry(in, now)...)

	if err := e.store.Save(ctx, e.led); err != nil {
		// In-memory ledger stays authoritative; next tick retries.
		e.log.Warn("state save failed", zap.Error(err))
	}

	e.dispatch(events)
	return events
}

// openPosition sizes the cash legs, opens on the ledger and emits the OPEN
// event. The ledger's own checks are the final authority; a rejection here
// is logged and swallowed.
func (e *Engine) openPosition(side market.Side, marketID string, price, size float64, now time.Time) (journal.TradeEvent, bool) {
	fee := size * e.policy.FeePct / 100
	pos := &ledger.Position{
		ID:         id.New(),
		MarketID:   marketID,
		Side:       side,
		EntryPrice: price,
		Shares:     size / price,
		CostBasis:  size + fee,
		EntryTime:  now,
	}

	if err := e.led.Open(pos, e.policy.MaxConcurrentPositions); err != nil {
		e.log.Warn("open rejected by ledger",
			zap.String("market", marketID),
			zap.String("side", string(side)),
			zap.Error(err))
		return journal.TradeEvent{}, false
	}

	e.log.Info("position opened",
		zap.String("position", pos.ID),
		zap.String("market", marketID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Float64("stake", size),
		zap.Float64("balance", e.led.Balance))

	return journal.TradeEvent{
		ID:           id.New(),
		Time:         now,
		Type:         journal.EventOpen,
		Side:         side,
		MarketID:     marketID,
		Price:        price,
		Shares:       pos.Shares,
		Amount:       size,
		Fee:          fee,
		Reason:       ReasonEntry,
		BalanceAfter: e.led.Balance,
	}, true
}

// closePosition realizes a position at the given normalized exit price.
// Settlement closes are fee-exempt (redemption, not a trade).
func (e *Engine) closePosition(p *ledger.Position, exitPrice float64, reason string, settlement bool, now time.Time) journal.TradeEvent {
	proceeds, fee, pnl := e.closeMath(p, exitPrice, settlement)

	e.led.Close(p, proceeds, pnl, now)
	if reason == ReasonStopLoss || reason == ReasonStopLossBreakeven {
		e.led.MarkStopLoss(now)
	}

	e.log.Info("position closed",
		zap.String("position", p.ID),
		zap.String("market", p.MarketID),
		zap.String("side", string(p.Side)),
		zap.Float64("price", exitPrice),
		zap.Float64("pnl", pnl),
		zap.String("reason", reason),
		zap.Float64("balance", e.led.Balance))

	return journal.TradeEvent{
		ID:           id.New(),
		Time:         now,
		Type:         journal.EventClose,
		Side:         p.Side,
		MarketID:     p.MarketID,
		Price:        exitPrice,
		Shares:       p.Shares,
		Amount:       proceeds,
		Fee:          fee,
		PnL:          &pnl,
		Reason:       reason,
		BalanceAfter: e.led.Balance,
	}
}

// closeMath returns (net proceeds, fee, pnl) for closing p at exitPrice.
func (e *Engine) closeMath(p *ledger.Position, exitPrice float64, settlement bool) (float64, float64, float64) {
	gross := p.Shares * exitPrice
	var fee float64
	if !settlement {
		fee = gross * e.policy.FeePct / 100
	}
	net := gross - fee
	return net, fee, net - p.CostBasis
}

func (e *Engine) dispatch(events []journal.TradeEvent) {
	for _, sink := range e.sinks {
		for _, ev := range events {
			if err := sink.Record(ev); err != nil {
				e.log.Warn("event sink failed",
					zap.String("event", ev.ID),
					zap.Error(err))
			}
		}
	}
}

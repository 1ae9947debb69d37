// Package ledger owns the persisted mutable state of the engine: the cash
// balance, the open positions and the rolling risk counters. It exposes
// only invariant-preserving mutation helpers; all decisions about when to
// call them live in the engine.
package ledger

import (
	"errors"
	"time"

	"github.com/rustyeddy/updown/market"
)

// Outcome is the recorded result of a closed position.
type Outcome string

const (
	OutcomeWin  Outcome = "WIN"
	OutcomeLoss Outcome = "LOSS"
)

// maxRecentOutcomes bounds the rolling WIN/LOSS window.
const maxRecentOutcomes = 10

var (
	ErrInsufficientBalance = errors.New("ledger: insufficient balance")
	ErrMaxPositions        = errors.New("ledger: max concurrent positions reached")
	ErrDuplicatePosition   = errors.New("ledger: position already open for market and side")
)

// Position is one open binary-outcome bet. CostBasis includes the entry fee
// and is immutable after open; BreakevenArmed is the only field mutated in
// place during the position's life.
type Position struct {
	ID             string
	MarketID       string
	Side           market.Side
	EntryPrice     float64 // normalized to [0,1]
	Shares         float64
	CostBasis      float64
	EntryTime      time.Time
	BreakevenArmed bool
}

// UnrealizedROI returns the percentage return of the position marked at the
// given normalized price.
func (p *Position) UnrealizedROI(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// Ledger is the process-wide account state. One instance exists per running
// engine and is mutated exclusively by it.
type Ledger struct {
	Balance              float64
	Positions            []*Position
	DailyRealizedNetLoss float64
	LastStopLoss         time.Time
	LastEntry            time.Time
	LastExit             time.Time
	LastDailyReset       time.Time
	RecentOutcomes       []Outcome
	ConsecutiveLosses    int
}

// New returns a fresh ledger funded with the given balance.
func New(balance float64) *Ledger {
	return &Ledger{Balance: balance}
}

// Open debits the position's cost basis and appends it. It rejects, leaving
// the ledger untouched, when the balance cannot cover the cost, the
// concurrency cap is reached, or a position already exists for the same
// market and side.
func (l *Ledger) Open(p *Position, maxConcurrent int) error {
	if p.CostBasis > l.Balance {
		return ErrInsufficientBalance
	}
	if len(l.Positions) >= maxConcurrent {
		return ErrMaxPositions
	}
	if l.Find(p.MarketID, p.Side) != nil {
		return ErrDuplicatePosition
	}

	l.Balance -= p.CostBasis
	l.Positions = append(l.Positions, p)
	l.LastEntry = p.EntryTime
	return nil
}

// Close credits the net proceeds, removes the position and updates the
// rolling risk counters. A close with pnl > 0 counts as a win and resets
// the consecutive-loss streak; anything else counts as a loss.
// DailyRealizedNetLoss uses net-PnL semantics: wins reduce it.
func (l *Ledger) Close(p *Position, proceeds, pnl float64, now time.Time) {
	l.Balance += proceeds
	l.remove(p)
	l.DailyRealizedNetLoss -= pnl
	l.LastExit = now

	if pnl > 0 {
		l.ConsecutiveLosses = 0
		l.pushOutcome(OutcomeWin)
	} else {
		l.ConsecutiveLosses++
		l.pushOutcome(OutcomeLoss)
	}
}

// MarkStopLoss records the cooldown anchor for stop-loss closes.
func (l *Ledger) MarkStopLoss(now time.Time) {
	l.LastStopLoss = now
}

// ResetDailyIfNewUTCDay zeroes the daily loss accumulator when the UTC
// calendar date has changed since the last reset. Idempotent within a day.
func (l *Ledger) ResetDailyIfNewUTCDay(now time.Time) bool {
	if sameUTCDay(l.LastDailyReset, now) {
		return false
	}
	l.DailyRealizedNetLoss = 0
	l.LastDailyReset = now
	return true
}

// Find returns the open position for the given market and side, or nil.
func (l *Ledger) Find(marketID string, side market.Side) *Position {
	for _, p := range l.Positions {
		if p.MarketID == marketID && p.Side == side {
			return p
		}
	}
	return nil
}

// OpenCount returns the number of open positions.
func (l *Ledger) OpenCount() int { return len(l.Positions) }

// Clone returns a deep copy, used to plan multi-leg mutations (flips)
// before touching the authoritative state.
func (l *Ledger) Clone() *Ledger {
	c := *l
	c.Positions = make([]*Position, len(l.Positions))
	for i, p := range l.Positions {
		cp := *p
		c.Positions[i] = &cp
	}
	c.RecentOutcomes = append([]Outcome(nil), l.RecentOutcomes...)
	return &c
}

func (l *Ledger) remove(p *Position) {
	for i, q := range l.Positions {
		if q == p || (q.ID != "" && q.ID == p.ID) {
			l.Positions = append(l.Positions[:i], l.Positions[i+1:]...)
			return
		}
	}
}

func (l *Ledger) pushOutcome(o Outcome) {
	l.RecentOutcomes = append(l.RecentOutcomes, o)
	if n := len(l.RecentOutcomes); n > maxRecentOutcomes {
		l.RecentOutcomes = l.RecentOutcomes[n-maxRecentOutcomes:]
	}
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

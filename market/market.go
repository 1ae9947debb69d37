// Package market holds the shared vocabulary for UP/DOWN binary-outcome
// markets: tick snapshots, quoted prices, directional signals and the
// normalization rule applied to every quoted price before it is used.
package market

import "time"

// Side is the direction of a binary-outcome bet.
type Side string

const (
	SideUp   Side = "UP"
	SideDown Side = "DOWN"
)

// Opposite returns the other side of the market.
func (s Side) Opposite() Side {
	if s == SideUp {
		return SideDown
	}
	return SideUp
}

// Valid reports whether s is one of the two recognized sides.
func (s Side) Valid() bool {
	return s == SideUp || s == SideDown
}

// Trend is the direction label supplied by the external signal pipeline.
type Trend string

const (
	TrendRising  Trend = "RISING"
	TrendFalling Trend = "FALLING"
	TrendNeutral Trend = "NEUTRAL"
)

// Action is the directive carried by a Signal.
type Action string

const (
	ActionEnter Action = "ENTER"
	ActionHold  Action = "HOLD"
)

// Snapshot describes the state of the current expiry-bound market instance
// at one polling interval. Strike, Spot and TimeRemaining may be absent.
type Snapshot struct {
	MarketID      string
	IsExpired     bool
	Strike        *float64
	Spot          *float64
	TimeRemaining *float64 // minutes until expiry
}

// Prices carries the latest quote per side. Quotes may arrive on a [0,1]
// probability scale or a [0,100] cents scale; Normalize resolves that.
// A nil pointer means no quote was available this tick.
type Prices struct {
	Up   *float64
	Down *float64
}

// For returns the quote pointer for the given side.
func (p Prices) For(s Side) *float64 {
	if s == SideUp {
		return p.Up
	}
	return p.Down
}

// Signal is the directional trading signal computed upstream. Probability,
// Edge and Strength are optional; a weak signal may omit all of them.
type Signal struct {
	Action      Action
	Side        Side
	Probability *float64
	Edge        *float64
	Strength    *float64
}

// TickInput is everything the engine consumes for one tick. A zero Time is
// replaced with the current UTC wall clock by the engine.
type TickInput struct {
	Snapshot Snapshot
	Prices   Prices
	Signal   Signal
	Trend    Trend
	Time     time.Time
}

// centsCutoff separates probability-scale quotes from cents-scale quotes.
// A legitimate probability price never exceeds 1; the small allowance
// absorbs feeds that round slightly above it.
const centsCutoff = 1.05

// Normalize maps a quoted price onto the [0,1] probability scale. Values
// above the cutoff are treated as cents and divided by 100; everything
// else is passed through, so normalizing twice is a no-op.
func Normalize(price float64) float64 {
	if price > centsCutoff {
		return price / 100
	}
	return price
}

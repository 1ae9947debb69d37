// Package journal defines the trade-event record emitted by the engine and
// the sink interface collaborators implement. Sinks are fire-and-forget
// from the engine's point of view: a failing sink is logged and isolated,
// never rolled into the tick's outcome.
package journal

import (
	"time"

	"github.com/rustyeddy/updown/market"
)

// EventType discriminates opens from closes.
type EventType string

const (
	EventOpen  EventType = "OPEN"
	EventClose EventType = "CLOSE"
)

// TradeEvent is one executed portfolio mutation. Amount is the stake
// committed on an open and the net proceeds on a close. PnL is nil for
// opens.
type TradeEvent struct {
	ID           string
	Time         time.Time
	Type         EventType
	Side         market.Side
	MarketID     string
	Price        float64 // normalized execution price
	Shares       float64
	Amount       float64
	Fee          float64
	PnL          *float64
	Reason       string
	BalanceAfter float64
}

// Journal records trade events.
type Journal interface {
	Record(TradeEvent) error
	Close() error
}

// Multi fans a record out to several journals, returning the first error.
type Multi []Journal

func (m Multi) Record(e TradeEvent) error {
	var first error
	for _, j := range m {
		if err := j.Record(e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, j := range m {
		if err := j.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

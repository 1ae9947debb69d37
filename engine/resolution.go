package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/updown/journal"
	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
)

// settleExpired force-settles positions whose market has concluded: either
// the snapshot says the current market expired, or the snapshot has rolled
// over to a new market id while positions for the prior one remain open.
//
// Settlement rule: UP wins iff spot >= strike. Payout is binary, 1.0 per
// share on a win and 0.0 on a loss, and fee-exempt. Without both strike
// and spot the position is carried to the next tick.
func (e *Engine) settleExpired(in market.TickInput, now time.Time) []journal.TradeEvent {
	var events []journal.TradeEvent

	for _, p := range append([]*ledger.Position(nil), e.led.Positions...) {
		if !e.marketConcluded(p, in.Snapshot) {
			continue
		}
		if in.Snapshot.Strike == nil || in.Snapshot.Spot == nil {
			e.log.Debug("expired market missing strike/spot, carrying position",
				zap.String("position", p.ID),
				zap.String("market", p.MarketID))
			continue
		}

		upWins := *in.Snapshot.Spot >= *in.Snapshot.Strike
		won := (p.Side == market.SideUp) == upWins

		payout := 0.0
		if won {
			payout = 1.0
		}
		events = append(events, e.closePosition(p, payout, ReasonExpiry, true, now))
	}
	return events
}

func (e *Engine) marketConcluded(p *ledger.Position, snap market.Snapshot) bool {
	if snap.MarketID == "" {
		return false
	}
	if p.MarketID != snap.MarketID {
		// Rollover: the feed has moved on to a new market instance.
		return true
	}
	return snap.IsExpired
}

package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/updown/journal"
	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
)

// evaluateExits runs the exit cascade once per open position. Triggers are
// strictly ordered; the first match closes the position and skips the rest
// for it. Positions are independent of one another.
//
// Order: breakeven arming (latch only), hard stop loss, breakeven
// protection, half-time, early take-profit, take-profit.
func (e *Engine) evaluateExits(in market.TickInput, now time.Time) []journal.TradeEvent {
	var events []journal.TradeEvent

	for _, p := range append([]*ledger.Position(nil), e.led.Positions...) {
		if p.MarketID != in.Snapshot.MarketID {
			continue // stale market, resolution owns it
		}
		quote := in.Prices.For(p.Side)
		if quote == nil {
			continue // no quote, no decision possible this tick
		}
		price := market.Normalize(*quote)

		if ev, closed := e.evaluatePosition(p, price, in.Snapshot.TimeRemaining, now); closed {
			events = append(events, ev)
		}
	}
	return events
}

func (e *Engine) evaluatePosition(p *ledger.Position, price float64, remaining *float64, now time.Time) (journal.TradeEvent, bool) {
	roi := p.UnrealizedROI(price)

	// Breakeven arming: a one-way latch, never closes by itself. Once set,
	// any later non-positive-ROI close realizes at entry price.
	if !p.BreakevenArmed && roi >= e.policy.BreakevenTriggerRoiPct {
		p.BreakevenArmed = true
		e.log.Info("breakeven armed",
			zap.String("position", p.ID),
			zap.Float64("roi_pct", roi))
	}

	// Hard stop loss, gated by the grace period so an entry isn't whipsawed
	// out by the first adverse print.
	grace := time.Duration(e.policy.StopLossGracePeriodSeconds * float64(time.Second))
	if roi <= -e.policy.StopLossRoiPct && now.Sub(p.EntryTime) >= grace {
		if p.BreakevenArmed && roi < 0 {
			return e.closePosition(p, p.EntryPrice, ReasonStopLossBreakeven, false, now), true
		}
		return e.closePosition(p, price, ReasonStopLoss, false, now), true
	}

	// Breakeven protection fires on any non-positive ROI once armed,
	// independent of the stop-loss threshold.
	if p.BreakevenArmed && roi <= 0 {
		return e.closePosition(p, p.EntryPrice, ReasonStopLossBreakeven, false, now), true
	}

	// Half-time rule: cut losers before the illiquid end-game.
	if remaining != nil && *remaining <= e.policy.HalfTimeThresholdMinutes && roi < 0 {
		return e.closePosition(p, price, ReasonHalfTime, false, now), true
	}

	// Early take-profit: lock near-certain wins before settlement friction.
	if price >= e.policy.EarlyTakeProfitPrice || roi >= e.policy.EarlyTakeProfitRoiPct {
		return e.closePosition(p, price, ReasonEarlyTakeProfit, false, now), true
	}

	if price >= e.policy.TakeProfitPrice ||
		(e.policy.TakeProfitRoiPct > 0 && roi >= e.policy.TakeProfitRoiPct) {
		return e.closePosition(p, price, ReasonTakeProfit, false, now), true
	}

	return journal.TradeEvent{}, false
}

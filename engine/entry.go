package engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/updown/journal"
	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
	"github.com/rustyeddy/updown/risk"
)

// evaluateEntry handles the entry path for an ENTER signal: flip an
// opposite-side position on the same market if one is held, then run the
// sizing model and the entry gate, then open on the ledger.
func (e *Engine) evaluateEntry(in market.TickInput, now time.Time) []journal.TradeEvent {
	sig := in.Signal
	if sig.Action != market.ActionEnter || !sig.Side.Valid() {
		return nil
	}
	if in.Snapshot.MarketID == "" || in.Snapshot.IsExpired {
		return nil
	}
	quote := in.Prices.For(sig.Side)
	if quote == nil {
		return nil // no quote for the requested side, no decision
	}
	price := market.Normalize(*quote)

	if held := e.led.Find(in.Snapshot.MarketID, sig.Side.Opposite()); held != nil {
		return e.flip(held, sig, price, in, now)
	}

	size := risk.Size(sig.Probability, price, e.led.Balance, e.policy)
	if size <= 0 {
		return nil
	}

	dec := e.gate.Evaluate(risk.EntryRequest{
		MarketID:      in.Snapshot.MarketID,
		Side:          sig.Side,
		Price:         price,
		Size:          size,
		Trend:         in.Trend,
		TimeRemaining: in.Snapshot.TimeRemaining,
		Now:           now,
	}, e.led)
	if !dec.Allowed {
		e.log.Info("entry blocked",
			zap.String("market", in.Snapshot.MarketID),
			zap.String("side", string(sig.Side)),
			zap.String("code", dec.Blocked.Code),
			zap.String("reason", dec.Blocked.Msg))
		return nil
	}

	if ev, ok := e.openPosition(sig.Side, in.Snapshot.MarketID, price, size, now); ok {
		return []journal.TradeEvent{ev}
	}
	return nil
}

// flip closes the held opposite-side position and opens the requested side.
// Both legs are planned against a scratch copy of the ledger first, so a
// vetoed or gated open leaves the held position untouched. A partial flip
// is never observable.
func (e *Engine) flip(held *ledger.Position, sig market.Signal, price float64, in market.TickInput, now time.Time) []journal.TradeEvent {
	heldQuote := in.Prices.For(held.Side)
	if heldQuote == nil {
		return nil // cannot value the held side, carry it
	}
	heldPrice := market.Normalize(*heldQuote)

	if e.policy.FlipProtectPrice > 0 && heldPrice >= e.policy.FlipProtectPrice {
		e.log.Info("flip vetoed, held position in the money",
			zap.String("position", held.ID),
			zap.Float64("price", heldPrice),
			zap.Float64("protect", e.policy.FlipProtectPrice))
		return nil
	}

	// Plan both legs on a scratch ledger.
	scratch := e.led.Clone()
	scratchHeld := scratch.Find(held.MarketID, held.Side)
	proceeds, _, pnl := e.closeMath(held, heldPrice, false)
	scratch.Close(scratchHeld, proceeds, pnl, now)

	size := risk.Size(sig.Probability, price, scratch.Balance, e.policy)
	if size <= 0 {
		return nil
	}
	dec := e.gate.Evaluate(risk.EntryRequest{
		MarketID:      in.Snapshot.MarketID,
		Side:          sig.Side,
		Price:         price,
		Size:          size,
		Trend:         in.Trend,
		TimeRemaining: in.Snapshot.TimeRemaining,
		Now:           now,
	}, scratch)
	if !dec.Allowed {
		e.log.Info("flip abandoned, open leg blocked",
			zap.String("market", in.Snapshot.MarketID),
			zap.String("code", dec.Blocked.Code),
			zap.String("reason", dec.Blocked.Msg))
		return nil
	}

	// Both legs approved; apply to the authoritative ledger.
	events := []journal.TradeEvent{e.closePosition(held, heldPrice, ReasonFlipClose, false, now)}
	if ev, ok := e.openPosition(sig.Side, in.Snapshot.MarketID, price, size, now); ok {
		events = append(events, ev)
	}
	return events
}

package risk

import (
	"fmt"
	"time"

	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
)

// Violation names the filter that blocked an entry. Codes are stable;
// messages are operator diagnostics.
type Violation struct {
	Code string
	Msg  string
}

// Decision is the gate verdict. Blocked is nil when Allowed.
type Decision struct {
	Allowed bool
	Blocked *Violation
}

// EntryRequest is a fully-sized entry candidate. Size is the stake computed
// by the sizing model; the capacity filter checks it against the balance
// fee-inclusive, matching the ledger's own open-time check.
type EntryRequest struct {
	MarketID      string
	Side          market.Side
	Price         float64 // normalized
	Size          float64
	Trend         market.Trend
	TimeRemaining *float64 // minutes, nil when unknown
	Now           time.Time
}

// EntryGate is an ordered pipeline of independent filters. The first
// blocking filter halts evaluation; the order fixes which reason an
// operator sees, each filter is correct on its own.
type EntryGate struct {
	policy Policy
}

func NewEntryGate(p Policy) *EntryGate {
	return &EntryGate{policy: p}
}

type filter func(req EntryRequest, led *ledger.Ledger) *Violation

// Evaluate runs the pipeline against the ledger and returns the first
// violation, if any. A rejection is a deliberate no-op, not an error.
func (g *EntryGate) Evaluate(req EntryRequest, led *ledger.Ledger) Decision {
	filters := []filter{
		g.priceBand,
		g.circuitBreaker,
		g.duplicateMarket,
		g.dailyLossLimit,
		g.stopLossCooldown,
		g.entryDebounce,
		g.trend,
		g.capacity,
		g.entryDeadline,
	}
	for _, f := range filters {
		if v := f(req, led); v != nil {
			return Decision{Blocked: v}
		}
	}
	return Decision{Allowed: true}
}

func (g *EntryGate) priceBand(req EntryRequest, _ *ledger.Ledger) *Violation {
	if req.Price < g.policy.MinEntryPrice || req.Price > g.policy.MaxEntryPrice {
		return &Violation{
			Code: "PRICE_BAND",
			Msg: fmt.Sprintf("price %.4f outside [%.2f, %.2f]",
				req.Price, g.policy.MinEntryPrice, g.policy.MaxEntryPrice),
		}
	}
	return nil
}

func (g *EntryGate) circuitBreaker(_ EntryRequest, led *ledger.Ledger) *Violation {
	if led.ConsecutiveLosses >= g.policy.MaxConsecutiveLosses {
		return &Violation{
			Code: "CIRCUIT_BREAKER",
			Msg: fmt.Sprintf("%d consecutive losses >= max %d",
				led.ConsecutiveLosses, g.policy.MaxConsecutiveLosses),
		}
	}
	return nil
}

func (g *EntryGate) duplicateMarket(req EntryRequest, led *ledger.Ledger) *Violation {
	if led.Find(req.MarketID, req.Side) != nil {
		return &Violation{
			Code: "DUPLICATE_MARKET",
			Msg:  fmt.Sprintf("position already open for %s %s", req.MarketID, req.Side),
		}
	}
	return nil
}

func (g *EntryGate) dailyLossLimit(_ EntryRequest, led *ledger.Ledger) *Violation {
	if led.DailyRealizedNetLoss >= g.policy.DailyLossLimit {
		return &Violation{
			Code: "DAILY_LOSS_LIMIT",
			Msg: fmt.Sprintf("daily net loss %.2f >= limit %.2f",
				led.DailyRealizedNetLoss, g.policy.DailyLossLimit),
		}
	}
	return nil
}

func (g *EntryGate) stopLossCooldown(req EntryRequest, led *ledger.Ledger) *Violation {
	if led.LastStopLoss.IsZero() {
		return nil
	}
	cooldown := time.Duration(g.policy.CooldownMinutes * float64(time.Minute))
	if elapsed := req.Now.Sub(led.LastStopLoss); elapsed < cooldown {
		return &Violation{
			Code: "STOP_COOLDOWN",
			Msg:  fmt.Sprintf("%.0fs since stop loss, cooldown %s", elapsed.Seconds(), cooldown),
		}
	}
	return nil
}

func (g *EntryGate) entryDebounce(req EntryRequest, led *ledger.Ledger) *Violation {
	if led.LastEntry.IsZero() {
		return nil
	}
	debounce := time.Duration(g.policy.EntryCooldownSeconds * float64(time.Second))
	if elapsed := req.Now.Sub(led.LastEntry); elapsed < debounce {
		return &Violation{
			Code: "ENTRY_DEBOUNCE",
			Msg:  fmt.Sprintf("%.0fs since last entry, debounce %s", elapsed.Seconds(), debounce),
		}
	}
	return nil
}

func (g *EntryGate) trend(req EntryRequest, _ *ledger.Ledger) *Violation {
	if (req.Side == market.SideUp && req.Trend == market.TrendFalling) ||
		(req.Side == market.SideDown && req.Trend == market.TrendRising) {
		return &Violation{
			Code: "TREND",
			Msg:  fmt.Sprintf("%s entry against %s trend", req.Side, req.Trend),
		}
	}
	return nil
}

func (g *EntryGate) capacity(req EntryRequest, led *ledger.Ledger) *Violation {
	if led.OpenCount() >= g.policy.MaxConcurrentPositions {
		return &Violation{
			Code: "CAPACITY",
			Msg: fmt.Sprintf("%d open positions >= max %d",
				led.OpenCount(), g.policy.MaxConcurrentPositions),
		}
	}
	if cost := g.policy.EntryCost(req.Size); led.Balance < cost {
		return &Violation{
			Code: "CAPACITY",
			Msg:  fmt.Sprintf("balance %.2f below entry cost %.2f", led.Balance, cost),
		}
	}
	return nil
}

func (g *EntryGate) entryDeadline(req EntryRequest, _ *ledger.Ledger) *Violation {
	if g.policy.EntryDeadlineMinutes <= 0 || req.TimeRemaining == nil {
		return nil
	}
	if *req.TimeRemaining < g.policy.EntryDeadlineMinutes {
		return &Violation{
			Code: "ENTRY_DEADLINE",
			Msg: fmt.Sprintf("%.1fm remaining below deadline %.1fm",
				*req.TimeRemaining, g.policy.EntryDeadlineMinutes),
		}
	}
	return nil
}

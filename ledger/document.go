package ledger

import (
	"time"

	"github.com/rustyeddy/updown/market"
)

// schemaVersion tags the persisted document layout. Loading applies schema
// defaults for any field a stored document is missing, so documents written
// by older builds remain loadable.
const schemaVersion = 1

type positionDocument struct {
	ID             string      `json:"id"`
	MarketID       string      `json:"market_id"`
	Side           market.Side `json:"side"`
	EntryPrice     float64     `json:"entry_price"`
	Shares         float64     `json:"shares"`
	CostBasis      float64     `json:"cost_basis"`
	EntryTime      time.Time   `json:"entry_time"`
	BreakevenArmed bool        `json:"breakeven_armed"`
}

type stateDocument struct {
	Version              int                `json:"version"`
	Balance              *float64           `json:"balance,omitempty"`
	Positions            []positionDocument `json:"positions,omitempty"`
	DailyRealizedNetLoss float64            `json:"daily_realized_net_loss"`
	LastStopLoss         time.Time          `json:"last_stop_loss,omitempty"`
	LastEntry            time.Time          `json:"last_entry,omitempty"`
	LastExit             time.Time          `json:"last_exit,omitempty"`
	LastDailyReset       time.Time          `json:"last_daily_reset,omitempty"`
	RecentOutcomes       []Outcome          `json:"recent_outcomes,omitempty"`
	ConsecutiveLosses    int                `json:"consecutive_losses"`
}

func encode(l *Ledger) stateDocument {
	doc := stateDocument{
		Version:              schemaVersion,
		Balance:              &l.Balance,
		DailyRealizedNetLoss: l.DailyRealizedNetLoss,
		LastStopLoss:         l.LastStopLoss,
		LastEntry:            l.LastEntry,
		LastExit:             l.LastExit,
		LastDailyReset:       l.LastDailyReset,
		RecentOutcomes:       l.RecentOutcomes,
		ConsecutiveLosses:    l.ConsecutiveLosses,
	}
	for _, p := range l.Positions {
		doc.Positions = append(doc.Positions, positionDocument{
			ID:             p.ID,
			MarketID:       p.MarketID,
			Side:           p.Side,
			EntryPrice:     p.EntryPrice,
			Shares:         p.Shares,
			CostBasis:      p.CostBasis,
			EntryTime:      p.EntryTime,
			BreakevenArmed: p.BreakevenArmed,
		})
	}
	return doc
}

// migrate turns a stored document into a Ledger, defaulting every missing
// field. A document with no balance field takes the configured initial
// balance; positions and counters default to empty/zero. Pure function, no
// I/O: it is the single place schema evolution is handled.
func migrate(doc stateDocument, initialBalance float64) *Ledger {
	l := &Ledger{
		Balance:              initialBalance,
		DailyRealizedNetLoss: doc.DailyRealizedNetLoss,
		LastStopLoss:         doc.LastStopLoss,
		LastEntry:            doc.LastEntry,
		LastExit:             doc.LastExit,
		LastDailyReset:       doc.LastDailyReset,
		ConsecutiveLosses:    doc.ConsecutiveLosses,
	}
	if doc.Balance != nil {
		l.Balance = *doc.Balance
	}
	for _, pd := range doc.Positions {
		l.Positions = append(l.Positions, &Position{
			ID:             pd.ID,
			MarketID:       pd.MarketID,
			Side:           pd.Side,
			EntryPrice:     market.Normalize(pd.EntryPrice),
			Shares:         pd.Shares,
			CostBasis:      pd.CostBasis,
			EntryTime:      pd.EntryTime,
			BreakevenArmed: pd.BreakevenArmed,
		})
	}
	if n := len(doc.RecentOutcomes); n > maxRecentOutcomes {
		doc.RecentOutcomes = doc.RecentOutcomes[n-maxRecentOutcomes:]
	}
	l.RecentOutcomes = append([]Outcome(nil), doc.RecentOutcomes...)
	return l
}

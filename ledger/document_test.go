package ledger

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/updown/market"
)

func TestMigrateDefaultsMissingFields(t *testing.T) {
	t.Parallel()

	// A minimal legacy document: no version, no balance, no counters.
	var doc stateDocument
	require.NoError(t, json.Unmarshal([]byte(`{}`), &doc))

	l := migrate(doc, 250)

	assert.InDelta(t, 250, l.Balance, 1e-9)
	assert.Empty(t, l.Positions)
	assert.Zero(t, l.DailyRealizedNetLoss)
	assert.Zero(t, l.ConsecutiveLosses)
	assert.Empty(t, l.RecentOutcomes)
	assert.True(t, l.LastStopLoss.IsZero())
}

func TestMigratePartialDocument(t *testing.T) {
	t.Parallel()

	raw := `{
		"balance": 87.5,
		"consecutive_losses": 2,
		"positions": [
			{"id": "p1", "market_id": "m1", "side": "UP",
			 "entry_price": 55, "shares": 20, "cost_basis": 10.2,
			 "entry_time": "2026-08-01T12:00:00Z"}
		]
	}`
	var doc stateDocument
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	l := migrate(doc, 1000)

	assert.InDelta(t, 87.5, l.Balance, 1e-9)
	assert.Equal(t, 2, l.ConsecutiveLosses)
	require.Len(t, l.Positions, 1)
	// Entry prices stored on the legacy cents scale are normalized on load.
	assert.InDelta(t, 0.55, l.Positions[0].EntryPrice, 1e-9)
	assert.Equal(t, market.SideUp, l.Positions[0].Side)
}

func TestMigrateTrimsOutcomes(t *testing.T) {
	t.Parallel()

	doc := stateDocument{}
	for i := 0; i < 14; i++ {
		doc.RecentOutcomes = append(doc.RecentOutcomes, OutcomeLoss)
	}

	l := migrate(doc, 100)
	assert.Len(t, l.RecentOutcomes, 10)
}

func TestEncodeMigrateRoundTrip(t *testing.T) {
	t.Parallel()

	l := New(100)
	p := &Position{
		ID:             "p1",
		MarketID:       "m1",
		Side:           market.SideDown,
		EntryPrice:     0.42,
		Shares:         23.8,
		CostBasis:      10.2,
		EntryTime:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		BreakevenArmed: true,
	}
	require.NoError(t, l.Open(p, 3))
	l.DailyRealizedNetLoss = 3.25
	l.ConsecutiveLosses = 1
	l.RecentOutcomes = []Outcome{OutcomeWin, OutcomeLoss}

	data, err := json.Marshal(encode(l))
	require.NoError(t, err)

	var doc stateDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	got := migrate(doc, 9999)

	assert.InDelta(t, l.Balance, got.Balance, 1e-9)
	assert.Equal(t, l.ConsecutiveLosses, got.ConsecutiveLosses)
	assert.Equal(t, l.RecentOutcomes, got.RecentOutcomes)
	require.Len(t, got.Positions, 1)
	assert.Equal(t, *p, *got.Positions[0])
}

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/updown/ledger"
	"github.com/rustyeddy/updown/market"
)

func tickWithRemaining(marketID string, up, down, remaining float64, at time.Time) market.TickInput {
	in := holdTick(marketID, up, down, at)
	in.Snapshot.TimeRemaining = &remaining
	return in
}

func TestHalfTimeCutsLosers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng, _, _ := testEngine(testPolicy())
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

	// Slightly under water with 7 minutes left: half-time rule closes it.
	events := eng.OnTick(ctx, tickWithRemaining("m1", 0.48, 0.52, 7.0, t0.Add(time.Minute)))
	require.Len(t, events, 1)
	assert.Equal(t, ReasonHalfTime, events[0].Reason)
	assert.InDelta(t, 0.48, events[0].Price, 1e-9)
}

func TestHalfTimeSparesWinners(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng, led, _ := testEngine(testPolicy())
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

	// In profit at half time: no close.
	events := eng.OnTick(ctx, tickWithRemaining("m1", 0.55, 0.45, 7.0, t0.Add(time.Minute)))
	assert.Empty(t, events)
	assert.Equal(t, 1, led.OpenCount())
}

func TestEarlyTakeProfit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("by_price", func(t *testing.T) {
		t.Parallel()
		eng, _, _ := testEngine(testPolicy())
		require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

		events := eng.OnTick(ctx, holdTick("m1", 0.93, 0.07, t0.Add(time.Minute)))
		require.Len(t, events, 1)
		assert.Equal(t, ReasonEarlyTakeProfit, events[0].Reason)
	})

	t.Run("by_roi", func(t *testing.T) {
		t.Parallel()
		pol := testPolicy()
		pol.TakeProfitRoiPct = 0 // isolate the early trigger
		eng, _, _ := testEngine(pol)
		require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.40, 0.60, t0)), 1)

		// 0.40 → 0.75 is +87.5% ROI, above the 80% early threshold while
		// the price is still below the 0.92 early price.
		events := eng.OnTick(ctx, holdTick("m1", 0.75, 0.25, t0.Add(time.Minute)))
		require.Len(t, events, 1)
		assert.Equal(t, ReasonEarlyTakeProfit, events[0].Reason)
	})
}

func TestTakeProfitByRoi(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pol := testPolicy()
	pol.TakeProfitRoiPct = 50
	eng, _, _ := testEngine(pol)
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

	// +56% ROI: beats the plain take-profit threshold but not the early one.
	events := eng.OnTick(ctx, holdTick("m1", 0.78, 0.22, t0.Add(time.Minute)))
	require.Len(t, events, 1)
	assert.Equal(t, ReasonTakeProfit, events[0].Reason)
}

func TestBreakevenArmingLatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pol := testPolicy()
	pol.TakeProfitRoiPct = 0
	eng, led, _ := testEngine(pol)
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

	// Just below the arming threshold: no latch.
	eng.OnTick(ctx, holdTick("m1", 0.64, 0.36, t0.Add(time.Minute)))
	assert.False(t, led.Positions[0].BreakevenArmed)

	// At the threshold: latch sets and stays.
	eng.OnTick(ctx, holdTick("m1", 0.65, 0.35, t0.Add(2*time.Minute)))
	assert.True(t, led.Positions[0].BreakevenArmed)

	eng.OnTick(ctx, holdTick("m1", 0.55, 0.45, t0.Add(3*time.Minute)))
	require.Equal(t, 1, led.OpenCount())
	assert.True(t, led.Positions[0].BreakevenArmed)
}

// Armed position crashing through the hard stop still realizes at entry
// price: the lock floors every non-positive-ROI close.
func TestBreakevenLockBeatsHardStop(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng, led, _ := testEngine(testPolicy())
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)

	eng.OnTick(ctx, holdTick("m1", 0.65, 0.35, t0.Add(time.Minute)))
	require.True(t, led.Positions[0].BreakevenArmed)

	// ROI -40, past grace: trigger 2 matches but the lock reroutes the
	// close to entry price.
	events := eng.OnTick(ctx, holdTick("m1", 0.30, 0.70, t0.Add(2*time.Minute)))
	require.Len(t, events, 1)
	assert.Equal(t, ReasonStopLossBreakeven, events[0].Reason)
	assert.InDelta(t, 0.50, events[0].Price, 1e-9)
}

func TestDownSidePositionUsesDownQuote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	eng, _, _ := testEngine(testPolicy())
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideDown, 0.50, 0.50, t0)), 1)

	// DOWN quote collapsing is a loss for a DOWN position.
	events := eng.OnTick(ctx, holdTick("m1", 0.70, 0.30, t0.Add(time.Minute)))
	require.Len(t, events, 1)
	assert.Equal(t, ReasonStopLoss, events[0].Reason)
	assert.Equal(t, market.SideDown, events[0].Side)
	assert.InDelta(t, 0.30, events[0].Price, 1e-9)
}

func TestPositionsEvaluatedIndependently(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pol := testPolicy()
	pol.EntryCooldownSeconds = 0
	eng, led, _ := testEngine(pol)

	// UP and DOWN open on the same market (a signal flip would replace the
	// UP leg, so the DOWN leg is seeded directly for this exit test).
	require.Len(t, eng.OnTick(ctx, enterTick("m1", market.SideUp, 0.50, 0.50, t0)), 1)
	require.NoError(t, led.Open(&ledger.Position{
		ID:         "seed",
		MarketID:   "m1",
		Side:       market.SideDown,
		EntryPrice: 0.50,
		Shares:     20,
		CostBasis:  10.2,
		EntryTime:  t0,
	}, pol.MaxConcurrentPositions))

	events := eng.OnTick(ctx, holdTick("m1", 0.70, 0.30, t0.Add(time.Minute)))
	require.Len(t, events, 1)
	assert.Equal(t, market.SideDown, events[0].Side)
	assert.Equal(t, 1, led.OpenCount())
	assert.Equal(t, market.SideUp, led.Positions[0].Side)
}

package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/updown/market"
)

func pos(id, marketID string, side market.Side, cost float64) *Position {
	return &Position{
		ID:         id,
		MarketID:   marketID,
		Side:       side,
		EntryPrice: 0.5,
		Shares:     cost / 0.5,
		CostBasis:  cost,
		EntryTime:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestOpenDebitsBalance(t *testing.T) {
	t.Parallel()

	l := New(100)
	p := pos("a", "m1", market.SideUp, 10.20)

	require.NoError(t, l.Open(p, 3))
	assert.InDelta(t, 89.80, l.Balance, 1e-9)
	assert.Equal(t, 1, l.OpenCount())
	assert.Equal(t, p.EntryTime, l.LastEntry)
}

func TestOpenRejections(t *testing.T) {
	t.Parallel()

	t.Run("insufficient_balance", func(t *testing.T) {
		t.Parallel()
		l := New(5)
		err := l.Open(pos("a", "m1", market.SideUp, 10), 3)
		assert.ErrorIs(t, err, ErrInsufficientBalance)
		assert.InDelta(t, 5, l.Balance, 1e-9)
		assert.Equal(t, 0, l.OpenCount())
	})

	t.Run("max_positions", func(t *testing.T) {
		t.Parallel()
		l := New(100)
		require.NoError(t, l.Open(pos("a", "m1", market.SideUp, 10), 2))
		require.NoError(t, l.Open(pos("b", "m2", market.SideUp, 10), 2))
		err := l.Open(pos("c", "m3", market.SideUp, 10), 2)
		assert.ErrorIs(t, err, ErrMaxPositions)
		assert.Equal(t, 2, l.OpenCount())
	})

	t.Run("duplicate_market_side", func(t *testing.T) {
		t.Parallel()
		l := New(100)
		require.NoError(t, l.Open(pos("a", "m1", market.SideUp, 10), 3))
		err := l.Open(pos("b", "m1", market.SideUp, 10), 3)
		assert.ErrorIs(t, err, ErrDuplicatePosition)

		// Opposite side on the same market is not a duplicate.
		assert.NoError(t, l.Open(pos("c", "m1", market.SideDown, 10), 3))
	})
}

func TestCloseAccounting(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC)

	t.Run("winning_close", func(t *testing.T) {
		t.Parallel()
		l := New(100)
		p := pos("a", "m1", market.SideUp, 10.20)
		require.NoError(t, l.Open(p, 3))

		l.Close(p, 19.60, 9.40, now)

		assert.InDelta(t, 89.80+19.60, l.Balance, 1e-9)
		assert.Equal(t, 0, l.OpenCount())
		assert.InDelta(t, -9.40, l.DailyRealizedNetLoss, 1e-9)
		assert.Equal(t, 0, l.ConsecutiveLosses)
		assert.Equal(t, []Outcome{OutcomeWin}, l.RecentOutcomes)
		assert.Equal(t, now, l.LastExit)
	})

	t.Run("losing_close", func(t *testing.T) {
		t.Parallel()
		l := New(100)
		p := pos("a", "m1", market.SideUp, 10.20)
		require.NoError(t, l.Open(p, 3))

		l.Close(p, 5.88, -4.32, now)

		assert.InDelta(t, 89.80+5.88, l.Balance, 1e-9)
		assert.InDelta(t, 4.32, l.DailyRealizedNetLoss, 1e-9)
		assert.Equal(t, 1, l.ConsecutiveLosses)
		assert.Equal(t, []Outcome{OutcomeLoss}, l.RecentOutcomes)
	})

	t.Run("win_resets_streak", func(t *testing.T) {
		t.Parallel()
		l := New(1000)
		for i := 0; i < 3; i++ {
			p := pos("a", "m1", market.SideUp, 10)
			require.NoError(t, l.Open(p, 3))
			l.Close(p, 5, -5, now)
		}
		assert.Equal(t, 3, l.ConsecutiveLosses)

		p := pos("w", "m1", market.SideUp, 10)
		require.NoError(t, l.Open(p, 3))
		l.Close(p, 20, 10, now)
		assert.Equal(t, 0, l.ConsecutiveLosses)
	})
}

func TestRecentOutcomesBounded(t *testing.T) {
	t.Parallel()

	l := New(10000)
	now := time.Now().UTC()
	for i := 0; i < 15; i++ {
		p := pos("a", "m1", market.SideUp, 10)
		l.Open(p, 3)
		l.Close(p, 5, -5, now)
	}
	assert.Len(t, l.RecentOutcomes, 10)
}

func TestResetDailyIfNewUTCDay(t *testing.T) {
	t.Parallel()

	l := New(100)
	l.DailyRealizedNetLoss = 12.5
	day1 := time.Date(2026, 8, 1, 23, 59, 0, 0, time.UTC)
	l.LastDailyReset = day1

	// Same UTC day: idempotent no-op.
	assert.False(t, l.ResetDailyIfNewUTCDay(day1.Add(30*time.Second)))
	assert.InDelta(t, 12.5, l.DailyRealizedNetLoss, 1e-9)

	// One minute later it is a new UTC date.
	day2 := day1.Add(2 * time.Minute)
	assert.True(t, l.ResetDailyIfNewUTCDay(day2))
	assert.Zero(t, l.DailyRealizedNetLoss)
	assert.Equal(t, day2, l.LastDailyReset)

	assert.False(t, l.ResetDailyIfNewUTCDay(day2.Add(time.Hour)))
}

func TestClone(t *testing.T) {
	t.Parallel()

	l := New(100)
	p := pos("a", "m1", market.SideUp, 10)
	require.NoError(t, l.Open(p, 3))

	c := l.Clone()
	c.Close(c.Find("m1", market.SideUp), 5, -5, time.Now().UTC())

	// The original is untouched by mutations of the clone.
	assert.Equal(t, 1, l.OpenCount())
	assert.InDelta(t, 90, l.Balance, 1e-9)
	assert.Equal(t, 0, l.ConsecutiveLosses)
}

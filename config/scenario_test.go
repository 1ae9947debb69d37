package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/updown/market"
)

func TestLoadScenario(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ticks.yaml")
	raw := `
steps:
  - market_id: m1
    up: 0.50
    down: 0.50
    action: ENTER
    side: UP
    probability: 0.62
    trend: RISING
  - market_id: m1
    up: 0.93
    down: 0.07
    delay: 1m
  - market_id: m1
    expired: true
    strike: 60000
    spot: 60050
    delay: 14m
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	require.Len(t, sc.Steps, 3)

	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	in := sc.Steps[0].Input(at)
	assert.Equal(t, "m1", in.Snapshot.MarketID)
	assert.Equal(t, market.ActionEnter, in.Signal.Action)
	assert.Equal(t, market.SideUp, in.Signal.Side)
	require.NotNil(t, in.Signal.Probability)
	assert.InDelta(t, 0.62, *in.Signal.Probability, 1e-9)
	assert.Equal(t, market.TrendRising, in.Trend)
	assert.Equal(t, at, in.Time)

	// Omitted fields default to HOLD / NEUTRAL with nil optionals.
	in2 := sc.Steps[1].Input(at)
	assert.Equal(t, market.ActionHold, in2.Signal.Action)
	assert.Equal(t, market.TrendNeutral, in2.Trend)
	assert.Nil(t, in2.Snapshot.Strike)

	d, err := sc.Steps[2].ParseDelay()
	require.NoError(t, err)
	assert.Equal(t, 14*time.Minute, d)
	assert.True(t, sc.Steps[2].Input(at).Snapshot.IsExpired)
}

func TestLoadScenarioEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("steps: []"), 0o644))

	_, err := LoadScenario(path)
	assert.Error(t, err)
}

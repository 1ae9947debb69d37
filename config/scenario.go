package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/updown/market"
)

// Scenario is a replayable sequence of ticks for the run command. Each
// step advances a simulated clock by its delay and feeds one tick to the
// engine.
type Scenario struct {
	Steps []TickStep `json:"steps" yaml:"steps"`
}

// TickStep is one tick's worth of input. Pointer fields stay nil when the
// step omits them, which the engine treats as "no decision possible" for
// the affected checks.
type TickStep struct {
	MarketID         string   `json:"market_id" yaml:"market_id"`
	Expired          bool     `json:"expired,omitempty" yaml:"expired,omitempty"`
	Strike           *float64 `json:"strike,omitempty" yaml:"strike,omitempty"`
	Spot             *float64 `json:"spot,omitempty" yaml:"spot,omitempty"`
	RemainingMinutes *float64 `json:"remaining_minutes,omitempty" yaml:"remaining_minutes,omitempty"`

	Up   *float64 `json:"up,omitempty" yaml:"up,omitempty"`
	Down *float64 `json:"down,omitempty" yaml:"down,omitempty"`

	Action      string   `json:"action,omitempty" yaml:"action,omitempty"`
	Side        string   `json:"side,omitempty" yaml:"side,omitempty"`
	Probability *float64 `json:"probability,omitempty" yaml:"probability,omitempty"`

	Trend string `json:"trend,omitempty" yaml:"trend,omitempty"`
	Delay string `json:"delay,omitempty" yaml:"delay,omitempty"` // e.g. "30s", "5m"
}

// ParseDelay converts the step's delay string to a duration.
func (s TickStep) ParseDelay() (time.Duration, error) {
	if s.Delay == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Delay)
}

// Input converts the step into a tick input stamped at the given time.
func (s TickStep) Input(at time.Time) market.TickInput {
	in := market.TickInput{
		Snapshot: market.Snapshot{
			MarketID:      s.MarketID,
			IsExpired:     s.Expired,
			Strike:        s.Strike,
			Spot:          s.Spot,
			TimeRemaining: s.RemainingMinutes,
		},
		Prices: market.Prices{Up: s.Up, Down: s.Down},
		Signal: market.Signal{
			Action:      market.Action(s.Action),
			Side:        market.Side(s.Side),
			Probability: s.Probability,
		},
		Trend: market.Trend(s.Trend),
		Time:  at,
	}
	if in.Signal.Action == "" {
		in.Signal.Action = market.ActionHold
	}
	if in.Trend == "" {
		in.Trend = market.TrendNeutral
	}
	return in
}

// LoadScenario reads a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario has no steps")
	}
	return &sc, nil
}

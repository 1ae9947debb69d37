package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fp(x float64) *float64 { return &x }

func testPolicy() Policy {
	p := Default()
	p.KellyFraction = 0.25
	p.MinBet = 1
	p.MaxBet = 10
	return p
}

func TestSize(t *testing.T) {
	t.Parallel()

	pol := testPolicy()

	tests := []struct {
		name    string
		prob    *float64
		price   float64
		balance float64
		want    float64
	}{
		// No probability: base unit.
		{"no_probability_max_bet", nil, 0.5, 100, 10},
		{"no_probability_capped_by_balance", nil, 0.5, 4, 4},

		// Positive edge: f = 0.25*(0.7 - 0.3/1) = 0.1 → 100*0.1 = 10.
		{"positive_edge_hits_max", fp(0.7), 0.5, 100, 10},
		// Same edge, smaller balance: 20*0.1 = 2.
		{"positive_edge_scales_with_balance", fp(0.7), 0.5, 20, 2},
		// Tiny positive edge floors at min bet: f = 0.25*(0.52-0.48) = 0.01.
		{"small_edge_floors_at_min", fp(0.52), 0.5, 50, 1},

		// Negative edge still probes with the minimum stake.
		{"negative_edge_min_bet", fp(0.3), 0.5, 100, 1},
		{"negative_edge_capped_by_balance", fp(0.3), 0.5, 0.5, 0.5},

		// Degenerate prices cannot be sized.
		{"zero_price", fp(0.6), 0, 100, 0},
		{"price_at_one", fp(0.6), 1, 100, 0},

		{"zero_balance", fp(0.7), 0.5, 0, 0},
		{"negative_balance", nil, 0.5, -10, 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Size(tt.prob, tt.price, tt.balance, pol)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestSizeBounds(t *testing.T) {
	t.Parallel()

	pol := testPolicy()
	probs := []*float64{nil, fp(0.1), fp(0.5), fp(0.9)}
	for _, prob := range probs {
		for _, price := range []float64{0.2, 0.5, 0.8} {
			for _, balance := range []float64{0.5, 5, 500} {
				got := Size(prob, price, balance, pol)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, balance)
				assert.LessOrEqual(t, got, pol.MaxBet)
			}
		}
	}
}

// Package metrics exposes the engine's activity to Prometheus:
//   - updown_events_total{type,side,reason}: trade events emitted
//   - updown_balance: current ledger balance (gauge)
//   - updown_pnl_won_total / updown_pnl_lost_total: realized PnL split
//
// Recorder implements the journal sink interface, so the engine feeds it
// the same way it feeds the trade journals. Serve the registry with
// Handler() at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rustyeddy/updown/journal"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_events_total",
			Help: "Trade events emitted by the engine",
		},
		[]string{"type", "side", "reason"},
	)

	balance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "updown_balance",
			Help: "Current ledger cash balance",
		},
	)

	pnlWon = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "updown_pnl_won_total",
			Help: "Sum of positive realized PnL",
		},
	)

	pnlLost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "updown_pnl_lost_total",
			Help: "Sum of negative realized PnL, as a positive number",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal, balance, pnlWon, pnlLost)
}

// Recorder is a journal sink backed by the Prometheus collectors above.
type Recorder struct{}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Record(e journal.TradeEvent) error {
	eventsTotal.WithLabelValues(string(e.Type), string(e.Side), e.Reason).Inc()
	balance.Set(e.BalanceAfter)

	if e.PnL != nil {
		if *e.PnL > 0 {
			pnlWon.Add(*e.PnL)
		} else {
			pnlLost.Add(-*e.PnL)
		}
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Handler returns the exposition handler for the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

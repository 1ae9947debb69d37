// Package risk implements the entry-side risk controls: the policy knobs,
// the fractional-Kelly sizing model and the ordered entry-gate pipeline.
package risk

// Policy is the full, immutable configuration surface of the engine. It is
// constructed once at startup and passed explicitly; no component reads
// ambient configuration.
type Policy struct {
	InitialBalance float64
	FeePct         float64 // proportional fee on traded notional, percent

	// Sizing
	KellyFraction float64
	MinBet        float64
	MaxBet        float64

	// Entry gating
	MaxConcurrentPositions int
	MinEntryPrice          float64
	MaxEntryPrice          float64
	MaxConsecutiveLosses   int
	DailyLossLimit         float64
	CooldownMinutes        float64
	EntryCooldownSeconds   float64
	EntryDeadlineMinutes   float64

	// Exits
	StopLossRoiPct             float64
	StopLossGracePeriodSeconds float64
	BreakevenTriggerRoiPct     float64
	HalfTimeThresholdMinutes   float64
	EarlyTakeProfitPrice       float64
	EarlyTakeProfitRoiPct      float64
	TakeProfitPrice            float64
	TakeProfitRoiPct           float64

	// FlipProtectPrice vetoes flipping away a held position whose current
	// price is at or above this value. Zero disables the guard.
	FlipProtectPrice float64
}

// Default returns the baseline policy.
func Default() Policy {
	return Policy{
		InitialBalance: 1000,
		FeePct:         2,

		KellyFraction: 0.25,
		MinBet:        1,
		MaxBet:        10,

		MaxConcurrentPositions: 3,
		MinEntryPrice:          0.15,
		MaxEntryPrice:          0.85,
		MaxConsecutiveLosses:   3,
		DailyLossLimit:         50,
		CooldownMinutes:        10,
		EntryCooldownSeconds:   30,
		EntryDeadlineMinutes:   2,

		StopLossRoiPct:             25,
		StopLossGracePeriodSeconds: 15,
		BreakevenTriggerRoiPct:     30,
		HalfTimeThresholdMinutes:   7.5,
		EarlyTakeProfitPrice:       0.92,
		EarlyTakeProfitRoiPct:      80,
		TakeProfitPrice:            0.95,
		TakeProfitRoiPct:           50,

		FlipProtectPrice: 0,
	}
}

// EntryCost returns the cash debit for a stake of the given size, entry fee
// included.
func (p Policy) EntryCost(size float64) float64 {
	return size * (1 + p.FeePct/100)
}

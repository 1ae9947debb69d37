package risk

// Size computes the capital allocation for a candidate entry from a
// fractional-Kelly rule with hard caps.
//
// With a probability p the Kelly fraction against net odds b=(1-price)/price
// is f = kelly * (p - (1-p)/b). A positive f sizes balance*f clamped to
// [MinBet, MaxBet]; a non-positive f still places a MinBet probe, trusting
// the signal over the raw edge. With no probability the base unit MaxBet
// is used. The result never exceeds the balance.
func Size(prob *float64, price, balance float64, pol Policy) float64 {
	if balance <= 0 {
		return 0
	}

	size := pol.MaxBet
	if prob != nil {
		if price <= 0 || price >= 1 {
			return 0
		}
		p := *prob
		q := 1 - p
		b := (1 - price) / price
		f := pol.KellyFraction * (p - q/b)

		if f > 0 {
			size = balance * f
			if size < pol.MinBet {
				size = pol.MinBet
			}
		} else {
			size = pol.MinBet
		}
	}

	if size > pol.MaxBet {
		size = pol.MaxBet
	}
	if size > balance {
		size = balance
	}
	if size < 0 {
		size = 0
	}
	return size
}

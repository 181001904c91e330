package lbo

import (
	"errors"
	"math"
)

// ErrNoIRR means the cash flow stream has no sign change, so no discount rate
// equates inflows and outflows.
var ErrNoIRR = errors.New("lbo: cash flows admit no IRR")

// IRRFromCashflows solves NPV(r) = 0 by bisection over annual cash flows,
// where cashflows[0] is the time-zero flow (the equity check, negative) and
// cashflows[t] is the flow at the end of year t.
//
// The base model's single-outflow/single-inflow structure has the closed form
// MOIC^(1/N)-1 and does not need this; it exists for streams with interim
// distributions, which the closed form cannot price.
func IRRFromCashflows(cashflows []float64) (float64, error) {
	if len(cashflows) < 2 {
		return 0, ErrNoIRR
	}
	npv := func(r float64) float64 {
		var total float64
		for t, cf := range cashflows {
			total += cf / math.Pow(1+r, float64(t))
		}
		return total
	}

	lo, hi := -0.9999, 10.0
	fLo, fHi := npv(lo), npv(hi)
	if fLo == 0 {
		return lo, nil
	}
	if fHi == 0 {
		return hi, nil
	}
	if (fLo > 0) == (fHi > 0) {
		return 0, ErrNoIRR
	}

	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		fMid := npv(mid)
		if math.Abs(fMid) < 1e-12 || hi-lo < 1e-12 {
			return mid, nil
		}
		if (fMid > 0) == (fLo > 0) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2, nil
}

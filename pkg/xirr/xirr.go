// Package xirr solves the internal rate of return of cash flows that occur
// on irregular dates.
//
// Day counts are measured from the earliest date in the set and converted to
// years with a 365-day convention:
//
//	f(r) = Σ amount_i / (1+r)^(days_i/365)
package xirr

import (
	"errors"
	"math"
	"sort"
	"time"
)

var (
	ErrDegenerateCashflow = errors.New("xirr: cash flows need at least one negative and one positive amount")
	ErrNonConvergence     = errors.New("xirr: solver did not converge")
)

const daysPerYear = 365.0

// Flow is a single dated amount. Negative amounts are outflows.
type Flow struct {
	Date   time.Time
	Amount float64
}

type Options struct {
	Guess         float64
	MaxIterations int
	Tolerance     float64
}

func DefaultOptions() Options {
	return Options{Guess: 0.1, MaxIterations: 100, Tolerance: 1e-9}
}

// Solve returns the fractional annual rate (0.085 for 8.5%) at which the
// net present value of flows is zero.
func Solve(flows []Flow) (float64, error) {
	return SolveWith(flows, DefaultOptions())
}

func SolveWith(flows []Flow, opt Options) (float64, error) {
	if opt.MaxIterations <= 0 {
		opt.MaxIterations = DefaultOptions().MaxIterations
	}
	if opt.Tolerance <= 0 {
		opt.Tolerance = DefaultOptions().Tolerance
	}
	if !hasSignChange(flows) {
		return 0, ErrDegenerateCashflow
	}

	years, amounts := normalize(flows)
	if r, ok := newton(years, amounts, opt); ok {
		return r, nil
	}
	return bisect(years, amounts, opt)
}

func hasSignChange(flows []Flow) bool {
	var neg, pos bool
	for _, f := range flows {
		switch {
		case f.Amount < 0:
			neg = true
		case f.Amount > 0:
			pos = true
		}
	}
	return neg && pos
}

// normalize sorts a copy of flows so the result does not depend on input order.
func normalize(flows []Flow) ([]float64, []float64) {
	cp := make([]Flow, len(flows))
	copy(cp, flows)
	sort.Slice(cp, func(i, j int) bool {
		if !cp[i].Date.Equal(cp[j].Date) {
			return cp[i].Date.Before(cp[j].Date)
		}
		return cp[i].Amount < cp[j].Amount
	})

	anchor := cp[0].Date
	years := make([]float64, len(cp))
	amounts := make([]float64, len(cp))
	for i, f := range cp {
		years[i] = math.Round(f.Date.Sub(anchor).Hours()/24) / daysPerYear
		amounts[i] = f.Amount
	}
	return years, amounts
}

func npv(r float64, years, amounts []float64) float64 {
	var sum float64
	for i := range amounts {
		sum += amounts[i] / math.Pow(1+r, years[i])
	}
	return sum
}

func dnpv(r float64, years, amounts []float64) float64 {
	var sum float64
	for i := range amounts {
		sum -= years[i] * amounts[i] / math.Pow(1+r, years[i]+1)
	}
	return sum
}

func newton(years, amounts []float64, opt Options) (float64, bool) {
	r := opt.Guess
	for i := 0; i < opt.MaxIterations; i++ {
		d := dnpv(r, years, amounts)
		if d == 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return 0, false
		}
		next := r - npv(r, years, amounts)/d
		if next <= -1 || math.IsNaN(next) || math.IsInf(next, 0) {
			return 0, false
		}
		if math.Abs(next-r) <= opt.Tolerance*math.Max(1, math.Abs(next)) {
			return next, true
		}
		r = next
	}
	return 0, false
}

func bisect(years, amounts []float64, opt Options) (float64, error) {
	lo, hi := -0.999999, 1.0
	flo := npv(lo, years, amounts)
	fhi := npv(hi, years, amounts)
	for i := 0; flo*fhi > 0; i++ {
		if i >= opt.MaxIterations || math.IsInf(fhi, 0) || math.IsNaN(fhi) {
			return 0, ErrNonConvergence
		}
		hi *= 2
		fhi = npv(hi, years, amounts)
	}

	for i := 0; i < opt.MaxIterations; i++ {
		mid := (lo + hi) / 2
		fmid := npv(mid, years, amounts)
		if fmid == 0 || (hi-lo)/2 <= opt.Tolerance*math.Max(1, math.Abs(mid)) {
			return mid, nil
		}
		if flo*fmid < 0 {
			hi = mid
		} else {
			lo, flo = mid, fmid
		}
	}
	return 0, ErrNonConvergence
}

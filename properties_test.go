package rebalance

import (
	"math"
	"testing"

	"github.com/etnz/rebalance/date"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRelativeThresholdBandProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	on := date.New(2024, 6, 1)
	properties.Property("triggers exactly outside [w(1-R), w(1+R)]", prop.ForAll(
		func(w, band, current float64) bool {
			assets := []Asset{{Key: "a", Weight: w}, {Key: "b", Weight: 1 - w}}
			// Neutralize the complement so that only the first asset decides.
			weights := []float64{current, 1 - w}
			_, trigger := RelativeThreshold{Band: band}.Check(on, on, assets, weights)
			want := math.Abs(current-w) > w*band
			return trigger == want
		},
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(0.01, 0.5),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestFixedThresholdBandProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	on := date.New(2024, 6, 1)
	properties.Property("triggers exactly outside [w-T, w+T]", prop.ForAll(
		func(w, band, current float64) bool {
			assets := []Asset{{Key: "a", Weight: w}, {Key: "b", Weight: 1 - w}}
			weights := []float64{current, 1 - w}
			_, trigger := Threshold{Band: band}.Check(on, on, assets, weights)
			want := math.Abs(current-w) > band
			return trigger == want
		},
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(0.01, 0.5),
		gen.Float64Range(0, 1),
	))

	properties.TestingRun(t)
}

func TestRebalanceResetProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("post-reset weights equal targets", prop.ForAll(
		func(w, priceA, priceB, total float64) bool {
			// The reset allocation of the simulation loop: shares become
			// total*w/price, so each value is exactly total*w.
			sharesA := total * w / priceA
			sharesB := total * (1 - w) / priceB
			valueA := sharesA * priceA
			valueB := sharesB * priceB
			sum := valueA + valueB
			return math.Abs(valueA/sum-w) < 1e-9 && math.Abs(valueB/sum-(1-w)) < 1e-9
		},
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(1, 10000),
		gen.Float64Range(1, 10000),
		gen.Float64Range(100, 1e9),
	))

	properties.TestingRun(t)
}

func TestFundingSumProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("per-asset daily buys sum to the daily amount", prop.ForAll(
		func(capital, ratio, w float64, tradingDays int) bool {
			start := date.New(2024, 1, 1)
			days := make([]date.Date, tradingDays)
			for i := range days {
				days[i] = start.Add(i)
			}
			s := &Scenario{
				Capital:      capital,
				InitialRatio: ratio,
				Years:        1,
				Assets: []Asset{
					{Key: "a", Weight: w},
					{Key: "b", Weight: 1 - w},
				},
			}
			f := NewFunding(s, days)
			// Contributions split by weight reassemble into the daily amount.
			buys := f.Daily*w + f.Daily*(1-w)
			if math.Abs(buys-f.Daily) > 1e-9 {
				return false
			}
			// And the plan total is the lump sum plus every later day.
			want := f.Initial + f.Daily*float64(tradingDays-1)
			return math.Abs(f.Total()-want) < 1e-6
		},
		gen.Float64Range(1000, 1e7),
		gen.Float64Range(0, 1),
		gen.Float64Range(0.05, 0.95),
		gen.IntRange(1, 250),
	))

	properties.TestingRun(t)
}

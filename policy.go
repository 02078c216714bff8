package rebalance

import (
	"fmt"
	"strings"

	"github.com/etnz/rebalance/date"
)

// A Policy decides, during the holding phase, whether the portfolio must be
// reset to its target weights.
//
// Check receives the day under review, the day of the last reset (the end of
// the contribution window until a reset happens), the scenario assets and the
// current weight of each asset as a fraction of the total value. It returns a
// human readable reason when a reset is due.
type Policy interface {
	Check(on, lastReset date.Date, assets []Asset, weights []float64) (reason string, trigger bool)
	String() string
}

// Never holds the portfolio untouched (buy and hold).
type Never struct{}

func (Never) Check(on, lastReset date.Date, assets []Asset, weights []float64) (string, bool) {
	return "", false
}

func (Never) String() string { return "never" }

// Periodic resets the portfolio every fixed number of calendar days.
type Periodic struct{ Days int }

func (p Periodic) Check(on, lastReset date.Date, assets []Asset, weights []float64) (string, bool) {
	elapsed := on.Sub(lastReset)
	if elapsed < p.Days {
		return "", false
	}
	return fmt.Sprintf("%d days since last rebalance", elapsed), true
}

func (p Periodic) String() string { return fmt.Sprintf("periodic every %d days", p.Days) }

// Threshold resets the portfolio when any asset drifts away from its target
// weight by more than a fixed number of weight points.
//
// Band is a fraction: 0.05 triggers when an asset targeted at 25% trades
// below 20% or above 30% of the portfolio. The comparison is strict, sitting
// exactly on the band does not trigger.
type Threshold struct{ Band float64 }

func (t Threshold) Check(on, lastReset date.Date, assets []Asset, weights []float64) (string, bool) {
	var reasons []string
	for i, a := range assets {
		deviation := abs(weights[i] - a.Weight)
		if deviation > t.Band {
			reasons = append(reasons, fmt.Sprintf("%s: %.1f%% (target %.0f%%, deviation %.1f%%)",
				a.Label(), weights[i]*100, a.Weight*100, deviation*100))
		}
	}
	if len(reasons) == 0 {
		return "", false
	}
	return strings.Join(reasons, "; "), true
}

func (t Threshold) String() string { return fmt.Sprintf("threshold %.0f%%", t.Band*100) }

// RelativeThreshold resets the portfolio when any asset drifts away from its
// target weight by more than a fraction of that target.
//
// Band is relative to each asset: 0.15 gives an asset targeted at 40% a
// tolerance of 6 weight points, and an asset targeted at 20% a tolerance of
// 3. The comparison is strict.
type RelativeThreshold struct{ Band float64 }

func (r RelativeThreshold) Check(on, lastReset date.Date, assets []Asset, weights []float64) (string, bool) {
	var reasons []string
	for i, a := range assets {
		tolerance := a.Weight * r.Band
		deviation := abs(weights[i] - a.Weight)
		if deviation > tolerance {
			reasons = append(reasons, fmt.Sprintf("%s: %.1f%% (target %.0f%%, deviation %.1f%%, threshold %.0f%%)",
				a.Label(), weights[i]*100, a.Weight*100, deviation*100, tolerance*100))
		}
	}
	if len(reasons) == 0 {
		return "", false
	}
	return strings.Join(reasons, "; "), true
}

func (r RelativeThreshold) String() string {
	return fmt.Sprintf("relative threshold %.0f%% of target", r.Band*100)
}

// ParsePolicy builds a Policy from its configuration form.
//
// Kinds are "never", "periodic" (days), "threshold" and "relative" (both use
// threshold as a fraction).
func ParsePolicy(kind string, threshold float64, days int) (Policy, error) {
	switch kind {
	case "", "never", "none":
		return Never{}, nil
	case "periodic":
		if days <= 0 {
			return nil, fmt.Errorf("%w: periodic policy needs days > 0, got %d", ErrConfig, days)
		}
		return Periodic{Days: days}, nil
	case "threshold":
		if threshold <= 0 || threshold >= 1 {
			return nil, fmt.Errorf("%w: threshold policy needs a fraction in (0,1), got %g", ErrConfig, threshold)
		}
		return Threshold{Band: threshold}, nil
	case "relative":
		if threshold <= 0 || threshold >= 1 {
			return nil, fmt.Errorf("%w: relative policy needs a fraction in (0,1), got %g", ErrConfig, threshold)
		}
		return RelativeThreshold{Band: threshold}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy kind %q", ErrConfig, kind)
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

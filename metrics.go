package rebalance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Metrics summarizes the risk and return of a simulated path.
//
// Returns, drawdown and volatilities are expressed in percent. Sortino is
// +Inf when the path never had a losing day; every other non finite value is
// reported as an error by ComputeMetrics.
type Metrics struct {
	FinalValue         float64 // portfolio value on the last day
	TotalInvested      float64 // cash in by the last day
	TotalProfit        float64 // final value minus cash in
	Years              float64 // calendar span of the path, in 365.25 day years
	TotalReturn        float64 // final value against the scenario capital
	AnnualizedReturn   float64 // growth rate of the cash in over the span
	MaxDrawdown        float64 // worst peak to trough loss, negative or zero
	Volatility         float64 // annualized, from daily returns
	DownsideVolatility float64 // annualized, from negative daily returns only
	Sharpe             float64
	Sortino            float64
	Rebalances         int
}

// tradingDays annualizes daily volatility.
const tradingDays = 252

// ComputeMetrics computes the risk and return metrics of a result.
//
// The annualized return compounds the final value over the total cash
// invested, not over the scenario capital: money that entered late did not
// have the full span to grow. The total return, on the other hand, is
// against the scenario capital, like the result's return column.
func ComputeMetrics(r *Result) (*Metrics, error) {
	if len(r.Days) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 days of results, got %d", ErrConfig, len(r.Days))
	}
	last := r.Last()

	m := &Metrics{
		FinalValue:    r.Total[last],
		TotalInvested: r.Invested[last],
		TotalProfit:   r.Profit(last),
		TotalReturn:   r.Return(last),
		Rebalances:    len(r.Events),
	}

	m.Years = float64(r.Days[last].Sub(r.Days[0])) / 365.25
	m.AnnualizedReturn = (math.Pow(m.FinalValue/m.TotalInvested, 1/m.Years) - 1) * 100

	// Worst drawdown against the running peak.
	peak := r.Total[0]
	for _, v := range r.Total {
		if v > peak {
			peak = v
		}
		if dd := (v - peak) / peak * 100; dd < m.MaxDrawdown {
			m.MaxDrawdown = dd
		}
	}

	// Daily returns, the first day has none.
	daily := make([]float64, last)
	for i := 1; i <= last; i++ {
		daily[i-1] = r.Total[i]/r.Total[i-1] - 1
	}
	m.Volatility = stat.StdDev(daily, nil) * math.Sqrt(tradingDays) * 100

	rf := r.Scenario.RiskFree
	m.Sharpe = (m.AnnualizedReturn/100 - rf) / (m.Volatility / 100)

	// Sortino only penalizes the downside.
	var downside []float64
	for _, v := range daily {
		if v < 0 {
			downside = append(downside, v)
		}
	}
	if len(downside) > 0 {
		m.DownsideVolatility = stat.StdDev(downside, nil) * math.Sqrt(tradingDays) * 100
		m.Sortino = (m.AnnualizedReturn/100 - rf) / (m.DownsideVolatility / 100)
	} else {
		m.Sortino = math.Inf(1)
	}

	if err := m.check(); err != nil {
		return nil, err
	}
	return m, nil
}

// check rejects non finite metrics, they mean the input path is degenerate
// (constant values, a single down day, zero investment).
func (m *Metrics) check() error {
	finite := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: metric %s is %g", ErrConfig, name, v)
		}
		return nil
	}
	for name, v := range map[string]float64{
		"total return":        m.TotalReturn,
		"annualized return":   m.AnnualizedReturn,
		"max drawdown":        m.MaxDrawdown,
		"volatility":          m.Volatility,
		"downside volatility": m.DownsideVolatility,
		"sharpe":              m.Sharpe,
	} {
		if err := finite(name, v); err != nil {
			return err
		}
	}
	// Sortino is legitimately +Inf on a path without losing days.
	if math.IsNaN(m.Sortino) || math.IsInf(m.Sortino, -1) {
		return fmt.Errorf("%w: metric sortino is %g", ErrConfig, m.Sortino)
	}
	return nil
}

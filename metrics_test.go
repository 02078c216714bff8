package rebalance

import (
	"math"
	"testing"

	"github.com/etnz/rebalance/date"
	"gonum.org/v1/gonum/stat"
)

// pathResult builds a bare result over consecutive calendar days, enough for
// the metrics which only read the totals and the invested series.
func pathResult(capital float64, total, invested []float64) *Result {
	start := date.New(2024, 1, 1)
	days := make([]date.Date, len(total))
	for i := range days {
		days[i] = start.Add(i)
	}
	return &Result{
		Scenario: &Scenario{Capital: capital, RiskFree: 0.03},
		Days:     days,
		Total:    total,
		Invested: invested,
	}
}

func TestComputeMetrics(t *testing.T) {
	total := []float64{1000, 1100, 990, 1089, 1034.55}
	invested := []float64{1000, 1000, 1000, 1000, 1000}
	r := pathResult(1000, total, invested)

	m, err := ComputeMetrics(r)
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	if got, want := m.FinalValue, 1034.55; got != want {
		t.Errorf("FinalValue = %v, want %v", got, want)
	}
	if got, want := m.TotalReturn, 3.455; !near(got, want, 1e-9) {
		t.Errorf("TotalReturn = %v, want %v", got, want)
	}
	if got, want := m.Years, 4/365.25; !near(got, want, 1e-12) {
		t.Errorf("Years = %v, want %v", got, want)
	}
	if got, want := m.AnnualizedReturn, (math.Pow(1034.55/1000, 365.25/4)-1)*100; !near(got, want, 1e-9) {
		t.Errorf("AnnualizedReturn = %v, want %v", got, want)
	}

	// The worst trough is day 2 against the day 1 peak.
	if got, want := m.MaxDrawdown, (990-1100)/1100*100; !near(got, want, 1e-9) {
		t.Errorf("MaxDrawdown = %v, want %v", got, want)
	}

	daily := []float64{0.1, -0.1, 0.1, -0.05}
	if got, want := m.Volatility, stat.StdDev(daily, nil)*math.Sqrt(252)*100; !near(got, want, 1e-9) {
		t.Errorf("Volatility = %v, want %v", got, want)
	}
	if got, want := m.Sharpe, (m.AnnualizedReturn/100-0.03)/(m.Volatility/100); !near(got, want, 1e-12) {
		t.Errorf("Sharpe = %v, want %v", got, want)
	}

	downside := []float64{-0.1, -0.05}
	if got, want := m.DownsideVolatility, stat.StdDev(downside, nil)*math.Sqrt(252)*100; !near(got, want, 1e-9) {
		t.Errorf("DownsideVolatility = %v, want %v", got, want)
	}
	if got, want := m.Sortino, (m.AnnualizedReturn/100-0.03)/(m.DownsideVolatility/100); !near(got, want, 1e-12) {
		t.Errorf("Sortino = %v, want %v", got, want)
	}
}

func TestComputeMetrics_MaxDrawdownProperties(t *testing.T) {
	tests := []struct {
		name  string
		total []float64
		want  float64
	}{
		{"monotonic rise never draws down", []float64{100, 101, 105, 110, 111}, 0},
		{"single dip", []float64{100, 110, 99, 120, 119}, -10},
		{"trough after a later peak", []float64{100, 120, 110, 150, 75.3}, -49.8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			invested := make([]float64, len(tc.total))
			for i := range invested {
				invested[i] = 100
			}
			m, err := ComputeMetrics(pathResult(100, tc.total, invested))
			if err != nil {
				t.Fatalf("ComputeMetrics() error = %v", err)
			}
			if !near(m.MaxDrawdown, tc.want, 1e-9) {
				t.Errorf("MaxDrawdown = %v, want %v", m.MaxDrawdown, tc.want)
			}
			if m.MaxDrawdown > 0 {
				t.Errorf("MaxDrawdown = %v, must never be positive", m.MaxDrawdown)
			}
		})
	}
}

func TestComputeMetrics_SortinoWithoutLosingDays(t *testing.T) {
	total := []float64{100, 101, 103, 105.2, 106}
	invested := []float64{100, 100, 100, 100, 100}
	m, err := ComputeMetrics(pathResult(100, total, invested))
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	if !math.IsInf(m.Sortino, 1) {
		t.Errorf("Sortino = %v, want +Inf on a path without losing days", m.Sortino)
	}
	if got, want := m.DownsideVolatility, 0.0; got != want {
		t.Errorf("DownsideVolatility = %v, want %v", got, want)
	}
}

func TestComputeMetrics_RejectsShortSeries(t *testing.T) {
	if _, err := ComputeMetrics(pathResult(100, []float64{100}, []float64{100})); !isConfig(err) {
		t.Fatalf("ComputeMetrics() error = %v, want ErrConfig for a single day", err)
	}
}

func TestComputeMetrics_RejectsDegeneratePath(t *testing.T) {
	// A constant path has zero volatility, which makes Sharpe non finite.
	total := []float64{100, 100, 100}
	invested := []float64{100, 100, 100}
	if _, err := ComputeMetrics(pathResult(100, total, invested)); !isConfig(err) {
		t.Fatalf("ComputeMetrics() error = %v, want ErrConfig for a flat path", err)
	}
}

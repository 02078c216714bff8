package rebalance

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/etnz/rebalance/date"
)

// Phase identifies what the simulation is doing on a given day.
type Phase int

const (
	Contributing Phase = iota // within the funding window, buying daily
	Holding                   // fully funded, the policy is watching
)

func (p Phase) String() string {
	switch p {
	case Contributing:
		return "contributing"
	case Holding:
		return "holding"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Event records one rebalancing: the day, why the policy triggered, the
// portfolio value at that point, and the share counts after the reset.
type Event struct {
	Date   date.Date
	Reason string
	Value  float64
	Shares []float64 // aligned with the scenario assets
}

// Result is the full output of a simulation: for every aligned trading day,
// the share count and value of every asset and the portfolio totals, plus
// the log of rebalancing events.
//
// Per asset series are views over a single backing array, indexed like the
// scenario assets.
type Result struct {
	Scenario *Scenario
	Funding  Funding
	Days     []date.Date
	Shares   [][]float64 // [asset][day] share counts held
	Values   [][]float64 // [asset][day] market values
	Total    []float64   // [day] portfolio value
	Invested []float64   // [day] cumulative cash in
	Events   []Event
}

// newMatrix allocates an assets x days matrix over a single backing array.
func newMatrix(k, n int) [][]float64 {
	backing := make([]float64, k*n)
	rows := make([][]float64, k)
	for a := range rows {
		rows[a] = backing[a*n : (a+1)*n : (a+1)*n]
	}
	return rows
}

// Phase returns the phase of day i.
func (r *Result) Phase(i int) Phase {
	if r.Funding.Contains(r.Days[i]) {
		return Contributing
	}
	return Holding
}

// Return returns the cumulative return of day i against the scenario
// capital, in percent.
func (r *Result) Return(i int) float64 {
	return (r.Total[i]/r.Scenario.Capital - 1) * 100
}

// Profit returns the gain of day i over the cash invested so far.
func (r *Result) Profit(i int) float64 { return r.Total[i] - r.Invested[i] }

// Weights returns the weight of every asset on day i, as fractions of the
// portfolio value.
func (r *Result) Weights(i int) []float64 {
	weights := make([]float64, len(r.Values))
	for a := range r.Values {
		weights[a] = r.Values[a][i] / r.Total[i]
	}
	return weights
}

// Last returns the index of the last day.
func (r *Result) Last() int { return len(r.Days) - 1 }

// Simulate runs the scenario against the market and returns the full daily
// result.
//
// The simulation walks the trading days shared by all scenario assets within
// the scenario range. The first day buys the lump sum at close. Later days
// within the contribution window buy the daily contribution. Once the window
// is over the holdings are carried forward, and each day the policy reviews
// the weights: when it triggers, every asset is reset to its target weight
// at that day's closing prices.
func Simulate(s *Scenario, m *Market) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	days, err := m.CommonDays(s.Range(), s.Keys()...)
	if err != nil {
		return nil, err
	}
	n, k := len(days), len(s.Assets)

	// Extract the aligned close prices once, rejecting prices the simulation
	// cannot divide by or value with.
	prices := newMatrix(k, n)
	for a, asset := range s.Assets {
		ix := m.Get(asset.Key)
		for i, on := range days {
			px, _ := ix.Close(on)
			if px <= 0 {
				return nil, fmt.Errorf("%w: %s has price %g on %s", ErrConfig, asset.Key, px, on)
			}
			prices[a][i] = px
		}
	}

	funding := NewFunding(s, days)
	r := &Result{
		Scenario: s,
		Funding:  funding,
		Days:     days,
		Shares:   newMatrix(k, n),
		Values:   newMatrix(k, n),
		Total:    make([]float64, n),
		Invested: make([]float64, n),
	}

	lastReset := funding.End
	weights := make([]float64, k)
	for i, on := range days {
		switch {
		case i == 0:
			for a, asset := range s.Assets {
				r.Shares[a][0] = funding.Initial * asset.Weight / prices[a][0]
			}
			r.Invested[0] = funding.Initial
		case funding.Contains(on):
			for a, asset := range s.Assets {
				r.Shares[a][i] = r.Shares[a][i-1] + funding.Daily*asset.Weight/prices[a][i]
			}
			r.Invested[i] = r.Invested[i-1] + funding.Daily
		default:
			for a := range s.Assets {
				r.Shares[a][i] = r.Shares[a][i-1]
			}
			r.Invested[i] = r.Invested[i-1]
		}

		total := 0.0
		for a := range s.Assets {
			v := r.Shares[a][i] * prices[a][i]
			r.Values[a][i] = v
			total += v
		}
		if total <= 0 {
			return nil, fmt.Errorf("%w: portfolio value is %g on %s", ErrConfig, total, on)
		}
		r.Total[i] = total

		if i == 0 || funding.Contains(on) {
			continue
		}
		// Holding phase: let the policy review the weights.
		for a := range s.Assets {
			weights[a] = r.Values[a][i] / total
		}
		reason, trigger := s.Policy.Check(on, lastReset, s.Assets, weights)
		if !trigger {
			continue
		}
		shares := make([]float64, k)
		for a, asset := range s.Assets {
			r.Shares[a][i] = total * asset.Weight / prices[a][i]
			r.Values[a][i] = total * asset.Weight
			shares[a] = r.Shares[a][i]
		}
		r.Events = append(r.Events, Event{Date: on, Reason: reason, Value: total, Shares: shares})
		lastReset = on
	}

	return r, nil
}

// WriteCSV writes the result as a CSV table, one row per trading day: the
// share count and value of every asset, then the portfolio total, the
// cumulative return against the scenario capital in percent, the cumulative
// cash in and the profit over it.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"Date"}
	for _, a := range r.Scenario.Assets {
		header = append(header, a.Key+"_shares", a.Key+"_value")
	}
	header = append(header, "total_value", "return", "cumulative_invest", "profit")
	if err := cw.Write(header); err != nil {
		return err
	}

	ff := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	record := make([]string, 0, len(header))
	for i, on := range r.Days {
		record = record[:0]
		record = append(record, on.String())
		for a := range r.Scenario.Assets {
			record = append(record, ff(r.Shares[a][i]), ff(r.Values[a][i]))
		}
		record = append(record, ff(r.Total[i]), ff(r.Return(i)), ff(r.Invested[i]), ff(r.Profit(i)))
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

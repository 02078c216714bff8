// Package renderer builds the markdown views of simulation results: the
// single run summary, the multi-strategy comparison and the rebalancing
// event log. Commands print them through glamour, the HTML report converts
// them with goldmark.
package renderer

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/etnz/rebalance"
	md "github.com/nao1215/markdown"
)

// Run pairs a simulation result with its metrics.
type Run struct {
	Result  *rebalance.Result
	Metrics *rebalance.Metrics
}

// Name returns the scenario name of the run.
func (r Run) Name() string { return r.Result.Scenario.Name }

func money(v float64, currency string) string { return rebalance.M(v, currency).String() }

func percent(v float64) string { return rebalance.Percent(v).String() }

// ratio formats a dimensionless ratio, rendering the +Inf Sortino sentinel
// as the infinity sign rather than a number.
func ratio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", v)
}

// SummaryMarkdown renders the full report of a single run: the scenario
// configuration, the funding plan, the risk and return metrics, the final
// allocation and the rebalancing events.
func SummaryMarkdown(run Run) string {
	var buf bytes.Buffer

	r, m := run.Result, run.Metrics
	s := r.Scenario
	cur := s.Currency

	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Backtest %s", s.Name))

	doc.H2("Scenario")
	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"Setting", "Value"},
		Rows: [][]string{
			{"Capital", money(s.Capital, cur)},
			{"Window", s.Range().String()},
			{"Trading days", fmt.Sprintf("%d", len(r.Days))},
			{"Initial investment", money(r.Funding.Initial, cur)},
			{"Daily contribution", money(r.Funding.Daily, cur)},
			{"Contribution window ends", r.Funding.End.String()},
			{"Policy", s.Policy.String()},
		},
	})

	doc.H2("Performance")
	doc.Table(metricsTable(cur, []Run{{r, m}}))

	doc.H2("Final Allocation")
	last := r.Last()
	weights := r.Weights(last)
	alloc := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight},
		Header:    []string{"Asset", "Shares", "Value", "Weight", "Target"},
	}
	for a, asset := range s.Assets {
		alloc.Rows = append(alloc.Rows, []string{
			asset.Label(),
			fmt.Sprintf("%.4f", r.Shares[a][last]),
			money(r.Values[a][last], cur),
			percent(weights[a] * 100),
			percent(asset.Weight * 100),
		})
	}
	doc.Table(alloc)

	out := doc.String()

	var b bytes.Buffer
	b.WriteString(out)
	ConditionalBlock(&b, func(w io.Writer) bool {
		events := md.NewMarkdown(w)
		events.H2(fmt.Sprintf("Rebalancing Events (%d)", len(r.Events)))
		events.Table(eventsTable(r))
		fmt.Fprintln(w, events.String())
		return len(r.Events) > 0
	})
	return b.String()
}

// EventsMarkdown renders the rebalancing event log of a run.
func EventsMarkdown(r *rebalance.Result) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Rebalancing Events for %s", r.Scenario.Name))
	if len(r.Events) == 0 {
		doc.PlainText("The policy never triggered.")
	} else {
		doc.Table(eventsTable(r))
	}
	return doc.String()
}

func eventsTable(r *rebalance.Result) md.TableSet {
	cur := r.Scenario.Currency
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight, md.AlignLeft},
		Header:    []string{"Date", "Value", "Trigger"},
	}
	for _, ev := range r.Events {
		table.Rows = append(table.Rows, []string{ev.Date.String(), money(ev.Value, cur), ev.Reason})
	}
	return table
}

// CompareMarkdown renders the comparison of several runs: one metrics table
// sorted by total return, then the winner of each criterion.
func CompareMarkdown(runs []Run) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Strategy Comparison")

	sorted := make([]Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Metrics.TotalReturn > sorted[j].Metrics.TotalReturn
	})

	cur := ""
	if len(sorted) > 0 {
		cur = sorted[0].Result.Scenario.Currency
	}
	doc.Table(metricsTable(cur, sorted))

	doc.H2("Rankings")
	best := func(label string, pick func(a, b *rebalance.Metrics) bool, format func(*rebalance.Metrics) string) string {
		winner := sorted[0]
		for _, run := range sorted[1:] {
			if pick(run.Metrics, winner.Metrics) {
				winner = run
			}
		}
		return fmt.Sprintf("%s: %s (%s)", label, md.Bold(winner.Name()), format(winner.Metrics))
	}
	doc.BulletList(
		best("Highest total return",
			func(a, b *rebalance.Metrics) bool { return a.TotalReturn > b.TotalReturn },
			func(m *rebalance.Metrics) string { return percent(m.TotalReturn) }),
		best("Shallowest drawdown",
			func(a, b *rebalance.Metrics) bool { return a.MaxDrawdown > b.MaxDrawdown },
			func(m *rebalance.Metrics) string { return percent(m.MaxDrawdown) }),
		best("Best Sharpe",
			func(a, b *rebalance.Metrics) bool { return a.Sharpe > b.Sharpe },
			func(m *rebalance.Metrics) string { return ratio(m.Sharpe) }),
		best("Best Sortino",
			func(a, b *rebalance.Metrics) bool { return a.Sortino > b.Sortino },
			func(m *rebalance.Metrics) string { return ratio(m.Sortino) }),
	)

	return doc.String()
}

func metricsTable(currency string, runs []Run) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft, md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
			md.AlignRight, md.AlignRight, md.AlignRight, md.AlignRight,
		},
		Header: []string{
			"Strategy", "Final Value", "Total Return", "Annualized",
			"Max Drawdown", "Volatility", "Sharpe", "Sortino", "Rebalances",
		},
	}
	for _, run := range runs {
		m := run.Metrics
		table.Rows = append(table.Rows, []string{
			run.Name(),
			money(m.FinalValue, currency),
			percent(m.TotalReturn),
			percent(m.AnnualizedReturn),
			percent(m.MaxDrawdown),
			percent(m.Volatility),
			ratio(m.Sharpe),
			ratio(m.Sortino),
			fmt.Sprintf("%d", m.Rebalances),
		})
	}
	return table
}

package rebalance

import "github.com/etnz/rebalance/date"

// Funding is the contribution plan of a scenario laid over the trading days
// of a backtest: a lump sum on the first day, then a fixed daily amount on
// every later trading day of the contribution window.
type Funding struct {
	Initial float64   // invested on the first trading day
	Daily   float64   // invested on each later trading day within the window
	End     date.Date // last calendar day of the contribution window
	days    int       // trading days within the window, first day included
}

// NewFunding computes the contribution plan of the scenario over the aligned
// trading days.
//
// The window closes Years calendar years (365 day years) after the first
// trading day. The daily amount splits the non lump capital over every
// trading day of the window including the first one, but the first day only
// receives the lump sum, so the plan leaves one daily amount uninvested.
func NewFunding(s *Scenario, days []date.Date) Funding {
	f := Funding{Initial: s.Capital * s.InitialRatio}
	if len(days) == 0 {
		return f
	}
	f.End = days[0].Add(365 * s.Years)
	count := 0
	for _, on := range days {
		if !on.After(f.End) {
			count++
		}
	}
	f.days = count
	if count > 0 {
		f.Daily = s.Capital * (1 - s.InitialRatio) / float64(count)
	}
	return f
}

// Contains reports whether the day falls within the contribution window.
func (f Funding) Contains(on date.Date) bool { return !on.After(f.End) }

// Days returns the number of trading days within the contribution window.
func (f Funding) Days() int { return f.days }

// Total returns the cash invested once the window is over.
func (f Funding) Total() float64 {
	if f.days == 0 {
		return f.Initial
	}
	return f.Initial + f.Daily*float64(f.days-1)
}

package rebalance

import (
	"math"
	"strings"
	"testing"

	"github.com/etnz/rebalance/date"
)

// marketOf builds a market where every index starts on 'start' and trades on
// consecutive calendar days, open == close.
func marketOf(t *testing.T, start date.Date, closes map[string][]float64) *Market {
	t.Helper()
	m := NewMarket()
	for key, series := range closes {
		ix, err := NewIndex(key, "")
		if err != nil {
			t.Fatalf("NewIndex(%q) error = %v", key, err)
		}
		for i, px := range series {
			if err := ix.Append(start.Add(i), px, px); err != nil {
				t.Fatalf("Append error = %v", err)
			}
		}
		if err := m.Add(ix); err != nil {
			t.Fatalf("Add(%q) error = %v", key, err)
		}
	}
	return m
}

// lumpScenario invests everything on day one, so that the policy is active
// from the second day on.
func lumpScenario(start, end date.Date, policy Policy, assets ...Asset) *Scenario {
	return &Scenario{
		Name:         "test",
		Capital:      1000,
		Start:        start,
		End:          end,
		InitialRatio: 1,
		Years:        0,
		RiskFree:     0.03,
		Currency:     "CNY",
		Policy:       policy,
		Assets:       assets,
	}
}

func near(got, want, tolerance float64) bool { return math.Abs(got-want) <= tolerance }

func TestSimulate_ThresholdBoundaryDoesNotTrigger(t *testing.T) {
	// Two assets at 50/50, a 5 point threshold, and prices moving to a
	// deviation of exactly 5 points on both remaining days. The comparison is
	// strict, so the portfolio must never be reset.
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{
		"a": {100, 110, 90},
		"b": {100, 90, 110},
	})
	s := lumpScenario(start, start.Add(2), Threshold{Band: 0.05},
		Asset{Key: "a", Weight: 0.5},
		Asset{Key: "b", Weight: 0.5},
	)

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if got, want := r.Shares[0][0], 5.0; got != want {
		t.Errorf("day 0 shares a = %v, want %v", got, want)
	}
	if got, want := r.Shares[1][0], 5.0; got != want {
		t.Errorf("day 0 shares b = %v, want %v", got, want)
	}
	if got, want := r.Values[0][1], 550.0; got != want {
		t.Errorf("day 1 value a = %v, want %v", got, want)
	}
	if got, want := r.Values[1][1], 450.0; got != want {
		t.Errorf("day 1 value b = %v, want %v", got, want)
	}
	if got, want := r.Total[1], 1000.0; got != want {
		t.Errorf("day 1 total = %v, want %v", got, want)
	}
	if got, want := r.Weights(1)[0], 0.55; !near(got, want, 1e-12) {
		t.Errorf("day 1 weight a = %v, want %v", got, want)
	}
	if got, want := r.Weights(2)[0], 0.45; !near(got, want, 1e-12) {
		t.Errorf("day 2 weight a = %v, want %v", got, want)
	}
	if got := len(r.Events); got != 0 {
		t.Errorf("len(Events) = %d, want 0: a 5 point deviation must not cross a 5 point band", got)
	}
}

func TestSimulate_ThresholdTriggersAndResets(t *testing.T) {
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{
		"a": {100, 110, 110},
		"b": {100, 90, 90},
	})
	s := lumpScenario(start, start.Add(2), Threshold{Band: 0.04},
		Asset{Key: "a", Weight: 0.5},
		Asset{Key: "b", Weight: 0.5},
	)

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if got, want := len(r.Events), 1; got != want {
		t.Fatalf("len(Events) = %d, want %d", got, want)
	}
	ev := r.Events[0]
	if got, want := ev.Date, start.Add(1); got != want {
		t.Errorf("event date = %s, want %s", got, want)
	}
	if got, want := ev.Value, 1000.0; got != want {
		t.Errorf("event value = %v, want %v", got, want)
	}
	if !strings.Contains(ev.Reason, "55.0%") || !strings.Contains(ev.Reason, "target 50%") {
		t.Errorf("event reason = %q, want the breaching weight and its target", ev.Reason)
	}

	// The reset repositions every asset exactly on its target weight.
	for a := range s.Assets {
		if got, want := r.Weights(1)[a], s.Assets[a].Weight; !near(got, want, 1e-12) {
			t.Errorf("post-reset weight[%d] = %v, want %v", a, got, want)
		}
	}
	if got, want := r.Shares[0][1], 1000*0.5/110; !near(got, want, 1e-12) {
		t.Errorf("post-reset shares a = %v, want %v", got, want)
	}
	if got, want := r.Shares[1][1], 1000*0.5/90; !near(got, want, 1e-12) {
		t.Errorf("post-reset shares b = %v, want %v", got, want)
	}

	// Day 2 prices do not move, so the holdings carry forward unchanged.
	if got, want := r.Shares[0][2], r.Shares[0][1]; got != want {
		t.Errorf("day 2 shares a = %v, want carried %v", got, want)
	}
}

func TestSimulate_ContributionPhase(t *testing.T) {
	start := date.New(2024, 1, 1)
	days := 11
	series := make([]float64, days)
	for i := range series {
		series[i] = 100
	}
	m := marketOf(t, start, map[string][]float64{"a": series, "b": series})
	s := &Scenario{
		Name:         "dca",
		Capital:      1000,
		Start:        start,
		End:          start.Add(days - 1),
		InitialRatio: 0.2,
		Years:        1, // the whole run sits inside the window
		RiskFree:     0.03,
		Currency:     "CNY",
		Policy:       Never{},
		Assets: []Asset{
			{Key: "a", Weight: 0.5},
			{Key: "b", Weight: 0.5},
		},
	}

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	if got, want := r.Funding.Initial, 200.0; got != want {
		t.Errorf("funding initial = %v, want %v", got, want)
	}
	if got, want := r.Funding.Days(), days; got != want {
		t.Errorf("funding days = %d, want %d", got, want)
	}
	daily := 800.0 / float64(days)
	if got, want := r.Funding.Daily, daily; !near(got, want, 1e-12) {
		t.Errorf("funding daily = %v, want %v", got, want)
	}

	// Day 0 buys the lump sum only, later days add the daily contribution.
	if got, want := r.Invested[0], 200.0; got != want {
		t.Errorf("invested[0] = %v, want %v", got, want)
	}
	for i := 1; i < days; i++ {
		bought := (r.Shares[0][i]-r.Shares[0][i-1])*100 + (r.Shares[1][i]-r.Shares[1][i-1])*100
		if !near(bought, daily, 1e-9) {
			t.Errorf("day %d buys %v, want the daily amount %v", i, bought, daily)
		}
		if got, want := r.Invested[i]-r.Invested[i-1], daily; !near(got, want, 1e-12) {
			t.Errorf("invested step on day %d = %v, want %v", i, got, want)
		}
	}
	if got, want := r.Invested[days-1], r.Funding.Total(); !near(got, want, 1e-9) {
		t.Errorf("final invested = %v, want funding total %v", got, want)
	}
}

func TestSimulate_WindowEndsBeforeSecondDay(t *testing.T) {
	// A zero year window closes on the first trading day: the rest of the
	// capital is never invested, the run degrades to a partial lump sum.
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{"a": {100, 100, 100}})
	s := &Scenario{
		Name:         "lump",
		Capital:      1000,
		Start:        start,
		End:          start.Add(2),
		InitialRatio: 0.2,
		Years:        0,
		RiskFree:     0.03,
		Currency:     "CNY",
		Policy:       Never{},
		Assets:       []Asset{{Key: "a", Weight: 1}},
	}

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}
	if got, want := r.Funding.Daily, 0.0; got != want {
		t.Errorf("funding daily = %v, want %v", got, want)
	}
	if got, want := r.Invested[r.Last()], 200.0; got != want {
		t.Errorf("final invested = %v, want the lump sum %v", got, want)
	}
}

func TestSimulate_PeriodicTriggersByElapsedDays(t *testing.T) {
	start := date.New(2024, 1, 1)
	days := 10
	series := make([]float64, days)
	for i := range series {
		series[i] = 100 + float64(i)
	}
	m := marketOf(t, start, map[string][]float64{"a": series, "b": series})
	s := lumpScenario(start, start.Add(days-1), Periodic{Days: 4},
		Asset{Key: "a", Weight: 0.5},
		Asset{Key: "b", Weight: 0.5},
	)

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	// The window ends on day 0, so the first reset is due 4 calendar days
	// later, then every 4 days again.
	if got, want := len(r.Events), 2; got != want {
		t.Fatalf("len(Events) = %d, want %d", got, want)
	}
	if got, want := r.Events[0].Date, start.Add(4); got != want {
		t.Errorf("first event = %s, want %s", got, want)
	}
	if got, want := r.Events[1].Date, start.Add(8); got != want {
		t.Errorf("second event = %s, want %s", got, want)
	}
}

func TestSimulate_Idempotence(t *testing.T) {
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{
		"a": {100, 104, 98, 109, 103, 111},
		"b": {50, 49, 53, 51, 56, 52},
	})
	s := lumpScenario(start, start.Add(5), Threshold{Band: 0.02},
		Asset{Key: "a", Weight: 0.6},
		Asset{Key: "b", Weight: 0.4},
	)

	r1, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("first Simulate() error = %v", err)
	}
	r2, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("second Simulate() error = %v", err)
	}

	for i := range r1.Days {
		if r1.Total[i] != r2.Total[i] || r1.Invested[i] != r2.Invested[i] {
			t.Fatalf("day %d differs between identical runs", i)
		}
		for a := range s.Assets {
			if r1.Shares[a][i] != r2.Shares[a][i] {
				t.Fatalf("shares[%d][%d] differ between identical runs", a, i)
			}
		}
	}
	if got, want := len(r1.Events), len(r2.Events); got != want {
		t.Fatalf("event counts differ: %d vs %d", got, want)
	}
}

func TestSimulate_RejectsNonPositivePrice(t *testing.T) {
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{"a": {100, 0, 100}})
	s := lumpScenario(start, start.Add(2), Never{}, Asset{Key: "a", Weight: 1})

	if _, err := Simulate(s, m); !isConfig(err) {
		t.Fatalf("Simulate() error = %v, want ErrConfig for a zero price", err)
	}
}

func TestSimulate_RejectsUnknownKey(t *testing.T) {
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{"a": {100}})
	s := lumpScenario(start, start, Never{}, Asset{Key: "missing", Weight: 1})

	if _, err := Simulate(s, m); !isConfig(err) {
		t.Fatalf("Simulate() error = %v, want ErrConfig for missing market data", err)
	}
}

func TestResult_WriteCSV(t *testing.T) {
	start := date.New(2024, 1, 1)
	m := marketOf(t, start, map[string][]float64{"a": {100, 110}})
	s := lumpScenario(start, start.Add(1), Never{}, Asset{Key: "a", Weight: 1})

	r, err := Simulate(s, m)
	if err != nil {
		t.Fatalf("Simulate() error = %v", err)
	}

	var b strings.Builder
	if err := r.WriteCSV(&b); err != nil {
		t.Fatalf("WriteCSV() error = %v", err)
	}
	got := b.String()
	want := "Date,a_shares,a_value,total_value,return,cumulative_invest,profit\n" +
		"2024-01-01,10,1000,1000,0,1000,0\n" +
		"2024-01-02,10,1100,1100,10,1000,100\n"
	if got != want {
		t.Errorf("WriteCSV() =\n%s\nwant:\n%s", got, want)
	}
}

package report

import (
	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/etnz/rebalance/renderer"
	charts "github.com/vicanso/go-charts/v2"
)

// Strategies may trade on slightly different calendars, but a chart needs
// one x axis. The first run provides it, and the other runs are resampled on
// those days, carrying the last known value across their own holidays.

func resample(days []date.Date, values []float64, axis []date.Date) []float64 {
	out := make([]float64, len(axis))
	j := 0
	last := values[0]
	for i, on := range axis {
		for j < len(days) && !days[j].After(on) {
			last = values[j]
			j++
		}
		out[i] = last
	}
	return out
}

func labels(days []date.Date) []string {
	out := make([]string, len(days))
	for i, on := range days {
		out[i] = on.String()
	}
	return out
}

func names(runs []renderer.Run) []string {
	out := make([]string, len(runs))
	for i, run := range runs {
		out[i] = run.Name()
	}
	return out
}

func lineChart(title string, runs []renderer.Run, series func(r *rebalance.Result) []float64) ([]byte, error) {
	axis := runs[0].Result.Days
	values := make([][]float64, len(runs))
	for i, run := range runs {
		values[i] = resample(run.Result.Days, series(run.Result), axis)
	}

	p, err := charts.LineRender(
		values,
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(labels(axis)),
		charts.LegendLabelsOptionFunc(names(runs)),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(1000),
		charts.HeightOptionFunc(500),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

func equityChart(runs []renderer.Run) ([]byte, error) {
	return lineChart("Portfolio Value", runs, func(r *rebalance.Result) []float64 {
		return r.Total
	})
}

func returnsChart(runs []renderer.Run) ([]byte, error) {
	return lineChart("Cumulative Return (%)", runs, func(r *rebalance.Result) []float64 {
		out := make([]float64, len(r.Days))
		for i := range out {
			out[i] = r.Return(i)
		}
		return out
	})
}

func drawdownChart(runs []renderer.Run) ([]byte, error) {
	return lineChart("Drawdown (%)", runs, func(r *rebalance.Result) []float64 {
		out := make([]float64, len(r.Days))
		peak := r.Total[0]
		for i, v := range r.Total {
			if v > peak {
				peak = v
			}
			out[i] = (v - peak) / peak * 100
		}
		return out
	})
}

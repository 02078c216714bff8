// Package yahoo downloads historical index candles from the Yahoo Finance
// chart API, and normalizes yfinance CSV exports into the market format.
package yahoo

import (
	"fmt"
	"log"
	"time"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
)

// Symbols maps the builtin index keys to their Yahoo ticker. Other keys can
// be fetched by passing the ticker explicitly.
var Symbols = map[string]string{
	"sp500":     "^GSPC",
	"nasdaq100": "^NDX",
	"csi930955": "930955.SS",
}

func day(on date.Date) *datetime.Datetime {
	t := time.Date(on.Year(), on.Month(), on.Day(), 0, 0, 0, 0, time.UTC)
	return datetime.New(&t)
}

// Fetch downloads the daily candles of symbol within the range and returns
// them as an index stored under key.
func Fetch(key, name, symbol string, within date.Range) (*rebalance.Index, error) {
	ix, err := rebalance.NewIndex(key, name)
	if err != nil {
		return nil, err
	}

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    day(within.From),
		End:      day(within.To.Add(1)),
		Interval: datetime.OneDay,
	})
	for iter.Next() {
		bar := iter.Bar()
		on := toDate(time.Unix(int64(bar.Timestamp), 0).UTC())
		if !within.Contains(on) {
			continue
		}
		close := bar.Close.InexactFloat64()
		if close <= 0 {
			continue // yahoo pads holidays with null candles
		}
		open := bar.Open.InexactFloat64()
		if open <= 0 {
			open = close
		}
		if err := ix.Append(on, open, close); err != nil {
			return nil, fmt.Errorf("%s on %s: %w", symbol, on, err)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("cannot fetch %q from yahoo: %w", symbol, err)
	}
	if ix.Days() == 0 {
		return nil, fmt.Errorf("yahoo returned no candle for %q in %s", symbol, within)
	}
	log.Printf("yahoo: fetched %d days of %s", ix.Days(), symbol)
	return ix, nil
}

func toDate(t time.Time) date.Date { return date.New(t.Date()) }

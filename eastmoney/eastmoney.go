// Package eastmoney fetches daily klines of mainland Chinese indices from
// the eastmoney push2his API.
//
// CSI strategy indices (930955, 980092...) and ChinaBond indices are not on
// Yahoo, this API covers them without a key. Responses are cached on disk
// for a day.
package eastmoney

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
	"github.com/shopspring/decimal"
)

const endpoint = "https://push2his.eastmoney.com/api/qt/stock/kline/get"

// Secids maps the builtin index keys to their eastmoney security id, the
// market prefix (1 Shanghai, 2 Shenzhen and CSI) dot the index code.
var Secids = map[string]string{
	"csi930955": "2.930955",
	"csi980092": "2.980092",
	"cnb00003":  "0.CNB00003",
}

// Fetch downloads the daily klines of secid within the range and returns
// them as an index stored under key. When name is empty the name reported
// by the API is kept.
func Fetch(key, name, secid string, within date.Range) (*rebalance.Index, error) {
	q := url.Values{}
	q.Set("secid", secid)
	q.Set("fields1", "f1,f2,f3")
	q.Set("fields2", "f51,f52,f53") // date, open, close
	q.Set("klt", "101")             // daily klines
	q.Set("fqt", "1")
	q.Set("beg", compact(within.From))
	q.Set("end", compact(within.To))
	addr := endpoint + "?" + q.Encode()

	var jobj any
	if err := jwget(newCachingClient(), addr, &jobj); err != nil {
		return nil, fmt.Errorf("cannot fetch %q from eastmoney: %w", secid, err)
	}

	if name == "" {
		if jname, err := jsonpath.Get("$.data.name", jobj); err == nil {
			name, _ = jname.(string)
		}
	}
	ix, err := rebalance.NewIndex(key, name)
	if err != nil {
		return nil, err
	}

	jlines, err := jsonpath.Get("$.data.klines", jobj)
	if err != nil {
		return nil, fmt.Errorf("%w: eastmoney response for %q has no klines: %s", rebalance.ErrFormat, secid, err)
	}
	lines, ok := jlines.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: eastmoney klines for %q is not a list", rebalance.ErrFormat, secid)
	}
	for _, jline := range lines {
		line, ok := jline.(string)
		if !ok {
			return nil, fmt.Errorf("%w: eastmoney kline is not a string: %v", rebalance.ErrFormat, jline)
		}
		if err := appendKline(ix, line, within); err != nil {
			return nil, err
		}
	}
	if ix.Days() == 0 {
		return nil, fmt.Errorf("eastmoney returned no kline for %q in %s", secid, within)
	}
	log.Printf("eastmoney: fetched %d days of %s", ix.Days(), secid)
	return ix, nil
}

// appendKline parses one "date,open,close,..." kline into the index.
func appendKline(ix *rebalance.Index, line string, within date.Range) error {
	fields := strings.Split(line, ",")
	if len(fields) < 3 {
		return fmt.Errorf("%w: kline %q has %d fields, want at least 3", rebalance.ErrFormat, line, len(fields))
	}
	on, err := date.Parse(fields[0])
	if err != nil {
		return fmt.Errorf("%w: kline %q: %s", rebalance.ErrFormat, line, err)
	}
	if !within.Contains(on) {
		return nil
	}
	open, err := decimal.NewFromString(fields[1])
	if err != nil {
		return fmt.Errorf("%w: kline %q: invalid open: %s", rebalance.ErrFormat, line, err)
	}
	close, err := decimal.NewFromString(fields[2])
	if err != nil {
		return fmt.Errorf("%w: kline %q: invalid close: %s", rebalance.ErrFormat, line, err)
	}
	if close.IsZero() {
		return nil // suspended day
	}
	o := open.InexactFloat64()
	if o <= 0 {
		o = close.InexactFloat64()
	}
	return ix.Append(on, o, close.InexactFloat64())
}

func compact(on date.Date) string {
	return fmt.Sprintf("%04d%02d%02d", on.Year(), on.Month(), on.Day())
}

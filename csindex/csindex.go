// Package csindex normalizes the CSV exports of the China Securities Index
// website (csindex.com.cn) into the market format.
//
// The site ships two dialects. Performance exports carry bilingual headers
// (日期Date, 开盘Open, 收盘Close), numeric yyyymmdd dates, and may mix several
// index codes in one file (930955 next to its H20955 hedged variant).
// History exports carry plain Chinese headers (日期, 开盘价, 收盘价) with ISO
// dates, and bond indices come without an open column at all.
package csindex

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
)

type columns struct {
	date, open, close, code int
}

// Normalize converts a CSI CSV export into an index. Rows with a missing
// close are dropped, a missing open falls back to the close, and files that
// mix several index codes keep only the main, all-digit one.
func Normalize(key, name string, r io.Reader) (*rebalance.Index, error) {
	ix, err := rebalance.NewIndex(key, name)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header: %s", rebalance.ErrFormat, err)
	}
	cols := columns{date: -1, open: -1, close: -1, code: -1}
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "日期Date", "日期":
			cols.date = i
		case "开盘Open", "开盘价":
			cols.open = i
		case "收盘Close", "收盘价":
			cols.close = i
		case "指数代码Index Code":
			cols.code = i
		}
	}
	if cols.date < 0 || cols.close < 0 {
		return nil, fmt.Errorf("%w: header %v is not a CSI export (no date or close column)", rebalance.ErrFormat, header)
	}

	mainCode := ""
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", rebalance.ErrFormat, line, err)
		}
		if cols.code >= 0 && cols.code < len(record) {
			code := strings.TrimSpace(record[cols.code])
			if mainCode == "" && numeric(code) {
				mainCode = code
			}
			if mainCode != "" && code != mainCode {
				continue // hedged or currency variants of the same index
			}
		}
		on, err := parseDate(record[cols.date])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", rebalance.ErrFormat, line, err)
		}
		if strings.TrimSpace(record[cols.close]) == "" {
			continue
		}
		close, err := price(record[cols.close])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid close price %q", rebalance.ErrFormat, line, record[cols.close])
		}
		open := close
		if cols.open >= 0 && cols.open < len(record) && strings.TrimSpace(record[cols.open]) != "" {
			open, err = price(record[cols.open])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: invalid open price %q", rebalance.ErrFormat, line, record[cols.open])
			}
		}
		if _, ok := ix.Close(on); ok {
			continue
		}
		if err := ix.Append(on, open, close); err != nil {
			return nil, err
		}
	}
	if ix.Days() == 0 {
		return nil, fmt.Errorf("%w: no valid row in the export", rebalance.ErrFormat)
	}
	return ix, nil
}

// parseDate accepts both ISO dates and the compact 20100104 form of the
// performance exports.
func parseDate(s string) (date.Date, error) {
	s = strings.TrimSpace(s)
	if len(s) == 8 && numeric(s) {
		s = s[:4] + "-" + s[4:6] + "-" + s[6:]
	}
	return date.Parse(s)
}

func price(s string) (float64, error) {
	// exports sometimes thousand-separate prices
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

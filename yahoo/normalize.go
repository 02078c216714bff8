package yahoo

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/etnz/rebalance"
	"github.com/etnz/rebalance/date"
)

// A yfinance export stacks three header rows before the data:
//
//	Price,Close,High,Low,Open,Volume
//	Ticker,^GSPC,^GSPC,^GSPC,^GSPC,^GSPC
//	Date,,,,,
//	2015-01-02,2058.19,...
//
// The first row names the columns, the date lives in the first column, and
// the Ticker and Date rows are padding.

// NormalizeCSV converts a yfinance CSV export into an index. Rows with a
// missing or unparseable price are dropped.
func NormalizeCSV(key, name string, r io.Reader) (*rebalance.Index, error) {
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
	iOpen, iClose := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Open":
			iOpen = i
		case "Close":
			iClose = i
		}
	}
	if iOpen <= 0 || iClose <= 0 {
		return nil, fmt.Errorf("%w: header %v is not a yfinance export (no Open/Close columns)", rebalance.ErrFormat, header)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", rebalance.ErrFormat, err)
		}
		if len(record) <= iOpen || len(record) <= iClose {
			continue
		}
		on, err := date.Parse(record[0])
		if err != nil {
			continue // the Ticker and Date padding rows land here
		}
		open, err1 := strconv.ParseFloat(record[iOpen], 64)
		close, err2 := strconv.ParseFloat(record[iClose], 64)
		if err1 != nil || err2 != nil {
			continue
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

package rebalance

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/etnz/rebalance/date"
)

// ErrFormat reports a market data file the loaders cannot parse.
var ErrFormat = errors.New("invalid format")

// The normalized CSV format: one file per index, a Date,Open,Close header,
// ISO dates, chronological order. Provider specific exports are converted to
// this format by the normalizers (see the yahoo and csindex packages).

// ReadIndexCSV reads an index from a normalized CSV file.
//
// Rows with an empty price are skipped, and duplicated dates keep the first
// occurrence, so that a hand-edited file degrades gracefully.
func ReadIndexCSV(key, name string, r io.Reader) (*Index, error) {
	ix, err := NewIndex(key, name)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header: %s", ErrFormat, err)
	}
	iDate, iOpen, iClose := -1, -1, -1
	for i, col := range header {
		switch strings.TrimSpace(col) {
		case "Date":
			iDate = i
		case "Open":
			iOpen = i
		case "Close":
			iClose = i
		}
	}
	if iDate < 0 || iOpen < 0 || iClose < 0 {
		return nil, fmt.Errorf("%w: CSV header %v must have Date, Open and Close columns", ErrFormat, header)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", ErrFormat, line, err)
		}
		on, err := date.Parse(record[iDate])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %s", ErrFormat, line, err)
		}
		if _, ok := ix.Close(on); ok {
			continue // keep the first occurrence of a duplicated date
		}
		if record[iOpen] == "" || record[iClose] == "" {
			continue
		}
		open, err := strconv.ParseFloat(record[iOpen], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid open price %q", ErrFormat, line, record[iOpen])
		}
		close, err := strconv.ParseFloat(record[iClose], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid close price %q", ErrFormat, line, record[iClose])
		}
		if err := ix.Append(on, open, close); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// WriteIndexCSV writes the index in the normalized CSV format.
func WriteIndexCSV(w io.Writer, ix *Index) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Date", "Open", "Close"}); err != nil {
		return err
	}
	for on, px := range ix.Values() {
		record := []string{
			on.String(),
			strconv.FormatFloat(px[0], 'f', -1, 64),
			strconv.FormatFloat(px[1], 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// LoadMarketDir loads every *.csv file of a directory as an index, keyed by
// the file name without its extension.
func LoadMarketDir(dir string) (*Market, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	m := NewMarket()
	for _, path := range paths {
		key := strings.TrimSuffix(filepath.Base(path), ".csv")
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("cannot open market file: %w", err)
		}
		ix, err := ReadIndexCSV(key, "", f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("in %s: %w", path, err)
		}
		if err := m.Add(ix); err != nil {
			return nil, err
		}
	}
	return m, nil
}

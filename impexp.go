package rebalance

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/etnz/rebalance/date"
)

// this file contains functions to handle the import/export format.
// It should remain human readable, single file and be easy to merge into a database.

// the readable version of the format can be summarized by a few types.
type jindex struct {
	Key   string             `json:"key"`
	Name  string             `json:"name,omitempty"`
	Open  map[string]float64 `json:"open,omitempty"`
	Close map[string]float64 `json:"close"`
}

// DecodeMarket imports a market from 'r' in the import/export format.
//
// The format is a JSONL file, where each line is a JSON object representing an
// index: property 'key' contains the index key, 'name' an optional display
// name, and 'open' and 'close' each contain a single json object mapping
// ISO dates to prices.
func DecodeMarket(r io.Reader) (*Market, error) {
	var jindices []jindex
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var jx jindex
		if err := json.Unmarshal(line, &jx); err != nil {
			return nil, fmt.Errorf("%w: cannot parse market line %q: %s", ErrFormat, string(line), err)
		}
		jindices = append(jindices, jx)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read market data: %w", err)
	}

	m := NewMarket()
	for _, jx := range jindices {
		ix, err := NewIndex(jx.Key, jx.Name)
		if err != nil {
			return nil, err
		}
		for day, close := range jx.Close {
			on, err := date.Parse(day)
			if err != nil {
				return nil, fmt.Errorf("%w: index %q: %s", ErrFormat, jx.Key, err)
			}
			open, ok := jx.Open[day]
			if !ok {
				open = close
			}
			if err := ix.Append(on, open, close); err != nil {
				return nil, err
			}
		}
		m.Merge(ix)
	}
	return m, nil
}

// EncodeMarket exports the market to 'w' in the import/export format, one
// index per line, sorted by key.
func EncodeMarket(w io.Writer, m *Market) error {
	indices := slices.SortedFunc(m.All(), func(a, b *Index) int {
		return strings.Compare(a.Key(), b.Key())
	})

	for _, ix := range indices {
		jx := jindex{
			Key:   ix.Key(),
			Open:  make(map[string]float64),
			Close: make(map[string]float64),
		}
		if ix.Name() != ix.Key() {
			jx.Name = ix.Name()
		}
		for on, px := range ix.Values() {
			jx.Open[on.String()] = px[0]
			jx.Close[on.String()] = px[1]
		}

		data, err := json.Marshal(jx)
		if err != nil {
			return fmt.Errorf("cannot marshal index %q: %w", ix.Key(), err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write market format: %w", err)
		}
	}
	return nil
}

// LoadMarket reads a market from a JSONL file. A missing file is an empty
// market, so that the first `rbs fetch` starts from scratch.
func LoadMarket(path string) (*Market, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return NewMarket(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open market file: %w", err)
	}
	defer f.Close()
	m, err := DecodeMarket(f)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", path, err)
	}
	return m, nil
}

// SaveMarket writes the market to a JSONL file.
func SaveMarket(path string, m *Market) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create market file: %w", err)
	}
	if err := EncodeMarket(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package rebalance

import (
	"fmt"
	"iter"
	"math"

	"github.com/etnz/rebalance/date"
)

// Index is one tradable index: its identity and its daily open and close
// price series.
type Index struct {
	key   string // the stable identifier used by scenarios and file names.
	name  string // a display name, optional.
	open  date.History[float64]
	close date.History[float64]
}

// NewIndex returns a new empty index.
func NewIndex(key, name string) (*Index, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: index has no key", ErrConfig)
	}
	return &Index{key: key, name: name}, nil
}

// Key returns the stable identifier of the index.
func (ix *Index) Key() string { return ix.key }

// Name returns the display name of the index, falling back to its key.
func (ix *Index) Name() string {
	if ix.name == "" {
		return ix.key
	}
	return ix.name
}

// Append records the open and close prices for a day, overwriting any
// existing point on that day. Non finite prices are rejected.
func (ix *Index) Append(on date.Date, open, close float64) error {
	if math.IsNaN(open) || math.IsInf(open, 0) || math.IsNaN(close) || math.IsInf(close, 0) {
		return fmt.Errorf("%w: index %q has a non finite price on %s", ErrConfig, ix.key, on)
	}
	ix.open.Append(on, open)
	ix.close.Append(on, close)
	return nil
}

// Open returns the opening price on that day.
func (ix *Index) Open(on date.Date) (float64, bool) { return ix.open.Get(on) }

// Close returns the closing price on that day.
func (ix *Index) Close(on date.Date) (float64, bool) { return ix.close.Get(on) }

// Days returns the number of days with a price.
func (ix *Index) Days() int { return ix.close.Len() }

// Span returns the range covered by the index data.
func (ix *Index) Span() (date.Range, bool) {
	if ix.close.Len() == 0 {
		return date.Range{}, false
	}
	first, _ := ix.close.First()
	last, _ := ix.close.Latest()
	return date.Range{From: first, To: last}, true
}

// Values returns an iterator over all (day, open, close) points in
// chronological order.
func (ix *Index) Values() iter.Seq2[date.Date, [2]float64] {
	return func(yield func(date.Date, [2]float64) bool) {
		for on, close := range ix.close.Values() {
			open, _ := ix.open.Get(on)
			if !yield(on, [2]float64{open, close}) {
				return
			}
		}
	}
}

// Merge copies all points of x into ix. Points on the same day are
// overwritten, x wins.
func (ix *Index) Merge(x *Index) {
	for on, px := range x.Values() {
		ix.open.Append(on, px[0])
		ix.close.Append(on, px[1])
	}
	if x.name != "" {
		ix.name = x.name
	}
}

// Market holds market data for a set of indices.
type Market struct {
	indices []*Index
	byKey   map[string]*Index
}

// NewMarket returns a new empty market data collection.
func NewMarket() *Market {
	return &Market{
		indices: make([]*Index, 0),
		byKey:   make(map[string]*Index),
	}
}

func (m *Market) Has(key string) bool {
	_, ok := m.byKey[key]
	return ok
}

func (m *Market) Get(key string) *Index { return m.byKey[key] }

// Len returns the number of indices in the market.
func (m *Market) Len() int { return len(m.indices) }

// Add inserts a new index in the market.
func (m *Market) Add(ix *Index) error {
	if m.Has(ix.key) {
		return fmt.Errorf("%w: duplicate index key %q", ErrConfig, ix.key)
	}
	m.indices = append(m.indices, ix)
	m.byKey[ix.key] = ix
	return nil
}

// Merge inserts the index in the market, or merges its points into the
// existing index with the same key.
func (m *Market) Merge(ix *Index) {
	if existing, ok := m.byKey[ix.key]; ok {
		existing.Merge(ix)
		return
	}
	m.indices = append(m.indices, ix)
	m.byKey[ix.key] = ix
}

// All returns an iterator over all indices, in insertion order.
func (m *Market) All() iter.Seq[*Index] {
	return func(yield func(*Index) bool) {
		for _, ix := range m.indices {
			if !yield(ix) {
				return
			}
		}
	}
}

// Calendar returns the union of all trading days in the market, sorted.
func (m *Market) Calendar() []date.Date {
	histories := make([]date.History[float64], 0, len(m.indices))
	for _, ix := range m.indices {
		histories = append(histories, ix.close)
	}
	var days []date.Date
	for on := range date.Iterate(histories...) {
		days = append(days, on)
	}
	return days
}

// CommonDays returns the trading days shared by all the given indices within
// the range, sorted. Indices trading on different exchanges have different
// holidays, a backtest can only price the portfolio on days where every
// asset trades.
//
// It fails if a key has no market data, or if the indices share no day.
func (m *Market) CommonDays(within date.Range, keys ...string) ([]date.Date, error) {
	histories := make([]date.History[float64], 0, len(keys))
	for _, key := range keys {
		ix, ok := m.byKey[key]
		if !ok {
			return nil, fmt.Errorf("%w: no market data for %q", ErrConfig, key)
		}
		histories = append(histories, ix.close)
	}
	var days []date.Date
	for _, on := range date.Intersect(histories...) {
		if within.Contains(on) {
			days = append(days, on)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("%w: no common trading day for %v within %s", ErrConfig, keys, within)
	}
	return days, nil
}

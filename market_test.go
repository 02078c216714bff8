package rebalance

import (
	"testing"

	"github.com/etnz/rebalance/date"
)

func TestMarket_CommonDays(t *testing.T) {
	d := func(day int) date.Date { return date.New(2024, 1, day) }

	m := NewMarket()
	a, _ := NewIndex("a", "")
	b, _ := NewIndex("b", "")
	// a trades on 1,2,3,5 and b on 2,3,4,5: they share 2,3,5.
	for _, day := range []int{1, 2, 3, 5} {
		a.Append(d(day), 10, 10)
	}
	for _, day := range []int{2, 3, 4, 5} {
		b.Append(d(day), 20, 20)
	}
	m.Add(a)
	m.Add(b)

	whole := date.NewRange(d(1), d(31))

	t.Run("intersection", func(t *testing.T) {
		days, err := m.CommonDays(whole, "a", "b")
		if err != nil {
			t.Fatalf("CommonDays() error = %v", err)
		}
		want := []date.Date{d(2), d(3), d(5)}
		if len(days) != len(want) {
			t.Fatalf("CommonDays() = %v, want %v", days, want)
		}
		for i := range want {
			if days[i] != want[i] {
				t.Errorf("CommonDays()[%d] = %s, want %s", i, days[i], want[i])
			}
		}
	})

	t.Run("range restriction", func(t *testing.T) {
		days, err := m.CommonDays(date.NewRange(d(3), d(4)), "a", "b")
		if err != nil {
			t.Fatalf("CommonDays() error = %v", err)
		}
		if len(days) != 1 || days[0] != d(3) {
			t.Errorf("CommonDays() = %v, want [%s]", days, d(3))
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := m.CommonDays(whole, "a", "zzz"); !isConfig(err) {
			t.Errorf("CommonDays() error = %v, want ErrConfig", err)
		}
	})

	t.Run("empty intersection", func(t *testing.T) {
		c, _ := NewIndex("c", "")
		c.Append(d(20), 5, 5)
		m.Add(c)
		if _, err := m.CommonDays(whole, "a", "c"); !isConfig(err) {
			t.Errorf("CommonDays() error = %v, want ErrConfig", err)
		}
	})
}

func TestIndex_Append(t *testing.T) {
	ix, err := NewIndex("a", "Alpha")
	if err != nil {
		t.Fatalf("NewIndex() error = %v", err)
	}
	on := date.New(2024, 1, 1)
	if err := ix.Append(on, 10, 11); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	// Appending the same day again overwrites.
	if err := ix.Append(on, 12, 13); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if got, _ := ix.Close(on); got != 13 {
		t.Errorf("Close() = %v, want 13", got)
	}
	if got, _ := ix.Open(on); got != 12 {
		t.Errorf("Open() = %v, want 12", got)
	}
	if got, want := ix.Days(), 1; got != want {
		t.Errorf("Days() = %d, want %d", got, want)
	}

	if err := ix.Append(on.Add(1), 10, nan()); !isConfig(err) {
		t.Errorf("Append(NaN) error = %v, want ErrConfig", err)
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestIndex_Merge(t *testing.T) {
	on := date.New(2024, 1, 1)
	a, _ := NewIndex("a", "")
	a.Append(on, 10, 10)
	a.Append(on.Add(1), 11, 11)

	b, _ := NewIndex("a", "Alpha")
	b.Append(on.Add(1), 12, 12) // overlaps, b wins
	b.Append(on.Add(2), 13, 13)

	a.Merge(b)
	if got, want := a.Days(), 3; got != want {
		t.Errorf("Days() = %d, want %d", got, want)
	}
	if got, _ := a.Close(on.Add(1)); got != 12 {
		t.Errorf("Close(day 1) = %v, want the merged 12", got)
	}
	if got, want := a.Name(), "Alpha"; got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}

func TestMarket_Add(t *testing.T) {
	m := NewMarket()
	a, _ := NewIndex("a", "")
	if err := m.Add(a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	dup, _ := NewIndex("a", "")
	if err := m.Add(dup); !isConfig(err) {
		t.Errorf("Add(duplicate) error = %v, want ErrConfig", err)
	}
	if got, want := m.Len(), 1; got != want {
		t.Errorf("Len() = %d, want %d", got, want)
	}
}

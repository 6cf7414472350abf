package exec

import (
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

func drainTuples(t *testing.T, op Operator) []Tuple {
	t.Helper()
	var out []Tuple
	for {
		tup, ok, err := op.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			return out
		}
		out = append(out, tup)
	}
}

func TestSorterAscendingStable(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{
		{int64(3), "c"},
		{int64(1), "a"},
		{int64(1), "b"},
		{int64(2), "d"},
	}}
	sorter := NewSorter(src, []SortKey{{Extractor: col0}})
	tuples := drainTuples(t, sorter)
	want := []int64{1, 1, 2, 3}
	for i, w := range want {
		if tuples[i].Row[0] != w {
			t.Fatalf("position %d: got %v want %v", i, tuples[i].Row[0], w)
		}
	}
	// Stability: the two 1's keep their relative input order ("a" before "b").
	if tuples[0].Row[1] != "a" || tuples[1].Row[1] != "b" {
		t.Fatalf("expected stable tie-break order [a, b], got [%v, %v]", tuples[0].Row[1], tuples[1].Row[1])
	}
}

func TestSorterDescending(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{{int64(1)}, {int64(3)}, {int64(2)}}}
	sorter := NewSorter(src, []SortKey{{Extractor: col0, Descending: true}})
	tuples := drainTuples(t, sorter)
	want := []int64{3, 2, 1}
	for i, w := range want {
		if tuples[i].Row[0] != w {
			t.Fatalf("position %d: got %v want %v", i, tuples[i].Row[0], w)
		}
	}
}

// NULLs sort before any non-null value on the same key (documented open
// question resolution, not a reference-matched behavior).
func TestSorterNullsFirst(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{{int64(5)}, {nil}, {int64(1)}}}
	sorter := NewSorter(src, []SortKey{{Extractor: col0}})
	tuples := drainTuples(t, sorter)
	if tuples[0].Row[0] != nil {
		t.Fatalf("expected NULL first, got %v", tuples[0].Row[0])
	}
	if tuples[1].Row[0] != int64(1) || tuples[2].Row[0] != int64(5) {
		t.Fatalf("unexpected ordering after NULL: %v, %v", tuples[1].Row[0], tuples[2].Row[0])
	}
}

func TestSorterMultiKey(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{
		{"NY", int64(30)},
		{"NY", int64(20)},
		{"LA", int64(50)},
	}}
	sorter := NewSorter(src, []SortKey{{Extractor: col0}, {Extractor: col1}})
	tuples := drainTuples(t, sorter)
	if tuples[0].Row[0] != "LA" {
		t.Fatalf("expected LA first (primary key), got %v", tuples[0].Row[0])
	}
	if tuples[1].Row[1] != int64(20) || tuples[2].Row[1] != int64(30) {
		t.Fatalf("expected secondary key to order the NY group, got %v then %v", tuples[1].Row[1], tuples[2].Row[1])
	}
}

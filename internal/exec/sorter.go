package exec

import (
	"sort"

	"github.com/SimonWaldherr/tinyrel/internal/schema"
)

// SortKey is one ORDER BY term (spec §4.7).
type SortKey struct {
	Extractor  Extractor
	Descending bool
}

// Sorter materializes its child and sorts stably, walking sort keys
// left-to-right and flipping sign when Descending. NULL ordering is
// left under-determined by the spec (§9 Open Questions); this
// implementation sorts NULL before any non-null value on a given key,
// which is deterministic and stable but not claimed to match any
// particular reference behavior. Back-links are forwarded unchanged.
type Sorter struct {
	child Operator
	keys  []SortKey
	sch   *schema.Schema

	tuples []Tuple
	sorted bool
	idx    int
}

func NewSorter(child Operator, keys []SortKey) *Sorter {
	return &Sorter{child: child, keys: keys, sch: child.Schema()}
}

func (s *Sorter) Schema() *schema.Schema { return s.sch }

func (s *Sorter) materialize() error {
	for {
		t, ok, err := s.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.tuples = append(s.tuples, t)
	}
}

func compareNullable(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}
	c, err := Compare(a, b)
	if err != nil {
		return 0
	}
	return c
}

func (s *Sorter) Next() (Tuple, bool, error) {
	if !s.sorted {
		if err := s.materialize(); err != nil {
			return Tuple{}, false, err
		}
		keyed := make([][]any, len(s.tuples))
		for i, t := range s.tuples {
			vals := make([]any, len(s.keys))
			for k, sk := range s.keys {
				v, err := sk.Extractor(t.Row)
				if err != nil {
					return Tuple{}, false, err
				}
				vals[k] = v
			}
			keyed[i] = vals
		}
		idx := make([]int, len(s.tuples))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			ia, ib := idx[a], idx[b]
			for k, sk := range s.keys {
				c := compareNullable(keyed[ia][k], keyed[ib][k])
				if sk.Descending {
					c = -c
				}
				if c != 0 {
					return c < 0
				}
			}
			return false
		})
		sortedTuples := make([]Tuple, len(s.tuples))
		for i, j := range idx {
			sortedTuples[i] = s.tuples[j]
		}
		s.tuples = sortedTuples
		s.sorted = true
	}
	if s.idx >= len(s.tuples) {
		return Tuple{}, false, nil
	}
	t := s.tuples[s.idx]
	s.idx++
	return t, true, nil
}

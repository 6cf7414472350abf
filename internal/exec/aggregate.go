package exec

import (
	"fmt"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/schema"
)

// rowCountSentinel is the non-null marker COUNT(*) accumulates against
// (spec §4.7: "accumulator receives a non-null sentinel for every input
// row").
var rowCountSentinel = struct{}{}

// accumulator is the shared update/finalize capability every aggregate
// state variant implements (spec §9: "tagged union of five accumulator
// variants").
type accumulator interface {
	update(v any) error
	finalize() any
}

type countAcc struct{ n int64 }

func (a *countAcc) update(v any) error {
	if v != nil {
		a.n++
	}
	return nil
}
func (a *countAcc) finalize() any { return a.n }

type sumAcc struct {
	sum     float64
	isInt   bool
	sumInt  int64
	anySeen bool
}

func (a *sumAcc) update(v any) error {
	if v == nil {
		return nil
	}
	a.anySeen = true
	switch n := v.(type) {
	case int64:
		a.sumInt += n
		a.sum += float64(n)
	case float64:
		a.isInt = false
		a.sum += n
	default:
		return dberrors.New(dberrors.RuntimeError, "SUM requires a numeric value, got %T", v)
	}
	return nil
}
func (a *sumAcc) finalize() any {
	if a.isInt {
		return a.sumInt
	}
	return a.sum
}

type minMaxAcc struct {
	isMax  bool
	cur    any
	hasVal bool
}

func (a *minMaxAcc) update(v any) error {
	if v == nil {
		return nil
	}
	if !a.hasVal {
		a.cur = v
		a.hasVal = true
		return nil
	}
	c, err := Compare(v, a.cur)
	if err != nil {
		return err
	}
	if (a.isMax && c > 0) || (!a.isMax && c < 0) {
		a.cur = v
	}
	return nil
}
func (a *minMaxAcc) finalize() any { return a.cur }

// avgAcc composes a sumAcc and countAcc rather than inheriting from
// either (spec §9 Design Notes).
type avgAcc struct {
	sum sumAcc
	cnt countAcc
}

func (a *avgAcc) update(v any) error {
	if v == nil {
		return nil
	}
	if err := a.sum.update(v); err != nil {
		return err
	}
	return a.cnt.update(v)
}
func (a *avgAcc) finalize() any {
	if a.cnt.n == 0 {
		return nil
	}
	var s float64
	if a.sum.isInt {
		s = float64(a.sum.sumInt)
	} else {
		s = a.sum.sum
	}
	return s / float64(a.cnt.n)
}

type countDistinctAcc struct {
	seen map[any]struct{}
}

func (a *countDistinctAcc) update(v any) error {
	if v == nil {
		return nil
	}
	if a.seen == nil {
		a.seen = make(map[any]struct{})
	}
	a.seen[v] = struct{}{}
	return nil
}
func (a *countDistinctAcc) finalize() any { return int64(len(a.seen)) }

func newAccumulator(spec AggSpec) (accumulator, error) {
	switch spec.Func {
	case "COUNT":
		if spec.Distinct {
			return &countDistinctAcc{}, nil
		}
		return &countAcc{}, nil
	case "SUM":
		return &sumAcc{isInt: true}, nil
	case "MIN":
		return &minMaxAcc{isMax: false}, nil
	case "MAX":
		return &minMaxAcc{isMax: true}, nil
	case "AVG":
		return &avgAcc{sum: sumAcc{isInt: true}}, nil
	default:
		return nil, dberrors.New(dberrors.ValidationError, "unknown aggregate function %q", spec.Func)
	}
}

// AggSpec is one aggregate output column (spec §4.7/§4.6's canonical
// name forms FUNC(ARG) / FUNC(DISTINCT ARG) / FUNC(*)).
type AggSpec struct {
	Func       string
	Distinct   bool
	Star       bool
	Extractor  Extractor // nil iff Star
	OutputName string
}

// Aggregate groups child rows by the group extractors' values and
// computes one accumulator set per group, emitting group-key columns
// followed by finalized aggregate outputs in first-encounter order
// (spec §4.6, §4.7). Synthesized rows drop back-links.
type Aggregate struct {
	child           Operator
	groupExtractors []Extractor
	specs           []AggSpec
	sch             *schema.Schema

	out     []Tuple
	emitted bool
	idx     int
}

func NewAggregate(child Operator, groupExtractors []Extractor, specs []AggSpec, sch *schema.Schema) *Aggregate {
	return &Aggregate{child: child, groupExtractors: groupExtractors, specs: specs, sch: sch}
}

func (a *Aggregate) Schema() *schema.Schema { return a.sch }

type groupState struct {
	keyVals []any
	accs    []accumulator
}

func (a *Aggregate) compute() error {
	order := make([]string, 0)
	groups := make(map[string]*groupState)

	for {
		t, ok, err := a.child.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		keyVals := make([]any, len(a.groupExtractors))
		for i, ex := range a.groupExtractors {
			v, err := ex(t.Row)
			if err != nil {
				return err
			}
			keyVals[i] = v
		}
		key := rowKey(keyVals)
		gs, ok := groups[key]
		if !ok {
			gs = &groupState{keyVals: keyVals}
			for _, spec := range a.specs {
				acc, err := newAccumulator(spec)
				if err != nil {
					return err
				}
				gs.accs = append(gs.accs, acc)
			}
			groups[key] = gs
			order = append(order, key)
		}
		for i, spec := range a.specs {
			var v any
			if spec.Star {
				v = rowCountSentinel
			} else {
				v, err = spec.Extractor(t.Row)
				if err != nil {
					return err
				}
			}
			if err := gs.accs[i].update(v); err != nil {
				return err
			}
		}
	}

	// A query with no GROUP BY and no input rows still emits a single
	// aggregate row over the empty set (e.g. SELECT COUNT(*) FROM t).
	if len(order) == 0 && len(a.groupExtractors) == 0 {
		gs := &groupState{}
		for _, spec := range a.specs {
			acc, err := newAccumulator(spec)
			if err != nil {
				return err
			}
			gs.accs = append(gs.accs, acc)
		}
		groups[""] = gs
		order = append(order, "")
	}

	for _, key := range order {
		gs := groups[key]
		r := make([]any, 0, len(gs.keyVals)+len(a.specs))
		r = append(r, gs.keyVals...)
		for _, acc := range gs.accs {
			r = append(r, acc.finalize())
		}
		a.out = append(a.out, Tuple{Row: r})
	}
	return nil
}

func (a *Aggregate) Next() (Tuple, bool, error) {
	if !a.emitted {
		if err := a.compute(); err != nil {
			return Tuple{}, false, err
		}
		a.emitted = true
	}
	if a.idx >= len(a.out) {
		return Tuple{}, false, nil
	}
	t := a.out[a.idx]
	a.idx++
	return t, true, nil
}

// CanonicalAggName builds the FUNC(ARG)/FUNC(DISTINCT ARG)/FUNC(*)
// lookup name spec §4.6 requires for an aggregate output column.
func CanonicalAggName(fn string, distinct bool, star bool, argDisplay string) string {
	switch {
	case star:
		return fmt.Sprintf("%s(*)", fn)
	case distinct:
		return fmt.Sprintf("%s(DISTINCT %s)", fn, argDisplay)
	default:
		return fmt.Sprintf("%s(%s)", fn, argDisplay)
	}
}

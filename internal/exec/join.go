package exec

import (
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// NestedLoopJoin materializes the right side once, iterates the outer
// (left) side, and emits the concatenated row wherever predicate holds.
// Any boolean expression over the combined schema is allowed, including
// non-equi joins (spec §4.7). Synthesized rows drop back-links.
type NestedLoopJoin struct {
	left, right Operator
	predicate   ast.Expr
	sch         *schema.Schema

	rightRows []row.Row
	loaded    bool

	curLeft    row.Row
	haveLeft   bool
	rightIdx   int
}

func NewNestedLoopJoin(left, right Operator, predicate ast.Expr) *NestedLoopJoin {
	sch := schema.Concat(*left.Schema(), *right.Schema())
	return &NestedLoopJoin{left: left, right: right, predicate: predicate, sch: &sch}
}

func (j *NestedLoopJoin) Schema() *schema.Schema { return j.sch }

func (j *NestedLoopJoin) materializeRight() error {
	for {
		t, ok, err := j.right.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		j.rightRows = append(j.rightRows, t.Row)
	}
}

func (j *NestedLoopJoin) Next() (Tuple, bool, error) {
	if !j.loaded {
		if err := j.materializeRight(); err != nil {
			return Tuple{}, false, err
		}
		j.loaded = true
	}
	for {
		if !j.haveLeft {
			t, ok, err := j.left.Next()
			if err != nil || !ok {
				return Tuple{}, ok, err
			}
			j.curLeft = t.Row
			j.haveLeft = true
			j.rightIdx = 0
		}
		for j.rightIdx < len(j.rightRows) {
			rr := j.rightRows[j.rightIdx]
			j.rightIdx++
			combined := make(row.Row, 0, len(j.curLeft)+len(rr))
			combined = append(combined, j.curLeft...)
			combined = append(combined, rr...)
			v, err := Eval(j.sch, combined, j.predicate)
			if err != nil {
				return Tuple{}, false, err
			}
			if Truthy(v) {
				return Tuple{Row: combined}, true, nil
			}
		}
		j.haveLeft = false
	}
}

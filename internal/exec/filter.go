package exec

import (
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
)

// Filter yields child rows for which predicate is true, forwarding back
// -links unchanged (spec §4.7).
type Filter struct {
	child     Operator
	predicate ast.Expr
}

func NewFilter(child Operator, predicate ast.Expr) *Filter {
	return &Filter{child: child, predicate: predicate}
}

func (f *Filter) Schema() *schema.Schema { return f.child.Schema() }

func (f *Filter) Next() (Tuple, bool, error) {
	for {
		t, ok, err := f.child.Next()
		if err != nil || !ok {
			return Tuple{}, ok, err
		}
		v, err := Eval(f.child.Schema(), t.Row, f.predicate)
		if err != nil {
			return Tuple{}, false, err
		}
		if Truthy(v) {
			return t, true, nil
		}
	}
}

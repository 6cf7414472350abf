// Expression evaluation: comparisons, truthiness, and numeric coercion.
// The comparison/truthy/coercion rules are grounded on tinySQL's
// internal/engine/exec.go evalExpr/compare/truthy/coerceToFloat family,
// restructured to operate against a schema.Schema + row.Row pair instead
// of a map[string]any Row.
package exec

import (
	"strings"
	"time"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// Eval evaluates a scalar expression against one row under sch.
func Eval(sch *schema.Schema, r row.Row, e ast.Expr) (any, error) {
	switch n := e.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.ColumnRef:
		idx, err := sch.Resolve(n.Qualifier, n.Name)
		if err != nil {
			return nil, err
		}
		return r[idx], nil
	case *ast.UnaryExpr:
		v, err := Eval(sch, r, n.Operand)
		if err != nil {
			return nil, err
		}
		return negate(v)
	case *ast.BinaryExpr:
		return evalBinary(sch, r, n)
	case *ast.Star:
		return nil, dberrors.New(dberrors.RuntimeError, "'*' cannot be evaluated as a scalar value")
	case *ast.FuncCall:
		return nil, dberrors.New(dberrors.RuntimeError, "aggregate function %s used outside an aggregate context", n.Name)
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "unsupported expression node %T", e)
	}
}

func negate(v any) (any, error) {
	switch n := v.(type) {
	case nil:
		return nil, nil
	case int64:
		return -n, nil
	case float64:
		return -n, nil
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "cannot negate non-numeric value %v", v)
	}
}

func evalBinary(sch *schema.Schema, r row.Row, n *ast.BinaryExpr) (any, error) {
	switch n.Op {
	case token.AND:
		l, err := Eval(sch, r, n.Left)
		if err != nil {
			return nil, err
		}
		if !Truthy(l) {
			return false, nil
		}
		rv, err := Eval(sch, r, n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(rv), nil
	case token.OR:
		l, err := Eval(sch, r, n.Left)
		if err != nil {
			return nil, err
		}
		if Truthy(l) {
			return true, nil
		}
		rv, err := Eval(sch, r, n.Right)
		if err != nil {
			return nil, err
		}
		return Truthy(rv), nil
	}

	lv, err := Eval(sch, r, n.Left)
	if err != nil {
		return nil, err
	}
	rv, err := Eval(sch, r, n.Right)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case token.EQ, token.NEQ, token.LT, token.GT, token.LTE, token.GTE:
		return evalComparison(n.Op, lv, rv)
	case token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT:
		return evalArithmetic(n.Op, lv, rv)
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "unsupported operator %s", n.Op)
	}
}

func evalComparison(op token.Type, l, r any) (any, error) {
	if l == nil || r == nil {
		// SQL NULL comparisons are unknown; the engine treats unknown as
		// false everywhere a boolean is required (WHERE, JOIN ON).
		return false, nil
	}
	c, err := Compare(l, r)
	if err != nil {
		return nil, err
	}
	switch op {
	case token.EQ:
		return c == 0, nil
	case token.NEQ:
		return c != 0, nil
	case token.LT:
		return c < 0, nil
	case token.GT:
		return c > 0, nil
	case token.LTE:
		return c <= 0, nil
	case token.GTE:
		return c >= 0, nil
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "unsupported comparison operator %s", op)
	}
}

// Compare orders two non-null values, coercing between int64/float64 and
// comparing time.Time and string natively.
func Compare(l, r any) (int, error) {
	if lt, ok := l.(time.Time); ok {
		if rt, ok := r.(time.Time); ok {
			switch {
			case lt.Before(rt):
				return -1, nil
			case lt.After(rt):
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if ls, ok := l.(string); ok {
		if rs, ok := r.(string); ok {
			return strings.Compare(ls, rs), nil
		}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, dberrors.New(dberrors.RuntimeError, "cannot compare %T with %T", l, r)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func evalArithmetic(op token.Type, l, r any) (any, error) {
	if l == nil || r == nil {
		return nil, nil
	}
	li, liok := l.(int64)
	ri, riok := r.(int64)
	if liok && riok {
		switch op {
		case token.PLUS:
			return li + ri, nil
		case token.MINUS:
			return li - ri, nil
		case token.STAR:
			return li * ri, nil
		case token.SLASH:
			if ri == 0 {
				return nil, dberrors.New(dberrors.RuntimeError, "division by zero")
			}
			return li / ri, nil
		case token.PERCENT:
			if ri == 0 {
				return nil, dberrors.New(dberrors.RuntimeError, "division by zero")
			}
			return li % ri, nil
		}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return nil, dberrors.New(dberrors.RuntimeError, "cannot apply %s to %T and %T", op, l, r)
	}
	switch op {
	case token.PLUS:
		return lf + rf, nil
	case token.MINUS:
		return lf - rf, nil
	case token.STAR:
		return lf * rf, nil
	case token.SLASH:
		if rf == 0 {
			return nil, dberrors.New(dberrors.RuntimeError, "division by zero")
		}
		return lf / rf, nil
	case token.PERCENT:
		return nil, dberrors.New(dberrors.RuntimeError, "%% requires integer operands")
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "unsupported arithmetic operator %s", op)
	}
}

// Truthy applies SQL boolean coercion: NULL and zero values are false.
func Truthy(v any) bool {
	switch n := v.(type) {
	case nil:
		return false
	case bool:
		return n
	case int64:
		return n != 0
	case float64:
		return n != 0
	case string:
		return n != ""
	default:
		return true
	}
}

// Package plan builds a physical operator tree (package exec) from a
// parsed statement (package ast), performing the name resolution spec
// §4.6 describes. tinySQL has no separate planner — internal/engine
// walks the AST and evaluates it in one pass — so this package's shape
// is new; its resolution rules are grounded directly on spec §4.6 and
// its operator wiring on spec §4.7's table of which statement produces
// which operator tree.
package plan

import (
	"strconv"
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/catalog"
	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/exec"
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
	"github.com/SimonWaldherr/tinyrel/internal/txn"
)

// Build compiles stmt into a physical operator tree bound to tx.
// BeginStmt/CommitStmt/RollbackStmt are handled by the engine façade
// directly and never reach here (spec §4.8).
func Build(tx *txn.Transaction, stmt ast.Statement) (exec.Operator, error) {
	switch s := stmt.(type) {
	case *ast.CreateTableStmt:
		return buildCreateTable(tx, s)
	case *ast.DropTableStmt:
		return buildDropTable(tx, s)
	case *ast.InsertStmt:
		return buildInsert(tx, s)
	case *ast.DeleteStmt:
		return buildDelete(tx, s)
	case *ast.SelectStmt:
		return buildSelect(tx, s)
	default:
		return nil, dberrors.New(dberrors.RuntimeError, "unsupported statement %T", stmt)
	}
}

func buildCreateTable(tx *txn.Transaction, s *ast.CreateTableStmt) (exec.Operator, error) {
	names := make([]string, len(s.Columns))
	types := make([]catalog.ColType, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = strings.ToLower(c.Name)
		t, ok := catalog.ParseColType(c.Type)
		if !ok {
			return nil, dberrors.New(dberrors.ValidationError, "unknown column type %q", c.Type)
		}
		types[i] = t
	}
	if err := tx.CreateTable(s.Table, names, types); err != nil {
		return nil, err
	}
	return exec.NewStatus("CREATE TABLE"), nil
}

func buildDropTable(tx *txn.Transaction, s *ast.DropTableStmt) (exec.Operator, error) {
	if err := tx.DropTable(s.Table); err != nil {
		return nil, err
	}
	return exec.NewStatus("DROP TABLE"), nil
}

// tableRefAdapter satisfies exec.TableRefLike for an ast.TableRef.
type tableRefAdapter struct{ ref ast.TableRef }

func (a tableRefAdapter) TableName() string { return a.ref.Name }
func (a tableRefAdapter) QualifierName() string {
	if a.ref.Alias != "" {
		return a.ref.Alias
	}
	return a.ref.Name
}

// buildFrom wires FROM plus every JOIN clause into a left-deep
// NestedLoopJoin chain (spec §4.7).
func buildFrom(tx *txn.Transaction, s *ast.SelectStmt) (exec.Operator, error) {
	left, err := exec.NewScan(tx, tableRefAdapter{s.From})
	if err != nil {
		return nil, err
	}
	var out exec.Operator = left
	for _, j := range s.Joins {
		right, err := exec.NewScan(tx, tableRefAdapter{j.Table})
		if err != nil {
			return nil, err
		}
		out = exec.NewNestedLoopJoin(out, right, j.Predicate)
	}
	return out, nil
}

func buildInsert(tx *txn.Transaction, s *ast.InsertStmt) (exec.Operator, error) {
	table, err := tx.ResolveTable(s.Table)
	if err != nil {
		return nil, err
	}

	columnIndices := make([]int, len(table.ColumnNames))
	if len(s.Columns) == 0 {
		for i := range columnIndices {
			columnIndices[i] = i
		}
	} else {
		for i := range columnIndices {
			columnIndices[i] = -1
		}
		for srcIdx, name := range s.Columns {
			pos := table.ColumnIndex(name)
			if pos < 0 {
				return nil, dberrors.New(dberrors.ValidationError, "unknown column %q in %q", name, s.Table)
			}
			columnIndices[pos] = srcIdx
		}
	}

	var source exec.Operator
	switch {
	case s.Select != nil:
		arity := len(s.Columns)
		if arity == 0 {
			arity = len(table.ColumnNames)
		}
		if len(s.Select.Columns) != arity && !(len(s.Select.Columns) == 1 && s.Select.Columns[0].Star) {
			return nil, dberrors.New(dberrors.ValidationError, "INSERT column count does not match SELECT column count")
		}
		src, err := buildSelect(tx, s.Select)
		if err != nil {
			return nil, err
		}
		source = src
	default:
		tuples := make([][]any, len(s.Values))
		arity := len(s.Columns)
		if arity == 0 {
			arity = len(table.ColumnNames)
		}
		emptySchema := &schema.Schema{}
		for i, exprs := range s.Values {
			if len(exprs) != arity {
				return nil, dberrors.New(dberrors.ValidationError, "INSERT value count does not match column count")
			}
			vals := make([]any, len(exprs))
			for j, e := range exprs {
				v, err := exec.Eval(emptySchema, row.Row{}, e)
				if err != nil {
					return nil, err
				}
				vals[j] = v
			}
			tuples[i] = vals
		}
		source = exec.NewValues(tuples)
	}

	return exec.NewInsert(tx, s.Table, source, columnIndices, table.ColumnTypes), nil
}

func buildDelete(tx *txn.Transaction, s *ast.DeleteStmt) (exec.Operator, error) {
	scan, err := exec.NewScan(tx, tableRefAdapter{ast.TableRef{Name: s.Table}})
	if err != nil {
		return nil, err
	}
	var child exec.Operator = scan
	if s.Where != nil {
		child = exec.NewFilter(child, s.Where)
	}
	return exec.NewDelete(tx, s.Table, child), nil
}

// isAggregateCall reports whether e is itself a bare aggregate function
// call (spec §4.6's scope: nested aggregate expressions such as
// SUM(x)+1 aren't supported by this engine).
func isAggregateCall(e ast.Expr) (*ast.FuncCall, bool) {
	fc, ok := e.(*ast.FuncCall)
	return fc, ok
}

func selectIsAggregate(s *ast.SelectStmt) bool {
	if len(s.GroupBy) > 0 {
		return true
	}
	for _, item := range s.Columns {
		if !item.Star {
			if _, ok := isAggregateCall(item.Expr); ok {
				return true
			}
		}
	}
	for _, ot := range s.OrderBy {
		if _, ok := isAggregateCall(ot.Expr); ok {
			return true
		}
	}
	return false
}

// exprDisplay renders the small subset of expressions that can appear as
// an aggregate argument back into source text for the canonical name
// spec §4.6 defines (FUNC(ARG)/FUNC(DISTINCT ARG)/FUNC(*)).
func exprDisplay(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.ColumnRef:
		if n.Qualifier != "" {
			return n.Qualifier + "." + n.Name
		}
		return n.Name
	case *ast.Literal:
		return toText(n.Value)
	case *ast.Star:
		return "*"
	case *ast.BinaryExpr:
		return exprDisplay(n.Left) + n.Op.String() + exprDisplay(n.Right)
	case *ast.FuncCall:
		return canonicalAggName(n)
	default:
		return "?"
	}
}

func toText(v any) string {
	switch n := v.(type) {
	case string:
		return n
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'g', -1, 64)
	default:
		return ""
	}
}

func canonicalAggName(fc *ast.FuncCall) string {
	fn := strings.ToUpper(fc.Name)
	var arg string
	if !fc.Star {
		arg = exprDisplay(fc.Arg)
	}
	return exec.CanonicalAggName(fn, fc.Distinct, fc.Star, arg)
}

// rewriteForAgg replaces a bare aggregate FuncCall with a reference to
// its already-computed output column; every other expression passes
// through unchanged (it must resolve directly against the aggregate's
// group-key columns).
func rewriteForAgg(e ast.Expr) ast.Expr {
	if fc, ok := e.(*ast.FuncCall); ok {
		return &ast.ColumnRef{Name: canonicalAggName(fc)}
	}
	return e
}

// buildAggregate collects every distinct aggregate call referenced by
// the select list or ORDER BY, plus the GROUP BY key extractors, all
// evaluated against base (the pre-aggregation schema), and wires them
// into a single exec.Aggregate over child.
func buildAggregate(child exec.Operator, s *ast.SelectStmt) (exec.Operator, error) {
	base := child.Schema()

	groupExtractors := make([]exec.Extractor, len(s.GroupBy))
	groupCols := make([]schema.ColumnIdentifier, len(s.GroupBy))
	for i, e := range s.GroupBy {
		expr := e
		groupExtractors[i] = func(r row.Row) (any, error) { return exec.Eval(base, r, expr) }
		if cr, ok := e.(*ast.ColumnRef); ok {
			groupCols[i] = schema.ColumnIdentifier{Name: cr.Name, Qualifier: cr.Qualifier}
		} else {
			groupCols[i] = schema.ColumnIdentifier{Name: "group" + itoa(i)}
		}
	}

	var specs []exec.AggSpec
	seen := make(map[string]bool)
	collect := func(e ast.Expr) error {
		fc, ok := isAggregateCall(e)
		if !ok {
			return nil
		}
		name := canonicalAggName(fc)
		if seen[name] {
			return nil
		}
		seen[name] = true
		spec := exec.AggSpec{
			Func:       strings.ToUpper(fc.Name),
			Distinct:   fc.Distinct,
			Star:       fc.Star,
			OutputName: name,
		}
		if !fc.Star {
			arg := fc.Arg
			spec.Extractor = func(r row.Row) (any, error) { return exec.Eval(base, r, arg) }
		}
		specs = append(specs, spec)
		return nil
	}
	for _, item := range s.Columns {
		if item.Star {
			continue
		}
		if err := collect(item.Expr); err != nil {
			return nil, err
		}
	}
	for _, ot := range s.OrderBy {
		if err := collect(ot.Expr); err != nil {
			return nil, err
		}
	}

	sch := &schema.Schema{Columns: append([]schema.ColumnIdentifier(nil), groupCols...)}
	for _, spec := range specs {
		sch.Columns = append(sch.Columns, schema.ColumnIdentifier{Name: spec.OutputName, IsAggregate: true})
	}

	return exec.NewAggregate(child, groupExtractors, specs, sch), nil
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

// buildProjection builds the select-list Projection over child,
// expanding bare `*` into one passthrough extractor per input column.
func buildProjection(child exec.Operator, s *ast.SelectStmt, aggregating bool) (exec.Operator, error) {
	sch := child.Schema()
	var extractors []exec.Extractor
	var outCols []schema.ColumnIdentifier

	for _, item := range s.Columns {
		if item.Star {
			for idx, c := range sch.Columns {
				i := idx
				extractors = append(extractors, func(r row.Row) (any, error) { return r[i], nil })
				outCols = append(outCols, c)
			}
			continue
		}
		e := item.Expr
		if aggregating {
			e = rewriteForAgg(e)
		}
		expr := e
		extractors = append(extractors, func(r row.Row) (any, error) { return exec.Eval(sch, r, expr) })
		outCols = append(outCols, outputColumn(e, item.Alias))
	}

	outSchema := &schema.Schema{Columns: outCols}
	return exec.NewProjection(child, extractors, outSchema), nil
}

func outputColumn(e ast.Expr, alias string) schema.ColumnIdentifier {
	switch n := e.(type) {
	case *ast.ColumnRef:
		return schema.ColumnIdentifier{Name: n.Name, Qualifier: n.Qualifier, Alias: alias}
	default:
		name := exprDisplay(e)
		return schema.ColumnIdentifier{Name: name, Alias: alias}
	}
}

// buildSelect wires the pipeline in the order _examples/original_source/
// queryplanner.py's _plan_select uses: WHERE, then [Aggregate], then
// ORDER BY/LIMIT evaluated against the pre-projection (or aggregate-
// output) row, and only then the select-list Projection — so an ORDER BY
// expression that isn't in the SELECT list still resolves. The one
// exception the Python original carves out is DISTINCT without GROUP BY,
// which projects immediately so DISTINCT dedups the actual output rows
// rather than the wider pre-projection row.
func buildSelect(tx *txn.Transaction, s *ast.SelectStmt) (exec.Operator, error) {
	var cur exec.Operator
	cur, err := buildFrom(tx, s)
	if err != nil {
		return nil, err
	}
	if s.Where != nil {
		cur = exec.NewFilter(cur, s.Where)
	}

	aggregating := selectIsAggregate(s)
	if aggregating {
		cur, err = buildAggregate(cur, s)
		if err != nil {
			return nil, err
		}
	}

	earlyProject := s.Distinct && len(s.GroupBy) == 0
	if earlyProject {
		cur, err = buildProjection(cur, s, aggregating)
		if err != nil {
			return nil, err
		}
		cur = exec.NewDistinct(cur)
	}

	if len(s.OrderBy) > 0 {
		sch := cur.Schema()
		keys := make([]exec.SortKey, len(s.OrderBy))
		for i, ot := range s.OrderBy {
			e := ot.Expr
			if aggregating {
				e = rewriteForAgg(e)
			}
			expr := e
			keys[i] = exec.SortKey{
				Extractor:  func(r row.Row) (any, error) { return exec.Eval(sch, r, expr) },
				Descending: ot.Descending,
			}
		}
		cur = exec.NewSorter(cur, keys)
	}

	if s.Limit != nil {
		cur = exec.NewLimit(cur, *s.Limit)
	}

	if !earlyProject {
		cur, err = buildProjection(cur, s, aggregating)
		if err != nil {
			return nil, err
		}
		if s.Distinct {
			cur = exec.NewDistinct(cur)
		}
	}

	return cur, nil
}

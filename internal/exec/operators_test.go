package exec

import (
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

func ageSchema() *schema.Schema {
	return &schema.Schema{Columns: []schema.ColumnIdentifier{{Name: "name"}, {Name: "age"}}}
}

func TestFilterKeepsMatchingRows(t *testing.T) {
	src := &sliceOperator{
		rows: []row.Row{{"Alice", int64(30)}, {"Bob", int64(17)}, {"Carol", int64(40)}},
		sch:  ageSchema(),
	}
	pred := &ast.BinaryExpr{Op: token.GTE, Left: &ast.ColumnRef{Name: "age"}, Right: &ast.Literal{Value: int64(18)}}
	f := NewFilter(src, pred)
	tuples := drainTuples(t, f)
	if len(tuples) != 2 {
		t.Fatalf("expected 2 rows over 18, got %d", len(tuples))
	}
	if tuples[0].Row[0] != "Alice" || tuples[1].Row[0] != "Carol" {
		t.Fatalf("unexpected filtered rows: %v", tuples)
	}
}

func TestDistinctDropsDuplicateRows(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{{int64(1)}, {int64(2)}, {int64(1)}, {int64(2)}, {int64(3)}}}
	d := NewDistinct(src)
	tuples := drainTuples(t, d)
	if len(tuples) != 3 {
		t.Fatalf("expected 3 distinct rows, got %d: %v", len(tuples), tuples)
	}
}

func TestLimitStopsPullingChild(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{{int64(1)}, {int64(2)}, {int64(3)}}}
	l := NewLimit(src, 2)
	tuples := drainTuples(t, l)
	if len(tuples) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tuples))
	}
	if src.idx != 2 {
		t.Fatalf("expected the child to have been pulled exactly twice, got %d", src.idx)
	}
}

func TestProjectionAppliesExtractorsInOrder(t *testing.T) {
	src := &sliceOperator{rows: []row.Row{{"Alice", int64(30)}}, sch: ageSchema()}
	sch := &schema.Schema{Columns: []schema.ColumnIdentifier{{Name: "age"}, {Name: "name"}}}
	p := NewProjection(src, []Extractor{col1, col0}, sch)
	tuples := drainTuples(t, p)
	if len(tuples) != 1 || tuples[0].Row[0] != int64(30) || tuples[0].Row[1] != "Alice" {
		t.Fatalf("unexpected projected row: %v", tuples)
	}
}

func TestNestedLoopJoinNonEquiPredicate(t *testing.T) {
	left := &sliceOperator{
		rows: []row.Row{{"Eve"}, {"Ada"}},
		sch:  &schema.Schema{Columns: []schema.ColumnIdentifier{{Name: "name"}}},
	}
	right := &sliceOperator{
		rows: []row.Row{{int64(1)}, {int64(2)}},
		sch:  &schema.Schema{Columns: []schema.ColumnIdentifier{{Name: "id"}}},
	}
	// ON 1=1: every left row pairs with every right row.
	pred := &ast.BinaryExpr{Op: token.EQ, Left: &ast.Literal{Value: int64(1)}, Right: &ast.Literal{Value: int64(1)}}
	join := NewNestedLoopJoin(left, right, pred)
	tuples := drainTuples(t, join)
	if len(tuples) != 4 {
		t.Fatalf("expected 2x2=4 combined rows, got %d", len(tuples))
	}
}

func TestNestedLoopJoinFiltersNonMatches(t *testing.T) {
	left := &sliceOperator{
		rows: []row.Row{{int64(1)}, {int64(2)}},
		sch:  &schema.Schema{Columns: []schema.ColumnIdentifier{{Qualifier: "a", Name: "id"}}},
	}
	right := &sliceOperator{
		rows: []row.Row{{int64(2)}, {int64(3)}},
		sch:  &schema.Schema{Columns: []schema.ColumnIdentifier{{Qualifier: "b", Name: "id"}}},
	}
	join := NewNestedLoopJoin(left, right, &ast.BinaryExpr{
		Op:    token.EQ,
		Left:  &ast.ColumnRef{Qualifier: "a", Name: "id"},
		Right: &ast.ColumnRef{Qualifier: "b", Name: "id"},
	})
	tuples := drainTuples(t, join)
	if len(tuples) != 1 {
		t.Fatalf("expected exactly the (2, 2) match, got %d rows: %v", len(tuples), tuples)
	}
	if tuples[0].Row[0] != int64(2) || tuples[0].Row[1] != int64(2) {
		t.Fatalf("unexpected joined row: %v", tuples[0])
	}
}

package parser

import (
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
)

func parseStmt(t *testing.T, sql string) ast.Statement {
	t.Helper()
	stmt, _, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sql, err)
	}
	return stmt
}

func TestParseCreateTable(t *testing.T) {
	stmt := parseStmt(t, "CREATE TABLE users (id INT, name TEXT);")
	ct, ok := stmt.(*ast.CreateTableStmt)
	if !ok {
		t.Fatalf("expected *ast.CreateTableStmt, got %T", stmt)
	}
	if ct.Table != "users" || len(ct.Columns) != 2 {
		t.Fatalf("unexpected CreateTableStmt: %+v", ct)
	}
	if ct.Columns[0].Name != "id" || ct.Columns[0].Type != "INT" {
		t.Fatalf("unexpected first column: %+v", ct.Columns[0])
	}
}

func TestParseSelectWithWhereAndOrderBy(t *testing.T) {
	stmt := parseStmt(t, "SELECT id, name FROM users WHERE age > 18 ORDER BY name DESC LIMIT 5;")
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		t.Fatalf("expected *ast.SelectStmt, got %T", stmt)
	}
	if len(sel.Columns) != 2 || sel.Columns[0].Star {
		t.Fatalf("unexpected select list: %+v", sel.Columns)
	}
	where, ok := sel.Where.(*ast.BinaryExpr)
	if !ok || where.Op != token.GT {
		t.Fatalf("expected a '>' comparison in WHERE, got %+v", sel.Where)
	}
	if len(sel.OrderBy) != 1 || !sel.OrderBy[0].Descending {
		t.Fatalf("expected a single descending ORDER BY term, got %+v", sel.OrderBy)
	}
	if sel.Limit == nil || *sel.Limit != 5 {
		t.Fatalf("expected LIMIT 5, got %v", sel.Limit)
	}
}

// Precedence: multiplication binds tighter than addition even without
// parentheses, and parentheses reset precedence (spec §4.5).
func TestExpressionPrecedence(t *testing.T) {
	stmt := parseStmt(t, "SELECT 1 + 2 * 3 FROM t;")
	sel := stmt.(*ast.SelectStmt)
	top, ok := sel.Columns[0].Expr.(*ast.BinaryExpr)
	if !ok || top.Op != token.PLUS {
		t.Fatalf("expected top-level '+', got %+v", sel.Columns[0].Expr)
	}
	rhs, ok := top.Right.(*ast.BinaryExpr)
	if !ok || rhs.Op != token.STAR {
		t.Fatalf("expected '2 * 3' grouped on the right of '+', got %+v", top.Right)
	}
}

func TestParseJoinOnNonEquiPredicate(t *testing.T) {
	stmt := parseStmt(t, "SELECT e.name, c.id FROM employee AS e JOIN contract AS c ON 1 = 1;")
	sel := stmt.(*ast.SelectStmt)
	if sel.From.Alias != "e" {
		t.Fatalf("expected FROM alias 'e', got %+v", sel.From)
	}
	if len(sel.Joins) != 1 || sel.Joins[0].Table.Alias != "c" {
		t.Fatalf("unexpected joins: %+v", sel.Joins)
	}
}

func TestParseAggregateFuncCall(t *testing.T) {
	stmt := parseStmt(t, "SELECT city, COUNT(*) FROM users GROUP BY city;")
	sel := stmt.(*ast.SelectStmt)
	fc, ok := sel.Columns[1].Expr.(*ast.FuncCall)
	if !ok || !fc.Star || fc.Name != "COUNT" {
		t.Fatalf("expected COUNT(*) func call, got %+v", sel.Columns[1].Expr)
	}
	if len(sel.GroupBy) != 1 {
		t.Fatalf("expected one GROUP BY term, got %v", sel.GroupBy)
	}
}

func TestParseInsertValues(t *testing.T) {
	stmt := parseStmt(t, "INSERT INTO t (a, b) VALUES (1, 'x');")
	ins, ok := stmt.(*ast.InsertStmt)
	if !ok {
		t.Fatalf("expected *ast.InsertStmt, got %T", stmt)
	}
	if len(ins.Columns) != 2 || len(ins.Values) != 1 || len(ins.Values[0]) != 2 {
		t.Fatalf("unexpected InsertStmt shape: %+v", ins)
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, _, err := Parse("SELECT FROM;")
	if err == nil {
		t.Fatalf("expected a syntax error for a missing select list")
	}
}

package exec

import (
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// Status emits a single row carrying a status string; used by DDL and
// transaction-control statements (spec §4.7).
type Status struct {
	text    string
	emitted bool
}

func NewStatus(text string) *Status { return &Status{text: text} }

func (s *Status) Schema() *schema.Schema { return statusSchema }

func (s *Status) Next() (Tuple, bool, error) {
	if s.emitted {
		return Tuple{}, false, nil
	}
	s.emitted = true
	return Tuple{Row: row.Row{s.text}}, true, nil
}

// Values streams a literal VALUES tuple list as if it were a Scan. The
// planner evaluates each expression against an empty schema (VALUES tuples
// contain no column references) before handing the values over. Used as
// Insert's source operator for `INSERT INTO t VALUES (...)`.
type Values struct {
	rows []row.Row
	idx  int
	sch  *schema.Schema
}

// NewValues wraps already-evaluated literal tuples so Insert's source
// operator has the same pull-based Next() contract as any other child.
func NewValues(tuples [][]any) *Values {
	sch := &schema.Schema{}
	if len(tuples) > 0 {
		for i := range tuples[0] {
			sch.Columns = append(sch.Columns, schema.ColumnIdentifier{Name: columnPlaceholder(i)})
		}
	}
	rows := make([]row.Row, len(tuples))
	for i, t := range tuples {
		r := make(row.Row, len(t))
		for j, v := range t {
			r[j] = v
		}
		rows[i] = r
	}
	return &Values{rows: rows, sch: sch}
}

func columnPlaceholder(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "col" + string(letters[i%len(letters)])
}

func (v *Values) Schema() *schema.Schema { return v.sch }

func (v *Values) Next() (Tuple, bool, error) {
	if v.idx >= len(v.rows) {
		return Tuple{}, false, nil
	}
	r := v.rows[v.idx]
	v.idx++
	return Tuple{Row: r}, true, nil
}

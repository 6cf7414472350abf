package exec

import (
	"fmt"

	"github.com/SimonWaldherr/tinyrel/internal/catalog"
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
	"github.com/SimonWaldherr/tinyrel/internal/txn"
)

var statusSchema = &schema.Schema{Columns: []schema.ColumnIdentifier{{Name: "status"}}}

// Insert constructs a full-arity row for each source tuple by mapping
// source positions through columnIndices (nulls where no source column
// maps), coercing each mapped value to the target column's declared
// type (spec §3), appending to the table's shadow pages and allocating
// a new one when the current page is full (spec §4.7). Emits one status
// row on completion.
type Insert struct {
	tx            *txn.Transaction
	tableName     string
	source        Operator
	columnIndices []int // length == table arity; -1 means "no source column maps here"
	colTypes      []catalog.ColType

	done    bool
	emitted bool
	count   int
}

func NewInsert(tx *txn.Transaction, tableName string, source Operator, columnIndices []int, colTypes []catalog.ColType) *Insert {
	return &Insert{tx: tx, tableName: tableName, source: source, columnIndices: columnIndices, colTypes: colTypes}
}

func (i *Insert) Schema() *schema.Schema { return statusSchema }

func (i *Insert) Next() (Tuple, bool, error) {
	if i.emitted {
		return Tuple{}, false, nil
	}
	for !i.done {
		t, ok, err := i.source.Next()
		if err != nil {
			return Tuple{}, false, err
		}
		if !ok {
			i.done = true
			break
		}
		full := make(row.Row, len(i.columnIndices))
		for pos, srcIdx := range i.columnIndices {
			if srcIdx < 0 || srcIdx >= len(t.Row) {
				full[pos] = nil
				continue
			}
			v, err := catalog.Coerce(t.Row[srcIdx], i.colTypes[pos])
			if err != nil {
				return Tuple{}, false, err
			}
			full[pos] = v
		}
		if err := i.tx.InsertRow(i.tableName, full); err != nil {
			return Tuple{}, false, err
		}
		i.count++
	}
	i.emitted = true
	return Tuple{Row: row.Row{fmt.Sprintf("INSERT %d", i.count)}}, true, nil
}

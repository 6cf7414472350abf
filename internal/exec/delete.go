package exec

import (
	"fmt"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
	"github.com/SimonWaldherr/tinyrel/internal/txn"
)

// Delete consumes (row, page_id, row_index) triples from child, groups
// them by page id, copy-on-writes each affected page once, and removes
// the listed row indices (spec §4.7). Emits a status row with the
// deleted count.
type Delete struct {
	tx        *txn.Transaction
	tableName string
	child     Operator

	emitted bool
}

func NewDelete(tx *txn.Transaction, tableName string, child Operator) *Delete {
	return &Delete{tx: tx, tableName: tableName, child: child}
}

func (d *Delete) Schema() *schema.Schema { return statusSchema }

func (d *Delete) Next() (Tuple, bool, error) {
	if d.emitted {
		return Tuple{}, false, nil
	}
	byPage := make(map[page.ID][]int)
	var pageOrder []page.ID
	for {
		t, ok, err := d.child.Next()
		if err != nil {
			return Tuple{}, false, err
		}
		if !ok {
			break
		}
		if !t.Origin.Valid {
			return Tuple{}, false, dberrors.New(dberrors.RuntimeError, "DELETE requires rows with a physical origin")
		}
		if _, seen := byPage[t.Origin.PageID]; !seen {
			pageOrder = append(pageOrder, t.Origin.PageID)
		}
		byPage[t.Origin.PageID] = append(byPage[t.Origin.PageID], t.Origin.RowIndex)
	}

	total := 0
	for _, pid := range pageOrder {
		n, err := d.tx.DeleteRows(d.tableName, pid, byPage[pid])
		if err != nil {
			return Tuple{}, false, err
		}
		total += n
	}
	d.emitted = true
	return Tuple{Row: row.Row{fmt.Sprintf("DELETE %d", total)}}, true, nil
}

package exec

import (
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
	"github.com/SimonWaldherr/tinyrel/internal/txn"
)

// Scan iterates a table's pages in page-list order, and each page's rows
// in storage order, tagging every row with its physical origin (spec
// §4.7).
type Scan struct {
	tx        *txn.Transaction
	tableName string
	sch       *schema.Schema

	pageIDs []page.ID
	pageIdx int
	curRows []row.Row
	rowIdx  int
	curPage page.ID
}

// NewScan resolves tableRef through tx and builds a Scan operator whose
// schema carries qualifier = alias-or-table-name (spec §4.6).
func NewScan(tx *txn.Transaction, tableRef TableRefLike) (*Scan, error) {
	t, err := tx.ResolveTable(tableRef.TableName())
	if err != nil {
		return nil, err
	}
	qualifier := tableRef.QualifierName()
	sch := &schema.Schema{}
	for _, name := range t.ColumnNames {
		sch.Columns = append(sch.Columns, schema.ColumnIdentifier{
			Name:      name,
			Qualifier: qualifier,
		})
	}
	pageIDs, err := tx.ScanPageIDs(tableRef.TableName())
	if err != nil {
		return nil, err
	}
	return &Scan{tx: tx, tableName: strings.ToLower(tableRef.TableName()), sch: sch, pageIDs: pageIDs}, nil
}

// TableRefLike is the minimal surface Scan needs from an ast.TableRef,
// kept as an interface here so exec doesn't need to import ast directly.
type TableRefLike interface {
	TableName() string
	QualifierName() string
}

func (s *Scan) Schema() *schema.Schema { return s.sch }

func (s *Scan) loadPage(id page.ID) error {
	p, err := s.tx.FetchPages([]page.ID{id})
	if err != nil {
		return err
	}
	rows, err := txn.DecodePageRows(p[0])
	if err != nil {
		return err
	}
	s.curRows = rows
	s.rowIdx = 0
	s.curPage = id
	return nil
}

func (s *Scan) Next() (Tuple, bool, error) {
	for {
		if s.rowIdx >= len(s.curRows) {
			if s.pageIdx >= len(s.pageIDs) {
				return Tuple{}, false, nil
			}
			id := s.pageIDs[s.pageIdx]
			s.pageIdx++
			if err := s.loadPage(id); err != nil {
				return Tuple{}, false, err
			}
			continue
		}
		r := s.curRows[s.rowIdx]
		origin := Origin{PageID: s.curPage, RowIndex: s.rowIdx, Valid: true}
		s.rowIdx++
		return Tuple{Row: r, Origin: origin}, true, nil
	}
}

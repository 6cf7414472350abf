// Package txn implements shadow-paging transactions: copy-on-write table
// metadata and pages, atomic commit, and page-id-recycling rollback
// (spec §4.4). The teacher's pager has no equivalent (tinySQL uses WAL
// replay for crash recovery, not shadow copies), so this package is new
// code; it borrows the BeginTx/CommitTx/AbortTx lifecycle naming from
// tinySQL's internal/storage/pager/pager.go and otherwise follows spec §4.4
// and its Design Notes directly (Transaction owns the shadow-table map;
// ShadowTable stores only names, breaking the cyclic back-reference the
// original source has).
package txn

import (
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/SimonWaldherr/tinyrel/internal/catalog"
	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/storage/buffer"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// ShadowTable is a transaction-local, mutable copy of a Table's metadata.
// Tombstone marks "dropped by this txn" (spec §4.4.1).
type ShadowTable struct {
	Table     catalog.Table
	Tombstone bool
}

// Transaction holds the shadow state for one in-flight transaction (spec
// §4.4). The engine is single-threaded and cooperative (spec §5): no
// internal locking is needed here, unlike the shared BufferPool/Catalog.
type Transaction struct {
	id       int64
	cat      *catalog.Catalog
	pool     *buffer.Pool
	pageSize int

	shadows     map[string]*ShadowTable
	obtained    []page.ID
	obtainedSet map[page.ID]struct{}
	freed       []page.ID
	terminated  bool

	log *logrus.Entry
}

// New begins a transaction with the given id over cat/pool.
func New(id int64, cat *catalog.Catalog, pool *buffer.Pool, pageSize int) *Transaction {
	return &Transaction{
		id:          id,
		cat:         cat,
		pool:        pool,
		pageSize:    pageSize,
		shadows:     make(map[string]*ShadowTable),
		obtainedSet: make(map[page.ID]struct{}),
		log:         logrus.WithField("component", "txn"),
	}
}

func (tx *Transaction) ID() int64        { return tx.id }
func (tx *Transaction) Terminated() bool { return tx.terminated }

func (tx *Transaction) owned(id page.ID) bool {
	_, ok := tx.obtainedSet[id]
	return ok
}

func (tx *Transaction) trackObtained(id page.ID) {
	tx.obtained = append(tx.obtained, id)
	tx.obtainedSet[id] = struct{}{}
}

// ResolveTable returns the table's current view for this transaction:
// the shadow copy if one exists (erroring if it's a tombstone), else the
// live catalog entry (spec §4.4.1: "reads consult shadow first, then the
// live catalog").
func (tx *Transaction) ResolveTable(name string) (*catalog.Table, error) {
	key := strings.ToLower(name)
	if st, ok := tx.shadows[key]; ok {
		if st.Tombstone {
			return nil, dberrors.New(dberrors.ValidationError, "no such table %q", name)
		}
		return &st.Table, nil
	}
	if t, ok := tx.cat.GetTableByName(key); ok {
		return t, nil
	}
	return nil, dberrors.New(dberrors.ValidationError, "no such table %q", name)
}

// materialize returns the writable ShadowTable for name, copying it from
// the live catalog on first mention (spec §4.4.1).
func (tx *Transaction) materialize(name string) (*ShadowTable, error) {
	key := strings.ToLower(name)
	if st, ok := tx.shadows[key]; ok {
		if st.Tombstone {
			return nil, dberrors.New(dberrors.ValidationError, "no such table %q", name)
		}
		return st, nil
	}
	t, ok := tx.cat.GetTableByName(key)
	if !ok {
		return nil, dberrors.New(dberrors.ValidationError, "no such table %q", name)
	}
	st := &ShadowTable{Table: *t.Clone()}
	tx.shadows[key] = st
	return st, nil
}

// CreateTable registers a brand-new table as a shadow, visible only to
// this transaction until commit.
func (tx *Transaction) CreateTable(name string, colNames []string, colTypes []catalog.ColType) error {
	key := strings.ToLower(name)
	if st, ok := tx.shadows[key]; ok && !st.Tombstone {
		return dberrors.New(dberrors.ValidationError, "table %q already exists", name)
	}
	if _, ok := tx.shadows[key]; !ok {
		if _, ok := tx.cat.GetTableByName(key); ok {
			return dberrors.New(dberrors.ValidationError, "table %q already exists", name)
		}
	}
	tx.shadows[key] = &ShadowTable{Table: catalog.Table{
		Name:        key,
		ColumnNames: colNames,
		ColumnTypes: colTypes,
	}}
	return nil
}

// DropTable tombstones name for the remainder of this transaction.
func (tx *Transaction) DropTable(name string) error {
	key := strings.ToLower(name)
	if _, err := tx.ResolveTable(key); err != nil {
		return err
	}
	if st, ok := tx.shadows[key]; ok {
		st.Tombstone = true
		return nil
	}
	tx.shadows[key] = &ShadowTable{Table: catalog.Table{Name: key}, Tombstone: true}
	return nil
}

// ScanPageIDs returns the ordered page ids currently backing a table,
// resolved through this transaction (spec §4.7 Scan iterates in this
// order).
func (tx *Transaction) ScanPageIDs(name string) ([]page.ID, error) {
	t, err := tx.ResolveTable(name)
	if err != nil {
		return nil, err
	}
	return append([]page.ID(nil), t.PageIDs...), nil
}

// FetchPages resolves a run of page ids through the buffer pool.
func (tx *Transaction) FetchPages(ids []page.ID) ([]*page.Page, error) {
	return tx.pool.GetPages(ids)
}

// DecodePageRows decodes a page's row payload.
func DecodePageRows(p *page.Page) ([]row.Row, error) { return row.DecodeRows(p.Payload) }

func isDateTimeColFn(t *catalog.Table) func(int) bool {
	return func(i int) bool {
		return i >= 0 && i < len(t.ColumnTypes) && t.ColumnTypes[i] == catalog.DateTimeType
	}
}

func ordinalOf(ids []page.ID, id page.ID) (int, bool) {
	for i, x := range ids {
		if x == id {
			return i, true
		}
	}
	return -1, false
}

// copyOnWriteOrOwned returns a writable *page.Page for id within st,
// copying it on write (spec §4.4.2) unless this transaction already owns
// it, in which case the existing ShadowPage is returned directly.
func (tx *Transaction) copyOnWriteOrOwned(st *ShadowTable, id page.ID) (*page.Page, error) {
	if tx.owned(id) {
		return tx.pool.GetPage(id)
	}
	ordinal, ok := ordinalOf(st.Table.PageIDs, id)
	if !ok {
		return nil, dberrors.New(dberrors.RuntimeError, "page %d not part of table %q", id, st.Table.Name)
	}
	orig, err := tx.pool.GetPage(id)
	if err != nil {
		return nil, err
	}
	newID := tx.cat.GetFreePageID(tx.id)
	tx.trackObtained(newID)

	rows, err := row.DecodeRows(orig.Payload)
	if err != nil {
		return nil, err
	}
	copied := make([]row.Row, len(rows))
	for i, r := range rows {
		copied[i] = r.Clone()
	}
	payload := row.EncodeRows(copied, isDateTimeColFn(&st.Table))
	newPage := page.New(newID, payload)

	st.Table.PageIDs[ordinal] = newID
	tx.freed = append(tx.freed, id)
	if err := tx.pool.Put(newPage); err != nil {
		return nil, err
	}
	return newPage, nil
}

// AppendNewPage allocates a fresh empty ShadowPage and appends it to st's
// page list (spec §4.4.3).
func (tx *Transaction) AppendNewPage(st *ShadowTable) (*page.Page, error) {
	newID := tx.cat.GetFreePageID(tx.id)
	tx.trackObtained(newID)
	p := page.New(newID, row.EncodeRows(nil, isDateTimeColFn(&st.Table)))
	st.Table.PageIDs = append(st.Table.PageIDs, newID)
	if err := tx.pool.Put(p); err != nil {
		return nil, err
	}
	return p, nil
}

// InsertRow appends r to tableName's last page, copy-on-writing it first
// if needed, allocating a new page when it's full (spec §4.7 Insert).
func (tx *Transaction) InsertRow(tableName string, r row.Row) error {
	st, err := tx.materialize(tableName)
	if err != nil {
		return err
	}
	isDT := isDateTimeColFn(&st.Table)

	if len(st.Table.PageIDs) == 0 {
		p, err := tx.AppendNewPage(st)
		if err != nil {
			return err
		}
		return tx.appendRowToPage(p, r, isDT, true)
	}

	lastID := st.Table.PageIDs[len(st.Table.PageIDs)-1]
	p, err := tx.copyOnWriteOrOwned(st, lastID)
	if err != nil {
		return err
	}
	if err := tx.appendRowToPage(p, r, isDT, false); err != nil {
		if dberrors.KindOf(err) == dberrors.PageOverflow {
			np, aerr := tx.AppendNewPage(st)
			if aerr != nil {
				return aerr
			}
			return tx.appendRowToPage(np, r, isDT, true)
		}
		return err
	}
	return nil
}

func (tx *Transaction) appendRowToPage(p *page.Page, r row.Row, isDT func(int) bool, freshEmpty bool) error {
	rows, err := row.DecodeRows(p.Payload)
	if err != nil {
		return err
	}
	rows = append(rows, r)
	payload := row.EncodeRows(rows, isDT)
	if len(payload) > tx.pageSize-page.HeaderSize {
		if freshEmpty {
			return dberrors.New(dberrors.PageOverflow, "row does not fit an empty page")
		}
		return dberrors.New(dberrors.PageOverflow, "row does not fit current page")
	}
	p.Payload = payload
	return tx.pool.Put(p)
}

// DeleteRows removes the given row indices (within page pageID, as
// originally scanned) from tableName, copy-on-writing the page first,
// and returns how many rows were removed (spec §4.7 Delete).
func (tx *Transaction) DeleteRows(tableName string, pageID page.ID, indices []int) (int, error) {
	st, err := tx.materialize(tableName)
	if err != nil {
		return 0, err
	}
	p, err := tx.copyOnWriteOrOwned(st, pageID)
	if err != nil {
		return 0, err
	}
	rows, err := row.DecodeRows(p.Payload)
	if err != nil {
		return 0, err
	}
	toDelete := append([]int(nil), indices...)
	sort.Sort(sort.Reverse(sort.IntSlice(toDelete)))
	n := 0
	for _, idx := range toDelete {
		if idx < 0 || idx >= len(rows) {
			continue
		}
		rows = append(rows[:idx], rows[idx+1:]...)
		n++
	}
	p.Payload = row.EncodeRows(rows, isDateTimeColFn(&st.Table))
	if err := tx.pool.Put(p); err != nil {
		return 0, err
	}
	return n, nil
}

// Commit realizes every shadow mutation into the catalog atomically from
// the caller's point of view, then releases freed pages (spec §4.4.4).
// Repeated calls after the first are idempotent no-ops.
func (tx *Transaction) Commit() error {
	if tx.terminated {
		return nil
	}
	for name, st := range tx.shadows {
		if st.Tombstone {
			if _, ok := tx.cat.GetTableByName(name); ok {
				if err := tx.cat.DropTableByName(name); err != nil {
					return err
				}
			}
			continue
		}
		realized := st.Table.Clone()
		tx.cat.CreateOrReplaceTable(realized)
	}
	tx.cat.ReturnPageIDs(tx.freed)
	tx.cat.ClearBorrowed(tx.id)
	tx.terminated = true
	tx.log.WithField("txn_id", tx.id).Debug("committed")
	return nil
}

// Rollback discards all shadow state and returns every page id this
// transaction obtained to the free list (spec §4.4.5).
func (tx *Transaction) Rollback() error {
	if tx.terminated {
		return nil
	}
	tx.cat.ReturnPageIDs(tx.obtained)
	tx.cat.ClearBorrowed(tx.id)
	for _, id := range tx.obtained {
		tx.pool.Drop(id)
	}
	tx.shadows = nil
	tx.freed = nil
	tx.terminated = true
	tx.log.WithField("txn_id", tx.id).Debug("rolled back")
	return nil
}

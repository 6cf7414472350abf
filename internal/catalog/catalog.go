// Package catalog implements the system table persisted as page 0: table
// metadata, the free-page-id list, and the monotone page-id allocator.
// Serialization follows tinySQL's internal/storage/db.go convention of
// gob-encoding structured values rather than a hand-rolled binary format;
// the shape itself (name→Table map, free-list, max-id, borrowed-ids) is
// flattened from tinySQL's B+Tree-backed pager/catalog.go +
// pager/freelist.go down to the plain in-memory maps spec.md §3 asks for,
// since this engine has no secondary index to maintain.
package catalog

import (
	"bytes"
	"encoding/gob"
	"sort"
	"strings"
	"sync"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
)

// ColType is one of the four column types the engine understands.
type ColType uint8

const (
	IntType ColType = iota
	TextType
	DateType
	DateTimeType
)

func (t ColType) String() string {
	switch t {
	case IntType:
		return "INT"
	case TextType:
		return "TEXT"
	case DateType:
		return "DATE"
	case DateTimeType:
		return "DATETIME"
	default:
		return "UNKNOWN"
	}
}

// ParseColType maps a canonical uppercase type keyword to a ColType.
func ParseColType(s string) (ColType, bool) {
	switch strings.ToUpper(s) {
	case "INT":
		return IntType, true
	case "TEXT":
		return TextType, true
	case "DATE":
		return DateType, true
	case "DATETIME":
		return DateTimeType, true
	default:
		return 0, false
	}
}

// Table is the persisted metadata for one relation (spec §3).
type Table struct {
	Name        string
	ColumnNames []string
	ColumnTypes []ColType
	PageIDs     []page.ID
}

func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name}
	c.ColumnNames = append([]string(nil), t.ColumnNames...)
	c.ColumnTypes = append([]ColType(nil), t.ColumnTypes...)
	c.PageIDs = append([]page.ID(nil), t.PageIDs...)
	return c
}

// ColumnIndex returns the ordinal position of name in the table, or -1.
func (t *Table) ColumnIndex(name string) int {
	name = strings.ToLower(name)
	for i, c := range t.ColumnNames {
		if c == name {
			return i
		}
	}
	return -1
}

// Catalog is the in-memory, persistable system table (spec §3). All
// mutation happens in memory; ToPage/FromPage are the sole persistence
// boundary.
type Catalog struct {
	mu sync.Mutex

	Tables          map[string]*Table
	FreePageIDs     map[page.ID]struct{}
	MaxPageID       page.ID
	BorrowedPageIDs map[int64][]page.ID
}

// Empty constructs a fresh catalog with page 0 reserved (spec §3: "Page 0
// is reserved for the catalog and never appears in any table").
func Empty() *Catalog {
	return &Catalog{
		Tables:          make(map[string]*Table),
		FreePageIDs:     make(map[page.ID]struct{}),
		MaxPageID:       page.CatalogPageID,
		BorrowedPageIDs: make(map[int64][]page.ID),
	}
}

// GetTableByName looks up a table by case-insensitive name.
func (c *Catalog) GetTableByName(name string) (*Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.Tables[strings.ToLower(name)]
	return t, ok
}

// AddNewTable registers a brand-new table. Returns ValidationError if one
// already exists under that name.
func (c *Catalog) AddNewTable(t *Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(t.Name)
	if _, exists := c.Tables[key]; exists {
		return dberrors.New(dberrors.ValidationError, "table %q already exists", t.Name)
	}
	t.Name = key
	c.Tables[key] = t
	return nil
}

// DropTableByName removes a table and returns its page ids to the free
// list (spec §4.4.4 step 1).
func (c *Catalog) DropTableByName(name string) error {
	c.mu.Lock()
	key := strings.ToLower(name)
	t, ok := c.Tables[key]
	if !ok {
		c.mu.Unlock()
		return dberrors.New(dberrors.ValidationError, "no such table %q", name)
	}
	delete(c.Tables, key)
	ids := append([]page.ID(nil), t.PageIDs...)
	c.mu.Unlock()
	c.ReturnPageIDs(ids)
	return nil
}

// CreateOrReplaceTable installs realized as the live entry for its name,
// used by commit to publish a ShadowTable's final state (spec §4.4.4
// step 2).
func (c *Catalog) CreateOrReplaceTable(realized *Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := strings.ToLower(realized.Name)
	realized.Name = key
	c.Tables[key] = realized
}

// GetFreePageID returns the smallest reusable page id, else
// max_page_id+1, recording the allocation under txnID (spec §4.3).
func (c *Catalog) GetFreePageID(txnID int64) page.ID {
	c.mu.Lock()
	defer c.mu.Unlock()

	var id page.ID
	if len(c.FreePageIDs) > 0 {
		ids := make([]page.ID, 0, len(c.FreePageIDs))
		for fid := range c.FreePageIDs {
			ids = append(ids, fid)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		id = ids[0]
		delete(c.FreePageIDs, id)
	} else {
		c.MaxPageID++
		id = c.MaxPageID
	}
	c.BorrowedPageIDs[txnID] = append(c.BorrowedPageIDs[txnID], id)
	return id
}

// ReturnPageIDs puts ids back on the free list (used by both rollback
// and commit-of-freed-predecessors, spec §4.3).
func (c *Catalog) ReturnPageIDs(ids []page.ID) {
	if len(ids) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		if id == page.CatalogPageID {
			continue
		}
		c.FreePageIDs[id] = struct{}{}
	}
}

// ClearBorrowed drops txnID's borrowed-page-id bookkeeping, called once
// its allocations have either been returned (rollback) or published
// (commit) — spec's transaction laws require borrowed_page_ids[T] to be
// empty after either outcome.
func (c *Catalog) ClearBorrowed(txnID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.BorrowedPageIDs, txnID)
}

// Borrowed returns a copy of the page ids this txn has obtained so far.
func (c *Catalog) Borrowed(txnID int64) []page.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]page.ID(nil), c.BorrowedPageIDs[txnID]...)
}

// gobTable/gobCatalog are the wire shapes gob-encodes; kept distinct from
// Table/Catalog so the sync.Mutex never has to implement GobEncode.
type gobTable struct {
	Name        string
	ColumnNames []string
	ColumnTypes []ColType
	PageIDs     []page.ID
}

type gobCatalog struct {
	Tables          map[string]*gobTable
	FreePageIDs     []page.ID
	MaxPageID       page.ID
	BorrowedPageIDs map[int64][]page.ID
}

// ToPage serializes the catalog into page 0's payload (spec §3, §4.3).
func (c *Catalog) ToPage() (*page.Page, error) {
	c.mu.Lock()
	gc := gobCatalog{
		Tables:          make(map[string]*gobTable, len(c.Tables)),
		MaxPageID:       c.MaxPageID,
		BorrowedPageIDs: c.BorrowedPageIDs,
	}
	for name, t := range c.Tables {
		gc.Tables[name] = &gobTable{Name: t.Name, ColumnNames: t.ColumnNames, ColumnTypes: t.ColumnTypes, PageIDs: t.PageIDs}
	}
	for id := range c.FreePageIDs {
		gc.FreePageIDs = append(gc.FreePageIDs, id)
	}
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&gc); err != nil {
		return nil, dberrors.Wrap(dberrors.RuntimeError, err, "encode catalog")
	}
	return page.New(page.CatalogPageID, buf.Bytes()), nil
}

// FromPage decodes a Catalog from page 0's payload.
func FromPage(p *page.Page) (*Catalog, error) {
	var gc gobCatalog
	if err := gob.NewDecoder(bytes.NewReader(p.Payload)).Decode(&gc); err != nil {
		return nil, dberrors.Wrap(dberrors.StorageCorrupt, err, "decode catalog page")
	}
	c := Empty()
	c.MaxPageID = gc.MaxPageID
	if gc.BorrowedPageIDs != nil {
		c.BorrowedPageIDs = gc.BorrowedPageIDs
	}
	for name, gt := range gc.Tables {
		c.Tables[name] = &Table{Name: gt.Name, ColumnNames: gt.ColumnNames, ColumnTypes: gt.ColumnTypes, PageIDs: gt.PageIDs}
	}
	for _, id := range gc.FreePageIDs {
		c.FreePageIDs[id] = struct{}{}
	}
	return c, nil
}

// SeedBytes returns the encoded empty-catalog payload used to bootstrap a
// freshly created database file (spec §4.1).
func SeedBytes(pageSize int) []byte {
	empty := Empty()
	p, err := empty.ToPage()
	if err != nil {
		panic(err) // encoding an empty catalog cannot fail
	}
	return p.Payload
}

package txn

import (
	"path/filepath"
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/catalog"
	"github.com/SimonWaldherr/tinyrel/internal/storage/buffer"
	"github.com/SimonWaldherr/tinyrel/internal/storage/disk"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

const testPageSize = 256

func newHarness(t *testing.T) (*catalog.Catalog, *buffer.Pool) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "txn.db")
	d, err := disk.Open(path, testPageSize, func() []byte { return catalog.SeedBytes(testPageSize) })
	if err != nil {
		t.Fatalf("disk.Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	pool := buffer.New(d, 16)
	return catalog.Empty(), pool
}

func TestCreateTableNotVisibleUntilCommit(t *testing.T) {
	cat, pool := newHarness(t)
	tx := New(1, cat, pool, testPageSize)

	if err := tx.CreateTable("t", []string{"a"}, []catalog.ColType{catalog.IntType}); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, ok := cat.GetTableByName("t"); ok {
		t.Fatalf("table must not be visible in the live catalog before commit")
	}
	if _, err := tx.ResolveTable("t"); err != nil {
		t.Fatalf("ResolveTable should see the transaction's own shadow: %v", err)
	}

	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, ok := cat.GetTableByName("t"); !ok {
		t.Fatalf("table must be visible in the live catalog after commit")
	}
}

func TestInsertThenRollbackLeavesNoTrace(t *testing.T) {
	cat, pool := newHarness(t)

	setup := New(1, cat, pool, testPageSize)
	setup.CreateTable("t", []string{"a"}, []catalog.ColType{catalog.IntType})
	setup.Commit()

	tx := New(2, cat, pool, testPageSize)
	if err := tx.InsertRow("t", row.Row{int64(1)}); err != nil {
		t.Fatalf("InsertRow: %v", err)
	}
	obtained := len(tx.obtained)
	if obtained == 0 {
		t.Fatalf("expected the insert to have obtained at least one page")
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	reader := New(3, cat, pool, testPageSize)
	ids, err := reader.ScanPageIDs("t")
	if err != nil {
		t.Fatalf("ScanPageIDs: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected the rolled-back insert's page to not be linked into the table, got %v", ids)
	}
	if len(cat.Borrowed(2)) != 0 {
		t.Fatalf("borrowed page ids for txn 2 must be cleared after rollback")
	}
}

func TestCopyOnWriteAllocatesOncePerPagePerTxn(t *testing.T) {
	cat, pool := newHarness(t)

	setup := New(1, cat, pool, testPageSize)
	setup.CreateTable("t", []string{"a"}, []catalog.ColType{catalog.IntType})
	setup.InsertRow("t", row.Row{int64(1)})
	setup.Commit()

	tx := New(2, cat, pool, testPageSize)
	if err := tx.InsertRow("t", row.Row{int64(2)}); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	afterFirst := len(tx.obtained)
	if err := tx.InsertRow("t", row.Row{int64(3)}); err != nil {
		t.Fatalf("second insert: %v", err)
	}
	afterSecond := len(tx.obtained)
	if afterSecond != afterFirst {
		t.Fatalf("expected no new page obtained for a second write to an already-owned page: %d -> %d", afterFirst, afterSecond)
	}
}

func TestDropTableTombstonesUntilCommit(t *testing.T) {
	cat, pool := newHarness(t)

	setup := New(1, cat, pool, testPageSize)
	setup.CreateTable("t", nil, nil)
	setup.Commit()

	tx := New(2, cat, pool, testPageSize)
	if err := tx.DropTable("t"); err != nil {
		t.Fatalf("DropTable: %v", err)
	}
	if _, ok := cat.GetTableByName("t"); !ok {
		t.Fatalf("table must still exist in the live catalog before commit")
	}
	if _, err := tx.ResolveTable("t"); err == nil {
		t.Fatalf("the dropping transaction should no longer see the table")
	}
	tx.Commit()
	if _, ok := cat.GetTableByName("t"); ok {
		t.Fatalf("table must be gone from the live catalog after commit")
	}
}

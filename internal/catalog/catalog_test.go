package catalog

import (
	"testing"

	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
)

func TestAddAndGetTable(t *testing.T) {
	c := Empty()
	tbl := &Table{Name: "Users", ColumnNames: []string{"id", "name"}, ColumnTypes: []ColType{IntType, TextType}}
	if err := c.AddNewTable(tbl); err != nil {
		t.Fatalf("AddNewTable: %v", err)
	}
	got, ok := c.GetTableByName("USERS")
	if !ok {
		t.Fatalf("expected case-insensitive lookup to find the table")
	}
	if got.Name != "users" {
		t.Fatalf("expected table name normalized to lowercase, got %q", got.Name)
	}

	if err := c.AddNewTable(&Table{Name: "users"}); err == nil {
		t.Fatalf("expected ValidationError for duplicate table")
	}
}

func TestGetFreePageIDReusesSmallestBeforeAllocatingNew(t *testing.T) {
	c := Empty()
	id1 := c.GetFreePageID(1)
	id2 := c.GetFreePageID(1)
	if id1 == page.CatalogPageID || id2 == page.CatalogPageID {
		t.Fatalf("page 0 must never be allocated")
	}
	if id2 <= id1 {
		t.Fatalf("expected monotonically increasing allocation when no free ids exist")
	}

	c.ReturnPageIDs([]page.ID{id1})
	reused := c.GetFreePageID(2)
	if reused != id1 {
		t.Fatalf("expected reused page id %d, got %d", id1, reused)
	}
}

func TestBorrowedClearedAfterReturn(t *testing.T) {
	c := Empty()
	id := c.GetFreePageID(5)
	if len(c.Borrowed(5)) != 1 {
		t.Fatalf("expected one borrowed page id for txn 5")
	}
	c.ReturnPageIDs([]page.ID{id})
	c.ClearBorrowed(5)
	if len(c.Borrowed(5)) != 0 {
		t.Fatalf("expected borrowed page ids cleared for txn 5")
	}
}

func TestReturnPageIDsNeverFreesPageZero(t *testing.T) {
	c := Empty()
	c.ReturnPageIDs([]page.ID{page.CatalogPageID})
	if _, free := c.FreePageIDs[page.CatalogPageID]; free {
		t.Fatalf("page 0 must never appear on the free list")
	}
}

func TestToPageFromPageRoundTrip(t *testing.T) {
	c := Empty()
	c.AddNewTable(&Table{Name: "t", ColumnNames: []string{"a"}, ColumnTypes: []ColType{IntType}, PageIDs: []page.ID{3, 4}})
	c.GetFreePageID(9) // leaves a borrowed-id entry behind for round trip coverage
	c.MaxPageID = 10

	p, err := c.ToPage()
	if err != nil {
		t.Fatalf("ToPage: %v", err)
	}
	restored, err := FromPage(p)
	if err != nil {
		t.Fatalf("FromPage: %v", err)
	}
	tbl, ok := restored.GetTableByName("t")
	if !ok {
		t.Fatalf("expected table 't' to survive round trip")
	}
	if len(tbl.PageIDs) != 2 || tbl.PageIDs[0] != 3 || tbl.PageIDs[1] != 4 {
		t.Fatalf("unexpected page ids after round trip: %v", tbl.PageIDs)
	}
	if restored.MaxPageID != 10 {
		t.Fatalf("expected MaxPageID 10, got %d", restored.MaxPageID)
	}
}

func TestParseColType(t *testing.T) {
	cases := map[string]ColType{"int": IntType, "TEXT": TextType, "Date": DateType, "DATETIME": DateTimeType}
	for in, want := range cases {
		got, ok := ParseColType(in)
		if !ok || got != want {
			t.Fatalf("ParseColType(%q) = (%v, %v), want (%v, true)", in, got, ok, want)
		}
	}
	if _, ok := ParseColType("bogus"); ok {
		t.Fatalf("expected ParseColType to reject an unknown type keyword")
	}
}

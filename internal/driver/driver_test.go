package driver

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "driver.db")
	db, err := sql.Open("tinyrel", "file:"+path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestExecAndQuery(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("CREATE TABLE t (id INT, name TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t VALUES (?, ?)", 1, "Ada"); err != nil {
		t.Fatalf("INSERT: %v", err)
	}

	rows, err := db.Query("SELECT id, name FROM t")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if id != 1 || name != "Ada" {
			t.Fatalf("unexpected row: %d %q", id, name)
		}
		count++
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}
}

func TestTransactionCommit(t *testing.T) {
	db := openTestDB(t)
	db.Exec("CREATE TABLE t (id INT)")

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := tx.Exec("INSERT INTO t VALUES (1)"); err != nil {
		t.Fatalf("Exec in tx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	var count int
	row := db.QueryRow("SELECT id FROM t")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected committed row with id 1, got %d", count)
	}
}

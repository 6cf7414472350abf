// Package benchmarks compares tinyrel against a real database engine on
// the same workloads, the way the teacher's own storage_benchmark_test.go
// compares its storage backends against modernc.org/sqlite: a baseline,
// not a dependency of the engine itself.
package benchmarks

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SimonWaldherr/tinyrel"

	_ "modernc.org/sqlite"
)

func tmpDir(b *testing.B) string {
	b.Helper()
	dir, err := os.MkdirTemp("", "tinyrel_bench_*")
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

type backendEntry struct {
	name string
	open func(b *testing.B) backendOps
}

type backendOps struct {
	save  func(name string, nRows int)
	load  func(name string) int
	close func()
}

func backends() []backendEntry {
	return []backendEntry{
		{"tinyrel", openTinyrel},
		{"SQLite-modernc", openSQLite},
	}
}

func openTinyrel(b *testing.B) backendOps {
	b.Helper()
	path := filepath.Join(tmpDir(b), "bench.tinyrel")
	eng, err := tinyrel.Open(path, tinyrel.DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}

	run := func(sql string) {
		res := eng.Execute(tinyrel.NewRequest(sql))
		if res.Error != "" {
			b.Fatalf("%s: %s", sql, res.Error)
		}
	}

	return backendOps{
		save: func(name string, nRows int) {
			// CREATE TABLE has no IF NOT EXISTS form; a repeat call only gets "already exists".
			create := fmt.Sprintf("CREATE TABLE %s (id INT, name TEXT, score INT)", name)
			if res := eng.Execute(tinyrel.NewRequest(create)); res.Error != "" && !strings.Contains(res.Error, "already exists") {
				b.Fatalf("%s: %s", create, res.Error)
			}
			run(fmt.Sprintf("DELETE FROM %s", name))
			for i := 0; i < nRows; i++ {
				run(fmt.Sprintf("INSERT INTO %s VALUES (%d, 'user_%d', %d)", name, i, i, i))
			}
		},
		load: func(name string) int {
			res := eng.Execute(tinyrel.NewRequest(fmt.Sprintf("SELECT id, name, score FROM %s", name)))
			if res.Error != "" {
				return 0
			}
			return len(res.Rows)
		},
		close: func() { eng.Close() },
	}
}

func openSQLite(b *testing.B) backendOps {
	b.Helper()
	dbPath := filepath.Join(tmpDir(b), "bench.sqlite3")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		b.Fatal(err)
	}
	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA synchronous=NORMAL")

	return backendOps{
		save: func(name string, nRows int) {
			db.Exec(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER, name TEXT, score INTEGER)", name))
			db.Exec(fmt.Sprintf("DELETE FROM %s", name))

			tx, _ := db.Begin()
			stmt, _ := tx.Prepare(fmt.Sprintf("INSERT INTO %s VALUES (?,?,?)", name))
			for i := 0; i < nRows; i++ {
				stmt.Exec(i, fmt.Sprintf("user_%d", i), i)
			}
			stmt.Close()
			tx.Commit()
		},
		load: func(name string) int {
			rows, err := db.Query(fmt.Sprintf("SELECT id, name, score FROM %s", name))
			if err != nil {
				return 0
			}
			defer rows.Close()
			count := 0
			var id, score int
			var nm string
			for rows.Next() {
				rows.Scan(&id, &nm, &score)
				count++
			}
			return count
		},
		close: func() { db.Close() },
	}
}

func BenchmarkBulkInsert(b *testing.B) {
	for _, rc := range []int{10, 100, 1000} {
		for _, be := range backends() {
			b.Run(fmt.Sprintf("%s/rows=%d", be.name, rc), func(b *testing.B) {
				ops := be.open(b)
				defer ops.close()

				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					ops.save("bench", rc)
				}
			})
		}
	}
}

func BenchmarkFullScan(b *testing.B) {
	for _, rc := range []int{10, 100, 1000} {
		for _, be := range backends() {
			b.Run(fmt.Sprintf("%s/rows=%d", be.name, rc), func(b *testing.B) {
				ops := be.open(b)
				defer ops.close()

				ops.save("scan_target", rc)

				b.ResetTimer()
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if n := ops.load("scan_target"); n != rc {
						b.Fatalf("expected %d rows, got %d", rc, n)
					}
				}
			})
		}
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	for _, be := range backends() {
		b.Run(be.name, func(b *testing.B) {
			ops := be.open(b)
			defer ops.close()

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ops.save("rt", 100)
				if n := ops.load("rt"); n != 100 {
					b.Fatalf("expected 100 rows, got %d", n)
				}
			}
		})
	}
}

func BenchmarkSingleInsert(b *testing.B) {
	for _, be := range backends() {
		b.Run(be.name, func(b *testing.B) {
			ops := be.open(b)
			defer ops.close()
			ops.save("single", 0)

			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				ops.save("single", 1)
			}
		})
	}
}

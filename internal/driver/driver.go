// Package driver implements a database/sql driver over the tinyrel
// engine façade. Grounded on the teacher's internal/driver/driver.go:
// sql.Register in init, a DSN of the form "file:path", and a thin
// Conn/Stmt/Rows trio translating between database/sql's value
// placeholders and Engine.Execute's Request/Result shapes. Unlike the
// teacher's driver this one has no MVCC snapshot-per-connection or WAL
// write-serialization: every Conn opened on the same path shares one
// *tinyrel.Engine (cached per path by the driver) and every
// statement dispatches through Engine.Execute directly (spec §5: the
// engine is single-threaded and cooperative).
package driver

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/SimonWaldherr/tinyrel"
)

func init() {
	sql.Register("tinyrel", &drv{})
}

type drv struct {
	mu    sync.Mutex
	byDSN map[string]*tinyrel.Engine
}

// parseDSN accepts "file:path/to/db" or a bare path.
func parseDSN(dsn string) string {
	return strings.TrimPrefix(dsn, "file:")
}

func (d *drv) Open(dsn string) (driver.Conn, error) {
	path := parseDSN(dsn)

	d.mu.Lock()
	if d.byDSN == nil {
		d.byDSN = make(map[string]*tinyrel.Engine)
	}
	eng, ok := d.byDSN[path]
	if !ok {
		var err error
		eng, err = tinyrel.Open(path, tinyrel.DefaultConfig())
		if err != nil {
			d.mu.Unlock()
			return nil, err
		}
		d.byDSN[path] = eng
	}
	d.mu.Unlock()

	return &conn{eng: eng, txnID: tinyrel.NoTransaction}, nil
}

// conn is a database/sql connection over one Engine. Each conn tracks at
// most one open tinyrel transaction id, entered via "BEGIN" and cleared
// by "COMMIT"/"ROLLBACK" — matching database/sql's own one-tx-per-conn
// discipline.
type conn struct {
	eng   *tinyrel.Engine
	txnID int64
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{c: c, query: query}, nil
}

func (c *conn) Close() error { return nil }

func (c *conn) Begin() (driver.Tx, error) {
	res := c.eng.Execute(tinyrel.Request{SQL: "BEGIN", TransactionID: tinyrel.NoTransaction, AutoCommit: false})
	if res.Error != "" {
		return nil, fmt.Errorf("%s", res.Error)
	}
	c.txnID = res.TransactionID
	return &tx{c: c}, nil
}

type tx struct{ c *conn }

func (t *tx) Commit() error {
	res := t.c.eng.Execute(tinyrel.Request{SQL: "COMMIT", TransactionID: t.c.txnID})
	t.c.txnID = tinyrel.NoTransaction
	if res.Error != "" {
		return fmt.Errorf("%s", res.Error)
	}
	return nil
}

func (t *tx) Rollback() error {
	res := t.c.eng.Execute(tinyrel.Request{SQL: "ROLLBACK", TransactionID: t.c.txnID})
	t.c.txnID = tinyrel.NoTransaction
	if res.Error != "" {
		return fmt.Errorf("%s", res.Error)
	}
	return nil
}

type stmt struct {
	c     *conn
	query string
}

func (s *stmt) Close() error  { return nil }
func (s *stmt) NumInput() int { return -1 } // argument count is not checked; substitute splices each '?' argument into the SQL text

func substitute(query string, args []driver.Value) string {
	if len(args) == 0 {
		return query
	}
	var sb strings.Builder
	argIdx := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' && argIdx < len(args) {
			sb.WriteString(literalOf(args[argIdx]))
			argIdx++
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

func literalOf(v driver.Value) string {
	switch n := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(n, "'", "\\'") + "'"
	default:
		return fmt.Sprintf("%v", n)
	}
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	res := s.c.eng.Execute(tinyrel.Request{SQL: substitute(s.query, args), TransactionID: s.c.txnID, AutoCommit: s.c.txnID == tinyrel.NoTransaction})
	if res.Error != "" {
		return nil, fmt.Errorf("%s", res.Error)
	}
	return execResult{rowCount: int64(res.RowCount)}, nil
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	res := s.c.eng.Execute(tinyrel.Request{SQL: substitute(s.query, args), TransactionID: s.c.txnID, AutoCommit: s.c.txnID == tinyrel.NoTransaction})
	if res.Error != "" {
		return nil, fmt.Errorf("%s", res.Error)
	}
	return &rows{columns: res.Columns, data: res.Rows}, nil
}

type execResult struct{ rowCount int64 }

func (r execResult) LastInsertId() (int64, error) { return 0, fmt.Errorf("tinyrel: no LastInsertId") }
func (r execResult) RowsAffected() (int64, error) { return r.rowCount, nil }

type rows struct {
	columns []string
	data    [][]any
	idx     int
}

func (r *rows) Columns() []string { return r.columns }
func (r *rows) Close() error      { return nil }

func (r *rows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	src := r.data[r.idx]
	r.idx++
	for i := range dest {
		if i < len(src) {
			dest[i] = src[i]
		} else {
			dest[i] = nil
		}
	}
	return nil
}

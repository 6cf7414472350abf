// Package tinyrel is the embeddable façade over the storage, transaction,
// and execution layers: one Engine owns the Catalog, BufferPool, and
// DiskManager; Execute dispatches a single SQL statement against an
// explicit or implicit transaction and returns a Result (spec §4.8).
// tinySQL's root tinysql.go plays the same role for its own engine
// (construct a DB, call Execute(ctx, db, tenant, stmt)); the dispatch
// rule sequence below is new — tinySQL never distinguishes anonymous
// auto-commit transactions from named ones the way spec §4.8/§9 requires.
package tinyrel

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/SimonWaldherr/tinyrel/internal/catalog"
	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
	"github.com/SimonWaldherr/tinyrel/internal/plan"
	"github.com/SimonWaldherr/tinyrel/internal/sql/ast"
	"github.com/SimonWaldherr/tinyrel/internal/sql/parser"
	"github.com/SimonWaldherr/tinyrel/internal/sql/token"
	"github.com/SimonWaldherr/tinyrel/internal/storage/buffer"
	"github.com/SimonWaldherr/tinyrel/internal/storage/disk"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
	"github.com/SimonWaldherr/tinyrel/internal/txn"
)

// NoTransaction is the sentinel "no transaction" value for Request's
// TransactionID field and also the id internally reserved for the
// anonymous auto-commit transaction (spec §4.8).
const NoTransaction int64 = -1

const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// Request is one statement to execute (spec §4.8/§6).
type Request struct {
	SQL           string
	TransactionID int64
	AutoCommit    bool
}

// NewRequest builds a Request with the documented defaults
// (transaction_id = none, auto_commit = true).
func NewRequest(sql string) Request {
	return Request{SQL: sql, TransactionID: NoTransaction, AutoCommit: true}
}

// Result is the outcome of one dispatched statement (spec §6).
type Result struct {
	Columns           []string
	Rows              [][]any
	SQL               string
	Tokens            []token.Token
	AST               ast.Statement
	RowCount          int
	Error             string
	TransactionID     int64
	TransactionStatus string

	// TraceID correlates this Result with its log lines; not part of the
	// wire protocol, purely a debugging aid.
	TraceID string
}

// Config holds the startup-constant knobs spec §6 calls out: PAGE_SIZE
// and buffer capacity.
type Config struct {
	PageSize       int
	BufferCapacity int
}

// DefaultConfig returns the spec's suggested defaults (4096 bytes,
// 10-50 pages — here pinned to 32).
func DefaultConfig() Config {
	return Config{PageSize: page.DefaultPageSize, BufferCapacity: 32}
}

// Engine is the embeddable database: one Catalog, one BufferPool, one
// DiskManager, plus the open-transaction registry (spec §4.8, §5).
type Engine struct {
	mu sync.Mutex

	disk     *disk.Manager
	pool     *buffer.Pool
	cat      *catalog.Catalog
	pageSize int

	nextTxnID int64
	txns      map[int64]*txn.Transaction
	anonymous *txn.Transaction

	log *logrus.Entry
}

// Open opens (creating if absent) the database file at path (spec §6's
// single positional runtime argument).
func Open(path string, cfg Config) (*Engine, error) {
	if cfg.PageSize <= 0 {
		cfg.PageSize = page.DefaultPageSize
	}
	if cfg.BufferCapacity <= 0 {
		cfg.BufferCapacity = 32
	}
	d, err := disk.Open(path, cfg.PageSize, func() []byte { return catalog.SeedBytes(cfg.PageSize) })
	if err != nil {
		return nil, err
	}
	pool := buffer.New(d, cfg.BufferCapacity)
	p0, err := pool.GetPage(page.CatalogPageID)
	if err != nil {
		d.Close()
		return nil, err
	}
	cat, err := catalog.FromPage(p0)
	if err != nil {
		d.Close()
		return nil, err
	}
	return &Engine{
		disk:     d,
		pool:     pool,
		cat:      cat,
		pageSize: cfg.PageSize,
		txns:     make(map[int64]*txn.Transaction),
		log:      logrus.WithField("component", "engine"),
	}, nil
}

// Close flushes every dirty page and the catalog, then closes the file.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.persistCatalogLocked(); err != nil {
		return err
	}
	if err := e.pool.Flush(); err != nil {
		return err
	}
	if err := e.disk.Sync(); err != nil {
		return err
	}
	return e.disk.Close()
}

// Stats exposes the buffer pool's cache diagnostics (spec §6: "auxiliary
// diagnostic artifacts" are allowed beyond the required surface).
func (e *Engine) Stats() buffer.Stats { return e.pool.Stats() }

// Checkpoint persists the catalog and flushes every dirty page without
// closing the file, so an optional maintenance scheduler can shrink the
// durability gap between commits (spec §5: "flush + catalog-write is the
// sole durability barrier").
func (e *Engine) Checkpoint() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.persistCatalogLocked(); err != nil {
		return err
	}
	return e.pool.Flush()
}

func (e *Engine) persistCatalogLocked() error {
	p, err := e.cat.ToPage()
	if err != nil {
		return err
	}
	return e.pool.Put(p)
}

func (e *Engine) allocID() int64 {
	e.nextTxnID++
	return e.nextTxnID
}

// Execute dispatches req per spec §4.8's rule sequence.
func (e *Engine) Execute(req Request) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	traceID := uuid.New().String()
	res := Result{SQL: req.SQL, TransactionID: req.TransactionID, TraceID: traceID}
	log := e.log.WithField("trace_id", traceID)

	sqlText := ensureTrailingSemicolon(req.SQL)
	stmt, toks, err := parser.Parse(sqlText)
	if err != nil {
		log.WithError(err).Debug("parse failed")
		return errorResult(res, err, StatusOpen)
	}
	res.Tokens = toks
	res.AST = stmt

	switch stmt.(type) {
	case *ast.BeginStmt:
		if req.TransactionID != NoTransaction {
			return errorResult(res, dberrors.New(dberrors.TransactionMisuse, "BEGIN issued with a transaction id already open"), StatusOpen)
		}
		id := e.allocID()
		tx := txn.New(id, e.cat, e.pool, e.pageSize)
		e.txns[id] = tx
		res.TransactionID = id
		res.TransactionStatus = StatusOpen
		res.Columns = []string{"status"}
		res.Rows = [][]any{{"Success"}}
		return res

	case *ast.CommitStmt, *ast.RollbackStmt:
		if req.TransactionID == NoTransaction {
			return errorResult(res, dberrors.New(dberrors.TransactionMisuse, "COMMIT/ROLLBACK issued without a transaction id"), StatusOpen)
		}
		tx, ok := e.txns[req.TransactionID]
		if !ok {
			return errorResult(res, dberrors.New(dberrors.TransactionMisuse, "no open transaction %d", req.TransactionID), StatusOpen)
		}
		var opErr error
		if _, isCommit := stmt.(*ast.CommitStmt); isCommit {
			opErr = tx.Commit()
		} else {
			opErr = tx.Rollback()
		}
		delete(e.txns, req.TransactionID)
		if opErr != nil {
			return errorResult(res, opErr, StatusClosed)
		}
		if err := e.persistCatalogLocked(); err != nil {
			return errorResult(res, err, StatusClosed)
		}
		res.TransactionStatus = StatusClosed
		res.Columns = []string{"status"}
		res.Rows = [][]any{{"Success"}}
		return res
	}

	tx, anonymous, err := e.resolveTxn(req)
	if err != nil {
		return errorResult(res, err, StatusOpen)
	}
	res.TransactionID = tx.ID()

	op, err := plan.Build(tx, stmt)
	if err != nil {
		return e.finishOnError(res, tx, anonymous, err)
	}
	sch := op.Schema()
	var rows [][]any
	for {
		t, ok, nerr := op.Next()
		if nerr != nil {
			return e.finishOnError(res, tx, anonymous, nerr)
		}
		if !ok {
			break
		}
		rows = append(rows, append([]any(nil), t.Row...))
	}

	res.Columns = sch.Names()
	res.Rows = rows
	res.RowCount = len(rows)
	res.TransactionStatus = StatusOpen

	if anonymous && req.AutoCommit {
		if err := tx.Commit(); err != nil {
			return e.finishOnError(res, tx, anonymous, err)
		}
		e.clearAnonymous()
		if err := e.persistCatalogLocked(); err != nil {
			res.Error = err.Error()
		}
		res.TransactionStatus = StatusClosed
	}
	return res
}

// resolveTxn implements spec §4.8 step 5: existing by id, else
// anonymous-committable (when auto_commit), else a fresh named one.
func (e *Engine) resolveTxn(req Request) (tx *txn.Transaction, anonymous bool, err error) {
	if req.TransactionID != NoTransaction {
		tx, ok := e.txns[req.TransactionID]
		if !ok {
			return nil, false, dberrors.New(dberrors.TransactionMisuse, "no open transaction %d", req.TransactionID)
		}
		return tx, false, nil
	}
	if req.AutoCommit {
		if e.anonymous != nil {
			return nil, false, dberrors.New(dberrors.TransactionMisuse, "an anonymous transaction is already open")
		}
		tx := txn.New(NoTransaction, e.cat, e.pool, e.pageSize)
		e.anonymous = tx
		return tx, true, nil
	}
	id := e.allocID()
	tx := txn.New(id, e.cat, e.pool, e.pageSize)
	e.txns[id] = tx
	return tx, false, nil
}

func (e *Engine) clearAnonymous() { e.anonymous = nil }

// finishOnError applies spec §4.8 step 8's rollback policy. An anonymous
// transaction is always torn down on error — regardless of the error's
// own rollback policy — since its id (-1) can never again be addressed
// by the caller, and leaving it resident would wedge the single
// anonymous slot indefinitely (a deliberate strengthening beyond the
// literal policy table, to keep that slot always recoverable).
func (e *Engine) finishOnError(res Result, tx *txn.Transaction, anonymous bool, err error) Result {
	if anonymous {
		tx.Rollback()
		e.clearAnonymous()
		return errorResult(res, err, StatusClosed)
	}
	if dberrors.ShouldRollback(err) {
		tx.Rollback()
		delete(e.txns, tx.ID())
		return errorResult(res, err, StatusClosed)
	}
	res.TransactionID = tx.ID()
	return errorResult(res, err, StatusOpen)
}

func errorResult(res Result, err error, status string) Result {
	res.Error = err.Error()
	res.TransactionStatus = status
	res.Columns = []string{"status"}
	res.Rows = [][]any{{"Error"}}
	return res
}

func ensureTrailingSemicolon(sql string) string {
	trimmed := strings.TrimRight(sql, " \t\n\r")
	if strings.HasSuffix(trimmed, ";") {
		return sql
	}
	return sql + ";"
}

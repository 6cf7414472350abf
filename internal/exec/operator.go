// Package exec implements the Volcano-model physical operators (spec
// §4.7): a sum type of operator variants, each a pull-based iterator
// bound to a transaction, per the spec's Design Notes §9 ("re-architect
// as a sum type of operator variants... removes open-world subtyping").
// No pack example builds a pull-based iterator tree; the expression
// evaluation this package leans on is grounded on tinySQL's
// internal/engine/exec.go evalExpr/compare/truthy family (see eval.go).
package exec

import (
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/page"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// Origin identifies the physical page/row a Tuple came from, used by
// Delete to map result rows back to storage locations (spec §4.7).
type Origin struct {
	PageID   page.ID
	RowIndex int
	Valid    bool
}

// Tuple is the (row, page_id?, row_index?) triple operators exchange.
type Tuple struct {
	Row    row.Row
	Origin Origin
}

// Operator is the common capability every physical plan node implements:
// a lazy row sequence plus its output schema (spec §9). The sequence is
// single-pass: an operator has no reset, and once Next reports exhaustion
// it keeps doing so; each statement builds a fresh tree.
type Operator interface {
	// Next pulls the next tuple. ok is false once the sequence is
	// exhausted; err is non-nil on failure (in which case ok is also
	// false and the tree is done being pulled).
	Next() (t Tuple, ok bool, err error)
	// Schema returns this operator's output schema.
	Schema() *schema.Schema
}

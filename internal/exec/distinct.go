package exec

import (
	"fmt"
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/schema"
)

// Distinct deduplicates child rows on a hashable key built from the full
// row's values (its child is always already projected to exactly the
// columns the dedup should key on — spec §4.7). It restarts cleanly
// because each statement builds a fresh Distinct instance.
type Distinct struct {
	child Operator
	sch   *schema.Schema
	seen  map[string]struct{}
}

func NewDistinct(child Operator) *Distinct {
	return &Distinct{child: child, sch: child.Schema(), seen: make(map[string]struct{})}
}

func (d *Distinct) Schema() *schema.Schema { return d.sch }

func rowKey(values []any) string {
	var sb strings.Builder
	for _, v := range values {
		fmt.Fprintf(&sb, "%T:%v|", v, v)
	}
	return sb.String()
}

func (d *Distinct) Next() (Tuple, bool, error) {
	for {
		t, ok, err := d.child.Next()
		if err != nil || !ok {
			return Tuple{}, ok, err
		}
		key := rowKey(t.Row)
		if _, dup := d.seen[key]; dup {
			continue
		}
		d.seen[key] = struct{}{}
		return t, true, nil
	}
}

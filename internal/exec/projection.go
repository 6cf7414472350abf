package exec

import (
	"github.com/SimonWaldherr/tinyrel/internal/schema"
	"github.com/SimonWaldherr/tinyrel/internal/storage/row"
)

// Extractor computes one output column's value from an input row.
type Extractor func(row.Row) (any, error)

// Projection applies extractors to each child row, producing a row of
// length len(extractors). `*` expands to one passthrough extractor per
// input column at plan time (spec §4.7); back-links are forwarded
// unchanged since projection preserves row identity.
type Projection struct {
	child      Operator
	extractors []Extractor
	sch        *schema.Schema
}

func NewProjection(child Operator, extractors []Extractor, sch *schema.Schema) *Projection {
	return &Projection{child: child, extractors: extractors, sch: sch}
}

func (p *Projection) Schema() *schema.Schema { return p.sch }

func (p *Projection) Next() (Tuple, bool, error) {
	t, ok, err := p.child.Next()
	if err != nil || !ok {
		return Tuple{}, ok, err
	}
	out := make(row.Row, len(p.extractors))
	for i, ex := range p.extractors {
		v, err := ex(t.Row)
		if err != nil {
			return Tuple{}, false, err
		}
		out[i] = v
	}
	return Tuple{Row: out, Origin: t.Origin}, true, nil
}

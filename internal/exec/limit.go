package exec

import "github.com/SimonWaldherr/tinyrel/internal/schema"

// Limit yields at most n rows and stops pulling the child once the cap
// is reached (spec §4.7); back-links are forwarded unchanged.
type Limit struct {
	child Operator
	n     int
	count int
}

func NewLimit(child Operator, n int) *Limit {
	return &Limit{child: child, n: n}
}

func (l *Limit) Schema() *schema.Schema { return l.child.Schema() }

func (l *Limit) Next() (Tuple, bool, error) {
	if l.count >= l.n {
		return Tuple{}, false, nil
	}
	t, ok, err := l.child.Next()
	if err != nil || !ok {
		return Tuple{}, ok, err
	}
	l.count++
	return t, true, nil
}

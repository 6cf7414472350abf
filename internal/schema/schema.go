// Package schema implements the planner-side view of an operator's
// output columns and the name-resolution rule of spec §4.6.
package schema

import (
	"strings"

	"github.com/SimonWaldherr/tinyrel/internal/dberrors"
)

// ColumnIdentifier names one output column of a physical operator (spec
// §3: "Schema").
type ColumnIdentifier struct {
	Name        string
	Qualifier   string // table name or alias; "" if unqualified (e.g. computed/aggregate columns)
	Alias       string // explicit output alias ("AS x"); "" if none
	IsAggregate bool
}

// DisplayName is the name a Result reports for this column: the alias if
// one was given, else the bare name.
func (c ColumnIdentifier) DisplayName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.Name
}

// Schema is an ordered list of output columns.
type Schema struct {
	Columns []ColumnIdentifier
}

// Concat is used to build a join's output schema as the concatenation of
// its children's (spec §4.6).
func Concat(schemas ...Schema) Schema {
	var out Schema
	for _, s := range schemas {
		out.Columns = append(out.Columns, s.Columns...)
	}
	return out
}

// Resolve implements spec §4.6's lookup rule:
//  1. If qualifier is given, find the unique column whose qualifier and
//     name both match.
//  2. Otherwise prefer an exact alias match; else find the unique column
//     whose name matches.
//  3. Zero matches → UnknownColumn (ValidationError); ≥2 → AmbiguousColumn.
func (s Schema) Resolve(qualifier, name string) (int, error) {
	qualifier = strings.ToLower(qualifier)
	name = strings.ToLower(name)

	if qualifier != "" {
		idx := -1
		for i, c := range s.Columns {
			if strings.ToLower(c.Qualifier) == qualifier && strings.ToLower(c.Name) == name {
				if idx != -1 {
					return -1, dberrors.New(dberrors.AmbiguousColumn, "ambiguous column %s.%s", qualifier, name)
				}
				idx = i
			}
		}
		if idx == -1 {
			return -1, dberrors.New(dberrors.ValidationError, "unknown column %s.%s", qualifier, name)
		}
		return idx, nil
	}

	for i, c := range s.Columns {
		if strings.ToLower(c.Alias) == name && c.Alias != "" {
			return i, nil
		}
	}

	idx := -1
	for i, c := range s.Columns {
		if strings.ToLower(c.Name) == name {
			if idx != -1 {
				return -1, dberrors.New(dberrors.AmbiguousColumn, "ambiguous column reference %q", name)
			}
			idx = i
		}
	}
	if idx == -1 {
		return -1, dberrors.New(dberrors.ValidationError, "unknown column %q", name)
	}
	return idx, nil
}

// Names returns the display name of every column, in order — used
// directly as a Result's `columns` field (spec §6).
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.DisplayName()
	}
	return names
}

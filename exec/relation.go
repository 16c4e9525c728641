// Package exec is the query executor: spec.md component 5, the heart of
// the engine. It resolves FROM (tables, derived tables, CTEs), performs
// JOIN, WHERE, GROUP BY/HAVING, aggregate and window evaluation,
// DISTINCT/ORDER BY/LIMIT, and set operations, driving eval for every
// scalar expression it needs evaluated against a row.
package exec

import (
	"strings"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// ColRef describes one position of a Relation's flat row: which table
// alias it came from (empty for a purely computed/projected column) and
// its declared name and type. Row context spanning multiple joined
// aliases is tracked this way rather than as nested per-table sub-rows,
// per SPEC_FULL's design notes.
type ColRef struct {
	Alias string
	Name  string
	Type  sqltypes.SqlType
}

// Schema is the ordered column description of a Relation.
type Schema []ColRef

// Relation is a named tabular source with schema and rows: the uniform
// shape CTE results, derived tables, and physical tables all present to
// FROM resolution and JOIN assembly.
type Relation struct {
	Schema Schema
	Rows   []sqltypes.Row
}

// Find resolves a (possibly empty) qualifier plus column name to a
// position in the schema. An empty qualifier matches any column sharing
// that name; more than one match is an ambiguous reference (SchemaError).
func (s Schema) Find(qualifier, name string) (int, error) {
	found := -1
	for i, c := range s {
		if !strings.EqualFold(c.Name, name) {
			continue
		}
		if qualifier != "" && !strings.EqualFold(c.Alias, qualifier) {
			continue
		}
		if found != -1 {
			return -1, flaterr.New(flaterr.ErrTypeSchema, "ambiguous column reference "+name, nil)
		}
		found = i
	}
	if found == -1 {
		ref := name
		if qualifier != "" {
			ref = qualifier + "." + name
		}
		return -1, flaterr.New(flaterr.ErrTypeSchema, "unknown column "+ref, nil)
	}
	return found, nil
}

// WithAlias returns a copy of the schema with every column's Alias
// overridden, used when a derived table or physical table reference is
// wrapped in an AS alias: "alias identity, not table identity, drives
// column lookup" per spec.md §4.2.
func (s Schema) WithAlias(alias string) Schema {
	out := make(Schema, len(s))
	for i, c := range s {
		out[i] = ColRef{Alias: alias, Name: c.Name, Type: c.Type}
	}
	return out
}

// Concat appends two schemas/row-shapes for JOIN assembly.
func (s Schema) Concat(other Schema) Schema {
	out := make(Schema, 0, len(s)+len(other))
	out = append(out, s...)
	out = append(out, other...)
	return out
}

func concatRows(a, b sqltypes.Row) sqltypes.Row {
	out := make(sqltypes.Row, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}

func nullRow(s Schema) sqltypes.Row {
	row := make(sqltypes.Row, len(s))
	for i, c := range s {
		row[i] = sqltypes.Null(c.Type.Kind)
	}
	return row
}

// fromTable builds a Relation directly from a physical/CTE table, tagging
// every column with the table's own name as Alias (overridden later by
// WithAlias if the FROM clause supplies one).
func fromTable(t *sqltypes.Table) *Relation {
	schema := make(Schema, len(t.Columns))
	for i, c := range t.Columns {
		schema[i] = ColRef{Alias: t.Name, Name: c.Name, Type: c.Type}
	}
	rows := make([]sqltypes.Row, len(t.Rows))
	copy(rows, t.Rows)
	return &Relation{Schema: schema, Rows: rows}
}

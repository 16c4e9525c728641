package sqltypes

import "fmt"

// Column describes one column of a Table: its name, declared type, and
// whether the document's column-definition string marked it PRIMARY KEY,
// NOT NULL, or UNIQUE.
type Column struct {
	Name       string  // column name, case as declared in the document
	Type       SqlType // declared type and parameters
	PrimaryKey bool    // document marked this column PRIMARY KEY
	NotNull    bool    // document marked this column NOT NULL (PK implies NotNull)
	Unique     bool    // document marked this column UNIQUE
}

// Row is a flat slice of values positioned per the owning Table's Columns.
type Row []Value

// Table is one immutable snapshot of a single table: its column
// definitions, its rows in document order, and — when exactly one
// column is PRIMARY KEY — a PK-value-to-row-index map giving O(1) point
// lookups (spec.md §8, "PK lookup touches at most one row").
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row

	colIndex map[string]int // column name (lowercased) -> position
	pkCol    int             // index into Columns, or -1 if no single-column PK
	pkIndex  map[string]int  // pk value key -> row index, nil if pkCol == -1
}

// NewTable builds a Table and its lookup indexes. Rows must already be
// shaped to match columns; NewTable does not validate row arity or value
// types — that is docload's job at document-load time (ConstraintError),
// since by the time a Table exists it is assumed well-formed.
func NewTable(name string, columns []Column, rows []Row) *Table {
	t := &Table{
		Name:     name,
		Columns:  columns,
		Rows:     rows,
		colIndex: make(map[string]int, len(columns)),
		pkCol:    -1,
	}
	for i, c := range columns {
		t.colIndex[lower(c.Name)] = i
		if c.PrimaryKey && t.pkCol == -1 {
			t.pkCol = i
		} else if c.PrimaryKey {
			// composite PK: no single-column fast path, fall back to scan.
			t.pkCol = -1
			t.pkIndex = nil
		}
	}
	if t.pkCol != -1 {
		t.pkIndex = make(map[string]int, len(rows))
		for i, row := range rows {
			t.pkIndex[row[t.pkCol].Key()] = i
		}
	}
	return t
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// ColumnIndex returns the position of a column by name (case-insensitive),
// or ok=false if the table has no such column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.colIndex[lower(name)]
	return i, ok
}

// HasFastPK reports whether Lookup can service point queries in O(1)
// rather than a linear scan.
func (t *Table) HasFastPK() bool { return t.pkCol != -1 }

// Lookup returns the row whose single-column primary key equals pk. It is
// O(1) when HasFastPK is true and the caller must fall back to a WHERE
// scan over Rows otherwise (composite or absent PK).
func (t *Table) Lookup(pk Value) (Row, bool) {
	if t.pkIndex == nil {
		return nil, false
	}
	i, ok := t.pkIndex[pk.Key()]
	if !ok {
		return nil, false
	}
	return t.Rows[i], true
}

// Database is one immutable snapshot of the full declarative document.
type Database struct {
	Name   string
	Tables map[string]*Table // key: lowercased table name

	// Username/Password are the document's own credential override, per
	// spec.md §6: "may be set in the declarative document; when present
	// they override CLI values". Empty means the document declares none.
	Username string
	Password string
}

// NewDatabase indexes tables by lowercased name for case-insensitive
// FROM-clause resolution.
func NewDatabase(name string, tables []*Table) *Database {
	d := &Database{Name: name, Tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		d.Tables[lower(t.Name)] = t
	}
	return d
}

// NewDatabaseWithAuth is NewDatabase plus the document-level credential
// override.
func NewDatabaseWithAuth(name, username, password string, tables []*Table) *Database {
	d := NewDatabase(name, tables)
	d.Username = username
	d.Password = password
	return d
}

// Table resolves a table by name, case-insensitively.
func (d *Database) Table(name string) (*Table, bool) {
	t, ok := d.Tables[lower(name)]
	return t, ok
}

func (c Column) String() string {
	return fmt.Sprintf("%s %s", c.Name, c.Type)
}

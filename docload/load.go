package docload

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mstgnz/flatsql/flaterr"
	"github.com/mstgnz/flatsql/sqltypes"
)

// Load reads and parses the document at path into an immutable
// sqltypes.Database snapshot, ready to hand to store.New/store.Publish.
func Load(path string) (*sqltypes.Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, flaterr.New(flaterr.ErrTypeIO, "reading document "+path, err)
	}
	return Parse(data)
}

// Parse builds a Database from raw YAML bytes, independent of where they
// came from (used directly by Load and by the hot-reload watcher).
func Parse(data []byte) (*sqltypes.Database, error) {
	var doc rawDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, flaterr.New(flaterr.ErrTypeConstraint, "document is not valid YAML", err)
	}
	if doc.Database.Name == "" {
		return nil, flaterr.New(flaterr.ErrTypeConstraint, "document missing database.name", nil)
	}

	tables := make([]*sqltypes.Table, 0, len(doc.Tables))
	for name, raw := range doc.Tables {
		table, err := buildTable(name, raw)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}

	return sqltypes.NewDatabaseWithAuth(doc.Database.Name, doc.Database.Username, doc.Database.Password, tables), nil
}

func buildTable(name string, raw rawTable) (*sqltypes.Table, error) {
	if len(raw.Columns) == 0 {
		return nil, flaterr.New(flaterr.ErrTypeConstraint,
			fmt.Sprintf("table %q declares no columns", name), nil)
	}

	columns := make([]sqltypes.Column, 0, len(raw.Columns))
	pkCount := 0
	for _, cd := range raw.Columns {
		typ, primaryKey, notNull, unique, err := parseColumnSpec(cd.Spec)
		if err != nil {
			return nil, flaterr.New(flaterr.ErrTypeConstraint,
				fmt.Sprintf("table %q column %q", name, cd.Name), err)
		}
		if primaryKey {
			pkCount++
		}
		columns = append(columns, sqltypes.Column{
			Name:       cd.Name,
			Type:       typ,
			PrimaryKey: primaryKey,
			NotNull:    notNull,
			Unique:     unique,
		})
	}

	rows := make([]sqltypes.Row, 0, len(raw.Data))
	seenPK := make(map[string]bool, len(raw.Data))
	seenUnique := make(map[int]map[string]bool, len(columns))
	for rowIdx, rawRow := range raw.Data {
		row := make(sqltypes.Row, len(columns))
		for colIdx, col := range columns {
			fieldVal, present := rawRow[col.Name]
			if !present {
				if col.NotNull {
					return nil, flaterr.New(flaterr.ErrTypeConstraint,
						fmt.Sprintf("table %q row %d: column %q is NOT NULL but missing", name, rowIdx, col.Name), nil)
				}
				row[colIdx] = sqltypes.Null(col.Type.Kind)
				continue
			}
			v, err := convertValue(fieldVal, col.Type)
			if err != nil {
				return nil, flaterr.New(flaterr.ErrTypeConstraint,
					fmt.Sprintf("table %q row %d column %q", name, rowIdx, col.Name), err)
			}
			if v.Null && col.NotNull {
				return nil, flaterr.New(flaterr.ErrTypeConstraint,
					fmt.Sprintf("table %q row %d: column %q is NOT NULL", name, rowIdx, col.Name), nil)
			}
			row[colIdx] = v
		}
		if pkCount == 1 {
			for colIdx, col := range columns {
				if col.PrimaryKey {
					key := row[colIdx].Key()
					if seenPK[key] {
						return nil, flaterr.New(flaterr.ErrTypeConstraint,
							fmt.Sprintf("table %q: duplicate primary key value in column %q", name, col.Name), nil)
					}
					seenPK[key] = true
				}
			}
		}
		for colIdx, col := range columns {
			if !col.Unique {
				continue
			}
			seen, ok := seenUnique[colIdx]
			if !ok {
				seen = make(map[string]bool, len(raw.Data))
				seenUnique[colIdx] = seen
			}
			key := row[colIdx].Key()
			if seen[key] {
				return nil, flaterr.New(flaterr.ErrTypeConstraint,
					fmt.Sprintf("table %q: duplicate unique value in column %q", name, col.Name), nil)
			}
			seen[key] = true
		}
		rows = append(rows, row)
	}

	return sqltypes.NewTable(name, columns, rows), nil
}

// Package docload ingests the declarative document the engine serves:
// a YAML file naming a database, its tables' columns (as type strings,
// e.g. "INTEGER PRIMARY KEY"), and their row data. It is the external
// collaborator spec.md treats as out-of-core — flatsql still ships a
// concrete implementation of it so the repo runs end to end.
package docload

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// rawDocument mirrors the on-disk YAML shape before type strings are
// parsed into sqltypes.SqlType and row values are converted.
type rawDocument struct {
	Database rawDatabaseMeta     `yaml:"database"`
	Tables   map[string]rawTable `yaml:"tables"`
}

type rawDatabaseMeta struct {
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type rawTable struct {
	Columns orderedColumns           `yaml:"columns"`
	Data    []map[string]interface{} `yaml:"data"`
}

// columnDef is one entry of a table's "columns" map, kept in document
// order (not Go map order) so SELECT * projects columns the way the
// document author declared them.
type columnDef struct {
	Name string
	Spec string
}

// orderedColumns decodes a YAML mapping node directly, rather than via a
// Go map, specifically to preserve declaration order.
type orderedColumns []columnDef

func (oc *orderedColumns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("docload: columns must be a mapping, got %v", node.Tag)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		var spec string
		if err := valNode.Decode(&spec); err != nil {
			return fmt.Errorf("docload: column %q: %w", keyNode.Value, err)
		}
		*oc = append(*oc, columnDef{Name: keyNode.Value, Spec: spec})
	}
	return nil
}

// Package catalog describes the target semantic model's known tables and
// columns. Project assembly checks every bound field against it.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"report-converter/internal/mapping"
)

// Column is one column of a target table.
type Column struct {
	Name     string `yaml:"name"`
	DataType string `yaml:"dataType,omitempty"`
}

// UnmarshalYAML accepts a bare column name or a {name, dataType} mapping.
func (c *Column) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&c.Name)
	}

	type plain Column

	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}

	*c = Column(p)

	return nil
}

// Table is a target table and its columns in declaration order.
type Table struct {
	Name    string   `yaml:"name"`
	Columns []Column `yaml:"columns"`
}

// Catalog is a read-only table/column universe. Lookups ignore case, as the
// target tool does.
type Catalog struct {
	tables []Table
	index  map[string]map[string]Column
}

// New builds a catalog from table definitions. Repeated tables merge.
func New(tables ...Table) *Catalog {
	c := &Catalog{index: make(map[string]map[string]Column)}

	for _, t := range tables {
		c.add(t)
	}

	return c
}

func (c *Catalog) add(t Table) {
	key := fold(t.Name)
	if key == "" {
		return
	}

	cols, ok := c.index[key]
	if !ok {
		cols = make(map[string]Column)
		c.index[key] = cols
		c.tables = append(c.tables, Table{Name: strings.TrimSpace(t.Name)})
	}

	pos := c.position(key)

	for _, col := range t.Columns {
		ck := fold(col.Name)
		if ck == "" {
			continue
		}

		if _, dup := cols[ck]; dup {
			continue
		}

		col.Name = strings.TrimSpace(col.Name)
		cols[ck] = col
		c.tables[pos].Columns = append(c.tables[pos].Columns, col)
	}
}

func (c *Catalog) position(key string) int {
	for i, t := range c.tables {
		if fold(t.Name) == key {
			return i
		}
	}

	return -1
}

// Has reports whether table.column exists.
func (c *Catalog) Has(table, column string) bool {
	_, ok := c.Column(table, column)
	return ok
}

// Column returns the named column.
func (c *Catalog) Column(table, column string) (Column, bool) {
	if c == nil {
		return Column{}, false
	}

	col, ok := c.index[fold(table)][fold(column)]

	return col, ok
}

// HasTable reports whether the table exists.
func (c *Catalog) HasTable(table string) bool {
	if c == nil {
		return false
	}

	_, ok := c.index[fold(table)]

	return ok
}

// Tables returns the tables in declaration order.
func (c *Catalog) Tables() []Table {
	if c == nil {
		return nil
	}

	return append([]Table(nil), c.tables...)
}

// FromMapping builds a catalog containing every target a mapping table names.
// Useful when no separate model description is available.
func FromMapping(t *mapping.Table) *Catalog {
	c := New()

	for _, key := range t.Keys() {
		for _, cand := range t.Lookup(key) {
			c.add(Table{Name: cand.Table, Columns: []Column{{Name: cand.Column}}})
		}
	}

	return c
}

type document struct {
	Tables []Table `yaml:"tables"`
	Model  struct {
		Tables []Table `yaml:"tables"`
	} `yaml:"model"`
}

// Parse reads a catalog document. Both the plain form
// (tables: [{name, columns}]) and a model.bim JSON export
// ({"model": {"tables": [...]}}) are accepted.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return New(append(doc.Tables, doc.Model.Tables...)...), nil
}

// LoadFile loads a catalog document from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	return Parse(data)
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

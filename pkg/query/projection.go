// Package query builds parameterized PostgreSQL SELECT statements over a projection.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps logical field names to qualified column references (alias.column)
// for one table.
type ProjectionMap struct {
	schema     string
	table      string
	alias      string
	columns    map[string]string
	columnList []string
}

// NewProjectionMap creates a ProjectionMap for the given schema, table, and alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema:     schema,
		table:      table,
		alias:      alias,
		columns:    make(map[string]string),
		columnList: make([]string, 0),
	}
}

// ColumnProjection projects every column under its own name.
func ColumnProjection(schema, table, alias string, columns ...string) *ProjectionMap {
	p := NewProjectionMap(schema, table, alias)
	for _, c := range columns {
		p.Project(c, c)
	}
	return p
}

// Project adds a column mapping from database column to field name.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.qualify(column)
	p.columns[field] = qualified
	p.columnList = append(p.columnList, qualified)
	return p
}

// WithAlias returns a copy of the projection using a different table alias.
func (p *ProjectionMap) WithAlias(alias string) *ProjectionMap {
	c := NewProjectionMap(p.schema, p.table, alias)
	prefix := p.alias + "."
	fields := make(map[string]string, len(p.columns))
	for field, col := range p.columns {
		fields[col] = field
	}
	for _, col := range p.columnList {
		c.Project(strings.TrimPrefix(col, prefix), fields[col])
	}
	return c
}

func (p *ProjectionMap) Alias() string {
	return p.alias
}

// Name returns the schema-qualified table name without alias.
func (p *ProjectionMap) Name() string {
	return fmt.Sprintf("%s.%s", p.schema, p.table)
}

// Table returns the qualified table reference with alias (schema.table alias).
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column returns the qualified column for a field name, or the input if not mapped.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns all mapped columns as a comma-separated string.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.columnList, ", ")
}

func (p *ProjectionMap) ColumnList() []string {
	return p.columnList
}

// Has reports whether field is projected.
func (p *ProjectionMap) Has(field string) bool {
	_, ok := p.columns[field]
	return ok
}

func (p *ProjectionMap) qualify(column string) string {
	return fmt.Sprintf("%s.%s", p.alias, column)
}

package repository

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/JaimeStill/tollgate/pkg/query"
)

// Fields maps column names to values.
// In a Where clause a nil value matches NULL and a slice matches any element.
type Fields map[string]any

// Keys returns the column names in sorted order.
func (f Fields) Keys() []string {
	return slices.Sorted(maps.Keys(f))
}

// Criteria filters, shapes, and pages a read.
type Criteria struct {
	Where          Fields
	ExcludeID      string
	IncludeDeleted bool
	Select         []string
	Relations      []string
	Order          []query.SortField
	// Page is 1-based. Offset is the page size.
	Page   int
	Offset int
}

// Patch is one row of a bulk update.
type Patch struct {
	ID     string
	Fields Fields
}

// OnConflict selects the conflict policy of a bulk insert.
type OnConflict int

const (
	ConflictError OnConflict = iota
	ConflictDoNothing
	ConflictDoUpdate
)

// BulkOptions tunes BulkCreate and BulkUpdate.
type BulkOptions struct {
	ChunkSize       int
	SkipTransaction bool
	NoModelReturn   bool
	// ConflictColumns defaults to id when OnConflict is set.
	ConflictColumns []string
	OnConflict      OnConflict
}

// BulkDeleteOptions tunes BulkDelete.
type BulkDeleteOptions struct {
	ChunkSize       int
	Hard            bool
	SkipTransaction bool
}

func join(cols []string) string {
	return strings.Join(cols, ", ")
}

// placeholders returns n numbered parameters starting at $from.
func placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return join(ps)
}

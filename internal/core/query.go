package core

// query.go is the presentation collaborator boundary: read-only row fetching
// with an optional search term. Search matches the term against every column
// of the schema, mirroring how the extracts are browsed. Ordering follows the
// schema's OrderBy (most-recent-first for time-bearing schemas, name order
// for Contacts), with the identity column as a stable tiebreaker.

import (
	"context"
	"fmt"
	"strings"
)

// StoredRow is one persisted record with its auto-assigned identity.
type StoredRow struct {
	ID     int64
	Values map[string]any
}

// FetchRows returns rows for a schema, optionally filtered by a search term.
func FetchRows(ctx context.Context, db DBTX, schemaName, searchTerm string) ([]StoredRow, error) {
	schema, ok := Get(schemaName)
	if !ok {
		return nil, fmt.Errorf("unknown schema: %s", schemaName)
	}

	query, args := rowsQuery(schema, searchTerm)
	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", schema.Name, err)
	}
	defer rows.Close()

	cols := schema.Columns()
	var result []StoredRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		row := StoredRow{Values: make(map[string]any, len(cols))}
		if id, ok := values[0].(int64); ok {
			row.ID = id
		}
		for i, col := range cols {
			row.Values[col] = values[i+1]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return result, nil
}

// rowsQuery builds the SELECT for a schema and optional search term.
// Non-text columns are cast to text so one ILIKE parameter covers them all.
func rowsQuery(schema Schema, searchTerm string) (string, []any) {
	selectCols := make([]string, 0, len(schema.Fields)+1)
	selectCols = append(selectCols, quoteIdentifier(schema.IDColumn))
	for _, f := range schema.Fields {
		selectCols = append(selectCols, quoteIdentifier(f.Column))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s",
		strings.Join(selectCols, ", "), quoteIdentifier(schema.Name))

	var args []any
	if searchTerm = strings.TrimSpace(searchTerm); searchTerm != "" {
		conditions := make([]string, len(schema.Fields))
		for i, f := range schema.Fields {
			conditions[i] = fmt.Sprintf("%s::text ILIKE $1", quoteIdentifier(f.Column))
		}
		fmt.Fprintf(&b, " WHERE %s", strings.Join(conditions, " OR "))
		args = append(args, "%"+searchTerm+"%")
	}

	orderBy := schema.OrderBy
	if orderBy == "" {
		orderBy = quoteIdentifier(schema.IDColumn) + " ASC"
	} else {
		orderBy += ", " + quoteIdentifier(schema.IDColumn) + " ASC"
	}
	fmt.Fprintf(&b, " ORDER BY %s", orderBy)

	return b.String(), args
}

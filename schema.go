package analystdb

import (
	"context"
	"database/sql"
	"sort"
)

// Schema maps each user table to its column names in declaration order.
type Schema map[string][]string

// TableNames returns the table names in lexical order.
func (s Schema) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	listTablesQuery  = "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'"
	listColumnsQuery = "SELECT name FROM pragma_table_info(?) ORDER BY cid"
)

// Schema lists every user table and its columns. It never connects lazily.
func (s *Store) Schema(ctx context.Context) (Schema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.connection()
	if err != nil {
		return nil, err
	}

	tables, err := tableNames(ctx, db)
	if err != nil {
		return nil, NewErrorContext("schema", "").Wrap(ErrExec, err)
	}

	schema := make(Schema, len(tables))
	for _, table := range tables {
		columns, err := tableColumns(ctx, db, table)
		if err != nil {
			return nil, NewErrorContext("schema", "").WithTable(table).Wrap(ErrExec, err)
		}
		schema[table] = columns
	}
	return schema, nil
}

// tableNames reads the catalog. The rows are drained before returning since the
// store runs on a single connection.
func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, listTablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, listColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return columns, nil
}

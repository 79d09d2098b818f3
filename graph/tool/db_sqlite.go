package tool

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteExecutor is a Tool backed by a parameterized query against a
// local SQLite database, bound to a DbToolSpec with Driver == DbSQLite.
// Useful for self-contained demos and for caching tool results locally
// without an external database dependency.
type SQLiteExecutor struct {
	spec *DbToolSpec
	db   *sql.DB
}

func NewSQLiteExecutor(spec *DbToolSpec) (*SQLiteExecutor, error) {
	db, err := sql.Open("sqlite", spec.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite tool %q: %w", spec.Name, err)
	}
	return &SQLiteExecutor{spec: spec, db: db}, nil
}

func (s *SQLiteExecutor) Name() string { return s.spec.Name }

func (s *SQLiteExecutor) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	args := make([]interface{}, len(s.spec.ParamKeys))
	for i, key := range s.spec.ParamKeys {
		args[i] = input[key]
	}

	rows, err := s.db.QueryContext(ctx, s.spec.Query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite tool %q: query failed: %w", s.spec.Name, err)
	}
	defer rows.Close()

	results, err := collectSQLRows(rows)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"rows": results, "count": len(results)}, nil
}

func (s *SQLiteExecutor) Close() error { return s.db.Close() }

// collectSQLRows materializes a database/sql *sql.Rows result set into
// the generic []map[string]interface{} shape shared by every DB executor.
func collectSQLRows(rows *sql.Rows) ([]map[string]interface{}, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]interface{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(cols))
		for i, c := range cols {
			row[c] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

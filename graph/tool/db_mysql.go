package tool

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLExecutor is a Tool backed by a parameterized query against MySQL
// through database/sql, bound to a DbToolSpec with Driver == DbMySQL.
type MySQLExecutor struct {
	spec *DbToolSpec
	db   *sql.DB
}

func NewMySQLExecutor(spec *DbToolSpec) (*MySQLExecutor, error) {
	db, err := sql.Open("mysql", spec.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql tool %q: %w", spec.Name, err)
	}
	return &MySQLExecutor{spec: spec, db: db}, nil
}

func (m *MySQLExecutor) Name() string { return m.spec.Name }

func (m *MySQLExecutor) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	args := make([]interface{}, len(m.spec.ParamKeys))
	for i, key := range m.spec.ParamKeys {
		args[i] = input[key]
	}

	rows, err := m.db.QueryContext(ctx, m.spec.Query, args...)
	if err != nil {
		return nil, fmt.Errorf("mysql tool %q: query failed: %w", m.spec.Name, err)
	}
	defer rows.Close()

	results, err := collectSQLRows(rows)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"rows": results, "count": len(results)}, nil
}

func (m *MySQLExecutor) Close() error { return m.db.Close() }

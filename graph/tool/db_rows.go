package tool

import (
	"github.com/jackc/pgx/v5"
)

// collectPgxRows materializes a pgx.Rows result set into the generic
// []map[string]interface{} shape every DB executor returns, so callers
// don't need driver-specific row-scanning logic downstream.
func collectPgxRows(rows pgx.Rows) ([]map[string]interface{}, error) {
	fields := rows.FieldDescriptions()
	var out []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fields))
		for i, f := range fields {
			row[string(f.Name)] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

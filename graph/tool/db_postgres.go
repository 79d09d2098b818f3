package tool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresExecutor is a Tool backed by a parameterized query against a
// pgx connection pool, bound to a DbToolSpec with Driver == DbPostgres.
type PostgresExecutor struct {
	spec *DbToolSpec
	pool *pgxpool.Pool
}

func NewPostgresExecutor(ctx context.Context, spec *DbToolSpec) (*PostgresExecutor, error) {
	pool, err := pgxpool.New(ctx, spec.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres tool %q: %w", spec.Name, err)
	}
	return &PostgresExecutor{spec: spec, pool: pool}, nil
}

func (p *PostgresExecutor) Name() string { return p.spec.Name }

func (p *PostgresExecutor) Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error) {
	args := make([]interface{}, len(p.spec.ParamKeys))
	for i, key := range p.spec.ParamKeys {
		args[i] = input[key]
	}

	rows, err := p.pool.Query(ctx, p.spec.Query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres tool %q: query failed: %w", p.spec.Name, err)
	}
	defer rows.Close()

	results, err := collectPgxRows(rows)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"rows": results, "count": len(results)}, nil
}

func (p *PostgresExecutor) Close() {
	p.pool.Close()
}

package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/colinfo/colinfo/internal/table"
)

// PostgresReader reads the result of a query as a raw table using pgx.
type PostgresReader struct {
	connStr string
	query   string
	pool    *pgxpool.Pool
}

// NewPostgresReader creates a reader that runs query against connStr.
func NewPostgresReader(connStr, query string) *PostgresReader {
	return &PostgresReader{connStr: connStr, query: query}
}

// TableQuery returns a query selecting every row of schema.name.
func TableQuery(schema, name string) string {
	if schema == "" {
		schema = "public"
	}
	return fmt.Sprintf("SELECT * FROM %s.%s", quoteIdentPg(schema), quoteIdentPg(name))
}

func (r *PostgresReader) Connect(ctx context.Context) error {
	cfg, err := pgxpool.ParseConfig(r.connStr)
	if err != nil {
		return fmt.Errorf("parsing connection string: %w", err)
	}
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connecting to PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging PostgreSQL: %w", err)
	}
	r.pool = pool
	return nil
}

// Read runs the query. Column order follows the result's field order; SQL
// NULLs become null cells and other values keep their driver types.
func (r *PostgresReader) Read(ctx context.Context) (*table.Table, error) {
	if r.pool == nil {
		if err := r.Connect(ctx); err != nil {
			return nil, err
		}
	}

	rows, err := r.pool.Query(ctx, r.query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	descs := rows.FieldDescriptions()
	header := make([]string, len(descs))
	for i, d := range descs {
		header[i] = d.Name
	}

	var records [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	return table.New(header, records)
}

func (r *PostgresReader) Close() error {
	if r.pool != nil {
		r.pool.Close()
	}
	return nil
}

func quoteIdentPg(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

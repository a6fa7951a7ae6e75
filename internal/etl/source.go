package etl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-analyzer/internal/logging"
)

// Source reads rows from the legacy store. Rows come back as generic maps
// keyed by the legacy column names (camelCase, Prisma-era).
type Source interface {
	// FetchAll returns every row of one legacy table.
	FetchAll(ctx context.Context, table string) ([]map[string]any, error)
	// FetchChildren returns the rows of a child table belonging to one parent.
	FetchChildren(ctx context.Context, table, parentColumn string, parentID any) ([]map[string]any, error)
	// Close releases the underlying connection.
	Close()
}

// LegacySource reads from the legacy Postgres store. Legacy tables and
// columns carry Prisma's quoted mixed-case identifiers, so every identifier
// is quoted verbatim.
type LegacySource struct {
	pool   *pgxpool.Pool
	logger *logging.Logger
}

func NewLegacySource(pool *pgxpool.Pool, logger *logging.Logger) *LegacySource {
	return &LegacySource{pool: pool, logger: logger}
}

func (s *LegacySource) FetchAll(ctx context.Context, table string) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %q`, table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func (s *LegacySource) FetchChildren(ctx context.Context, table, parentColumn string, parentID any) ([]map[string]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %q WHERE %q = $1`, table, parentColumn)

	rows, err := s.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s for %s=%v: %w", table, parentColumn, parentID, err)
	}
	defer rows.Close()

	return collectRows(rows)
}

func (s *LegacySource) Close() {
	s.pool.Close()
	s.logger.Info("Legacy store connection closed")
}

// collectRows materializes a result set into maps keyed by column name.
// The legacy tables are small enough that loading a full table is fine.
func collectRows(rows pgx.Rows) ([]map[string]any, error) {
	fields := rows.FieldDescriptions()

	var out []map[string]any
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration failed: %w", err)
	}
	return out, nil
}

package etl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-analyzer/internal/logging"
)

// Sink writes mapped rows into the destination store. Tables using Insert
// duplicate rows on a re-run; tables using Upsert are idempotent on their
// conflict key.
type Sink interface {
	Insert(ctx context.Context, table string, row map[string]any) error
	Upsert(ctx context.Context, table string, row map[string]any, conflictColumns ...string) error
}

// DestinationSink writes to the destination Postgres store, one
// auto-committed statement per row.
type DestinationSink struct {
	pool *pgxpool.Pool
}

func NewDestinationSink(pool *pgxpool.Pool) *DestinationSink {
	return &DestinationSink{pool: pool}
}

func (s *DestinationSink) Insert(ctx context.Context, table string, row map[string]any) error {
	columns, values := splitRow(row)

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
	)

	if _, err := s.pool.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("insert into %s failed: %w", table, err)
	}
	return nil
}

// Upsert issues a native INSERT ... ON CONFLICT DO UPDATE so that concurrent
// writers and re-runs resolve atomically in the database.
func (s *DestinationSink) Upsert(ctx context.Context, table string, row map[string]any, conflictColumns ...string) error {
	columns, values := splitRow(row)

	conflictSet := make(map[string]bool, len(conflictColumns))
	for _, c := range conflictColumns {
		conflictSet[c] = true
	}

	var updates []string
	for _, col := range columns {
		if conflictSet[col] {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		placeholders(len(columns)),
		strings.Join(conflictColumns, ", "),
		strings.Join(updates, ", "),
	)

	if _, err := s.pool.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("upsert into %s failed: %w", table, err)
	}
	return nil
}

// splitRow returns the row's columns in deterministic order with their values.
func splitRow(row map[string]any) ([]string, []any) {
	columns := make([]string, 0, len(row))
	for col := range row {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = row[col]
	}
	return columns, values
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

// DryRunSink counts writes without performing them, so a migration run can be
// previewed against live source data.
type DryRunSink struct {
	logger *logging.Logger
}

func NewDryRunSink(logger *logging.Logger) *DryRunSink {
	return &DryRunSink{logger: logger}
}

func (s *DryRunSink) Insert(ctx context.Context, table string, row map[string]any) error {
	s.logger.WithFields(map[string]interface{}{
		"table": table,
		"rowId": row["id"],
	}).Debug("Dry run: would insert row")
	return nil
}

func (s *DryRunSink) Upsert(ctx context.Context, table string, row map[string]any, conflictColumns ...string) error {
	s.logger.WithFields(map[string]interface{}{
		"table":    table,
		"rowId":    row["id"],
		"conflict": strings.Join(conflictColumns, ","),
	}).Debug("Dry run: would upsert row")
	return nil
}

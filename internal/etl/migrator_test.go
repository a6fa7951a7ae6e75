package etl

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/project-analyzer/internal/logging"
)

// fakeSource serves canned rows per legacy table.
type fakeSource struct {
	tables   map[string][]map[string]any
	children map[string]map[string][]map[string]any // table -> parent id -> rows
	fetchErr map[string]error
	closed   bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		tables:   make(map[string][]map[string]any),
		children: make(map[string]map[string][]map[string]any),
		fetchErr: make(map[string]error),
	}
}

func (s *fakeSource) FetchAll(ctx context.Context, table string) ([]map[string]any, error) {
	if err := s.fetchErr[table]; err != nil {
		return nil, err
	}
	return s.tables[table], nil
}

func (s *fakeSource) FetchChildren(ctx context.Context, table, parentColumn string, parentID any) ([]map[string]any, error) {
	if err := s.fetchErr[table]; err != nil {
		return nil, err
	}
	return s.children[table][fmt.Sprintf("%v", parentID)], nil
}

func (s *fakeSource) Close() {
	s.closed = true
}

// fakeSink stores written rows in memory. Insert appends; Upsert replaces the
// row with the same conflict-key values, mirroring ON CONFLICT DO UPDATE.
type fakeSink struct {
	rows    map[string][]map[string]any
	failIDs map[string]bool // "table/id" -> fail the write
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		rows:    make(map[string][]map[string]any),
		failIDs: make(map[string]bool),
	}
}

func (s *fakeSink) failOn(table, id string) {
	s.failIDs[table+"/"+id] = true
}

func (s *fakeSink) checkFailure(table string, row map[string]any) error {
	if s.failIDs[fmt.Sprintf("%s/%v", table, row["id"])] {
		return errors.New("simulated write failure")
	}
	return nil
}

func (s *fakeSink) Insert(ctx context.Context, table string, row map[string]any) error {
	if err := s.checkFailure(table, row); err != nil {
		return err
	}
	s.rows[table] = append(s.rows[table], row)
	return nil
}

func (s *fakeSink) Upsert(ctx context.Context, table string, row map[string]any, conflictColumns ...string) error {
	if err := s.checkFailure(table, row); err != nil {
		return err
	}
	for i, existing := range s.rows[table] {
		match := true
		for _, col := range conflictColumns {
			if existing[col] != row[col] {
				match = false
				break
			}
		}
		if match {
			s.rows[table][i] = row
			return nil
		}
	}
	s.rows[table] = append(s.rows[table], row)
	return nil
}

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelError, logging.FormatJSON)
}

func userRow(id string) map[string]any {
	return map[string]any{
		"id":        id,
		"email":     id + "@example.com",
		"tier":      "free",
		"createdAt": time.Now(),
		"updatedAt": time.Now(),
	}
}

func TestMigrateUsersPartialFailure(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	for i := 1; i <= 5; i++ {
		source.tables[legacyUsers] = append(source.tables[legacyUsers], userRow(fmt.Sprintf("u%d", i)))
	}
	sink.failOn("users", "u3")

	m := NewMigrator(source, sink, testLogger())
	report, err := m.MigrateUsers(context.Background())
	require.NoError(t, err)

	// Every row is attempted; exactly N-1 land.
	assert.Equal(t, 5, report.RowsFound)
	assert.Equal(t, 4, report.Migrated)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, sink.rows["users"], 4)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "u3", report.Failures[0].RowID)
}

func TestMigrateUsersIdempotent(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyUsers] = []map[string]any{userRow("u1"), userRow("u2")}

	m := NewMigrator(source, sink, testLogger())

	for run := 0; run < 2; run++ {
		_, err := m.MigrateUsers(context.Background())
		require.NoError(t, err)
	}

	assert.Len(t, sink.rows["users"], 2, "user upsert must not duplicate on re-run")
}

func TestMigrateToolDataDuplicatesOnRerun(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyToolData] = []map[string]any{
		{"id": "t1", "userId": "u1", "toolName": "keyword", "createdAt": time.Now()},
	}

	m := NewMigrator(source, sink, testLogger())

	for run := 0; run < 2; run++ {
		_, err := m.MigrateToolData(context.Background())
		require.NoError(t, err)
	}

	// Plain insert: the second run writes the same row again.
	assert.Len(t, sink.rows["tool_data"], 2)
}

func TestMigrateIndexersParentSkip(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyIndexer] = []map[string]any{
		{"id": "i1", "userId": "u1", "indexerName": "bad", "status": "active"},
		{"id": "i2", "userId": "u1", "indexerName": "good", "status": "active"},
	}
	source.children[legacyIndexerJob] = map[string][]map[string]any{
		"i1": {{"id": "j1", "indexerId": "i1", "jobType": "scan"}},
		"i2": {{"id": "j2", "indexerId": "i2", "jobType": "scan"}},
	}
	source.children[legacyIndexerConfig] = map[string][]map[string]any{
		"i1": {{"id": "c1", "indexerId": "i1", "configKey": "rpc", "configValue": "x"}},
	}
	sink.failOn("indexers", "i1")

	m := NewMigrator(source, sink, testLogger())
	reports, err := m.MigrateIndexers(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	parents, jobs, configs := reports[0], reports[1], reports[2]

	// The failed parent's children are skipped, the sibling's are written.
	assert.Equal(t, 1, parents.Migrated)
	assert.Equal(t, 1, parents.Failed)
	assert.Equal(t, 1, jobs.Migrated)
	assert.Equal(t, 1, jobs.Skipped)
	assert.Equal(t, 0, configs.Migrated)
	assert.Equal(t, 1, configs.Skipped)

	require.Len(t, sink.rows["indexer_jobs"], 1)
	assert.Equal(t, "j2", sink.rows["indexer_jobs"][0]["id"])
	assert.Empty(t, sink.rows["indexer_configs"])
}

func TestMigrateBlocksOwnershipChain(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyBlock] = []map[string]any{
		{"id": "b1", "blockNumber": int64(100), "blockHash": "0xa"},
		{"id": "b2", "blockNumber": int64(101), "blockHash": "0xb"},
	}
	source.children[legacyBlockTransaction] = map[string][]map[string]any{
		"b1": {{"id": "tx1", "blockId": "b1", "transactionHash": "0x1"}},
		"b2": {{"id": "tx2", "blockId": "b2", "transactionHash": "0x2"}},
	}
	source.children[legacyTransactionEvent] = map[string][]map[string]any{
		"tx1": {{"id": "e1", "transactionId": "tx1", "eventName": "Transfer"}},
		"tx2": {{"id": "e2", "transactionId": "tx2", "eventName": "Approval"}},
	}
	sink.failOn("blocks", "b1")

	m := NewMigrator(source, sink, testLogger())
	reports, err := m.MigrateBlocks(context.Background())
	require.NoError(t, err)

	blocks, transactions, events := reports[0], reports[1], reports[2]

	assert.Equal(t, 1, blocks.Migrated)
	assert.Equal(t, 1, blocks.Failed)
	assert.Equal(t, 1, transactions.Skipped)
	assert.Equal(t, 1, transactions.Migrated)
	assert.Equal(t, 1, events.Skipped)
	assert.Equal(t, 1, events.Migrated)

	require.Len(t, sink.rows["transaction_events"], 1)
	assert.Equal(t, "e2", sink.rows["transaction_events"][0]["id"])
}

func TestMigrateTransactionFailureSkipsEvents(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyBlock] = []map[string]any{
		{"id": "b1", "blockNumber": int64(100), "blockHash": "0xa"},
	}
	source.children[legacyBlockTransaction] = map[string][]map[string]any{
		"b1": {
			{"id": "tx1", "blockId": "b1", "transactionHash": "0x1"},
			{"id": "tx2", "blockId": "b1", "transactionHash": "0x2"},
		},
	}
	source.children[legacyTransactionEvent] = map[string][]map[string]any{
		"tx1": {{"id": "e1", "transactionId": "tx1", "eventName": "Transfer"}},
		"tx2": {{"id": "e2", "transactionId": "tx2", "eventName": "Transfer"}},
	}
	sink.failOn("block_transactions", "tx1")

	m := NewMigrator(source, sink, testLogger())
	reports, err := m.MigrateBlocks(context.Background())
	require.NoError(t, err)

	transactions, events := reports[1], reports[2]

	assert.Equal(t, 1, transactions.Failed)
	assert.Equal(t, 1, transactions.Migrated)
	assert.Equal(t, 1, events.Skipped)
	assert.Equal(t, 1, events.Migrated)
	require.Len(t, sink.rows["transaction_events"], 1)
	assert.Equal(t, "e2", sink.rows["transaction_events"][0]["id"])
}

func TestMigrateTableMapsColumns(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	source.tables[legacyToolPayment] = []map[string]any{
		{"id": "p1", "userId": "u1", "transactionHash": "0x9", "amountWei": "100", "status": "confirmed", "createdAt": created},
	}

	m := NewMigrator(source, sink, testLogger())
	_, err := m.MigratePayments(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.rows["tool_payments"], 1)
	row := sink.rows["tool_payments"][0]
	assert.Equal(t, "u1", row["user_id"])
	assert.Equal(t, "0x9", row["transaction_hash"])
	assert.Equal(t, "2024-01-02T03:04:05.000Z", row["created_at"])
	assert.NotContains(t, row, "userId")
}

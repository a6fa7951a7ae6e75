package etl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestratorRunsTablesInOrder(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyUsers] = []map[string]any{userRow("u1")}
	source.tables[legacyToolData] = []map[string]any{
		{"id": "t1", "userId": "u1", "toolName": "keyword"},
	}
	source.tables[legacyToolPayment] = []map[string]any{
		{"id": "p1", "userId": "u1", "transactionHash": "0x1", "amountWei": "1", "status": "confirmed"},
	}

	m := NewMigrator(source, sink, testLogger())
	o := NewOrchestrator(m, source, testLogger())

	report := o.Run(context.Background(), RunOptions{})

	require.Empty(t, report.Err)
	assert.True(t, source.closed, "legacy teardown must run")
	assert.Equal(t, 3, report.TotalMigrated())

	// Fixed sequence: users come first, payments after the entity chains.
	require.GreaterOrEqual(t, len(report.Tables), 17)
	assert.Equal(t, "users", report.Tables[0].Table)
	assert.Equal(t, "tool_data", report.Tables[1].Table)
	assert.Equal(t, "analysis_summaries", report.Tables[len(report.Tables)-1].Table)
}

func TestOrchestratorAbortsOnFetchFailure(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyUsers] = []map[string]any{userRow("u1")}
	source.fetchErr[legacyToolData] = errors.New("legacy store unreachable")
	source.tables[legacyToolPayment] = []map[string]any{
		{"id": "p1", "userId": "u1", "transactionHash": "0x1"},
	}

	m := NewMigrator(source, sink, testLogger())
	o := NewOrchestrator(m, source, testLogger())

	report := o.Run(context.Background(), RunOptions{})

	assert.Contains(t, report.Err, "legacy store unreachable")
	assert.True(t, source.closed, "teardown runs even when a step aborts")

	// Users migrated before the failure; payments never attempted.
	assert.Len(t, sink.rows["users"], 1)
	assert.Empty(t, sink.rows["tool_payments"])
}

func TestOrchestratorTableFilter(t *testing.T) {
	source := newFakeSource()
	sink := newFakeSink()

	source.tables[legacyUsers] = []map[string]any{userRow("u1")}
	source.tables[legacyToolData] = []map[string]any{
		{"id": "t1", "userId": "u1", "toolName": "keyword"},
	}

	m := NewMigrator(source, sink, testLogger())
	o := NewOrchestrator(m, source, testLogger())

	report := o.Run(context.Background(), RunOptions{Tables: []string{"users"}})

	require.Empty(t, report.Err)
	require.Len(t, report.Tables, 1)
	assert.Equal(t, "users", report.Tables[0].Table)
	assert.Empty(t, sink.rows["tool_data"])
}

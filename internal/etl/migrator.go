package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/project-analyzer/internal/logging"
)

// Legacy table names carry the Prisma-era PascalCase identifiers.
const (
	legacyUsers             = "User"
	legacyToolData          = "ToolData"
	legacyMetadata          = "MetadataAnalysis"
	legacyContentAudit      = "ContentAudit"
	legacyKeyword           = "KeywordAnalysis"
	legacyLinkVerification  = "LinkVerification"
	legacyPerformance       = "PerformanceAnalysis"
	legacyCompetition       = "CompetitionAnalysis"
	legacyBlockchain        = "BlockchainAnalysis"
	legacyAIDashboard       = "AIDashboardAnalysis"
	legacySocialWeb3        = "SocialWeb3Analysis"
	legacyIndexer           = "Indexer"
	legacyIndexerJob        = "IndexerJob"
	legacyIndexerConfig     = "IndexerConfig"
	legacyBlock             = "Block"
	legacyBlockTransaction  = "BlockTransaction"
	legacyTransactionEvent  = "TransactionEvent"
	legacyToolPayment       = "ToolPayment"
	legacyUserSettings      = "UserSettings"
	legacyAnalysisHistory   = "AnalysisHistory"
	legacyAnalysisSummary   = "AnalysisSummary"
)

// Migrator copies one legacy table at a time into the destination store.
// Rows are processed strictly in fetch order, one write per row. A failed
// write is recorded in the table report and the loop continues; a failed
// parent skips its children but never its siblings.
type Migrator struct {
	source Source
	sink   Sink
	logger *logging.Logger
}

func NewMigrator(source Source, sink Sink, logger *logging.Logger) *Migrator {
	return &Migrator{source: source, sink: sink, logger: logger}
}

// MigrateUsers upserts users keyed by id, so re-running it is idempotent.
func (m *Migrator) MigrateUsers(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyUsers, "users", true, "id")
}

// MigrateToolData inserts tool activity rows. Plain insert: a re-run
// duplicates these rows.
func (m *Migrator) MigrateToolData(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyToolData, "tool_data", false)
}

func (m *Migrator) MigrateMetadataAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyMetadata, "metadata_analyses", false)
}

func (m *Migrator) MigrateContentAudits(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyContentAudit, "content_audits", false)
}

func (m *Migrator) MigrateKeywordAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyKeyword, "keyword_analyses", false)
}

func (m *Migrator) MigrateLinkVerifications(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyLinkVerification, "link_verifications", false)
}

func (m *Migrator) MigratePerformanceAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyPerformance, "performance_analyses", false)
}

func (m *Migrator) MigrateCompetitionAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyCompetition, "competition_analyses", false)
}

func (m *Migrator) MigrateBlockchainAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyBlockchain, "blockchain_analyses", false)
}

func (m *Migrator) MigrateAIDashboardAnalyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyAIDashboard, "ai_dashboard_analyses", false)
}

func (m *Migrator) MigrateSocialWeb3Analyses(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacySocialWeb3, "social_web3_analyses", false)
}

func (m *Migrator) MigratePayments(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyToolPayment, "tool_payments", false)
}

func (m *Migrator) MigrateSettings(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyUserSettings, "user_settings", false)
}

func (m *Migrator) MigrateHistory(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyAnalysisHistory, "analysis_history", false)
}

func (m *Migrator) MigrateSummaries(ctx context.Context) (TableReport, error) {
	return m.migrateTable(ctx, legacyAnalysisSummary, "analysis_summaries", false)
}

// MigrateIndexers migrates indexers with their jobs and configs. Indexers
// upsert by id; a failed indexer skips its own children, sibling indexers
// are still processed.
func (m *Migrator) MigrateIndexers(ctx context.Context) ([]TableReport, error) {
	start := time.Now()

	parents := TableReport{Table: "indexers"}
	jobs := TableReport{Table: "indexer_jobs"}
	configs := TableReport{Table: "indexer_configs"}

	rows, err := m.source.FetchAll(ctx, legacyIndexer)
	if err != nil {
		return nil, err
	}
	parents.RowsFound = len(rows)
	m.logFound(legacyIndexer, len(rows))

	for _, row := range rows {
		id := rowID(row)

		childJobs, err := m.source.FetchChildren(ctx, legacyIndexerJob, "indexerId", row["id"])
		if err != nil {
			return nil, err
		}
		childConfigs, err := m.source.FetchChildren(ctx, legacyIndexerConfig, "indexerId", row["id"])
		if err != nil {
			return nil, err
		}
		jobs.RowsFound += len(childJobs)
		configs.RowsFound += len(childConfigs)

		if err := m.sink.Upsert(ctx, "indexers", MapRow(row), "id"); err != nil {
			m.logRowFailure("indexers", id, err)
			parents.recordFailure(id, err)
			jobs.recordSkip(len(childJobs))
			configs.recordSkip(len(childConfigs))
			continue
		}
		parents.recordSuccess()

		m.writeRows(ctx, &jobs, childJobs)
		m.writeRows(ctx, &configs, childConfigs)
	}

	elapsed := time.Since(start)
	parents.Duration = elapsed
	jobs.Duration = elapsed
	configs.Duration = elapsed

	m.logDone(&parents)
	m.logDone(&jobs)
	m.logDone(&configs)

	return []TableReport{parents, jobs, configs}, nil
}

// MigrateBlocks migrates the block -> transaction -> event ownership chain.
// Writes are not transactional, so parents are written strictly before their
// children and a failed parent skips everything underneath it.
func (m *Migrator) MigrateBlocks(ctx context.Context) ([]TableReport, error) {
	start := time.Now()

	blocks := TableReport{Table: "blocks"}
	transactions := TableReport{Table: "block_transactions"}
	events := TableReport{Table: "transaction_events"}

	rows, err := m.source.FetchAll(ctx, legacyBlock)
	if err != nil {
		return nil, err
	}
	blocks.RowsFound = len(rows)
	m.logFound(legacyBlock, len(rows))

	for _, row := range rows {
		id := rowID(row)

		txRows, err := m.source.FetchChildren(ctx, legacyBlockTransaction, "blockId", row["id"])
		if err != nil {
			return nil, err
		}
		transactions.RowsFound += len(txRows)

		if err := m.sink.Insert(ctx, "blocks", MapRow(row)); err != nil {
			m.logRowFailure("blocks", id, err)
			blocks.recordFailure(id, err)
			// Children of a failed block are unreachable; count them before
			// skipping so the report still accounts for every source row.
			for _, tx := range txRows {
				evRows, err := m.source.FetchChildren(ctx, legacyTransactionEvent, "transactionId", tx["id"])
				if err != nil {
					return nil, err
				}
				events.RowsFound += len(evRows)
				events.recordSkip(len(evRows))
			}
			transactions.recordSkip(len(txRows))
			continue
		}
		blocks.recordSuccess()

		for _, tx := range txRows {
			txID := rowID(tx)

			evRows, err := m.source.FetchChildren(ctx, legacyTransactionEvent, "transactionId", tx["id"])
			if err != nil {
				return nil, err
			}
			events.RowsFound += len(evRows)

			if err := m.sink.Insert(ctx, "block_transactions", MapRow(tx)); err != nil {
				m.logRowFailure("block_transactions", txID, err)
				transactions.recordFailure(txID, err)
				events.recordSkip(len(evRows))
				continue
			}
			transactions.recordSuccess()

			m.writeRows(ctx, &events, evRows)
		}
	}

	elapsed := time.Since(start)
	blocks.Duration = elapsed
	transactions.Duration = elapsed
	events.Duration = elapsed

	m.logDone(&blocks)
	m.logDone(&transactions)
	m.logDone(&events)

	return []TableReport{blocks, transactions, events}, nil
}

// migrateTable is the common single-table loop. A fetch failure escapes to
// the caller; per-row write failures are swallowed into the report.
func (m *Migrator) migrateTable(ctx context.Context, legacyTable, destTable string, upsert bool, conflictColumns ...string) (TableReport, error) {
	start := time.Now()
	report := TableReport{Table: destTable}

	rows, err := m.source.FetchAll(ctx, legacyTable)
	if err != nil {
		return report, err
	}
	report.RowsFound = len(rows)
	m.logFound(legacyTable, len(rows))

	for _, row := range rows {
		id := rowID(row)
		mapped := MapRow(row)

		var writeErr error
		if upsert {
			writeErr = m.sink.Upsert(ctx, destTable, mapped, conflictColumns...)
		} else {
			writeErr = m.sink.Insert(ctx, destTable, mapped)
		}
		if writeErr != nil {
			m.logRowFailure(destTable, id, writeErr)
			report.recordFailure(id, writeErr)
			continue
		}
		report.recordSuccess()
	}

	report.Duration = time.Since(start)
	m.logDone(&report)
	return report, nil
}

// writeRows inserts a batch of already-fetched child rows into the report's
// table, continuing past individual failures.
func (m *Migrator) writeRows(ctx context.Context, report *TableReport, rows []map[string]any) {
	for _, row := range rows {
		id := rowID(row)
		if err := m.sink.Insert(ctx, report.Table, MapRow(row)); err != nil {
			m.logRowFailure(report.Table, id, err)
			report.recordFailure(id, err)
			continue
		}
		report.recordSuccess()
	}
}

func (m *Migrator) logFound(table string, count int) {
	m.logger.WithFields(map[string]interface{}{
		"table":     table,
		"rowsFound": count,
	}).Info("Fetched legacy rows")
}

func (m *Migrator) logRowFailure(table, rowID string, err error) {
	m.logger.WithFields(map[string]interface{}{
		"table": table,
		"rowId": rowID,
	}).WithError(err).Warn("Row migration failed, continuing")
}

func (m *Migrator) logDone(report *TableReport) {
	m.logger.WithFields(map[string]interface{}{
		"table":    report.Table,
		"migrated": report.Migrated,
		"failed":   report.Failed,
		"skipped":  report.Skipped,
	}).Info("Table migration complete")
}

func rowID(row map[string]any) string {
	if id, ok := row["id"]; ok {
		return fmt.Sprintf("%v", id)
	}
	return "<no id>"
}

package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/project-analyzer/internal/logging"
)

// Orchestrator runs the per-table migrations in a fixed, hand-coded order
// that respects parent-before-child dependencies. Each step already swallows
// its own row-level failures, so an error reaching the orchestrator (a fetch
// failure or a panic) aborts the remaining steps; legacy teardown always runs.
type Orchestrator struct {
	migrator *Migrator
	source   Source
	logger   *logging.Logger
}

func NewOrchestrator(migrator *Migrator, source Source, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{migrator: migrator, source: source, logger: logger}
}

// RunOptions narrows a run to a subset of destination tables. An empty
// Tables list runs everything.
type RunOptions struct {
	Tables []string
}

func (o RunOptions) includes(names ...string) bool {
	if len(o.Tables) == 0 {
		return true
	}
	for _, want := range o.Tables {
		for _, name := range names {
			if want == name {
				return true
			}
		}
	}
	return false
}

type step struct {
	// tables names every destination table the step writes, for filtering.
	tables []string
	run    func(ctx context.Context) ([]TableReport, error)
}

func single(fn func(ctx context.Context) (TableReport, error)) func(ctx context.Context) ([]TableReport, error) {
	return func(ctx context.Context) ([]TableReport, error) {
		report, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return []TableReport{report}, nil
	}
}

// Run executes the full migration sequence and returns the aggregated report.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (report *Report) {
	report = &Report{StartedAt: time.Now()}

	defer func() {
		o.source.Close()
		report.FinishedAt = time.Now()
	}()
	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Sprintf("migration panicked: %v", r)
			o.logger.WithField("panic", r).Error("Migration aborted by panic")
		}
	}()

	m := o.migrator
	steps := []step{
		{tables: []string{"users"}, run: single(m.MigrateUsers)},
		{tables: []string{"tool_data"}, run: single(m.MigrateToolData)},
		{tables: []string{"metadata_analyses"}, run: single(m.MigrateMetadataAnalyses)},
		{tables: []string{"content_audits"}, run: single(m.MigrateContentAudits)},
		{tables: []string{"keyword_analyses"}, run: single(m.MigrateKeywordAnalyses)},
		{tables: []string{"link_verifications"}, run: single(m.MigrateLinkVerifications)},
		{tables: []string{"performance_analyses"}, run: single(m.MigratePerformanceAnalyses)},
		{tables: []string{"competition_analyses"}, run: single(m.MigrateCompetitionAnalyses)},
		{tables: []string{"blockchain_analyses"}, run: single(m.MigrateBlockchainAnalyses)},
		{tables: []string{"ai_dashboard_analyses"}, run: single(m.MigrateAIDashboardAnalyses)},
		{tables: []string{"social_web3_analyses"}, run: single(m.MigrateSocialWeb3Analyses)},
		{tables: []string{"indexers", "indexer_jobs", "indexer_configs"}, run: m.MigrateIndexers},
		{tables: []string{"blocks", "block_transactions", "transaction_events"}, run: m.MigrateBlocks},
		{tables: []string{"tool_payments"}, run: single(m.MigratePayments)},
		{tables: []string{"user_settings"}, run: single(m.MigrateSettings)},
		{tables: []string{"analysis_history"}, run: single(m.MigrateHistory)},
		{tables: []string{"analysis_summaries"}, run: single(m.MigrateSummaries)},
	}

	o.logger.Info("Starting legacy data migration")

	for _, s := range steps {
		if !opts.includes(s.tables...) {
			continue
		}
		tableReports, err := s.run(ctx)
		if err != nil {
			report.Err = err.Error()
			o.logger.WithError(err).WithField("tables", s.tables).
				Error("Migration step failed, aborting remaining steps")
			return report
		}
		report.Tables = append(report.Tables, tableReports...)
	}

	o.logger.WithFields(map[string]interface{}{
		"migrated": report.TotalMigrated(),
		"failed":   report.TotalFailed(),
	}).Info("Legacy data migration complete")

	return report
}

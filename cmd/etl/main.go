// Package main provides the legacy data migration CLI. It copies every
// table of the legacy store into the current schema and prints a per-row
// migration report.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"strings"

	"github.com/project-analyzer/internal/config"
	"github.com/project-analyzer/internal/etl"
	"github.com/project-analyzer/internal/logging"
	"github.com/project-analyzer/internal/storage"
)

func main() {
	var (
		tables  = flag.String("tables", "", "Comma-separated destination tables to migrate (default: all)")
		dryRun  = flag.Bool("dry-run", false, "Read and map rows without writing to the destination")
		outPath = flag.String("report", "", "Write the JSON migration report to this file (default: stdout)")
	)
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logging.InitGlobalLogger(
		logging.ParseLogLevel(cfg.Logging.Level),
		logging.ParseLogFormat(cfg.Logging.Format),
	)
	logger := logging.GetGlobalLogger()

	legacy, err := storage.NewPostgresDB(&cfg.Database.Legacy)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to legacy store")
	}

	source := etl.NewLegacySource(legacy.Pool(), logger)

	var sink etl.Sink
	if *dryRun {
		logger.Info("Dry run: no rows will be written")
		sink = etl.NewDryRunSink(logger)
	} else {
		destination, err := storage.NewPostgresDB(&cfg.Database.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to destination store")
		}
		defer destination.Close()
		sink = etl.NewDestinationSink(destination.Pool())
	}

	opts := etl.RunOptions{}
	if *tables != "" {
		for _, t := range strings.Split(*tables, ",") {
			opts.Tables = append(opts.Tables, strings.TrimSpace(t))
		}
	}

	migrator := etl.NewMigrator(source, sink, logger)
	orchestrator := etl.NewOrchestrator(migrator, source, logger)

	report := orchestrator.Run(context.Background(), opts)

	if err := writeReport(report, *outPath); err != nil {
		logger.WithError(err).Error("Failed to write migration report")
	}

	if report.Err != "" {
		logger.WithField("error", report.Err).Error("Migration did not complete")
		os.Exit(1)
	}
	if report.TotalFailed() > 0 {
		logger.WithField("failed", report.TotalFailed()).Warn("Migration completed with row failures")
		os.Exit(2)
	}
}

func writeReport(report *etl.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

package etl

import "time"

// RowFailure records one row that could not be written to the destination.
type RowFailure struct {
	RowID  string `json:"rowId"`
	Reason string `json:"reason"`
}

// TableReport is the outcome of migrating one legacy table. Every row the
// source returned is accounted for: Migrated + Failed + Skipped == RowsFound.
type TableReport struct {
	Table     string       `json:"table"`
	RowsFound int          `json:"rowsFound"`
	Migrated  int          `json:"migrated"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Failures  []RowFailure `json:"failures,omitempty"`
	Duration  time.Duration `json:"duration"`
}

func (r *TableReport) recordSuccess() {
	r.Migrated++
}

func (r *TableReport) recordFailure(rowID string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, RowFailure{RowID: rowID, Reason: err.Error()})
}

// recordSkip counts a child row that was never attempted because its parent
// failed to migrate.
func (r *TableReport) recordSkip(n int) {
	r.Skipped += n
}

// Report aggregates the per-table reports of one migration run.
type Report struct {
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Tables     []TableReport `json:"tables"`
	Err        string        `json:"error,omitempty"`
}

// TotalFailed returns the number of failed rows across all tables.
func (r *Report) TotalFailed() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Failed
	}
	return total
}

// TotalMigrated returns the number of migrated rows across all tables.
func (r *Report) TotalMigrated() int {
	total := 0
	for _, t := range r.Tables {
		total += t.Migrated
	}
	return total
}

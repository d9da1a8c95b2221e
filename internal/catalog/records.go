package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookvoice/internal/export"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunCancelled RunStatus = "cancelled"
)

// Run is one pipeline invocation.
type Run struct {
	ID             string
	SourcePath     string
	SourceLanguage string
	TargetLanguage string
	Total          int
	Sequenced      int
	Degraded       int
	ExportFailures int
	Status         RunStatus
	StartedAt      time.Time
	FinishedAt     time.Time
	// Exports is filled by Runs with the number of recorded batches.
	Exports int
}

// Entry is one committed export batch.
type Entry struct {
	RunID         string
	ChunkID       string
	RangeLabel    string
	StartSentence int
	EndSentence   int
	Artifacts     []string
	CommittedAt   time.Time
}

// BeginRun inserts a running run row.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("catalog: run id required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	_, err := s.exec(ctx, `INSERT INTO runs (id, source_path, source_language, target_language, total, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourcePath, run.SourceLanguage, run.TargetLanguage, run.Total, string(RunRunning), formatTime(run.StartedAt))
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	res, err := s.exec(ctx, `UPDATE runs SET total = ?, sequenced = ?, degraded = ?, export_failures = ?, status = ?, finished_at = ?
		WHERE id = ?`,
		run.Total, run.Sequenced, run.Degraded, run.ExportFailures, string(run.Status), formatTime(run.FinishedAt), run.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", run.ID, sql.ErrNoRows)
	}
	return nil
}

// Record stores a committed batch for runID.
func (s *Store) Record(ctx context.Context, runID string, result export.Result) error {
	artifacts, err := json.Marshal(result.Artifacts)
	if err != nil {
		return fmt.Errorf("encode artifacts: %w", err)
	}
	committed := result.CommittedAt
	if committed.IsZero() {
		committed = time.Now()
	}
	_, err = s.exec(ctx, `INSERT INTO exports (run_id, chunk_id, range_label, start_sentence, end_sentence, artifacts_json, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, result.ChunkID, result.RangeLabel, result.StartSentence, result.EndSentence, string(artifacts), formatTime(committed))
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

// List returns the batches of runID ordered by sentence, or of every run
// when runID is empty.
func (s *Store) List(ctx context.Context, runID string) ([]Entry, error) {
	query := `SELECT run_id, chunk_id, range_label, start_sentence, end_sentence, artifacts_json, committed_at FROM exports`
	var args []any
	if runID != "" {
		query += " WHERE run_id = ?"
		args = append(args, runID)
	}
	query += " ORDER BY committed_at, start_sentence"
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			artifactsRaw string
			committedRaw string
		)
		if err := rows.Scan(&entry.RunID, &entry.ChunkID, &entry.RangeLabel, &entry.StartSentence, &entry.EndSentence, &artifactsRaw, &committedRaw); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if err := json.Unmarshal([]byte(artifactsRaw), &entry.Artifacts); err != nil {
			return nil, fmt.Errorf("decode artifacts of %s: %w", entry.ChunkID, err)
		}
		entry.CommittedAt = parseTime(committedRaw)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Runs returns every run, newest first, with its batch count.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT r.id, r.source_path, r.source_language, r.target_language, r.total, r.sequenced,
		r.degraded, r.export_failures, r.status, r.started_at, r.finished_at,
		(SELECT COUNT(1) FROM exports e WHERE e.run_id = r.id)
		FROM runs r ORDER BY r.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run                    Run
			sourceLang, targetLang sql.NullString
			status, startedRaw     string
			finishedRaw            sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.SourcePath, &sourceLang, &targetLang, &run.Total, &run.Sequenced,
			&run.Degraded, &run.ExportFailures, &status, &startedRaw, &finishedRaw, &run.Exports); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.SourceLanguage = sourceLang.String
		run.TargetLanguage = targetLang.String
		run.Status = RunStatus(status)
		run.StartedAt = parseTime(startedRaw)
		run.FinishedAt = parseTime(finishedRaw.String)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

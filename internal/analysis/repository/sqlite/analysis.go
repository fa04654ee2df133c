package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ci-integration-agent/internal/analysis/repository"
	"ci-integration-agent/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS failure_analyses (
	id              TEXT PRIMARY KEY,
	project_slug    TEXT NOT NULL,
	workflow_id     TEXT NOT NULL DEFAULT '',
	job_id          TEXT NOT NULL DEFAULT '',
	failure_type    TEXT NOT NULL,
	error_messages  TEXT NOT NULL DEFAULT '[]',
	confidence      REAL NOT NULL,
	analysis_time_ms INTEGER NOT NULL DEFAULT 0,
	suggested_fixes TEXT NOT NULL DEFAULT '[]',
	context         TEXT NOT NULL DEFAULT '{}',
	created_at      DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_failure_analyses_created ON failure_analyses(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_failure_analyses_project ON failure_analyses(project_slug, created_at DESC);
`

type implRepository struct {
	db *sql.DB
}

var _ repository.AnalysisRepository = (*implRepository)(nil)

// New opens (creating if needed) the analysis history database at path.
func New(path string) (repository.AnalysisRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL lets the HTTP readers and the analysis writers proceed concurrently
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &implRepository{db: db}, nil
}

func (r *implRepository) Save(ctx context.Context, a model.FailureAnalysis) error {
	errs, err := json.Marshal(nonNil(a.ErrorMessages))
	if err != nil {
		return fmt.Errorf("sqlite repository: encode error messages: %w", err)
	}
	fixes, err := json.Marshal(nonNil(a.SuggestedFixes))
	if err != nil {
		return fmt.Errorf("sqlite repository: encode suggested fixes: %w", err)
	}
	actx := a.Context
	if actx == nil {
		actx = map[string]string{}
	}
	ctxJSON, err := json.Marshal(actx)
	if err != nil {
		return fmt.Errorf("sqlite repository: encode context: %w", err)
	}

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO failure_analyses (
			id, project_slug, workflow_id, job_id, failure_type, error_messages,
			confidence, analysis_time_ms, suggested_fixes, context, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			failure_type = excluded.failure_type,
			error_messages = excluded.error_messages,
			confidence = excluded.confidence,
			analysis_time_ms = excluded.analysis_time_ms,
			suggested_fixes = excluded.suggested_fixes,
			context = excluded.context`,
		a.ID, a.ProjectSlug, a.WorkflowID, a.JobID, string(a.FailureType), string(errs),
		a.Confidence, a.AnalysisTime.Milliseconds(), string(fixes), string(ctxJSON), createdAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("sqlite repository: failed to save analysis %s: %w", a.ID, err)
	}
	return nil
}

func (r *implRepository) ListRecent(ctx context.Context, opt repository.ListOptions) ([]model.FailureAnalysis, error) {
	limit := opt.Limit
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}

	query := `SELECT id, project_slug, workflow_id, job_id, failure_type, error_messages,
		confidence, analysis_time_ms, suggested_fixes, context, created_at
		FROM failure_analyses`
	args := []any{}
	if opt.ProjectSlug != "" {
		query += ` WHERE project_slug = ?`
		args = append(args, opt.ProjectSlug)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite repository: failed to list analyses: %w", err)
	}
	defer rows.Close()

	var out []model.FailureAnalysis
	for rows.Next() {
		var (
			a                    model.FailureAnalysis
			failureType          string
			errs, fixes, ctxJSON string
			analysisMs           int64
		)
		if err := rows.Scan(&a.ID, &a.ProjectSlug, &a.WorkflowID, &a.JobID, &failureType, &errs,
			&a.Confidence, &analysisMs, &fixes, &ctxJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite repository: failed to scan analysis: %w", err)
		}

		a.FailureType = model.ParseFailureType(failureType)
		a.AnalysisTime = time.Duration(analysisMs) * time.Millisecond
		if err := json.Unmarshal([]byte(errs), &a.ErrorMessages); err != nil {
			return nil, fmt.Errorf("sqlite repository: decode error messages of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(fixes), &a.SuggestedFixes); err != nil {
			return nil, fmt.Errorf("sqlite repository: decode suggested fixes of %s: %w", a.ID, err)
		}
		if err := json.Unmarshal([]byte(ctxJSON), &a.Context); err != nil {
			return nil, fmt.Errorf("sqlite repository: decode context of %s: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite repository: iterate analyses: %w", err)
	}
	return out, nil
}

func (r *implRepository) Close() error {
	return r.db.Close()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists generation runs and published skills.
//
// Artifacts are written as plain files (skills/<slug>/SKILL.md, index.md,
// example.py and posts/<date>-<slug>.md). Run history and the skill
// registry live in a SQLite database under the data directory; the
// registry is also exported as skill_registry.yaml after every publish.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/skill-factory/pkg/types"
)

const (
	dbFile       = "skill-factory.db"
	registryFile = "skill_registry.yaml"

	skillFile = "SKILL.md"
	indexFile = "index.md"
	codeFile  = "example.py"
)

// Store manages artifact files and the run database.
type Store struct {
	db        *sql.DB
	skillsDir string
	postsDir  string
	dataDir   string
	now       func() time.Time
}

// Open opens or creates the database at dataDir/skill-factory.db and
// creates the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("store: data directory not set")
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(cfg.DataDir, dbFile)+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:        db,
		skillsDir: cfg.SkillsDir,
		postsDir:  cfg.PostsDir,
		dataDir:   cfg.DataDir,
		now:       time.Now,
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RegistryPath is where ExportRegistry writes.
func (s *Store) RegistryPath() string {
	return filepath.Join(s.dataDir, registryFile)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			approved INTEGER NOT NULL,
			topic TEXT,
			slug TEXT,
			date TEXT,
			category TEXT,
			difficulty TEXT,
			strategy TEXT,
			attempts INTEGER,
			score INTEGER,
			errors TEXT,
			warnings TEXT,
			feedback TEXT,
			error TEXT,
			started_at TEXT NOT NULL,
			finished_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE TABLE IF NOT EXISTS artifacts (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			content TEXT NOT NULL,
			PRIMARY KEY (run_id, kind)
		)`,
		`CREATE TABLE IF NOT EXISTS skills (
			slug TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			category TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			tags TEXT,
			created_at TEXT NOT NULL,
			run_id TEXT
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveArtifacts writes the artifacts of out and returns the written paths.
// Approved runs are also added to the skill registry.
func (s *Store) SaveArtifacts(ctx context.Context, out types.RunOutcome) ([]string, error) {
	if out.Slug == "" || out.Date == "" {
		return nil, errors.New("outcome has no slug or date")
	}

	skillDir := filepath.Join(s.skillsDir, out.Slug)
	if err := os.MkdirAll(skillDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating skill directory: %w", err)
	}
	if err := os.MkdirAll(s.postsDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating posts directory: %w", err)
	}

	files := []struct {
		path string
		text string
		mode os.FileMode
	}{
		{filepath.Join(skillDir, skillFile), out.Artifacts[types.ArtifactSkill], 0o644},
		{filepath.Join(skillDir, indexFile), out.Artifacts[types.ArtifactSkill], 0o644},
		{filepath.Join(skillDir, codeFile), out.Artifacts[types.ArtifactCode], 0o755},
		{filepath.Join(s.postsDir, PostFileName(out.Date, out.Slug)), out.Artifacts[types.ArtifactPost], 0o644},
	}
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.text), f.mode); err != nil {
			return paths, fmt.Errorf("writing %s: %w", filepath.Base(f.path), err)
		}
		paths = append(paths, f.path)
	}

	if !out.Approved {
		return paths, nil
	}
	if err := s.registerSkill(ctx, out); err != nil {
		return paths, err
	}
	if err := s.ExportRegistry(ctx); err != nil {
		return paths, err
	}
	return append(paths, s.RegistryPath()), nil
}

// PostFileName is the Jekyll file name of a post.
func PostFileName(date, slug string) string {
	return date + "-" + slug + ".md"
}

func (s *Store) registerSkill(ctx context.Context, out types.RunOutcome) error {
	tags, err := json.Marshal(nonNil(out.Topic.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO skills (slug, title, category, difficulty, tags, created_at, run_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET
			title=excluded.title, category=excluded.category, difficulty=excluded.difficulty,
			tags=excluded.tags, created_at=excluded.created_at, run_id=excluded.run_id`,
		out.Slug, out.Topic.Topic, string(out.Topic.Category), string(out.Topic.Difficulty),
		string(tags), out.Date, out.RunID,
	)
	if err != nil {
		return fmt.Errorf("registering skill: %w", err)
	}
	return nil
}

// ExistingTopics returns the titles of registered skills, oldest first.
func (s *Store) ExistingTopics(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT title FROM skills ORDER BY created_at, slug`)
	if err != nil {
		return nil, fmt.Errorf("querying skills: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scanning skill: %w", err)
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// RecordRun stores the outcome of a finished run and its final artifacts.
// Recording the same run again replaces the earlier record.
func (s *Store) RecordRun(ctx context.Context, out types.RunOutcome) error {
	errs, _ := json.Marshal(nonNil(out.Validation.Errors))
	warns, _ := json.Marshal(nonNil(out.Validation.Warnings))
	feedback, _ := json.Marshal(nonNil(out.Feedback))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, state, approved, topic, slug, date, category, difficulty, strategy,
			attempts, score, errors, warnings, feedback, error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			state=excluded.state, approved=excluded.approved, topic=excluded.topic,
			slug=excluded.slug, date=excluded.date, category=excluded.category,
			difficulty=excluded.difficulty, strategy=excluded.strategy,
			attempts=excluded.attempts, score=excluded.score, errors=excluded.errors,
			warnings=excluded.warnings, feedback=excluded.feedback, error=excluded.error,
			started_at=excluded.started_at, finished_at=excluded.finished_at`,
		out.RunID, string(out.State), out.Approved, out.Topic.Topic, out.Slug, out.Date,
		string(out.Topic.Category), string(out.Topic.Difficulty), out.Topic.Strategy,
		out.Attempts, out.Validation.Score, string(errs), string(warns), string(feedback),
		out.Error, formatTime(out.StartedAt), formatTime(out.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM artifacts WHERE run_id = ?`, out.RunID); err != nil {
		return fmt.Errorf("clearing artifacts: %w", err)
	}
	for kind, text := range out.Artifacts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO artifacts (run_id, kind, content) VALUES (?, ?, ?)`,
			out.RunID, string(kind), text,
		); err != nil {
			return fmt.Errorf("recording %s artifact: %w", kind, err)
		}
	}
	return tx.Commit()
}

// RunRecord is one row of the run history.
type RunRecord struct {
	ID         string
	State      types.RunState
	Approved   bool
	Topic      string
	Slug       string
	Attempts   int
	Score      int
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the run duration, or zero for unfinished records.
func (r RunRecord) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, state, approved, COALESCE(topic, ''), COALESCE(slug, ''),
			COALESCE(attempts, 0), COALESCE(score, 0), COALESCE(error, ''),
			started_at, COALESCE(finished_at, '')
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			r                 RunRecord
			state             string
			started, finished string
		)
		if err := rows.Scan(&r.ID, &state, &r.Approved, &r.Topic, &r.Slug,
			&r.Attempts, &r.Score, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.State = types.RunState(state)
		r.StartedAt = parseTime(started)
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunArtifacts returns the artifacts recorded for a run.
func (s *Store) RunArtifacts(ctx context.Context, runID string) (types.Artifacts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, content FROM artifacts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying artifacts: %w", err)
	}
	defer rows.Close()

	a := types.Artifacts{}
	for rows.Next() {
		var kind, content string
		if err := rows.Scan(&kind, &content); err != nil {
			return nil, fmt.Errorf("scanning artifact: %w", err)
		}
		a[types.ArtifactKind(kind)] = content
	}
	return a, rows.Err()
}

// RunSummary holds run counts per terminal state.
type RunSummary struct {
	Approved  int
	Abandoned int
	Failed    int
}

// Total returns the number of recorded runs.
func (s RunSummary) Total() int {
	return s.Approved + s.Abandoned + s.Failed
}

// Summarize counts recorded runs by state.
func (s *Store) Summarize(ctx context.Context) (RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, count(*) FROM runs GROUP BY state`)
	if err != nil {
		return RunSummary{}, fmt.Errorf("counting runs: %w", err)
	}
	defer rows.Close()

	var sum RunSummary
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return RunSummary{}, fmt.Errorf("scanning count: %w", err)
		}
		switch types.RunState(state) {
		case types.StateApproved:
			sum.Approved = n
		case types.StateAbandoned:
			sum.Abandoned = n
		case types.StateFailed:
			sum.Failed = n
		}
	}
	return sum, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

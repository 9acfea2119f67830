package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"winnow/internal/config"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath connects to a ledger database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// timeLayout is RFC3339 with fixed-width nanoseconds so the stored strings
// sort lexically in time order. Reads accept any RFC3339 fraction.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, root, quarantine_dir, dry_run, started_at, finished_at, scanned, duplicates, errors`

const decisionColumns = `id, run_id, pipeline, fingerprint, kept_path, moved_path, moved_to, reason, created_at`

// BeginRun inserts a new open run and returns it.
func (s *Store) BeginRun(ctx context.Context, root, quarantineDir string, dryRun bool) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		Root:          root,
		QuarantineDir: quarantineDir,
		DryRun:        dryRun,
		StartedAt:     time.Now().UTC(),
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, root, quarantine_dir, dry_run, started_at, scanned, duplicates, errors)
         VALUES (?, ?, ?, ?, ?, 0, 0, 0)`,
		run.ID,
		run.Root,
		run.QuarantineDir,
		boolToInt(run.DryRun),
		run.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun closes out a run, persisting its counters and finish time.
func (s *Store) FinishRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	now := time.Now().UTC()
	run.FinishedAt = &now
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET finished_at = ?, scanned = ?, duplicates = ?, errors = ? WHERE id = ?`,
		now.Format(timeLayout),
		run.Scanned,
		run.Duplicates,
		run.Errors,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecordDecision persists one quarantine event and assigns its ID.
func (s *Store) RecordDecision(ctx context.Context, decision *Decision) error {
	if decision == nil {
		return errors.New("decision is nil")
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO decisions (run_id, pipeline, fingerprint, kept_path, moved_path, moved_to, reason, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		decision.RunID,
		decision.Pipeline,
		decision.Fingerprint,
		decision.KeptPath,
		decision.MovedPath,
		decision.MovedTo,
		decision.Reason,
		decision.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	decision.ID = id
	return nil
}

// RunByID fetches a run by identifier. Missing runs return nil without error.
func (s *Store) RunByID(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DecisionsForRun returns a run's quarantine events in insertion order.
func (s *Store) DecisionsForRun(ctx context.Context, runID string) ([]*Decision, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+decisionColumns+` FROM decisions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []*Decision
	for rows.Next() {
		decision, err := scanDecision(rows)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, decision)
	}
	return decisions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		dryRun     int
		startedAt  string
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.Root,
		&run.QuarantineDir,
		&dryRun,
		&startedAt,
		&finishedAt,
		&run.Scanned,
		&run.Duplicates,
		&run.Errors,
	); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	started, err := parseTime(startedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	run.StartedAt = started
	if finishedAt.Valid {
		finished, err := parseTime(finishedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse finished_at: %w", err)
		}
		run.FinishedAt = &finished
	}
	return &run, nil
}

func scanDecision(scanner rowScanner) (*Decision, error) {
	var (
		decision  Decision
		createdAt string
	)
	if err := scanner.Scan(
		&decision.ID,
		&decision.RunID,
		&decision.Pipeline,
		&decision.Fingerprint,
		&decision.KeptPath,
		&decision.MovedPath,
		&decision.MovedTo,
		&decision.Reason,
		&createdAt,
	); err != nil {
		return nil, err
	}
	created, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	decision.CreatedAt = created
	return &decision, nil
}

func parseTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return parsed.UTC(), nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

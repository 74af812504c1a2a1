package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"

	"github.com/meldworks/meld-installer/pkg/action"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultPath is where the transition journal lives unless overridden.
const DefaultPath = "/var/lib/meld-installer/journal.db"

// Journal records action state transitions in SQLite. It implements the
// executor's TransitionRecorder interface.
type Journal struct {
	db   *sql.DB
	path string
}

// Entry is one recorded state transition.
type Entry struct {
	ID         int64
	PlanID     string
	ActionTag  string
	Synopsis   string
	State      action.State
	Error      *string
	RecordedAt time.Time
}

// Open opens (creating if necessary) the journal database at path and runs
// any pending schema migrations.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	// Single writer; the journal never needs a pool.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	j := &Journal{db: db, path: path}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}

// Path returns the journal database location.
func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) migrate() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(j.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RecordTransition appends one state transition for an action of the given
// plan. It satisfies the executor's TransitionRecorder interface.
func (j *Journal) RecordTransition(ctx context.Context, planID, actionTag, synopsis string, state action.State, transitionErr error) error {
	query := `
		INSERT INTO transitions (plan_id, action_tag, synopsis, state, error, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var errMsg *string
	if transitionErr != nil {
		msg := transitionErr.Error()
		errMsg = &msg
	}

	_, err := j.db.ExecContext(ctx, query,
		planID,
		actionTag,
		synopsis,
		string(state),
		errMsg,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// Entries returns every recorded transition for a plan in recording order.
func (j *Journal) Entries(ctx context.Context, planID string) ([]*Entry, error) {
	query := `
		SELECT id, plan_id, action_tag, synopsis, state, error, recorded_at
		FROM transitions
		WHERE plan_id = ?
		ORDER BY id ASC
	`

	rows, err := j.db.QueryContext(ctx, query, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	entries := []*Entry{}
	for rows.Next() {
		entry := &Entry{}
		var state, recordedAt string
		err := rows.Scan(
			&entry.ID,
			&entry.PlanID,
			&entry.ActionTag,
			&entry.Synopsis,
			&state,
			&entry.Error,
			&recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		entry.State = action.State(state)
		// The driver hands DATETIME columns back normalized to RFC 3339.
		ts, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transition timestamp %q: %w", recordedAt, err)
		}
		entry.RecordedAt = ts.UTC()
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transitions: %w", err)
	}
	return entries, nil
}

package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs and entries tables
const currentSchemaVersion = 1

// ErrNoRun is returned when entries are recorded before BeginRun.
var ErrNoRun = errors.New("journal: no active run")

// Run describes one recorded runtime session.
type Run struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Entries int    `json:"entries"`
}

// Store is a SQLite-backed Recorder.
//
// Entries belong to a run. Call BeginRun before recording; entries that carry
// an explicit Run id are written under that id instead.
type Store struct {
	db *sql.DB

	mu  sync.Mutex
	run string
}

// Open creates or opens a journal database at path.
//
// The database is configured with WAL mode, NORMAL synchronous mode, a
// 5-second busy timeout, and foreign key enforcement.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun starts a new run and makes it current. An empty id is replaced
// by a fresh UUIDv7.
func (s *Store) BeginRun(ctx context.Context, id, name string) (string, error) {
	if id == "" {
		u, err := uuid.NewV7()
		if err != nil {
			return "", fmt.Errorf("begin run: %w", err)
		}
		id = u.String()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, name)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	s.mu.Lock()
	s.run = id
	s.mu.Unlock()
	return id, nil
}

// CurrentRun returns the id of the run started by the last BeginRun.
func (s *Store) CurrentRun() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run
}

// Record implements Recorder.
func (s *Store) Record(e Entry) error {
	return s.RecordContext(context.Background(), e)
}

// RecordContext appends e to the journal. Duplicate (run, seq) pairs are
// ignored.
func (s *Store) RecordContext(ctx context.Context, e Entry) error {
	run := e.Run
	if run == "" {
		run = s.CurrentRun()
	}
	if run == "" {
		return ErrNoRun
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entries
		(run_id, seq, kind, view_id, view_type, event, selector, target, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`,
		run,
		e.Seq,
		string(e.Kind),
		e.View,
		e.Type,
		e.Event,
		e.Selector,
		e.Target,
		e.Detail,
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return nil
}

// Runs lists every run with its entry count, most recent first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, COUNT(e.seq)
		FROM runs r
		LEFT JOIN entries e ON e.run_id = r.id
		GROUP BY r.id, r.name
		ORDER BY r.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Name, &r.Entries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recent run id, or "" when the journal is empty.
// UUIDv7 ids sort by creation time.
func (s *Store) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM runs ORDER BY id DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("latest run: %w", err)
	}
	return id, nil
}

// Entries returns the entries of run ordered by seq.
func (s *Store) Entries(ctx context.Context, run string) ([]Entry, error) {
	return s.query(ctx, `
		SELECT run_id, seq, kind, view_id, view_type, event, selector, target, detail
		FROM entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, run)
}

// ViewEntries returns the entries of run that concern view, ordered by seq.
func (s *Store) ViewEntries(ctx context.Context, run, view string) ([]Entry, error) {
	return s.query(ctx, `
		SELECT run_id, seq, kind, view_id, view_type, event, selector, target, detail
		FROM entries
		WHERE run_id = ? AND view_id = ?
		ORDER BY seq ASC
	`, run, view)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Run, &e.Seq, &kind, &e.View, &e.Type, &e.Event, &e.Selector, &e.Target, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

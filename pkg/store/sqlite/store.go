// Package sqlite caches form records and normalized submission state locally
// so sessions can be replayed without the backing API.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/goliatone/go-formstate/pkg/submission"
)

// ErrNotFound reports a cache miss.
var ErrNotFound = errors.New("sqlite: record not found")

// Store persists form records and submission state in a SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Option configures the store.
type Option func(*Store)

// WithLogger attaches a structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open creates or opens the database at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, options ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite: database path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	s := &Store{db: db, logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	ddl := `
	CREATE TABLE IF NOT EXISTS forms (
		id         TEXT PRIMARY KEY,
		record     TEXT NOT NULL,
		fetched_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS submissions (
		form_id       TEXT NOT NULL,
		submission_id TEXT NOT NULL,
		state         TEXT NOT NULL,
		fetched_at    DATETIME NOT NULL,
		PRIMARY KEY (form_id, submission_id)
	);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("sqlite: create tables: %w", err)
	}
	return nil
}

// SaveForm upserts a raw form record.
func (s *Store) SaveForm(ctx context.Context, formID string, record map[string]any) error {
	if formID == "" {
		return errors.New("sqlite: form id is required")
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sqlite: encode form %q: %w", formID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO forms (id, record, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET record = excluded.record, fetched_at = excluded.fetched_at`,
		formID, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: save form %q: %w", formID, err)
	}

	s.logger.Debug("form cached", zap.String("form_id", formID))
	return nil
}

// GetForm returns a previously cached form record.
func (s *Store) GetForm(ctx context.Context, formID string) (map[string]any, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM forms WHERE id = ?`, formID).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: form %q: %w", formID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get form %q: %w", formID, err)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(encoded), &record); err != nil {
		return nil, fmt.Errorf("sqlite: decode form %q: %w", formID, err)
	}
	return record, nil
}

// SaveState upserts normalized submission state for a form/submission pair.
func (s *Store) SaveState(ctx context.Context, formID, submissionID string, state submission.State) error {
	if formID == "" || submissionID == "" {
		return errors.New("sqlite: form id and submission id are required")
	}
	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("sqlite: encode state %q/%q: %w", formID, submissionID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (form_id, submission_id, state, fetched_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(form_id, submission_id) DO UPDATE SET state = excluded.state, fetched_at = excluded.fetched_at`,
		formID, submissionID, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("sqlite: save state %q/%q: %w", formID, submissionID, err)
	}

	s.logger.Debug("submission state cached",
		zap.String("form_id", formID),
		zap.String("submission_id", submissionID))
	return nil
}

// GetState returns previously cached submission state.
func (s *Store) GetState(ctx context.Context, formID, submissionID string) (submission.State, error) {
	var encoded string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM submissions WHERE form_id = ? AND submission_id = ?`,
		formID, submissionID).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: state %q/%q: %w", formID, submissionID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get state %q/%q: %w", formID, submissionID, err)
	}

	var state submission.State
	if err := json.Unmarshal([]byte(encoded), &state); err != nil {
		return nil, fmt.Errorf("sqlite: decode state %q/%q: %w", formID, submissionID, err)
	}
	return state, nil
}

// ListSubmissions returns the cached submission ids for a form, newest first.
func (s *Store) ListSubmissions(ctx context.Context, formID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT submission_id FROM submissions WHERE form_id = ? ORDER BY fetched_at DESC, submission_id`,
		formID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list submissions %q: %w", formID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list submissions %q: %w", formID, err)
	}
	return ids, nil
}

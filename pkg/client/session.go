package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/goliatone/go-formstate/pkg/schema"
	"github.com/goliatone/go-formstate/pkg/submission"
)

// Fetcher is the API surface Session needs; Client satisfies it.
type Fetcher interface {
	FetchForm(ctx context.Context, formID string) (map[string]any, error)
	FetchSubmission(ctx context.Context, formID, submissionID string) (map[string]any, error)
}

// Snapshot is the loaded view of one form plus, optionally, one submission's
// normalized state.
type Snapshot struct {
	Form   map[string]any
	Schema schema.FormSchema
	State  submission.State
}

// Session loads a form definition and a submission exactly once and caches
// the result. Concurrent loads share a single fetch; Refresh discards the
// cache and fetches again.
type Session struct {
	fetcher      Fetcher
	parser       *schema.Parser
	logger       *zap.Logger
	formID       string
	submissionID string

	mu       sync.Mutex
	loaded   bool
	snapshot Snapshot
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionParser overrides the schema parser.
func WithSessionParser(parser *schema.Parser) SessionOption {
	return func(s *Session) {
		if parser != nil {
			s.parser = parser
		}
	}
}

// WithSessionLogger attaches a structured logger.
func WithSessionLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession builds a session for one form. submissionID may be empty for
// create flows; the snapshot then carries an empty state.
func NewSession(fetcher Fetcher, formID, submissionID string, options ...SessionOption) (*Session, error) {
	if fetcher == nil {
		return nil, errors.New("client: session needs a fetcher")
	}
	if formID == "" {
		return nil, errors.New("client: session needs a form id")
	}

	s := &Session{
		fetcher:      fetcher,
		logger:       zap.NewNop(),
		formID:       formID,
		submissionID: submissionID,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.parser == nil {
		s.parser = schema.NewParser(schema.WithLogger(s.logger))
	}
	return s, nil
}

// Load returns the cached snapshot, fetching it on first use. Calls made
// while a load is in flight block and then share its result.
func (s *Session) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded {
		return s.snapshot, nil
	}
	return s.loadLocked(ctx)
}

// Refresh discards the cached snapshot and fetches a fresh one.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = false
	return s.loadLocked(ctx)
}

func (s *Session) loadLocked(ctx context.Context) (Snapshot, error) {
	form, err := s.fetcher.FetchForm(ctx, s.formID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("client: session load: %w", err)
	}

	parsed := s.parser.ParseForm(form)
	index := schema.IndexSchema(parsed)

	snapshot := Snapshot{
		Form:   form,
		Schema: parsed,
		State:  submission.State{},
	}

	if s.submissionID != "" {
		record, err := s.fetcher.FetchSubmission(ctx, s.formID, s.submissionID)
		switch {
		case errors.Is(err, ErrSubmissionNotFound):
			// Edit flows may reference a submission that does not exist
			// yet; the form simply starts empty.
			s.logger.Debug("submission missing, starting empty",
				zap.String("form_id", s.formID),
				zap.String("submission_id", s.submissionID))
		case err != nil:
			return Snapshot{}, fmt.Errorf("client: session load: %w", err)
		default:
			normalizer := submission.NewNormalizer(index, submission.WithLogger(s.logger))
			payload := normalizer.ParseEnvelope(record)
			if payload == nil {
				payload = normalizer.ParsePayload(record)
			}
			snapshot.State = normalizer.Build(payload)
		}
	}

	s.snapshot = snapshot
	s.loaded = true
	return snapshot, nil
}

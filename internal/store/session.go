package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned when a session ID is not in the journal.
var ErrSessionNotFound = errors.New("session not found")

// Kind tells commands and replies apart.
type Kind string

const (
	KindCommand Kind = "command"
	KindReply   Kind = "reply"
)

// Entry is one journaled command or reply.
type Entry struct {
	Seq       int64
	Kind      Kind
	Name      string
	RequestID uint64
	Handle    uint64
	Path      string
	Detail    string
}

// SessionInfo summarizes a session.
type SessionInfo struct {
	ID        string
	Label     string
	CreatedAt time.Time
	Entries   int
}

// Session appends entries to one journal session.
//
// Thread-safety: Record is safe for concurrent use; entries are ordered by the
// seq they were stamped with.
type Session struct {
	store *Store
	id    string
	label string
	clock *Clock
}

// SessionOption configures NewSession.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	ids IDGenerator
	now func() time.Time
}

// WithIDGenerator overrides the UUIDv7 session IDs. Used in tests.
func WithIDGenerator(g IDGenerator) SessionOption {
	return func(c *sessionConfig) {
		c.ids = g
	}
}

// NewSession starts a new session.
func (s *Store) NewSession(ctx context.Context, label string, opts ...SessionOption) (*Session, error) {
	cfg := sessionConfig{ids: UUIDv7Generator{}, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := cfg.ids.Generate()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, created_at) VALUES (?, ?, ?)
	`, id, label, cfg.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	return &Session{store: s, id: id, label: label, clock: NewClock()}, nil
}

// ResumeSession reopens a session. New entries continue after its last seq.
func (s *Store) ResumeSession(ctx context.Context, id string) (*Session, error) {
	var label string
	err := s.db.QueryRowContext(ctx, `SELECT label FROM sessions WHERE id = ?`, id).Scan(&label)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resume session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	last, err := s.LastSeq(ctx, id)
	if err != nil {
		return nil, err
	}

	return &Session{store: s, id: id, label: label, clock: NewClockAt(last)}, nil
}

// ID returns the session ID.
func (sess *Session) ID() string { return sess.id }

// Label returns the label the session was created with.
func (sess *Session) Label() string { return sess.label }

// Record stamps e with the next seq and appends it. The stamped entry is
// returned.
func (sess *Session) Record(ctx context.Context, e Entry) (Entry, error) {
	e.Seq = sess.clock.Next()
	_, err := sess.store.db.ExecContext(ctx, `
		INSERT INTO entries
		(session_id, seq, kind, name, request_id, handle, path, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		sess.id,
		e.Seq,
		string(e.Kind),
		e.Name,
		int64(e.RequestID),
		int64(e.Handle),
		e.Path,
		e.Detail,
	)
	if err != nil {
		return e, fmt.Errorf("record entry: %w", err)
	}
	return e, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entries returns every entry of a session ordered by seq.
//
// Returns an empty slice (not nil) if the session has no entries.
func (s *Store) Entries(ctx context.Context, sessionID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, name, request_id, handle, path, detail
		FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// EntriesForRequest returns the command and replies sharing a request ID.
func (s *Store) EntriesForRequest(ctx context.Context, sessionID string, requestID uint64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, name, request_id, handle, path, detail
		FROM entries
		WHERE session_id = ? AND request_id = ?
		ORDER BY seq ASC
	`, sessionID, int64(requestID))
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	entries := []Entry{}
	for rows.Next() {
		var (
			e         Entry
			kind      string
			requestID int64
			handle    int64
		)
		if err := rows.Scan(&e.Seq, &kind, &e.Name, &requestID, &handle, &e.Path, &e.Detail); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Kind = Kind(kind)
		e.RequestID = uint64(requestID)
		e.Handle = uint64(handle)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Sessions lists every session in creation order.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.created_at, COUNT(e.seq)
		FROM sessions s
		LEFT JOIN entries e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		var (
			info    SessionInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.Label, &created, &info.Entries); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		sessions = append(sessions, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// LatestSession returns the most recently created session.
func (s *Store) LatestSession(ctx context.Context) (SessionInfo, error) {
	sessions, err := s.Sessions(ctx)
	if err != nil {
		return SessionInfo{}, err
	}
	if len(sessions) == 0 {
		return SessionInfo{}, ErrSessionNotFound
	}
	return sessions[len(sessions)-1], nil
}

// LastRequestID returns the highest request ID recorded in a session, or 0.
func (s *Store) LastRequestID(ctx context.Context, sessionID string) (uint64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(request_id) FROM entries WHERE session_id = ?
	`, sessionID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("get last request id: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return uint64(last.Int64), nil
}

// LastSeq returns the highest seq recorded in a session, or 0.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM entries WHERE session_id = ?
	`, sessionID).Scan(&last)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	if !last.Valid {
		return 0, nil
	}
	return last.Int64, nil
}

package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession starts a session with a fixed ID.
func createTestSession(t *testing.T, s *Store, id, label string) *Session {
	t.Helper()
	sess, err := s.NewSession(context.Background(), label, WithIDGenerator(NewFixedGenerator(id)))
	if err != nil {
		t.Fatalf("NewSession() failed: %v", err)
	}
	return sess
}

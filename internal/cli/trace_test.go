package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/store"
)

// seedJournal records two sessions. The second one subscribes to hp and
// receives one value.
func seedJournal(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	gen := store.NewFixedGenerator("session-a", "session-b")
	first, err := st.NewSession(ctx, "inspect", store.WithIDGenerator(gen))
	require.NoError(t, err)
	_, err = first.Record(ctx, store.Entry{Kind: store.KindCommand, Name: "Start"})
	require.NoError(t, err)

	second, err := st.NewSession(ctx, "hero_hp", store.WithIDGenerator(gen))
	require.NoError(t, err)
	for _, e := range []store.Entry{
		{Kind: store.KindCommand, Name: "Start"},
		{Kind: store.KindCommand, Name: "LoadFile", RequestID: 1, Handle: 1},
		{Kind: store.KindCommand, Name: "Subscribe", RequestID: 3, Handle: 2, Path: "hp", Detail: "number"},
		{Kind: store.KindReply, Name: "OnViewModelDataReceived", RequestID: 3, Handle: 2, Path: "hp", Detail: "number 90"},
		{Kind: store.KindCommand, Name: "Unsubscribe", RequestID: 3, Handle: 2, Path: "hp"},
		{Kind: store.KindCommand, Name: "Stop"},
	} {
		_, err := second.Record(ctx, e)
		require.NoError(t, err)
	}
	return dbPath
}

func executeTrace(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTraceMissingJournal(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--journal is required")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceNonExistentJournal(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text", Journal: "/nonexistent/path/runs.db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open journal")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTraceEmptyJournal(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	st.Close()

	out, err := executeTrace(t, &RootOptions{Format: "json", Journal: dbPath})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, ErrCodeNoSession, response.Error.Code)
	assert.Equal(t, "no sessions recorded", response.Error.Message)
}

func TestTraceUnknownSession(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text", Journal: seedJournal(t)}, "--session", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session not found: nope")
}

func TestTraceLatestSession(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "text", Journal: seedJournal(t)})
	require.NoError(t, err)

	assert.Contains(t, out, "Session: session-b")
	assert.Contains(t, out, "Label: hero_hp")
	assert.Contains(t, out, "=== Timeline ===")
	assert.Contains(t, out, "0003 -> Subscribe id=3 h=2 path=hp number")
	assert.Contains(t, out, "0004 <- OnViewModelDataReceived id=3 h=2 path=hp number 90")
	assert.Contains(t, out, "Total Events: 6")
	assert.Contains(t, out, "Commands:     5")
	assert.Contains(t, out, "Replies:      1")
	assert.Contains(t, out, "Requests:     2")
}

func TestTraceSessionByID(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "text", Journal: seedJournal(t)}, "--session", "session-a")
	require.NoError(t, err)
	assert.Contains(t, out, "Label: inspect")
	assert.Contains(t, out, "Total Events: 1")
}

func TestTraceRequestFilterJSON(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "json", Journal: seedJournal(t)}, "--request", "3")
	require.NoError(t, err)

	var response struct {
		Status  string      `json:"status"`
		Session string      `json:"session"`
		Data    TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "session-b", response.Session)

	require.Len(t, response.Data.Timeline, 3)
	names := []string{}
	for _, e := range response.Data.Timeline {
		assert.Equal(t, uint64(3), e.RequestID)
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Subscribe", "OnViewModelDataReceived", "Unsubscribe"}, names)
	assert.Equal(t, "reply", response.Data.Timeline[1].Kind)
	assert.Equal(t, TraceStats{TotalEvents: 3, Commands: 2, Replies: 1, Requests: 1}, response.Data.Stats)
}

func TestTraceListSessions(t *testing.T) {
	dbPath := seedJournal(t)

	out, err := executeTrace(t, &RootOptions{Format: "text", Journal: dbPath}, "--list")
	require.NoError(t, err)
	assert.Regexp(t, `session-a\s+inspect\s+1 entries`, out)
	assert.Regexp(t, `session-b\s+hero_hp\s+6 entries`, out)

	out, err = executeTrace(t, &RootOptions{Format: "json", Journal: dbPath}, "--list")
	require.NoError(t, err)
	var response struct {
		Data []SessionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.Len(t, response.Data, 2)
	assert.Equal(t, "session-a", response.Data[0].ID)
	assert.Equal(t, 6, response.Data[1].Entries)
}

func TestTraceListExcludesSession(t *testing.T) {
	_, err := executeTrace(t, &RootOptions{Format: "text", Journal: seedJournal(t)}, "--list", "--session", "session-a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestTraceHelpText(t *testing.T) {
	out, err := executeTrace(t, &RootOptions{Format: "text"}, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--session")
	assert.Contains(t, out, "--list")
	assert.Contains(t, out, "--request")
}

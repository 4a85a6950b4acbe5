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

func executeInspect(t *testing.T, rootOpts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewInspectCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestInspectText(t *testing.T) {
	out, err := executeInspect(t, &RootOptions{Format: "text"}, heroScene(t))
	require.NoError(t, err)

	assert.Contains(t, out, "=== Artboards ===")
	assert.Contains(t, out, "  Main\n    state machines: Idle, Walk\n    default: Hero/Ada\n")
	assert.Contains(t, out, "  Menu\n    state machines: Intro\n")
	assert.Contains(t, out, "=== View Models ===")
	assert.Contains(t, out, "    hp: number\n")
	assert.Contains(t, out, "    inventory: list\n")
	assert.Contains(t, out, "    instances: Ada, Grace\n")
	assert.Contains(t, out, "  Gem\n    shine: color\n    instances: (none)\n")
	assert.Contains(t, out, "  Mood: happy, sad, angry")
}

func TestInspectJSON(t *testing.T) {
	out, err := executeInspect(t, &RootOptions{Format: "json"}, heroScene(t))
	require.NoError(t, err)

	var response struct {
		Status string        `json:"status"`
		Data   InspectResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)

	r := response.Data
	require.Len(t, r.Artboards, 2)
	assert.Equal(t, ArtboardInfo{Name: "Main", StateMachines: []string{"Idle", "Walk"}, ViewModel: "Hero", Instance: "Ada"}, r.Artboards[0])
	assert.Empty(t, r.Artboards[1].ViewModel)

	names := []string{}
	for _, vm := range r.ViewModels {
		names = append(names, vm.Name)
	}
	assert.Equal(t, []string{"Hero", "Weapon", "Gem", "Item"}, names)
	assert.Contains(t, r.ViewModels[0].Properties, PropertyInfo{Name: "mood", Type: "enum"})
	assert.Equal(t, []EnumInfo{{Name: "Mood", Values: []string{"happy", "sad", "angry"}}}, r.Enums)
}

func TestInspectCueScene(t *testing.T) {
	cue, err := filepath.Abs(filepath.Join("..", "..", "testdata", "scenes", "hero.cue"))
	require.NoError(t, err)

	out, err := executeInspect(t, &RootOptions{Format: "text"}, cue)
	require.NoError(t, err)
	assert.Contains(t, out, "default: Hero/Ada")
}

func TestInspectMissingScene(t *testing.T) {
	out, err := executeInspect(t, &RootOptions{Format: "json"}, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, ErrCodeNotFound, response.Error.Code)
}

func TestInspectJournalsSession(t *testing.T) {
	journal := filepath.Join(t.TempDir(), "runs.db")

	out, err := executeInspect(t, &RootOptions{Format: "json", Journal: journal}, heroScene(t))
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	require.NotEmpty(t, response.Session)

	st, err := store.Open(journal)
	require.NoError(t, err)
	defer st.Close()

	entries, err := st.Entries(context.Background(), response.Session)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, "Start", entries[0].Name)
	assert.Equal(t, "Stop", entries[len(entries)-1].Name)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rivecq/internal/simulator"
	"github.com/roach88/rivecq/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Session string
	Request uint64 // optional - filter to one request ID
	List    bool
}

// TraceEvent is one journaled command or reply.
type TraceEvent struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"` // "command" or "reply"
	Name      string `json:"name"`
	RequestID uint64 `json:"request_id,omitempty"`
	Handle    uint64 `json:"handle,omitempty"`
	Path      string `json:"path,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Session  string       `json:"session"`
	Label    string       `json:"label"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Commands    int `json:"commands"`
	Replies     int `json:"replies"`
	Requests    int `json:"requests"`
}

// SessionSummary is one row of --list output.
type SessionSummary struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
	Entries   int    `json:"entries"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show journaled commands and replies",
		Long: `Show the commands and replies recorded in a journal session.

Every command sent to the simulator and every reply it delivered is
journaled when --journal is set. Without --session the most recent
session is shown.

Examples:
  rivecq trace --journal ./runs.db --list
  rivecq trace --journal ./runs.db
  rivecq trace --journal ./runs.db --session 0192... --request 3
  rivecq trace --journal ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID (default: latest)")
	cmd.Flags().Uint64Var(&opts.Request, "request", 0, "filter to a single request ID")
	cmd.Flags().BoolVar(&opts.List, "list", false, "list sessions instead of showing one")
	cmd.MarkFlagsMutuallyExclusive("list", "session")
	cmd.MarkFlagsMutuallyExclusive("list", "request")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	f := newFormatter(opts.RootOptions, cmd)

	if opts.Journal == "" {
		return f.Fail(ExitCommandError, ErrCodeInvalidArg, "--journal is required", nil)
	}

	st, err := store.Open(opts.Journal)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to open journal", err)
	}
	defer st.Close()

	if opts.List {
		return listSessions(ctx, f, st)
	}

	info, err := findSession(ctx, st, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		msg := "no sessions recorded"
		if opts.Session != "" {
			msg = fmt.Sprintf("session not found: %s", opts.Session)
		}
		return f.Fail(ExitFailure, ErrCodeNoSession, msg, err)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to read sessions", err)
	}

	var entries []store.Entry
	if opts.Request != 0 {
		entries, err = st.EntriesForRequest(ctx, info.ID, opts.Request)
	} else {
		entries, err = st.Entries(ctx, info.ID)
	}
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to read entries", err)
	}

	result := buildTrace(info, entries)
	f.Session = info.ID
	return f.Render(result, func(w io.Writer) {
		printTrace(w, result, entries)
	})
}

// findSession returns the session with the given ID, or the latest one when
// id is empty.
func findSession(ctx context.Context, st *store.Store, id string) (store.SessionInfo, error) {
	if id == "" {
		return st.LatestSession(ctx)
	}
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return store.SessionInfo{}, err
	}
	for _, s := range sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return store.SessionInfo{}, store.ErrSessionNotFound
}

func buildTrace(info store.SessionInfo, entries []store.Entry) TraceResult {
	result := TraceResult{
		Session:  info.ID,
		Label:    info.Label,
		Timeline: make([]TraceEvent, 0, len(entries)),
	}
	requests := make(map[uint64]struct{})
	for _, e := range entries {
		result.Timeline = append(result.Timeline, TraceEvent{
			Seq:       e.Seq,
			Kind:      string(e.Kind),
			Name:      e.Name,
			RequestID: e.RequestID,
			Handle:    e.Handle,
			Path:      e.Path,
			Detail:    e.Detail,
		})
		switch e.Kind {
		case store.KindCommand:
			result.Stats.Commands++
		case store.KindReply:
			result.Stats.Replies++
		}
		if e.RequestID != 0 {
			requests[e.RequestID] = struct{}{}
		}
	}
	result.Stats.TotalEvents = len(entries)
	result.Stats.Requests = len(requests)
	return result
}

func printTrace(w io.Writer, result TraceResult, entries []store.Entry) {
	fmt.Fprintf(w, "Session: %s\n", result.Session)
	if result.Label != "" {
		fmt.Fprintf(w, "Label: %s\n", result.Label)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(entries) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range entries {
		fmt.Fprintf(w, "  %s\n", simulator.FormatEntry(e))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Commands:     %d\n", result.Stats.Commands)
	fmt.Fprintf(w, "  Replies:      %d\n", result.Stats.Replies)
	fmt.Fprintf(w, "  Requests:     %d\n", result.Stats.Requests)
}

func listSessions(ctx context.Context, f *OutputFormatter, st *store.Store) error {
	sessions, err := st.Sessions(ctx)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeJournal, "failed to read sessions", err)
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, SessionSummary{
			ID:        s.ID,
			Label:     s.Label,
			CreatedAt: s.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Entries:   s.Entries,
		})
	}

	return f.Render(summaries, func(w io.Writer) {
		if len(summaries) == 0 {
			fmt.Fprintln(w, "No sessions recorded.")
			return
		}
		for _, s := range summaries {
			fmt.Fprintf(w, "%s  %-20s  %4d entries  %s\n", s.ID, s.Label, s.Entries, s.CreatedAt)
		}
	})
}

package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/rivecq/internal/simulator"
	"github.com/roach88/rivecq/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []store.Entry // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, entry := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", simulator.FormatEntry(entry))
	}

	return buf.String()
}

// matches reports whether an entry has the assertion's name and, when set,
// its path and detail.
func matches(e store.Entry, a Assertion) bool {
	if e.Name != a.Command {
		return false
	}
	if a.Path != "" && e.Path != a.Path {
		return false
	}
	return a.Detail == "" || strings.Contains(e.Detail, a.Detail)
}

func describe(a Assertion) string {
	s := a.Command
	if a.Path != "" {
		s += " path=" + a.Path
	}
	if a.Detail != "" {
		s += fmt.Sprintf(" detail~%q", a.Detail)
	}
	return s
}

// assertTraceContains checks that at least one entry matches.
func assertTraceContains(trace []store.Entry, a Assertion) error {
	for _, e := range trace {
		if matches(e, a) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if names appear in the specified order.
// Names don't need to be consecutive (intervening entries are allowed). Each
// name is matched after the previous one's position, so repeated names work.
func assertTraceOrder(trace []store.Entry, a Assertion) error {
	pos := 0
	for _, name := range a.Commands {
		found := false
		for pos < len(trace) {
			e := trace[pos]
			pos++
			if e.Name == name {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("commands in order: %v", a.Commands),
				Actual:   fmt.Sprintf("%s not found after position %d", name, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the name appears exactly the specified number of times.
func assertTraceCount(trace []store.Entry, a Assertion) error {
	count := 0
	for _, e := range trace {
		if matches(e, a) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against a trace.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(trace []store.Entry, assertions []Assertion) []string {
	var errors []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(trace, a)
		case AssertTraceCount:
			err = assertTraceCount(trace, a)
		default:
			err = fmt.Errorf("unknown assertion type: %s", a.Type)
		}
		if err != nil {
			errors = append(errors, fmt.Sprintf("assertion %d: %s", i, err.Error()))
		}
	}
	return errors
}

package harness

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/rivecq/internal/simulator"
)

// Render prints a result's trace the way golden files store it: a header line
// naming the scenario, then one line per journal entry.
func Render(name string, result *Result) []byte {
	var buf strings.Builder
	buf.WriteString("scenario: " + name + "\n")
	for _, e := range result.Trace {
		buf.WriteString(simulator.FormatEntry(e))
		buf.WriteByte('\n')
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Render(scenarioName, result))
}

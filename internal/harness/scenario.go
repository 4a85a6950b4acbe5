package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted client session against a scene.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Scene is the path of a .yaml or .cue scene, relative to the scenario
	// file once loaded.
	Scene string `yaml:"scene"`

	// Instance selects the view model instance the steps operate on.
	Instance InstanceSpec `yaml:"instance"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// InstanceSpec selects how the scenario's instance is created. Exactly one of
// ViewModel and Artboard is set.
type InstanceSpec struct {
	ViewModel string `yaml:"viewModel,omitempty"`
	Artboard  string `yaml:"artboard,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Blank     bool   `yaml:"blank,omitempty"`
}

// Step is a single operation. Exactly one of the operation keys is set.
type Step struct {
	Set     string `yaml:"set,omitempty"`
	Get     string `yaml:"get,omitempty"`
	Fire    string `yaml:"fire,omitempty"`
	Watch   string `yaml:"watch,omitempty"`
	Collect string `yaml:"collect,omitempty"`
	Append  string `yaml:"append,omitempty"`
	Size    string `yaml:"size,omitempty"`

	// Type is the property type for set, get and watch.
	Type string `yaml:"type,omitempty"`

	// Value is the value written by set.
	Value any `yaml:"value,omitempty"`

	// Expect is the value for get and size, or the list of values for collect.
	Expect any `yaml:"expect,omitempty"`

	// Error is an expected error code for get, or the terminal error of a
	// collect.
	Error string `yaml:"error,omitempty"`

	// As names a watch. Collect refers to a watch by this name.
	As string `yaml:"as,omitempty"`

	// Count is the number of values collect reads.
	Count int `yaml:"count,omitempty"`

	// Item describes the element created by append.
	Item *Item `yaml:"item,omitempty"`
}

// Item is a list element to create: a copy of a named instance, or a blank
// instance, with Values written on top.
type Item struct {
	ViewModel string         `yaml:"viewModel"`
	Instance  string         `yaml:"instance,omitempty"`
	Values    map[string]any `yaml:"values,omitempty"`
}

// Op returns the operation key and its path.
func (s Step) Op() (op, path string) {
	for _, kv := range []struct{ op, path string }{
		{"set", s.Set}, {"get", s.Get}, {"fire", s.Fire}, {"watch", s.Watch},
		{"collect", s.Collect}, {"append", s.Append}, {"size", s.Size},
	} {
		if kv.path != "" {
			return kv.op, kv.path
		}
	}
	return "", ""
}

func (s Step) opCount() int {
	n := 0
	for _, p := range []string{s.Set, s.Get, s.Fire, s.Watch, s.Collect, s.Append, s.Size} {
		if p != "" {
			n++
		}
	}
	return n
}

// Assertion validates the final trace.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count.
	Type string `yaml:"type"`

	// Command is a journaled command or reply name (trace_contains,
	// trace_count).
	Command string `yaml:"command,omitempty"`

	// Path narrows trace_contains and trace_count to entries for one path.
	Path string `yaml:"path,omitempty"`

	// Detail narrows trace_contains to entries whose detail contains it.
	Detail string `yaml:"detail,omitempty"`

	// Count is the expected number of occurrences (trace_count).
	Count int `yaml:"count,omitempty"`

	// Commands is the expected order (trace_order).
	Commands []string `yaml:"commands,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file. The scene path is
// resolved relative to the file. Unknown fields (typos) are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Scene != "" && !filepath.IsAbs(scenario.Scene) {
		scenario.Scene = filepath.Join(filepath.Dir(path), scenario.Scene)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

var stepTypes = map[string]bool{
	"string": true, "number": true, "boolean": true,
	"color": true, "enum": true, "trigger": true,
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Scene == "" {
		return fmt.Errorf("scene is required")
	}
	if _, err := os.Stat(s.Scene); os.IsNotExist(err) {
		return fmt.Errorf("scene file not found: %s", s.Scene)
	}

	switch {
	case s.Instance.ViewModel == "" && s.Instance.Artboard == "":
		return fmt.Errorf("instance: viewModel or artboard is required")
	case s.Instance.ViewModel != "" && s.Instance.Artboard != "":
		return fmt.Errorf("instance: viewModel and artboard are exclusive")
	case s.Instance.Blank && s.Instance.Name != "":
		return fmt.Errorf("instance: blank and name are exclusive")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	watches := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(i, step, watches); err != nil {
			return err
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(i int, step Step, watches map[string]bool) error {
	if n := step.opCount(); n != 1 {
		return fmt.Errorf("steps[%d]: exactly one operation is required, got %d", i, n)
	}
	op, path := step.Op()

	switch op {
	case "set", "get", "watch":
		if !stepTypes[step.Type] {
			return fmt.Errorf("steps[%d]: %s needs a type, got %q", i, op, step.Type)
		}
	}

	switch op {
	case "set":
		if step.Value == nil {
			return fmt.Errorf("steps[%d]: set needs a value", i)
		}
		if step.Type == "trigger" {
			return fmt.Errorf("steps[%d]: triggers are fired, not set", i)
		}
	case "get":
		if step.Expect == nil && step.Error == "" {
			return fmt.Errorf("steps[%d]: get needs expect or error", i)
		}
		if step.Type == "trigger" {
			return fmt.Errorf("steps[%d]: triggers cannot be read", i)
		}
	case "watch":
		name := step.As
		if name == "" {
			name = path
		}
		if watches[name] {
			return fmt.Errorf("steps[%d]: watch %q is already open", i, name)
		}
		watches[name] = true
	case "collect":
		if !watches[path] {
			return fmt.Errorf("steps[%d]: collect from unknown watch %q", i, path)
		}
		if step.Expect != nil {
			if _, ok := step.Expect.([]any); !ok {
				return fmt.Errorf("steps[%d]: collect expect must be a list", i)
			}
		}
		if step.Count < 0 {
			return fmt.Errorf("steps[%d]: count must be non-negative", i)
		}
	case "append":
		if step.Item == nil || step.Item.ViewModel == "" {
			return fmt.Errorf("steps[%d]: append needs an item with a viewModel", i)
		}
	case "size":
		if step.Expect == nil {
			return fmt.Errorf("steps[%d]: size needs expect", i)
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Commands) == 0 {
			return fmt.Errorf("assertions[%d]: commands list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Command == "" {
			return fmt.Errorf("assertions[%d]: command is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

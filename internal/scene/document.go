package scene

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rivecq/internal/command"
)

// Document is a whole scene.
type Document struct {
	Artboards  []Artboard  `yaml:"artboards"`
	ViewModels []ViewModel `yaml:"viewModels"`
	Enums      []Enum      `yaml:"enums,omitempty"`
}

// Artboard describes one artboard. ViewModel and Instance name the default
// binding; both may be empty.
type Artboard struct {
	Name          string   `yaml:"name"`
	StateMachines []string `yaml:"stateMachines,omitempty"`
	ViewModel     string   `yaml:"viewModel,omitempty"`
	Instance      string   `yaml:"instance,omitempty"`
}

// ViewModel is a property schema plus its named instances. The first
// instance is the default one.
type ViewModel struct {
	Name       string     `yaml:"name"`
	Properties []Property `yaml:"properties"`
	Instances  []Instance `yaml:"instances,omitempty"`
}

// Property is one property definition. Type is a command.DataType name.
// Enum names the enum of an enum property; ViewModel names the element view
// model of a viewModel or list property.
type Property struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Enum      string `yaml:"enum,omitempty"`
	ViewModel string `yaml:"viewModel,omitempty"`
	MetaData  string `yaml:"metaData,omitempty"`
}

// Instance holds initial values keyed by property name. Nested view model
// values are maps; list values are sequences of maps.
type Instance struct {
	Name   string         `yaml:"name"`
	Values map[string]any `yaml:"values,omitempty"`
}

// Enum is a named set of string values.
type Enum struct {
	Name   string   `yaml:"name"`
	Values []string `yaml:"values"`
}

// Key returns the lookup key for a name.
func Key(name string) string {
	return norm.NFC.String(name)
}

func sameName(a, b string) bool {
	return Key(a) == Key(b)
}

// Decode parses a YAML or JSON document. Unknown fields are rejected.
func Decode(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &doc, nil
}

// Load reads a document from path. Files ending in .cue are compiled first.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}
	if filepath.Ext(path) == ".cue" {
		data, err = CompileCUE(path, data)
		if err != nil {
			return nil, err
		}
	}
	return Decode(data)
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Artboard finds an artboard by name. An empty name selects the first one.
func (d *Document) Artboard(name string) (*Artboard, bool) {
	if name == "" {
		if len(d.Artboards) == 0 {
			return nil, false
		}
		return &d.Artboards[0], true
	}
	for i := range d.Artboards {
		if sameName(d.Artboards[i].Name, name) {
			return &d.Artboards[i], true
		}
	}
	return nil, false
}

// ViewModel finds a view model by name.
func (d *Document) ViewModel(name string) (*ViewModel, bool) {
	for i := range d.ViewModels {
		if sameName(d.ViewModels[i].Name, name) {
			return &d.ViewModels[i], true
		}
	}
	return nil, false
}

// Enum finds an enum by name.
func (d *Document) Enum(name string) (*Enum, bool) {
	for i := range d.Enums {
		if sameName(d.Enums[i].Name, name) {
			return &d.Enums[i], true
		}
	}
	return nil, false
}

// ArtboardNames lists artboard names in document order.
func (d *Document) ArtboardNames() []string {
	out := make([]string, len(d.Artboards))
	for i, a := range d.Artboards {
		out[i] = a.Name
	}
	return out
}

// ViewModelNames lists view model names in document order.
func (d *Document) ViewModelNames() []string {
	out := make([]string, len(d.ViewModels))
	for i, vm := range d.ViewModels {
		out[i] = vm.Name
	}
	return out
}

// Property finds a property definition by name.
func (vm *ViewModel) Property(name string) (*Property, bool) {
	for i := range vm.Properties {
		if sameName(vm.Properties[i].Name, name) {
			return &vm.Properties[i], true
		}
	}
	return nil, false
}

// Instance finds a named instance. An empty name selects the default (first)
// instance.
func (vm *ViewModel) Instance(name string) (*Instance, bool) {
	if name == "" {
		if len(vm.Instances) == 0 {
			return nil, false
		}
		return &vm.Instances[0], true
	}
	for i := range vm.Instances {
		if sameName(vm.Instances[i].Name, name) {
			return &vm.Instances[i], true
		}
	}
	return nil, false
}

// InstanceNames lists instance names in document order.
func (vm *ViewModel) InstanceNames() []string {
	out := make([]string, len(vm.Instances))
	for i, inst := range vm.Instances {
		out[i] = inst.Name
	}
	return out
}

// DataType resolves the property's type name.
func (p *Property) DataType() (command.DataType, bool) {
	dt, ok := command.ParseDataType(p.Type)
	if !ok || dt == command.DataTypeNone {
		return command.DataTypeNone, false
	}
	return dt, true
}

// ParseColor accepts "#RRGGBB" (opaque) or "#AARRGGBB" and returns packed ARGB.
func ParseColor(s string) (uint32, error) {
	hex := strings.TrimPrefix(s, "#")
	switch len(hex) {
	case 6:
		hex = "FF" + hex
	case 8:
	default:
		return 0, fmt.Errorf("invalid color %q: want #RRGGBB or #AARRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(v), nil
}

// Number converts a decoded YAML/JSON number.
func Number(v any) (float32, bool) {
	switch n := v.(type) {
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	case float64:
		return float32(n), true
	case float32:
		return n, true
	}
	return 0, false
}

// Color converts a decoded color value: a hex string or a packed integer.
func Color(v any) (uint32, bool) {
	switch c := v.(type) {
	case string:
		argb, err := ParseColor(c)
		return argb, err == nil
	case int:
		if c < 0 || c > 0xFFFFFFFF {
			return 0, false
		}
		return uint32(c), true
	}
	return 0, false
}

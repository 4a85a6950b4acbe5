package harness

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/rivecq/internal/rive"
	"github.com/roach88/rivecq/internal/scene"
)

// valueKind binds a step type name to the typed client calls for it. Values
// cross the boundary boxed, so expected and actual compare with ==.
type valueKind interface {
	parse(raw any) (any, error)
	get(ctx context.Context, vmi *rive.ViewModelInstance, path string) (any, error)
	set(vmi *rive.ViewModelInstance, path string, v any)
	watch(vmi *rive.ViewModelInstance, path string) watcher
}

// watcher is an open subscription with its element type erased.
type watcher interface {
	next(ctx context.Context) (any, error)
	close()
}

type typed[T comparable] struct {
	property func(path string) rive.Property[T]
	convert  func(raw any) (T, bool)
	name     string
}

func (k typed[T]) parse(raw any) (any, error) {
	v, ok := k.convert(raw)
	if !ok {
		return nil, fmt.Errorf("%v is not a valid %s", raw, k.name)
	}
	return v, nil
}

func (k typed[T]) get(ctx context.Context, vmi *rive.ViewModelInstance, path string) (any, error) {
	return rive.Get(ctx, vmi, k.property(path))
}

func (k typed[T]) set(vmi *rive.ViewModelInstance, path string, v any) {
	rive.Set(vmi, k.property(path), v.(T))
}

func (k typed[T]) watch(vmi *rive.ViewModelInstance, path string) watcher {
	return streamWatcher[T]{rive.Watch(vmi, k.property(path))}
}

type streamWatcher[T any] struct {
	st *rive.Stream[T]
}

func (w streamWatcher[T]) next(ctx context.Context) (any, error) {
	return w.st.Next(ctx)
}

func (w streamWatcher[T]) close() { w.st.Close() }

// trigger has no readable value; it can only be fired and watched.
type trigger struct{}

func (trigger) parse(raw any) (any, error) {
	return nil, fmt.Errorf("triggers carry no value")
}

func (trigger) get(context.Context, *rive.ViewModelInstance, string) (any, error) {
	return nil, fmt.Errorf("triggers cannot be read")
}

func (trigger) set(*rive.ViewModelInstance, string, any) {}

func (trigger) watch(vmi *rive.ViewModelInstance, path string) watcher {
	return streamWatcher[struct{}]{vmi.TriggerStream(rive.TriggerProperty{Path: path})}
}

func asString(raw any) (string, bool) {
	s, ok := raw.(string)
	return s, ok
}

func asBool(raw any) (bool, bool) {
	b, ok := raw.(bool)
	return b, ok
}

func asColor(raw any) (rive.Color, bool) {
	argb, ok := scene.Color(raw)
	if !ok {
		return rive.Color{}, false
	}
	return rive.ColorFromARGB(argb), true
}

var kinds = map[string]valueKind{
	"string":  typed[string]{property: rive.StringProperty, convert: asString, name: "string"},
	"number":  typed[float32]{property: rive.NumberProperty, convert: scene.Number, name: "number"},
	"boolean": typed[bool]{property: rive.BoolProperty, convert: asBool, name: "boolean"},
	"color":   typed[rive.Color]{property: rive.ColorProperty, convert: asColor, name: "color"},
	"enum":    typed[string]{property: rive.EnumProperty, convert: asString, name: "enum"},
	"trigger": trigger{},
}

// kindOf returns the kind for a step type name.
func kindOf(name string) (valueKind, error) {
	k, ok := kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return k, nil
}

// Read reads a property by type name, the way a get step does. Colors come
// back as rive.Color and numbers as float32.
func Read(ctx context.Context, vmi *rive.ViewModelInstance, typ, path string) (any, error) {
	k, err := kindOf(typ)
	if err != nil {
		return nil, err
	}
	return k.get(ctx, vmi, path)
}

// writeValues applies a map of property values, guessing each type from the
// Go value decoded from YAML. Strings starting with # are colors. Writes are
// issued in path order.
func writeValues(vmi *rive.ViewModelInstance, values map[string]any) error {
	for _, path := range slices.Sorted(maps.Keys(values)) {
		raw := values[path]
		var k valueKind
		switch v := raw.(type) {
		case bool:
			k = kinds["boolean"]
		case int, float64:
			k = kinds["number"]
		case string:
			if _, ok := asColor(v); ok && len(v) > 0 && v[0] == '#' {
				k = kinds["color"]
			} else {
				k = kinds["string"]
			}
		default:
			return fmt.Errorf("%s: unsupported value %v", path, raw)
		}
		v, err := k.parse(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		k.set(vmi, path, v)
	}
	return nil
}

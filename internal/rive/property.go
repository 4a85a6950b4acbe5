package rive

import "github.com/roach88/rivecq/internal/command"

// Property names one typed field of a view model instance. T is the Go type
// the field reads and writes as; the kind selects the backend request variant.
//
// Properties are built with the kind constructors (StringProperty,
// NumberProperty, ...) so the pairing of T and kind cannot drift.
type Property[T any] struct {
	path string
	kind command.DataType
}

// Path returns the property path, relative to the instance it is used on.
func (p Property[T]) Path() string { return p.path }

// Kind returns the backend data type of the property.
func (p Property[T]) Kind() command.DataType { return p.kind }

// StringProperty names a string field.
func StringProperty(path string) Property[string] {
	return Property[string]{path: path, kind: command.DataTypeString}
}

// NumberProperty names a number field.
func NumberProperty(path string) Property[float32] {
	return Property[float32]{path: path, kind: command.DataTypeNumber}
}

// BoolProperty names a boolean field.
func BoolProperty(path string) Property[bool] {
	return Property[bool]{path: path, kind: command.DataTypeBoolean}
}

// ColorProperty names a color field.
func ColorProperty(path string) Property[Color] {
	return Property[Color]{path: path, kind: command.DataTypeColor}
}

// EnumProperty names an enum field. Values are enum case names.
func EnumProperty(path string) Property[string] {
	return Property[string]{path: path, kind: command.DataTypeEnum}
}

// TriggerProperty names a trigger. Triggers can be fired and observed but not read.
type TriggerProperty struct{ Path string }

// ImageProperty names an image field. Write only.
type ImageProperty struct{ Path string }

// ArtboardProperty names an artboard field. Write only.
type ArtboardProperty struct{ Path string }

// InstanceProperty names a nested view model instance.
type InstanceProperty struct{ Path string }

// ListProperty names a list of view model instances.
type ListProperty struct{ Path string }

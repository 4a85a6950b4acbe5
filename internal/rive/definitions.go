package rive

import (
	"fmt"

	"github.com/roach88/rivecq/internal/command"
)

// ViewModelEnum is an enum defined in a file.
type ViewModelEnum struct {
	Name   string
	Values []string
}

// ViewModelProperty is one property definition of a view model.
type ViewModelProperty struct {
	Type     command.DataType
	Name     string
	MetaData string
}

// ParseViewModelEnum decodes an enum definition with the keys "name" and
// "values".
func ParseViewModelEnum(m map[string]any) (ViewModelEnum, error) {
	name, ok := m["name"].(string)
	if !ok {
		return ViewModelEnum{}, &Error{Code: ErrCodeMissingName, Message: "enum is missing a name"}
	}
	values, ok := stringSlice(m["values"])
	if !ok {
		return ViewModelEnum{}, &Error{Code: ErrCodeMissingValues, Message: "enum is missing values", Value: name}
	}
	return ViewModelEnum{Name: name, Values: values}, nil
}

// ParseViewModelProperty decodes a property definition with the keys "type"
// (a DataType raw value), "name" and an optional "metaData".
func ParseViewModelProperty(m map[string]any) (ViewModelProperty, error) {
	raw, ok := integer(m["type"])
	if !ok {
		return ViewModelProperty{}, &Error{Code: ErrCodeMissingType, Message: "property is missing a type"}
	}
	name, ok := m["name"].(string)
	if !ok {
		return ViewModelProperty{}, &Error{Code: ErrCodeMissingName, Message: "property is missing a name"}
	}
	meta, _ := m["metaData"].(string)

	dt := command.DataType(raw)
	if raw < 0 || !dt.Valid() {
		return ViewModelProperty{}, &Error{
			Code:    ErrCodeInvalidType,
			Message: "invalid property type",
			Value:   fmt.Sprintf("%d", raw),
		}
	}
	return ViewModelProperty{Type: dt, Name: name, MetaData: meta}, nil
}

// parseAll decodes every entry and fails on the first malformed one.
func parseAll[T any](entries []map[string]any, parse func(map[string]any) (T, error)) ([]T, error) {
	out := make([]T, 0, len(entries))
	for i, m := range entries {
		v, err := parse(m)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func stringSlice(v any) ([]string, bool) {
	switch vs := v.(type) {
	case []string:
		return vs, true
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func integer(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case command.DataType:
		return int(n), true
	}
	return 0, false
}

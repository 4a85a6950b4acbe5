package scene

import (
	"fmt"
	"slices"

	"github.com/roach88/rivecq/internal/command"
)

// Validation error codes (S200-S299)
const (
	ErrEmptyName        = "S201" // artboard, view model, enum, property or instance without a name
	ErrDuplicateName    = "S202" // two siblings share a name
	ErrUnknownType      = "S203" // property type is not a data type name
	ErrUnknownEnum      = "S204" // enum property refers to a missing enum
	ErrUnknownViewModel = "S205" // reference to a missing view model
	ErrUnknownInstance  = "S206" // artboard default instance is missing
	ErrUnknownProperty  = "S207" // instance value for an undeclared property
	ErrValueType        = "S208" // instance value does not fit the property type
	ErrEnumValue        = "S209" // enum value outside the enum
)

// ValidationError describes one problem in a document.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks names and references. Returns every problem found.
func (d *Document) Validate() []ValidationError {
	v := &validator{doc: d}

	v.names("enums", len(d.Enums), func(i int) string { return d.Enums[i].Name })
	v.names("viewModels", len(d.ViewModels), func(i int) string { return d.ViewModels[i].Name })
	v.names("artboards", len(d.Artboards), func(i int) string { return d.Artboards[i].Name })

	for _, vm := range d.ViewModels {
		v.viewModel(vm)
	}
	for _, a := range d.Artboards {
		v.artboard(a)
	}
	return v.errs
}

type validator struct {
	doc  *Document
	errs []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
}

// names reports empty and duplicate names among n siblings.
func (v *validator) names(field string, n int, name func(int) string) {
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		key := Key(name(i))
		switch {
		case key == "":
			v.add(ErrEmptyName, fmt.Sprintf("%s[%d]", field, i), "name is required")
		case seen[key]:
			v.add(ErrDuplicateName, fmt.Sprintf("%s[%d]", field, i), "duplicate name %q", name(i))
		}
		seen[key] = true
	}
}

func (v *validator) viewModel(vm ViewModel) {
	base := "viewModels." + vm.Name
	v.names(base+".properties", len(vm.Properties), func(i int) string { return vm.Properties[i].Name })
	v.names(base+".instances", len(vm.Instances), func(i int) string { return vm.Instances[i].Name })

	for _, p := range vm.Properties {
		field := base + ".properties." + p.Name
		dt, ok := p.DataType()
		if !ok {
			v.add(ErrUnknownType, field, "unknown type %q", p.Type)
			continue
		}
		switch dt {
		case command.DataTypeEnum:
			if _, ok := v.doc.Enum(p.Enum); !ok {
				v.add(ErrUnknownEnum, field, "unknown enum %q", p.Enum)
			}
		case command.DataTypeViewModel, command.DataTypeList:
			if _, ok := v.doc.ViewModel(p.ViewModel); !ok {
				v.add(ErrUnknownViewModel, field, "unknown view model %q", p.ViewModel)
			}
		}
	}

	for _, inst := range vm.Instances {
		v.values(base+".instances."+inst.Name, &vm, inst.Values, 0)
	}
}

// values checks instance values against vm. depth stops self-referencing
// view models from recursing forever.
func (v *validator) values(field string, vm *ViewModel, values map[string]any, depth int) {
	if depth > 32 {
		v.add(ErrValueType, field, "values nest too deep")
		return
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, name := range keys {
		raw := values[name]
		f := field + "." + name
		p, ok := vm.Property(name)
		if !ok {
			v.add(ErrUnknownProperty, f, "view model %q has no property %q", vm.Name, name)
			continue
		}
		dt, ok := p.DataType()
		if !ok {
			continue // reported with the definition
		}
		v.value(f, p, dt, raw, depth)
	}
}

func (v *validator) value(field string, p *Property, dt command.DataType, raw any, depth int) {
	switch dt {
	case command.DataTypeString, command.DataTypeAssetImage, command.DataTypeArtboard:
		if _, ok := raw.(string); !ok {
			v.add(ErrValueType, field, "want %s, got %T", dt, raw)
		}
	case command.DataTypeNumber:
		if _, ok := Number(raw); !ok {
			v.add(ErrValueType, field, "want number, got %T", raw)
		}
	case command.DataTypeBoolean:
		if _, ok := raw.(bool); !ok {
			v.add(ErrValueType, field, "want boolean, got %T", raw)
		}
	case command.DataTypeColor:
		if _, ok := Color(raw); !ok {
			v.add(ErrValueType, field, "want #RRGGBB, #AARRGGBB or an ARGB integer, got %v", raw)
		}
	case command.DataTypeEnum:
		s, ok := raw.(string)
		if !ok {
			v.add(ErrValueType, field, "want enum value, got %T", raw)
			return
		}
		if e, ok := v.doc.Enum(p.Enum); ok && !slices.ContainsFunc(e.Values, func(ev string) bool { return sameName(ev, s) }) {
			v.add(ErrEnumValue, field, "%q is not a value of enum %q", s, e.Name)
		}
	case command.DataTypeViewModel:
		nested, ok := raw.(map[string]any)
		if !ok {
			v.add(ErrValueType, field, "want a map of nested values, got %T", raw)
			return
		}
		if target, ok := v.doc.ViewModel(p.ViewModel); ok {
			v.values(field, target, nested, depth+1)
		}
	case command.DataTypeList:
		items, ok := raw.([]any)
		if !ok {
			v.add(ErrValueType, field, "want a list, got %T", raw)
			return
		}
		target, ok := v.doc.ViewModel(p.ViewModel)
		for i, item := range items {
			m, isMap := item.(map[string]any)
			if !isMap {
				v.add(ErrValueType, fmt.Sprintf("%s[%d]", field, i), "want a map of values, got %T", item)
				continue
			}
			if ok {
				v.values(fmt.Sprintf("%s[%d]", field, i), target, m, depth+1)
			}
		}
	default:
		v.add(ErrValueType, field, "%s properties take no initial value", dt)
	}
}

func (v *validator) artboard(a Artboard) {
	field := "artboards." + a.Name
	v.names(field+".stateMachines", len(a.StateMachines), func(i int) string { return a.StateMachines[i] })
	if a.ViewModel == "" {
		if a.Instance != "" {
			v.add(ErrUnknownViewModel, field, "instance %q set without a view model", a.Instance)
		}
		return
	}
	vm, ok := v.doc.ViewModel(a.ViewModel)
	if !ok {
		v.add(ErrUnknownViewModel, field, "unknown view model %q", a.ViewModel)
		return
	}
	if a.Instance != "" {
		if _, ok := vm.Instance(a.Instance); !ok {
			v.add(ErrUnknownInstance, field, "view model %q has no instance %q", vm.Name, a.Instance)
		}
	}
}

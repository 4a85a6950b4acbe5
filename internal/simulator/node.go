package simulator

import (
	"fmt"
	"strings"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/scene"
)

// node is the state of one view model instance. Nested and list values hold
// other nodes, so the same node can be reachable from several places; a write
// through any of them is seen by all.
type node struct {
	doc      *scene.Document
	vm       *scene.ViewModel
	name     string
	values   map[string]any // string, float32, bool, uint32 (ARGB) or handles
	children map[string]*node
	lists    map[string][]*node
}

// newNode builds a node from initial values. A nil map builds a blank node.
func newNode(doc *scene.Document, vm *scene.ViewModel, name string, values map[string]any) *node {
	n := &node{
		doc:      doc,
		vm:       vm,
		name:     name,
		values:   make(map[string]any),
		children: make(map[string]*node),
		lists:    make(map[string][]*node),
	}
	for i := range vm.Properties {
		p := &vm.Properties[i]
		key := scene.Key(p.Name)
		raw, set := lookup(values, p.Name)
		dt, _ := p.DataType()

		switch dt {
		case command.DataTypeString:
			s, _ := raw.(string)
			n.values[key] = s
		case command.DataTypeNumber, command.DataTypeInteger:
			f, _ := scene.Number(raw)
			n.values[key] = f
		case command.DataTypeBoolean:
			v, _ := raw.(bool)
			n.values[key] = v
		case command.DataTypeColor:
			c, _ := scene.Color(raw)
			n.values[key] = c
		case command.DataTypeEnum:
			s, _ := raw.(string)
			if !set {
				if e, ok := doc.Enum(p.Enum); ok && len(e.Values) > 0 {
					s = e.Values[0]
				}
			}
			n.values[key] = s
		case command.DataTypeViewModel:
			if m, ok := raw.(map[string]any); ok {
				if child, ok := doc.ViewModel(p.ViewModel); ok {
					n.children[key] = newNode(doc, child, "", m)
				}
			}
		case command.DataTypeList:
			items, _ := raw.([]any)
			elem, ok := doc.ViewModel(p.ViewModel)
			if !ok {
				continue
			}
			list := make([]*node, 0, len(items))
			for _, item := range items {
				m, _ := item.(map[string]any)
				list = append(list, newNode(doc, elem, "", m))
			}
			n.lists[key] = list
		}
	}
	return n
}

func lookup(values map[string]any, name string) (any, bool) {
	if v, ok := values[name]; ok {
		return v, true
	}
	want := scene.Key(name)
	for k, v := range values {
		if scene.Key(k) == want {
			return v, true
		}
	}
	return nil, false
}

// child returns the nested node of a view model property, creating a blank
// one on first use.
func (n *node) child(p *scene.Property) (*node, bool) {
	key := scene.Key(p.Name)
	if c, ok := n.children[key]; ok {
		return c, true
	}
	vm, ok := n.doc.ViewModel(p.ViewModel)
	if !ok {
		return nil, false
	}
	c := newNode(n.doc, vm, "", nil)
	n.children[key] = c
	return c, true
}

// resolve walks a slash separated path to the node owning its last segment.
func (n *node) resolve(path string) (*node, *scene.Property, bool) {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	cur := n
	for i, seg := range segs {
		p, ok := cur.vm.Property(seg)
		if !ok {
			return nil, nil, false
		}
		if i == len(segs)-1 {
			return cur, p, true
		}
		if dt, _ := p.DataType(); dt != command.DataTypeViewModel {
			return nil, nil, false
		}
		if cur, ok = cur.child(p); !ok {
			return nil, nil, false
		}
	}
	return nil, nil, false
}

// data renders a property as a reply payload of its own type.
func (n *node) data(p *scene.Property) command.ViewModelData {
	dt, _ := p.DataType()
	v := n.values[scene.Key(p.Name)]

	var d command.ViewModelData
	switch dt {
	case command.DataTypeString:
		d = command.StringData(v.(string))
	case command.DataTypeNumber, command.DataTypeInteger:
		d = command.NumberData(v.(float32))
	case command.DataTypeBoolean:
		d = command.BoolData(v.(bool))
	case command.DataTypeColor:
		d = command.ColorData(v.(uint32))
	case command.DataTypeEnum:
		d = command.StringData(v.(string))
		d.Type = command.DataTypeEnum
	case command.DataTypeTrigger:
		d = command.TriggerData()
	default:
		d = command.ViewModelData{Type: dt}
	}
	d.Name = p.Name
	return d
}

// set stores v if it fits the property's type. It reports whether the stored
// value changed.
func (n *node) set(p *scene.Property, kind command.DataType, v any) (changed bool, err error) {
	dt, _ := p.DataType()
	if dt == command.DataTypeInteger {
		dt = command.DataTypeNumber
	}
	if dt != kind {
		return false, fmt.Errorf("property %q is %s, not %s", p.Name, p.Type, kind)
	}
	if kind == command.DataTypeEnum {
		e, ok := n.doc.Enum(p.Enum)
		if !ok || !contains(e.Values, v.(string)) {
			return false, fmt.Errorf("enum %q has no value %q", p.Enum, v)
		}
	}
	key := scene.Key(p.Name)
	if n.values[key] == v {
		return false, nil
	}
	n.values[key] = v
	return true, nil
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if scene.Key(s) == scene.Key(v) {
			return true
		}
	}
	return false
}

// describe renders a payload for the journal.
func describe(d command.ViewModelData) string {
	switch {
	case d.StringValue != nil:
		return fmt.Sprintf("%s=%q", d.Type, *d.StringValue)
	case d.NumberValue != nil:
		return fmt.Sprintf("%s=%g", d.Type, *d.NumberValue)
	case d.BoolValue != nil:
		return fmt.Sprintf("%s=%t", d.Type, *d.BoolValue)
	case d.ColorValue != nil:
		return fmt.Sprintf("%s=#%08X", d.Type, *d.ColorValue)
	case d.Type == command.DataTypeNone:
		return "empty"
	}
	return d.Type.String()
}

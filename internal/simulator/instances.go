package simulator

import (
	"fmt"
	"maps"
	"slices"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/scene"
	"github.com/roach88/rivecq/internal/store"
)

type instance struct {
	node     *node // nil when creation or referencing failed
	listener command.ViewModelInstanceListener
	deleted  bool
}

type subscription struct {
	instance command.ViewModelInstanceHandle
	path     string
	dataType command.DataType
	listener command.ViewModelInstanceListener
}

// instanceSource selects the scene instance a creation command copies.
type instanceSource struct {
	artboard  command.ArtboardHandle // zero when viewModel is set
	viewModel string
	instance  string
	blank     bool
}

func (s instanceSource) String() string {
	out := s.viewModel
	if s.artboard != 0 {
		out = fmt.Sprintf("artboard=%d", s.artboard)
	}
	if s.instance != "" {
		out += " instance=" + s.instance
	}
	return out
}

func (b *Backend) CreateBlankViewModelInstance(ah command.ArtboardHandle, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateBlankViewModelInstance", instanceSource{artboard: ah, blank: true}, fh, l, id)
}

func (b *Backend) CreateBlankViewModelInstanceNamed(viewModel string, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateBlankViewModelInstanceNamed", instanceSource{viewModel: viewModel, blank: true}, fh, l, id)
}

func (b *Backend) CreateDefaultViewModelInstance(ah command.ArtboardHandle, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateDefaultViewModelInstance", instanceSource{artboard: ah}, fh, l, id)
}

func (b *Backend) CreateDefaultViewModelInstanceNamed(viewModel string, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateDefaultViewModelInstanceNamed", instanceSource{viewModel: viewModel}, fh, l, id)
}

func (b *Backend) CreateViewModelInstanceNamedForArtboard(name string, ah command.ArtboardHandle, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateViewModelInstanceNamedForArtboard", instanceSource{artboard: ah, instance: name}, fh, l, id)
}

func (b *Backend) CreateViewModelInstanceNamed(name, viewModel string, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return b.createInstance("CreateViewModelInstanceNamed", instanceSource{viewModel: viewModel, instance: name}, fh, l, id)
}

// createInstance never replies. A source that does not resolve leaves a dead
// handle whose reads come back empty.
func (b *Backend) createInstance(cmd string, src instanceSource, fh command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	h := command.ViewModelInstanceHandle(b.nextHandle())
	b.apply(store.Entry{Name: cmd, RequestID: uint64(id), Handle: uint64(h), Detail: src.String()}, func() {
		inst := &instance{listener: l}
		b.instances[h] = inst
		n, err := b.buildNode(src, fh)
		if err != nil {
			b.logger.Debug("view model instance not created", "instance", uint64(h), "error", err)
			return
		}
		inst.node = n
	})
	return h
}

func (b *Backend) buildNode(src instanceSource, fh command.FileHandle) (*node, error) {
	f, ok := b.files[fh]
	if !ok || f.deleted {
		return nil, fmt.Errorf("unknown file %d", fh)
	}
	vmName, instName := src.viewModel, src.instance
	if src.artboard != 0 {
		ab, ok := b.artboards[src.artboard]
		if !ok || ab.def == nil {
			return nil, fmt.Errorf("unknown artboard %d", src.artboard)
		}
		vmName = ab.def.ViewModel
		if instName == "" && !src.blank {
			instName = ab.def.Instance
		}
	}
	vm, ok := f.doc.ViewModel(vmName)
	if !ok {
		return nil, fmt.Errorf("view model %q not found", vmName)
	}
	if src.blank {
		return newNode(f.doc, vm, "", nil), nil
	}
	si, ok := vm.Instance(instName)
	if !ok {
		if instName != "" {
			return nil, fmt.Errorf("instance %q not found in %q", instName, vm.Name)
		}
		return newNode(f.doc, vm, "", nil), nil
	}
	return newNode(f.doc, vm, si.Name, si.Values), nil
}

func (b *Backend) ReferenceNestedViewModelInstance(parent command.ViewModelInstanceHandle, path string, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	h := command.ViewModelInstanceHandle(b.nextHandle())
	b.apply(store.Entry{Name: "ReferenceNestedViewModelInstance", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("parent=%d", parent)}, func() {
		inst := &instance{listener: l}
		b.instances[h] = inst
		n, p, ok := b.resolve(parent, path)
		if !ok {
			return
		}
		if dt, _ := p.DataType(); dt != command.DataTypeViewModel {
			b.logger.Debug("not a view model property", "path", path)
			return
		}
		inst.node, _ = n.child(p)
	})
	return h
}

func (b *Backend) ReferenceListViewModelInstance(parent command.ViewModelInstanceHandle, path string, index int32, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	h := command.ViewModelInstanceHandle(b.nextHandle())
	b.apply(store.Entry{Name: "ReferenceListViewModelInstance", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("parent=%d index=%d", parent, index)}, func() {
		inst := &instance{listener: l}
		b.instances[h] = inst
		list, _, ok := b.list(parent, path)
		if !ok || index < 0 || int(index) >= len(list) {
			b.logger.Debug("list element not found", "path", path, "index", index)
			return
		}
		inst.node = list[index]
	})
	return h
}

// live returns a usable instance.
func (b *Backend) live(h command.ViewModelInstanceHandle) (*instance, bool) {
	inst, ok := b.instances[h]
	if !ok || inst.deleted || inst.node == nil {
		return inst, false
	}
	return inst, true
}

func (b *Backend) resolve(h command.ViewModelInstanceHandle, path string) (*node, *scene.Property, bool) {
	inst, ok := b.live(h)
	if !ok {
		b.logger.Debug("view model instance unavailable", "instance", uint64(h))
		return nil, nil, false
	}
	n, p, ok := inst.node.resolve(path)
	if !ok {
		b.logger.Debug("property not found", "instance", uint64(h), "path", path)
	}
	return n, p, ok
}

func (b *Backend) list(h command.ViewModelInstanceHandle, path string) ([]*node, func([]*node), bool) {
	n, p, ok := b.resolve(h, path)
	if !ok {
		return nil, nil, false
	}
	if dt, _ := p.DataType(); dt != command.DataTypeList {
		b.logger.Debug("not a list property", "path", path)
		return nil, nil, false
	}
	key := scene.Key(p.Name)
	return n.lists[key], func(l []*node) { n.lists[key] = l }, true
}

// sendData delivers a data reply to the listener of h, if it still has one.
func (b *Backend) sendData(h command.ViewModelInstanceHandle, id command.RequestID, path string, d command.ViewModelData) {
	inst, ok := b.instances[h]
	if !ok {
		return
	}
	b.reply(store.Entry{Name: "OnViewModelDataReceived", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: describe(d)})
	inst.listener.OnViewModelDataReceived(h, id, d)
}

func (b *Backend) RequestViewModelInstanceName(h command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelInstanceName", RequestID: uint64(id), Handle: uint64(h)}, func() {
		inst, ok := b.live(h)
		if !ok {
			b.sendData(h, id, "", command.ViewModelData{})
			return
		}
		b.reply(store.Entry{Name: "OnViewModelInstanceNameReceived", RequestID: uint64(id), Handle: uint64(h), Detail: fmt.Sprintf("%q", inst.node.name)})
		inst.listener.OnViewModelInstanceNameReceived(h, id, inst.node.name)
	})
}

func (b *Backend) RequestViewModelInstanceString(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.read("RequestViewModelInstanceString", h, path, id)
}

func (b *Backend) RequestViewModelInstanceNumber(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.read("RequestViewModelInstanceNumber", h, path, id)
}

func (b *Backend) RequestViewModelInstanceBool(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.read("RequestViewModelInstanceBool", h, path, id)
}

func (b *Backend) RequestViewModelInstanceColor(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.read("RequestViewModelInstanceColor", h, path, id)
}

func (b *Backend) RequestViewModelInstanceEnum(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.read("RequestViewModelInstanceEnum", h, path, id)
}

// read replies with the property as it is, whatever kind was asked for. An
// unresolvable path gets an empty payload.
func (b *Backend) read(cmd string, h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.apply(store.Entry{Name: cmd, RequestID: uint64(id), Handle: uint64(h), Path: path}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			b.sendData(h, id, path, command.ViewModelData{})
			return
		}
		b.sendData(h, id, path, n.data(p))
	})
}

func (b *Backend) RequestViewModelInstanceListSize(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelInstanceListSize", RequestID: uint64(id), Handle: uint64(h), Path: path}, func() {
		list, _, ok := b.list(h, path)
		if !ok {
			b.sendData(h, id, path, command.ViewModelData{})
			return
		}
		inst := b.instances[h]
		b.reply(store.Entry{Name: "OnViewModelListSizeReceived", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("size=%d", len(list))})
		inst.listener.OnViewModelListSizeReceived(h, id, path, len(list))
	})
}

func (b *Backend) SetViewModelInstanceString(h command.ViewModelInstanceHandle, path string, value string, id command.RequestID) {
	b.write("SetViewModelInstanceString", h, path, command.DataTypeString, value, fmt.Sprintf("%q", value), id)
}

func (b *Backend) SetViewModelInstanceNumber(h command.ViewModelInstanceHandle, path string, value float32, id command.RequestID) {
	b.write("SetViewModelInstanceNumber", h, path, command.DataTypeNumber, value, fmt.Sprintf("%g", value), id)
}

func (b *Backend) SetViewModelInstanceBool(h command.ViewModelInstanceHandle, path string, value bool, id command.RequestID) {
	b.write("SetViewModelInstanceBool", h, path, command.DataTypeBoolean, value, fmt.Sprintf("%t", value), id)
}

func (b *Backend) SetViewModelInstanceColor(h command.ViewModelInstanceHandle, path string, argb uint32, id command.RequestID) {
	b.write("SetViewModelInstanceColor", h, path, command.DataTypeColor, argb, fmt.Sprintf("#%08X", argb), id)
}

func (b *Backend) SetViewModelInstanceEnum(h command.ViewModelInstanceHandle, path string, value string, id command.RequestID) {
	b.write("SetViewModelInstanceEnum", h, path, command.DataTypeEnum, value, fmt.Sprintf("%q", value), id)
}

// write stores a value and notifies subscribers when it changed. Writes of the
// wrong kind are dropped.
func (b *Backend) write(cmd string, h command.ViewModelInstanceHandle, path string, kind command.DataType, value any, detail string, id command.RequestID) {
	b.apply(store.Entry{Name: cmd, RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: detail}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			return
		}
		changed, err := n.set(p, kind, value)
		if err != nil {
			b.logger.Debug("write dropped", "path", path, "error", err)
			return
		}
		if changed {
			b.notify(n, p, n.data(p))
		}
	})
}

func (b *Backend) SetViewModelInstanceImage(h command.ViewModelInstanceHandle, path string, image command.ImageHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "SetViewModelInstanceImage", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("image=%d", image)}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			return
		}
		if dt, _ := p.DataType(); dt != command.DataTypeAssetImage {
			b.logger.Debug("not an image property", "path", path)
			return
		}
		if _, ok := b.images[image]; !ok && image != 0 {
			b.logger.Debug("unknown image", "image", uint64(image))
			return
		}
		n.values[scene.Key(p.Name)] = image
	})
}

func (b *Backend) SetViewModelInstanceArtboard(h command.ViewModelInstanceHandle, path string, artboard command.ArtboardHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "SetViewModelInstanceArtboard", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("artboard=%d", artboard)}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			return
		}
		if dt, _ := p.DataType(); dt != command.DataTypeArtboard {
			b.logger.Debug("not an artboard property", "path", path)
			return
		}
		n.values[scene.Key(p.Name)] = artboard
	})
}

// SetViewModelInstanceNestedViewModel makes the property refer to the value's
// node. Both handles then see the same state.
func (b *Backend) SetViewModelInstanceNestedViewModel(h command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "SetViewModelInstanceNestedViewModel", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("value=%d", value)}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			return
		}
		v, ok := b.live(value)
		if !ok {
			b.logger.Debug("nested value unavailable", "value", uint64(value))
			return
		}
		if dt, _ := p.DataType(); dt != command.DataTypeViewModel || scene.Key(v.node.vm.Name) != scene.Key(p.ViewModel) {
			b.logger.Debug("nested value does not fit", "path", path, "view_model", v.node.vm.Name)
			return
		}
		n.children[scene.Key(p.Name)] = v.node
	})
}

func (b *Backend) FireViewModelTrigger(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	b.apply(store.Entry{Name: "FireViewModelTrigger", RequestID: uint64(id), Handle: uint64(h), Path: path}, func() {
		n, p, ok := b.resolve(h, path)
		if !ok {
			return
		}
		if dt, _ := p.DataType(); dt != command.DataTypeTrigger {
			b.logger.Debug("not a trigger", "path", path)
			return
		}
		d := command.TriggerData()
		d.Name = p.Name
		b.notify(n, p, d)
	})
}

// Subscribe registers a subscription. A path that does not resolve is answered
// with one empty payload.
func (b *Backend) Subscribe(h command.ViewModelInstanceHandle, path string, dataType command.DataType, id command.RequestID) {
	b.apply(store.Entry{Name: "Subscribe", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: dataType.String()}, func() {
		inst, ok := b.instances[h]
		if !ok {
			return
		}
		if _, _, ok := b.resolve(h, path); !ok {
			b.sendData(h, id, path, command.ViewModelData{})
			return
		}
		b.subs[id] = &subscription{instance: h, path: path, dataType: dataType, listener: inst.listener}
	})
}

func (b *Backend) Unsubscribe(h command.ViewModelInstanceHandle, path string, dataType command.DataType, id command.RequestID) {
	b.apply(store.Entry{Name: "Unsubscribe", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: dataType.String()}, func() {
		sub, ok := b.subs[id]
		if !ok || sub.instance != h || sub.path != path || sub.dataType != dataType {
			b.logger.Debug("no matching subscription", "request_id", uint64(id))
			return
		}
		delete(b.subs, id)
	})
}

// notify pushes d to every subscription whose path resolves to property p of
// node n, in request ID order.
func (b *Backend) notify(n *node, p *scene.Property, d command.ViewModelData) {
	for _, id := range slices.Sorted(maps.Keys(b.subs)) {
		sub := b.subs[id]
		inst, ok := b.live(sub.instance)
		if !ok {
			continue
		}
		target, tp, ok := inst.node.resolve(sub.path)
		if !ok || target != n || tp != p {
			continue
		}
		b.reply(store.Entry{Name: "OnViewModelDataReceived", RequestID: uint64(id), Handle: uint64(sub.instance), Path: sub.path, Detail: describe(d)})
		sub.listener.OnViewModelDataReceived(sub.instance, id, d)
	}
}

func (b *Backend) AppendViewModelInstanceListViewModel(h command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "AppendViewModelInstanceListViewModel", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("value=%d", value)}, func() {
		list, save, ok := b.list(h, path)
		if !ok {
			return
		}
		v, ok := b.element(value)
		if !ok {
			return
		}
		save(append(list, v))
	})
}

func (b *Backend) InsertViewModelInstanceListViewModel(h command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle, index int32, id command.RequestID) {
	b.apply(store.Entry{Name: "InsertViewModelInstanceListViewModel", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("value=%d index=%d", value, index)}, func() {
		list, save, ok := b.list(h, path)
		if !ok {
			return
		}
		if index < 0 || int(index) > len(list) {
			b.logger.Debug("insert index out of range", "index", index, "size", len(list))
			return
		}
		v, ok := b.element(value)
		if !ok {
			return
		}
		save(slices.Insert(list, int(index), v))
	})
}

func (b *Backend) RemoveViewModelInstanceListViewModelAtIndex(h command.ViewModelInstanceHandle, path string, index int32, value command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RemoveViewModelInstanceListViewModelAtIndex", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("index=%d", index)}, func() {
		list, save, ok := b.list(h, path)
		if !ok {
			return
		}
		if index < 0 || int(index) >= len(list) {
			b.logger.Debug("remove index out of range", "index", index, "size", len(list))
			return
		}
		save(slices.Delete(list, int(index), int(index)+1))
	})
}

func (b *Backend) RemoveViewModelInstanceListViewModelByValue(h command.ViewModelInstanceHandle, path string, value command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RemoveViewModelInstanceListViewModelByValue", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("value=%d", value)}, func() {
		list, save, ok := b.list(h, path)
		if !ok {
			return
		}
		v, ok := b.live(value)
		if !ok {
			return
		}
		save(slices.DeleteFunc(list, func(n *node) bool { return n == v.node }))
	})
}

func (b *Backend) SwapViewModelInstanceListValues(h command.ViewModelInstanceHandle, path string, atIndex, withIndex int32, id command.RequestID) {
	b.apply(store.Entry{Name: "SwapViewModelInstanceListValues", RequestID: uint64(id), Handle: uint64(h), Path: path, Detail: fmt.Sprintf("%d<->%d", atIndex, withIndex)}, func() {
		list, _, ok := b.list(h, path)
		if !ok {
			return
		}
		n := int32(len(list))
		if atIndex < 0 || withIndex < 0 || atIndex >= n || withIndex >= n {
			b.logger.Debug("swap index out of range", "at", atIndex, "with", withIndex, "size", n)
			return
		}
		list[atIndex], list[withIndex] = list[withIndex], list[atIndex]
	})
}

func (b *Backend) element(h command.ViewModelInstanceHandle) (*node, bool) {
	v, ok := b.live(h)
	if !ok {
		b.logger.Debug("list value unavailable", "value", uint64(h))
		return nil, false
	}
	return v.node, true
}

// DeleteViewModelInstance releases a handle. The node lives on while other
// handles or lists still reach it.
func (b *Backend) DeleteViewModelInstance(h command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "DeleteViewModelInstance", RequestID: uint64(id), Handle: uint64(h)}, func() {
		if inst, ok := b.instances[h]; ok {
			inst.deleted = true
		}
	})
}

func (b *Backend) DeleteViewModelInstanceListener(h command.ViewModelInstanceHandle) {
	b.apply(store.Entry{Name: "DeleteViewModelInstanceListener", Handle: uint64(h)}, func() {
		delete(b.instances, h)
		maps.DeleteFunc(b.subs, func(_ command.RequestID, s *subscription) bool { return s.instance == h })
	})
}

package simulator

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/rivecq/internal/command"
	"github.com/roach88/rivecq/internal/scene"
	"github.com/roach88/rivecq/internal/store"
)

type file struct {
	doc      *scene.Document
	listener command.FileListener
	deleted  bool
}

type artboard struct {
	file     command.FileHandle
	def      *scene.Artboard // nil when creation failed
	listener command.ArtboardListener
	width    float32
	height   float32
	scale    float32
	deleted  bool
}

type stateMachine struct {
	artboard command.ArtboardHandle
	name     string
	elapsed  time.Duration
	bound    command.ViewModelInstanceHandle
}

// LoadFile parses data as a scene document.
func (b *Backend) LoadFile(data []byte, l command.FileListener, id command.RequestID) {
	b.apply(store.Entry{Name: "LoadFile", RequestID: uint64(id), Detail: fmt.Sprintf("bytes=%d", len(data))}, func() {
		doc, err := scene.Decode(data)
		if err != nil {
			b.fileError(l, 0, id, err.Error())
			return
		}
		if errs := doc.Validate(); len(errs) > 0 {
			b.fileError(l, 0, id, errs[0].Error())
			return
		}

		h := command.FileHandle(b.nextHandle())
		b.files[h] = &file{doc: doc, listener: l}
		b.reply(store.Entry{Name: "OnFileLoaded", RequestID: uint64(id), Handle: uint64(h)})
		l.OnFileLoaded(h, id)
	})
}

func (b *Backend) fileError(l command.FileListener, h command.FileHandle, id command.RequestID, msg string) {
	b.reply(store.Entry{Name: "OnFileError", RequestID: uint64(id), Handle: uint64(h), Detail: msg})
	l.OnFileError(h, id, msg)
}

// liveFile returns a loaded, undeleted file, or replies with a file error.
func (b *Backend) liveFile(h command.FileHandle, id command.RequestID) (*file, bool) {
	f, ok := b.files[h]
	if !ok {
		b.logger.Debug("unknown file", "file", uint64(h))
		return nil, false
	}
	if f.deleted {
		b.fileError(f.listener, h, id, "file deleted")
		return nil, false
	}
	return f, true
}

func (b *Backend) DeleteFile(h command.FileHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "DeleteFile", RequestID: uint64(id), Handle: uint64(h)}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		f.deleted = true
		b.reply(store.Entry{Name: "OnFileDeleted", RequestID: uint64(id), Handle: uint64(h)})
		f.listener.OnFileDeleted(h, id)
	})
}

func (b *Backend) DeleteFileListener(h command.FileHandle) {
	b.apply(store.Entry{Name: "DeleteFileListener", Handle: uint64(h)}, func() {
		delete(b.files, h)
	})
}

func (b *Backend) RequestArtboardNames(h command.FileHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestArtboardNames", RequestID: uint64(id), Handle: uint64(h)}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		names := f.doc.ArtboardNames()
		b.reply(store.Entry{Name: "OnArtboardsListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		f.listener.OnArtboardsListed(h, id, names)
	})
}

func (b *Backend) RequestViewModelNames(h command.FileHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelNames", RequestID: uint64(id), Handle: uint64(h)}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		names := f.doc.ViewModelNames()
		b.reply(store.Entry{Name: "OnViewModelsListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		f.listener.OnViewModelsListed(h, id, names)
	})
}

func (b *Backend) RequestViewModelEnums(h command.FileHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelEnums", RequestID: uint64(id), Handle: uint64(h)}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		enums := make([]map[string]any, 0, len(f.doc.Enums))
		names := make([]string, 0, len(f.doc.Enums))
		for _, e := range f.doc.Enums {
			enums = append(enums, map[string]any{"name": e.Name, "values": append([]string(nil), e.Values...)})
			names = append(names, e.Name)
		}
		b.reply(store.Entry{Name: "OnViewModelEnumsListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		f.listener.OnViewModelEnumsListed(h, id, enums)
	})
}

// RequestViewModelInstanceNames lists the instances of a view model. An unknown
// view model has none.
func (b *Backend) RequestViewModelInstanceNames(h command.FileHandle, viewModel string, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelInstanceNames", RequestID: uint64(id), Handle: uint64(h), Detail: viewModel}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		names := []string{}
		if vm, ok := f.doc.ViewModel(viewModel); ok {
			names = vm.InstanceNames()
		}
		b.reply(store.Entry{Name: "OnViewModelInstanceNamesListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		f.listener.OnViewModelInstanceNamesListed(h, id, viewModel, names)
	})
}

// RequestViewModelPropertyDefinitions lists property definitions in the loose
// map form the listener contract describes.
func (b *Backend) RequestViewModelPropertyDefinitions(h command.FileHandle, viewModel string, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestViewModelPropertyDefinitions", RequestID: uint64(id), Handle: uint64(h), Detail: viewModel}, func() {
		f, ok := b.liveFile(h, id)
		if !ok {
			return
		}
		props := []map[string]any{}
		var names []string
		if vm, ok := f.doc.ViewModel(viewModel); ok {
			for _, p := range vm.Properties {
				dt, _ := p.DataType()
				m := map[string]any{"type": int(dt), "name": p.Name}
				if p.MetaData != "" {
					m["metaData"] = p.MetaData
				}
				props = append(props, m)
				names = append(names, p.Name)
			}
		}
		b.reply(store.Entry{Name: "OnViewModelPropertiesListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		f.listener.OnViewModelPropertiesListed(h, id, viewModel, props)
	})
}

func (b *Backend) CreateDefaultArtboard(fh command.FileHandle, l command.ArtboardListener, id command.RequestID) command.ArtboardHandle {
	return b.createArtboard("CreateDefaultArtboard", "", fh, l, id)
}

func (b *Backend) CreateArtboardNamed(name string, fh command.FileHandle, l command.ArtboardListener, id command.RequestID) command.ArtboardHandle {
	return b.createArtboard("CreateArtboardNamed", name, fh, l, id)
}

// createArtboard always returns a handle. When the artboard does not exist the
// handle is dead: its requests fail with artboard errors.
func (b *Backend) createArtboard(cmd, name string, fh command.FileHandle, l command.ArtboardListener, id command.RequestID) command.ArtboardHandle {
	h := command.ArtboardHandle(b.nextHandle())
	b.apply(store.Entry{Name: cmd, RequestID: uint64(id), Handle: uint64(h), Detail: name}, func() {
		ab := &artboard{file: fh, listener: l, scale: 1}
		b.artboards[h] = ab
		f, ok := b.liveFile(fh, id)
		if !ok {
			b.artboardError(ab, h, id, "unknown file")
			return
		}
		def, ok := f.doc.Artboard(name)
		if !ok {
			b.artboardError(ab, h, id, fmt.Sprintf("artboard %q not found", name))
			return
		}
		ab.def = def
	})
	return h
}

func (b *Backend) artboardError(ab *artboard, h command.ArtboardHandle, id command.RequestID, msg string) {
	b.reply(store.Entry{Name: "OnArtboardError", RequestID: uint64(id), Handle: uint64(h), Detail: msg})
	ab.listener.OnArtboardError(h, id, msg)
}

// liveArtboard returns a usable artboard, or replies with an artboard error.
func (b *Backend) liveArtboard(h command.ArtboardHandle, id command.RequestID) (*artboard, bool) {
	ab, ok := b.artboards[h]
	if !ok {
		b.logger.Debug("unknown artboard", "artboard", uint64(h))
		return nil, false
	}
	switch {
	case ab.deleted:
		b.artboardError(ab, h, id, "artboard deleted")
		return nil, false
	case ab.def == nil:
		b.artboardError(ab, h, id, "artboard was not created")
		return nil, false
	}
	return ab, true
}

func (b *Backend) RequestStateMachineNames(h command.ArtboardHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestStateMachineNames", RequestID: uint64(id), Handle: uint64(h)}, func() {
		ab, ok := b.liveArtboard(h, id)
		if !ok {
			return
		}
		names := append([]string{}, ab.def.StateMachines...)
		b.reply(store.Entry{Name: "OnStateMachineNamesListed", RequestID: uint64(id), Handle: uint64(h), Detail: strings.Join(names, ",")})
		ab.listener.OnStateMachineNamesListed(h, id, names)
	})
}

// RequestDefaultViewModelInfo names the artboard's default view model and
// instance. Without an explicit instance, the view model's first one is used.
func (b *Backend) RequestDefaultViewModelInfo(h command.ArtboardHandle, fh command.FileHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "RequestDefaultViewModelInfo", RequestID: uint64(id), Handle: uint64(h)}, func() {
		ab, ok := b.liveArtboard(h, id)
		if !ok {
			return
		}
		vmName, instName := ab.def.ViewModel, ab.def.Instance
		if vmName == "" {
			b.artboardError(ab, h, id, "artboard has no default view model")
			return
		}
		if instName == "" {
			if f, ok := b.files[fh]; ok {
				if vm, ok := f.doc.ViewModel(vmName); ok {
					if inst, ok := vm.Instance(""); ok {
						instName = inst.Name
					}
				}
			}
		}
		b.reply(store.Entry{Name: "OnDefaultViewModelInfoReceived", RequestID: uint64(id), Handle: uint64(h), Detail: vmName + "/" + instName})
		ab.listener.OnDefaultViewModelInfoReceived(h, id, vmName, instName)
	})
}

func (b *Backend) SetArtboardSize(h command.ArtboardHandle, width, height, scale float32, id command.RequestID) {
	b.apply(store.Entry{Name: "SetArtboardSize", RequestID: uint64(id), Handle: uint64(h), Detail: fmt.Sprintf("%gx%g@%g", width, height, scale)}, func() {
		if ab, ok := b.artboards[h]; ok {
			ab.width, ab.height, ab.scale = width, height, scale
		}
	})
}

func (b *Backend) ResetArtboardSize(h command.ArtboardHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "ResetArtboardSize", RequestID: uint64(id), Handle: uint64(h)}, func() {
		if ab, ok := b.artboards[h]; ok {
			ab.width, ab.height, ab.scale = 0, 0, 1
		}
	})
}

func (b *Backend) DeleteArtboard(h command.ArtboardHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "DeleteArtboard", RequestID: uint64(id), Handle: uint64(h)}, func() {
		ab, ok := b.artboards[h]
		if !ok || ab.deleted {
			return
		}
		ab.deleted = true
		b.reply(store.Entry{Name: "OnArtboardDeleted", RequestID: uint64(id), Handle: uint64(h)})
		ab.listener.OnArtboardDeleted(h, id)
	})
}

func (b *Backend) DeleteArtboardListener(h command.ArtboardHandle) {
	b.apply(store.Entry{Name: "DeleteArtboardListener", Handle: uint64(h)}, func() {
		delete(b.artboards, h)
	})
}

func (b *Backend) CreateDefaultStateMachine(ah command.ArtboardHandle, id command.RequestID) command.StateMachineHandle {
	return b.createStateMachine("CreateDefaultStateMachine", "", ah, id)
}

func (b *Backend) CreateStateMachineNamed(name string, ah command.ArtboardHandle, id command.RequestID) command.StateMachineHandle {
	return b.createStateMachine("CreateStateMachineNamed", name, ah, id)
}

// createStateMachine never replies; an unknown name leaves a dead handle.
func (b *Backend) createStateMachine(cmd, name string, ah command.ArtboardHandle, id command.RequestID) command.StateMachineHandle {
	h := command.StateMachineHandle(b.nextHandle())
	b.apply(store.Entry{Name: cmd, RequestID: uint64(id), Handle: uint64(h), Detail: name}, func() {
		ab, ok := b.artboards[ah]
		if !ok || ab.def == nil || len(ab.def.StateMachines) == 0 {
			b.logger.Debug("state machine not created", "artboard", uint64(ah))
			return
		}
		if name == "" {
			name = ab.def.StateMachines[0]
		}
		found := false
		for _, sm := range ab.def.StateMachines {
			if scene.Key(sm) == scene.Key(name) {
				found = true
				break
			}
		}
		if !found {
			b.logger.Debug("state machine not found", "name", name)
			return
		}
		b.stateMachines[h] = &stateMachine{artboard: ah, name: name}
	})
	return h
}

func (b *Backend) AdvanceStateMachine(h command.StateMachineHandle, elapsed time.Duration, id command.RequestID) {
	b.apply(store.Entry{Name: "AdvanceStateMachine", RequestID: uint64(id), Handle: uint64(h), Detail: elapsed.String()}, func() {
		if sm, ok := b.stateMachines[h]; ok {
			sm.elapsed += elapsed
		}
	})
}

func (b *Backend) BindViewModelInstance(h command.StateMachineHandle, vmi command.ViewModelInstanceHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "BindViewModelInstance", RequestID: uint64(id), Handle: uint64(h), Detail: fmt.Sprintf("instance=%d", vmi)}, func() {
		if sm, ok := b.stateMachines[h]; ok {
			sm.bound = vmi
		}
	})
}

func (b *Backend) DeleteStateMachine(h command.StateMachineHandle, id command.RequestID) {
	b.apply(store.Entry{Name: "DeleteStateMachine", RequestID: uint64(id), Handle: uint64(h)}, func() {
		delete(b.stateMachines, h)
	})
}

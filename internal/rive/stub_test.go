package rive

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/rivecq/internal/command"
)

// call is one recorded queue invocation.
type call struct {
	Name   string
	ID     command.RequestID
	Handle uint64
	Path   string
	Type   command.DataType
	Value  any
}

// stubQueue records every command it receives. Replies are delivered by the
// test through the captured listeners. Unimplemented methods panic through
// the nil embedded interface.
type stubQueue struct {
	command.Queue

	ids   *command.RequestIDs
	calls chan call

	mu        sync.Mutex
	next      uint64
	files     command.FileListener
	artboards command.ArtboardListener
	instances map[command.ViewModelInstanceHandle]command.ViewModelInstanceListener
	images    command.ImageListener
	fonts     command.FontListener
	audios    command.AudioListener

	// instanceHandle, when set, is returned by the next instance creation.
	instanceHandle command.ViewModelInstanceHandle
}

func newStubQueue() *stubQueue {
	return &stubQueue{
		ids:       command.NewRequestIDs(),
		calls:     make(chan call, 256),
		next:      100,
		instances: make(map[command.ViewModelInstanceHandle]command.ViewModelInstanceListener),
	}
}

func (q *stubQueue) record(c call) { q.calls <- c }

func (q *stubQueue) handle() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.next++
	return q.next
}

// expect returns the next recorded call named name, discarding others.
func (q *stubQueue) expect(t *testing.T, name string) call {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case c := <-q.calls:
			if c.Name == name {
				return c
			}
		case <-deadline:
			t.Fatalf("timeout waiting for %s", name)
			return call{}
		}
	}
}

// none fails if a call named name is queued once the worker is idle.
func (q *stubQueue) none(t *testing.T, w *Worker, name string) {
	t.Helper()
	flush(t, w)
	for {
		select {
		case c := <-q.calls:
			require.NotEqual(t, name, c.Name, "unexpected %s (id %d)", name, c.ID)
		default:
			return
		}
	}
}

func (q *stubQueue) instanceListener(h command.ViewModelInstanceHandle) command.ViewModelInstanceListener {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.instances[h]
}

func (q *stubQueue) fileListener() command.FileListener {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.files
}

func (q *stubQueue) artboardListener() command.ArtboardListener {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.artboards
}

func (q *stubQueue) NextRequestID() command.RequestID { return q.ids.Next() }
func (q *stubQueue) Start()                           { q.record(call{Name: "Start"}) }
func (q *stubQueue) Stop()                            { q.record(call{Name: "Stop"}) }

func (q *stubQueue) LoadFile(data []byte, l command.FileListener, id command.RequestID) {
	q.mu.Lock()
	q.files = l
	q.mu.Unlock()
	q.record(call{Name: "LoadFile", ID: id, Value: string(data)})
}

func (q *stubQueue) DeleteFile(file command.FileHandle, id command.RequestID) {
	q.record(call{Name: "DeleteFile", ID: id, Handle: uint64(file)})
}

func (q *stubQueue) DeleteFileListener(file command.FileHandle) {
	q.record(call{Name: "DeleteFileListener", Handle: uint64(file)})
}

func (q *stubQueue) RequestArtboardNames(file command.FileHandle, id command.RequestID) {
	q.record(call{Name: "RequestArtboardNames", ID: id, Handle: uint64(file)})
}

func (q *stubQueue) RequestViewModelNames(file command.FileHandle, id command.RequestID) {
	q.record(call{Name: "RequestViewModelNames", ID: id, Handle: uint64(file)})
}

func (q *stubQueue) RequestViewModelEnums(file command.FileHandle, id command.RequestID) {
	q.record(call{Name: "RequestViewModelEnums", ID: id, Handle: uint64(file)})
}

func (q *stubQueue) RequestViewModelInstanceNames(file command.FileHandle, vm string, id command.RequestID) {
	q.record(call{Name: "RequestViewModelInstanceNames", ID: id, Handle: uint64(file), Value: vm})
}

func (q *stubQueue) RequestViewModelPropertyDefinitions(file command.FileHandle, vm string, id command.RequestID) {
	q.record(call{Name: "RequestViewModelPropertyDefinitions", ID: id, Handle: uint64(file), Value: vm})
}

func (q *stubQueue) CreateDefaultArtboard(file command.FileHandle, l command.ArtboardListener, id command.RequestID) command.ArtboardHandle {
	q.mu.Lock()
	q.artboards = l
	q.mu.Unlock()
	h := q.handle()
	q.record(call{Name: "CreateDefaultArtboard", ID: id, Handle: h})
	return command.ArtboardHandle(h)
}

func (q *stubQueue) CreateArtboardNamed(name string, file command.FileHandle, l command.ArtboardListener, id command.RequestID) command.ArtboardHandle {
	q.mu.Lock()
	q.artboards = l
	q.mu.Unlock()
	h := q.handle()
	q.record(call{Name: "CreateArtboardNamed", ID: id, Handle: h, Value: name})
	return command.ArtboardHandle(h)
}

func (q *stubQueue) RequestStateMachineNames(artboard command.ArtboardHandle, id command.RequestID) {
	q.record(call{Name: "RequestStateMachineNames", ID: id, Handle: uint64(artboard)})
}

func (q *stubQueue) RequestDefaultViewModelInfo(artboard command.ArtboardHandle, file command.FileHandle, id command.RequestID) {
	q.record(call{Name: "RequestDefaultViewModelInfo", ID: id, Handle: uint64(artboard)})
}

func (q *stubQueue) DeleteArtboard(artboard command.ArtboardHandle, id command.RequestID) {
	q.record(call{Name: "DeleteArtboard", ID: id, Handle: uint64(artboard)})
}

func (q *stubQueue) DeleteArtboardListener(artboard command.ArtboardHandle) {
	q.record(call{Name: "DeleteArtboardListener", Handle: uint64(artboard)})
}

func (q *stubQueue) CreateStateMachineNamed(name string, artboard command.ArtboardHandle, id command.RequestID) command.StateMachineHandle {
	h := q.handle()
	q.record(call{Name: "CreateStateMachineNamed", ID: id, Handle: h, Value: name})
	return command.StateMachineHandle(h)
}

func (q *stubQueue) AdvanceStateMachine(sm command.StateMachineHandle, elapsed time.Duration, id command.RequestID) {
	q.record(call{Name: "AdvanceStateMachine", ID: id, Handle: uint64(sm), Value: elapsed})
}

func (q *stubQueue) BindViewModelInstance(sm command.StateMachineHandle, vmi command.ViewModelInstanceHandle, id command.RequestID) {
	q.record(call{Name: "BindViewModelInstance", ID: id, Handle: uint64(sm), Value: vmi})
}

func (q *stubQueue) DeleteStateMachine(sm command.StateMachineHandle, id command.RequestID) {
	q.record(call{Name: "DeleteStateMachine", ID: id, Handle: uint64(sm)})
}

func (q *stubQueue) createInstance(name string, l command.ViewModelInstanceListener, id command.RequestID, value any) command.ViewModelInstanceHandle {
	q.mu.Lock()
	h := q.instanceHandle
	q.instanceHandle = 0
	q.mu.Unlock()
	if h == 0 {
		h = command.ViewModelInstanceHandle(q.handle())
	}
	q.mu.Lock()
	q.instances[h] = l
	q.mu.Unlock()
	q.record(call{Name: name, ID: id, Handle: uint64(h), Value: value})
	return h
}

func (q *stubQueue) CreateBlankViewModelInstance(ab command.ArtboardHandle, f command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("CreateBlankViewModelInstance", l, id, ab)
}

func (q *stubQueue) CreateBlankViewModelInstanceNamed(vm string, f command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("CreateBlankViewModelInstanceNamed", l, id, vm)
}

func (q *stubQueue) CreateDefaultViewModelInstance(ab command.ArtboardHandle, f command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("CreateDefaultViewModelInstance", l, id, ab)
}

func (q *stubQueue) CreateViewModelInstanceNamed(instance, vm string, f command.FileHandle, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("CreateViewModelInstanceNamed", l, id, vm+"/"+instance)
}

func (q *stubQueue) ReferenceNestedViewModelInstance(parent command.ViewModelInstanceHandle, path string, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("ReferenceNestedViewModelInstance", l, id, path)
}

func (q *stubQueue) ReferenceListViewModelInstance(parent command.ViewModelInstanceHandle, path string, index int32, l command.ViewModelInstanceListener, id command.RequestID) command.ViewModelInstanceHandle {
	return q.createInstance("ReferenceListViewModelInstance", l, id, index)
}

func (q *stubQueue) RequestViewModelInstanceName(h command.ViewModelInstanceHandle, id command.RequestID) {
	q.record(call{Name: "RequestViewModelInstanceName", ID: id, Handle: uint64(h)})
}

func (q *stubQueue) read(name string, h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.record(call{Name: name, ID: id, Handle: uint64(h), Path: path})
}

func (q *stubQueue) RequestViewModelInstanceString(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceString", h, path, id)
}

func (q *stubQueue) RequestViewModelInstanceNumber(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceNumber", h, path, id)
}

func (q *stubQueue) RequestViewModelInstanceBool(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceBool", h, path, id)
}

func (q *stubQueue) RequestViewModelInstanceColor(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceColor", h, path, id)
}

func (q *stubQueue) RequestViewModelInstanceEnum(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceEnum", h, path, id)
}

func (q *stubQueue) RequestViewModelInstanceListSize(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.read("RequestViewModelInstanceListSize", h, path, id)
}

func (q *stubQueue) write(name string, h command.ViewModelInstanceHandle, path string, v any, id command.RequestID) {
	q.record(call{Name: name, ID: id, Handle: uint64(h), Path: path, Value: v})
}

func (q *stubQueue) SetViewModelInstanceString(h command.ViewModelInstanceHandle, path, v string, id command.RequestID) {
	q.write("SetViewModelInstanceString", h, path, v, id)
}

func (q *stubQueue) SetViewModelInstanceNumber(h command.ViewModelInstanceHandle, path string, v float32, id command.RequestID) {
	q.write("SetViewModelInstanceNumber", h, path, v, id)
}

func (q *stubQueue) SetViewModelInstanceBool(h command.ViewModelInstanceHandle, path string, v bool, id command.RequestID) {
	q.write("SetViewModelInstanceBool", h, path, v, id)
}

func (q *stubQueue) SetViewModelInstanceColor(h command.ViewModelInstanceHandle, path string, v uint32, id command.RequestID) {
	q.write("SetViewModelInstanceColor", h, path, v, id)
}

func (q *stubQueue) SetViewModelInstanceEnum(h command.ViewModelInstanceHandle, path, v string, id command.RequestID) {
	q.write("SetViewModelInstanceEnum", h, path, v, id)
}

func (q *stubQueue) FireViewModelTrigger(h command.ViewModelInstanceHandle, path string, id command.RequestID) {
	q.write("FireViewModelTrigger", h, path, nil, id)
}

func (q *stubQueue) Subscribe(h command.ViewModelInstanceHandle, path string, dt command.DataType, id command.RequestID) {
	q.record(call{Name: "Subscribe", ID: id, Handle: uint64(h), Path: path, Type: dt})
}

func (q *stubQueue) Unsubscribe(h command.ViewModelInstanceHandle, path string, dt command.DataType, id command.RequestID) {
	q.record(call{Name: "Unsubscribe", ID: id, Handle: uint64(h), Path: path, Type: dt})
}

func (q *stubQueue) AppendViewModelInstanceListViewModel(h command.ViewModelInstanceHandle, path string, v command.ViewModelInstanceHandle, id command.RequestID) {
	q.write("AppendViewModelInstanceListViewModel", h, path, v, id)
}

func (q *stubQueue) RemoveViewModelInstanceListViewModelAtIndex(h command.ViewModelInstanceHandle, path string, index int32, v command.ViewModelInstanceHandle, id command.RequestID) {
	q.write("RemoveViewModelInstanceListViewModelAtIndex", h, path, index, id)
}

func (q *stubQueue) SwapViewModelInstanceListValues(h command.ViewModelInstanceHandle, path string, a, b int32, id command.RequestID) {
	q.write("SwapViewModelInstanceListValues", h, path, [2]int32{a, b}, id)
}

func (q *stubQueue) DeleteViewModelInstance(h command.ViewModelInstanceHandle, id command.RequestID) {
	q.record(call{Name: "DeleteViewModelInstance", ID: id, Handle: uint64(h)})
}

func (q *stubQueue) DeleteViewModelInstanceListener(h command.ViewModelInstanceHandle) {
	q.record(call{Name: "DeleteViewModelInstanceListener", Handle: uint64(h)})
}

func (q *stubQueue) DecodeImage(data []byte, l command.ImageListener, id command.RequestID) {
	q.mu.Lock()
	q.images = l
	q.mu.Unlock()
	q.record(call{Name: "DecodeImage", ID: id, Value: len(data)})
}

func (q *stubQueue) DeleteImage(h command.ImageHandle, id command.RequestID) {
	q.record(call{Name: "DeleteImage", ID: id, Handle: uint64(h)})
}

func (q *stubQueue) DeleteImageListener(h command.ImageHandle) {
	q.record(call{Name: "DeleteImageListener", Handle: uint64(h)})
}

func (q *stubQueue) AddGlobalImageAsset(name string, h command.ImageHandle, id command.RequestID) {
	q.record(call{Name: "AddGlobalImageAsset", ID: id, Handle: uint64(h), Value: name})
}

func (q *stubQueue) RemoveGlobalImageAsset(name string, id command.RequestID) {
	q.record(call{Name: "RemoveGlobalImageAsset", ID: id, Value: name})
}

// newTestWorker returns a worker over a fresh stub, closed at test end.
func newTestWorker(t *testing.T) (*Worker, *stubQueue) {
	t.Helper()
	q := newStubQueue()
	w := NewWorker(q, WithConfinementCheck())
	t.Cleanup(func() { _ = w.Close() })
	q.expect(t, "Start")
	return w, q
}

// flush waits until every task posted so far has run.
func flush(t *testing.T, w *Worker) {
	t.Helper()
	require.NoError(t, w.d.do(context.Background(), func() {}))
}

// async runs fn on a new goroutine and returns its result channel.
func async[T any](fn func() (T, error)) <-chan asyncResult[T] {
	out := make(chan asyncResult[T], 1)
	go func() {
		v, err := fn()
		out <- asyncResult[T]{v, err}
	}()
	return out
}

type asyncResult[T any] struct {
	value T
	err   error
}

func wait[T any](t *testing.T, ch <-chan asyncResult[T]) (T, error) {
	t.Helper()
	select {
	case r := <-ch:
		return r.value, r.err
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for result")
		var zero T
		return zero, nil
	}
}

// Package simulator is an in-process reference backend: a command.Queue that
// serves scene documents.
//
// Creation commands allocate their handle synchronously and return it. Every
// command is then applied, in the order it was issued, on the backend's own
// engine loop, and replies are delivered to listeners from that loop. Clients
// therefore see listener calls from a goroutine they do not own, as they
// would with a real backend.
//
// Files are scene documents (YAML or JSON). Nested view model references
// alias the node they point at: a write through a nested handle is visible
// through its parent, and subscriptions on either see it.
//
// A Recorder, when set, receives every applied command and every reply.
package simulator

// Package command defines the boundary between the client core and the
// animation backend.
//
// The backend owns every object (files, artboards, state machines, view model
// instances, images, fonts, audio) and names them with opaque 64-bit handles.
// Clients talk to it only through a Queue:
//
//   - creation calls return a handle synchronously
//   - reads are answered later through a listener callback carrying the same
//     RequestID that was passed with the request
//   - writes, list mutations and deletes are fire-and-forget
//
// Handles are meaningless without the Queue that issued them. Using a handle
// after its delete command has been applied is undefined at the backend and is
// not detected here.
//
// Listener methods may be invoked from any goroutine. Implementations must hand
// the call over to their owning executor before touching shared state.
package command

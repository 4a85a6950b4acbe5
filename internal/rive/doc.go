// Package rive is the client core for a Rive backend reached through a
// command.Queue.
//
// A Worker owns the queue and an engine task loop. Every queue call and every
// correlation table mutation runs on that loop; listener callbacks arriving on
// backend goroutines are posted onto it before they touch any table.
//
// Value objects (File, Artboard, StateMachine, ViewModelInstance, Image, Font,
// Audio) wrap a backend handle. Two value objects are equal when their handles
// are equal. Call Close to release the handle; a runtime cleanup schedules the
// same teardown for objects that are collected without being closed, but the
// backend handle stays alive until the collector runs.
//
// Methods that block (reads, creations) take a context. Cancelling it abandons
// the wait and drops a late reply. These methods must not be called from inside
// an engine task.
//
// Typical usage:
//
//	w := rive.NewWorker(queue)
//	defer w.Close()
//
//	f, err := rive.OpenFile(ctx, w, src)
//	vmi, err := f.CreateViewModelInstance(ctx, rive.Blank(rive.ArtboardDefault(ab)))
//	rive.Set(vmi, rive.StringProperty("name"), "Ada")
//	name, err := rive.Get(ctx, vmi, rive.StringProperty("name"))
package rive

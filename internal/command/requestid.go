package command

import "sync/atomic"

// RequestID correlates one issued command with its eventual reply.
type RequestID uint64

// RequestIDs is a monotonic request ID generator.
//
// IDs are unique for the lifetime of the generator and strictly increasing in
// issue order. Subscribe and unsubscribe pairs do NOT take two IDs: the
// unsubscribe reuses the ID of the subscribe it cancels.
//
// Thread-safety: RequestIDs is safe for concurrent use (atomic operations),
// although a Queue is normally driven from a single owning goroutine.
type RequestIDs struct {
	seq atomic.Uint64
}

// NewRequestIDs creates a generator starting at 0. The first ID is 1.
func NewRequestIDs() *RequestIDs {
	return &RequestIDs{}
}

// NewRequestIDsAt creates a generator whose next ID is start+1.
func NewRequestIDsAt(start RequestID) *RequestIDs {
	g := &RequestIDs{}
	g.seq.Store(uint64(start))
	return g
}

// Next returns the next request ID.
func (g *RequestIDs) Next() RequestID {
	return RequestID(g.seq.Add(1))
}

// Current returns the last issued ID without advancing.
func (g *RequestIDs) Current() RequestID {
	return RequestID(g.seq.Load())
}

// NextRequestID implements IDSource.
func (g *RequestIDs) NextRequestID() RequestID {
	return g.Next()
}

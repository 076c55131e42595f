package fetchtree

import "sync/atomic"

// DataRef is a reference-counted handle over a fetched result payload
// multiple pending operations - e.g. a browse result and
// nested resolve templates reading the same REST response - can share
// one fetched buffer without copying it, and the buffer is released
// exactly once its last holder drops it.
type DataRef struct {
	value   string
	refs    int32
	release func(string)
}

// NewDataRef wraps value with an initial reference count of one. release,
// if non-nil, runs exactly once, when the last reference is dropped.
func NewDataRef(value string, release func(string)) *DataRef {
	return &DataRef{value: value, refs: 1, release: release}
}

// Value returns the wrapped payload.
func (d *DataRef) Value() string {
	if d == nil {
		return ""
	}
	return d.value
}

// Acquire increments the reference count and returns d for chaining.
func (d *DataRef) Acquire() *DataRef {
	if d != nil {
		atomic.AddInt32(&d.refs, 1)
	}
	return d
}

// Release decrements the reference count, invoking the release callback
// once it reaches zero. Calling Release more times than Acquire+1 is a
// caller bug and is not guarded against.
func (d *DataRef) Release() {
	if d == nil {
		return
	}
	if atomic.AddInt32(&d.refs, -1) == 0 && d.release != nil {
		d.release(d.value)
	}
}

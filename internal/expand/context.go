package expand

import "sync/atomic"

// MediaKeys exposes read access to the metadata keys of the media record
// currently in scope for a %key:NAME% expansion. A *media.Record satisfies
// this without either package importing the other.
type MediaKeys interface {
	Key(name string) (any, bool)
}

// StringTable resolves %str:ID% against the locale-matched <strings> block
// chosen when the source definition was loaded.
type StringTable interface {
	Lookup(id string) (string, bool)
}

// Warner receives non-fatal expansion warnings (unknown metadata key,
// unknown param name). A nil Warner silently drops them.
type Warner interface {
	Warnf(format string, args ...any)
}

// NodeSelector evaluates a query/select path against whatever payload node
// is currently in scope for a per-item key extraction. The materializer
// wraps the payload.Node a template matched without this package or
// payload importing each other.
type NodeSelector interface {
	SelectText(pathExpr string) (string, bool, error)
}

// Context is the per-operation context against which %…% placeholders
// are expanded. It is shared by reference
// across every sub-fetch of one top-level operation call and is reference
// counted: Acquire before handing a pointer to a new concurrent sub-fetch,
// Release when that sub-fetch completes. The zero value is usable directly
// for contexts with a single owner (refcount starts at 1 implicitly via
// NewContext).
type Context struct {
	SourceID    string
	Media       MediaKeys
	PrivateKeys map[string]string
	SearchText  string
	Skip        int
	Count       int
	MaxPageSize int
	Config      map[string]string
	Strings     StringTable
	Warn        Warner
	Node        NodeSelector

	// Buffers holds buffer_id -> captured string set by regexp fetch nodes.
	// Mutation happens only on the context's owning goroutine, in the
	// order sub-regex nodes are chained, so no lock is needed around the
	// map itself; the refcount is what is genuinely shared across
	// goroutines.
	Buffers map[string]string

	refs    int32
	release func()
}

// NewContext creates a Context with an initial reference count of 1.
// release, if non-nil, runs when the last reference is dropped.
func NewContext(release func()) *Context {
	return &Context{
		PrivateKeys: map[string]string{},
		Config:      map[string]string{},
		Buffers:     map[string]string{},
		refs:        1,
		release:     release,
	}
}

// Acquire increments the reference count and returns the same context, for
// handing to a concurrently-running sub-fetch.
func (c *Context) Acquire() *Context {
	atomic.AddInt32(&c.refs, 1)
	return c
}

// Release decrements the reference count, invoking the release callback
// when it reaches zero.
func (c *Context) Release() {
	if atomic.AddInt32(&c.refs, -1) == 0 && c.release != nil {
		c.release()
	}
}

// SetBuffer records a named regex capture for later %buf:ID% lookups.
func (c *Context) SetBuffer(id, value string) {
	if c.Buffers == nil {
		c.Buffers = map[string]string{}
	}
	c.Buffers[id] = value
}

func (c *Context) warnf(format string, args ...any) {
	if c.Warn != nil {
		c.Warn.Warnf(format, args...)
	}
}

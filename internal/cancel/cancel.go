// Package cancel implements a registry mapping a host-visible operation
// id to the context.CancelFunc
// that stops it, so a caller outside the goroutine running an operation -
// which only has the id, not a context value - can still cancel it
// cooperatively.
package cancel

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Broker tracks in-flight operations by id. A zero Broker is not usable;
// build one with New.
type Broker struct {
	mu  sync.Mutex
	ops map[string]context.CancelFunc
}

// New creates an empty Broker.
func New() *Broker {
	return &Broker{ops: make(map[string]context.CancelFunc)}
}

// Start registers a new operation and returns its id (generated with
// uuid.NewString if id is empty) plus a context that is cancelled when
// Cancel(id) is called, the parent is cancelled, or Finish runs.
func (b *Broker) Start(parent context.Context, id string) (string, context.Context) {
	if id == "" {
		id = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(parent)

	b.mu.Lock()
	b.ops[id] = cancel
	b.mu.Unlock()

	return id, ctx
}

// Cancel stops the operation registered under id, if it is still
// in-flight. It reports whether an operation was found.
func (b *Broker) Cancel(id string) bool {
	b.mu.Lock()
	cancel, ok := b.ops[id]
	b.mu.Unlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

// Finish deregisters id, releasing its cancel func. Call this when an
// operation completes normally, so the broker doesn't leak entries for
// operations nobody ever cancels.
func (b *Broker) Finish(id string) {
	b.mu.Lock()
	cancel, ok := b.ops[id]
	delete(b.ops, id)
	b.mu.Unlock()
	if ok {
		cancel()
	}
}

// Active reports how many operations are currently registered.
func (b *Broker) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ops)
}

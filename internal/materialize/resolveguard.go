package materialize

import "errors"

// ErrCyclicResolve is returned when populating a record's use="resolve"
// keys tries to start another nested resolve while one is already in
// flight on the same call chain.
var ErrCyclicResolve = errors.New("materialize: cyclic nested resolve")

// ResolveGuard prevents a nested resolve from re-entering itself while
// populating a single record's use="resolve" keys, which re-runs the
// resolve operation against the same record before the surrounding
// materialization completes. A guard is created for the first nested
// resolve on a call chain and travels in its context.Context, so nested
// calls share it.
type ResolveGuard struct {
	active bool
}

// Enter marks a nested resolve as starting. It returns an exit func that
// must be deferred to clear the flag before the nested resolve returns -
// clearing before returning is what allows a *sibling* nested resolve
// later in the same tree to proceed, while still rejecting a resolve that
// tries to re-enter while this one is still running. ok is false if a
// resolve is already active, in which case exit is nil.
func (g *ResolveGuard) Enter() (exit func(), ok bool) {
	if g.active {
		return nil, false
	}
	g.active = true
	return func() { g.active = false }, true
}

// WithResolve runs fn under the guard, returning ErrCyclicResolve instead
// of calling fn if a resolve is already in flight.
func (g *ResolveGuard) WithResolve(fn func() error) error {
	exit, ok := g.Enter()
	if !ok {
		return ErrCyclicResolve
	}
	defer exit()
	return fn()
}

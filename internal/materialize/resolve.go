package materialize

import (
	"context"

	"github.com/antflydb/xmlsource/internal/expand"
	"github.com/antflydb/xmlsource/internal/media"
)

// Resolver re-enters the resolve pipeline for a single item's own keys,
// the mechanism a use="resolve" key relies on instead of a direct fetch.
// pkg/mediasource.Source satisfies this by running its own Resolve
// operation against the record's current keys.
type Resolver interface {
	ResolveKeys(ctx context.Context, keys expand.MediaKeys) (*media.Record, error)
}

// resolveGuardKey is the unexported context key a ResolveGuard travels
// under - threaded through context.Context rather than expand.Context so
// this package doesn't need expand to know about ResolveGuard, and so a
// guard created for one top-level resolve call is visible to every nested
// fetch that call spawns without being passed explicitly.
type resolveGuardKey struct{}

// withResolveGuard attaches guard to ctx for nested fetches to find.
func withResolveGuard(ctx context.Context, guard *ResolveGuard) context.Context {
	return context.WithValue(ctx, resolveGuardKey{}, guard)
}

// resolveGuardFrom returns the ResolveGuard attached to ctx, creating a
// fresh one if this is the first nested resolve attempt seen on this
// call chain.
func resolveGuardFrom(ctx context.Context) *ResolveGuard {
	if guard, ok := ctx.Value(resolveGuardKey{}).(*ResolveGuard); ok {
		return guard
	}
	return &ResolveGuard{}
}

package key

import (
	"sync"
	"weak"

	"github.com/relev-ai/relevai-go/observability"
)

// RenewalHook is invoked after each successful renewal with the key whose
// credential was replaced. Hooks run outside the credential lock, so they
// may call back into the key freely.
type RenewalHook func(*Key)

// Registration pins a renewal hook in the registry. The registry holds it
// only weakly: once every strong reference to the Registration is dropped
// and the garbage collector reclaims it, the hook silently stops firing.
// Subscribers must therefore keep the Registration alive for as long as
// they want notifications; Remove deregisters deterministically.
type Registration struct {
	hook RenewalHook
	id   uint64
	reg  *hookRegistry
}

// Remove deregisters the hook. Safe on a nil Registration and safe to
// call more than once.
func (r *Registration) Remove() {
	if r == nil || r.reg == nil {
		return
	}
	r.reg.remove(r.id)
}

// hookRegistry is a weakly-held set of renewal callbacks. Its mutex is
// distinct from the credential lock and is held only for registration,
// removal, and snapshotting, never during hook invocation.
type hookRegistry struct {
	mu     sync.Mutex
	nextID uint64
	hooks  map[uint64]weak.Pointer[Registration]
}

func newHookRegistry() *hookRegistry {
	return &hookRegistry{
		hooks: make(map[uint64]weak.Pointer[Registration]),
	}
}

// add registers a hook and returns the Registration that anchors it.
func (g *hookRegistry) add(hook RenewalHook) *Registration {
	if hook == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextID++
	r := &Registration{hook: hook, id: g.nextID, reg: g}
	g.hooks[r.id] = weak.Make(r)
	return r
}

// remove drops the registration with the given id.
func (g *hookRegistry) remove(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.hooks, id)
}

// snapshot returns strong references to the currently-alive registrations
// and prunes entries whose referent has been reclaimed.
func (g *hookRegistry) snapshot() []*Registration {
	g.mu.Lock()
	defer g.mu.Unlock()

	live := make([]*Registration, 0, len(g.hooks))
	for id, ptr := range g.hooks {
		if r := ptr.Value(); r != nil {
			live = append(live, r)
		} else {
			delete(g.hooks, id)
		}
	}
	return live
}

// len reports the number of entries still tracked, dead or alive.
func (g *hookRegistry) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.hooks)
}

// broadcast invokes every live hook with k. Entries whose referent has
// been released are skipped silently. A panicking hook is recovered and
// logged so the remaining hooks still fire.
func (g *hookRegistry) broadcast(k *Key) {
	for _, r := range g.snapshot() {
		g.invoke(k, r)
	}
}

func (g *hookRegistry) invoke(k *Key, r *Registration) {
	defer func() {
		if rec := recover(); rec != nil {
			k.logger.Error("renewal hook panicked",
				observability.Any("panic", rec),
			)
			k.metrics.RecordHookInvocation(k.name, k.GrantType(), "panic")
		}
	}()

	r.hook(k)
	k.metrics.RecordHookInvocation(k.name, k.GrantType(), "ok")
}

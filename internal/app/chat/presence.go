/*
Package chat contains the core logic of the presence-and-broadcast engine.

This file defines the two presence structures the hub owns: the per-instance
registry of locally claimed identities and the cluster-wide view merged from
presence deltas. Both are mutated only from the hub's Run goroutine, which is
what serializes announce/release against deltas arriving from the backbone;
neither carries its own lock.
*/
package chat

import "sort"

// presenceRegistry tracks which identities are claimed by locally attached
// sessions. Each identity is reference-counted so that two sessions claiming
// the same identity do not go offline when only one of them disconnects.
type presenceRegistry struct {
	refs map[string]int
}

func newPresenceRegistry() *presenceRegistry {
	return &presenceRegistry{refs: make(map[string]int)}
}

// announce registers one more local session for identity. It reports true when
// this is the first local session for the identity, i.e. the instance should
// publish an online delta.
func (r *presenceRegistry) announce(identity string) bool {
	r.refs[identity]++
	return r.refs[identity] == 1
}

// release drops one local session for identity. It reports true when the last
// local session is gone, i.e. the instance should publish an offline delta.
// Releasing an unknown identity is a no-op.
func (r *presenceRegistry) release(identity string) bool {
	count, ok := r.refs[identity]
	if !ok {
		return false
	}

	if count <= 1 {
		delete(r.refs, identity)
		return true
	}

	r.refs[identity] = count - 1
	return false
}

// clusterView merges presence deltas from every instance into the global online
// set. The counter per identity is the number of instances currently reporting
// it online; the identity is globally online while the counter is positive.
//
// If an instance crashes without publishing its offline deltas, its identities
// stay counted until an operator restarts the cluster. The online set is
// best-effort; no heartbeat or expiry is layered on top.
type clusterView struct {
	counts map[string]int
}

func newClusterView() *clusterView {
	return &clusterView{counts: make(map[string]int)}
}

// apply folds one delta into the view. Decrements floor at zero so a stray
// duplicate offline delta cannot push a counter negative.
func (v *clusterView) apply(d PresenceDelta) {
	if d.Identity == "" {
		return
	}

	if d.Online {
		v.counts[d.Identity]++
		return
	}

	count, ok := v.counts[d.Identity]
	if !ok {
		return
	}
	if count <= 1 {
		delete(v.counts, d.Identity)
		return
	}
	v.counts[d.Identity] = count - 1
}

// online returns the sorted list of identities currently reported online by at
// least one instance.
func (v *clusterView) online() []string {
	identities := make([]string, 0, len(v.counts))
	for identity := range v.counts {
		identities = append(identities, identity)
	}
	sort.Strings(identities)
	return identities
}

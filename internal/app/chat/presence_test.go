package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresenceRegistryCountsCrossings(t *testing.T) {
	r := newPresenceRegistry()

	require.True(t, r.announce("alice"), "first connection should cross zero")
	require.False(t, r.announce("alice"), "second connection should not cross zero")

	require.False(t, r.release("alice"), "one connection still open")
	require.True(t, r.release("alice"), "last connection should cross back to zero")

	require.True(t, r.announce("alice"), "after full release the next announce crosses zero again")
}

func TestPresenceRegistryReleaseUnknownIdentity(t *testing.T) {
	r := newPresenceRegistry()

	require.False(t, r.release("ghost"))
	require.True(t, r.announce("ghost"), "spurious release must not poison the count")
}

func TestClusterViewUnionAcrossInstances(t *testing.T) {
	v := newClusterView()

	v.apply(PresenceDelta{Identity: "alice", Online: true, Instance: "a"})
	v.apply(PresenceDelta{Identity: "alice", Online: true, Instance: "b"})
	v.apply(PresenceDelta{Identity: "bob", Online: true, Instance: "b"})

	require.Equal(t, []string{"alice", "bob"}, v.online())

	// Alice is still on instance b.
	v.apply(PresenceDelta{Identity: "alice", Online: false, Instance: "a"})
	require.Equal(t, []string{"alice", "bob"}, v.online())

	v.apply(PresenceDelta{Identity: "alice", Online: false, Instance: "b"})
	require.Equal(t, []string{"bob"}, v.online())
}

func TestClusterViewFloorsAtZero(t *testing.T) {
	v := newClusterView()

	v.apply(PresenceDelta{Identity: "alice", Online: false, Instance: "a"})
	v.apply(PresenceDelta{Identity: "alice", Online: false, Instance: "a"})
	require.Empty(t, v.online())

	// One online fact must be enough to surface the identity again.
	v.apply(PresenceDelta{Identity: "alice", Online: true, Instance: "b"})
	require.Equal(t, []string{"alice"}, v.online())
}

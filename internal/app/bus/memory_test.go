package bus

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryDeliversToEverySubscriberIncludingPublisher(t *testing.T) {
	m := NewMemory()

	var first, second [][]byte

	_, err := m.Subscribe("topic", func(data []byte) { first = append(first, data) })
	require.NoError(t, err)
	_, err = m.Subscribe("topic", func(data []byte) { second = append(second, data) })
	require.NoError(t, err)

	require.NoError(t, m.Publish("topic", []byte("one")))
	require.NoError(t, m.Publish("topic", []byte("two")))

	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, first)
	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, second)
}

func TestMemorySubjectsAreIsolated(t *testing.T) {
	m := NewMemory()

	var got [][]byte
	_, err := m.Subscribe("a", func(data []byte) { got = append(got, data) })
	require.NoError(t, err)

	require.NoError(t, m.Publish("b", []byte("elsewhere")))
	require.Empty(t, got)
}

func TestMemoryUnsubscribeStopsDelivery(t *testing.T) {
	m := NewMemory()

	var got [][]byte
	sub, err := m.Subscribe("topic", func(data []byte) { got = append(got, data) })
	require.NoError(t, err)

	require.NoError(t, m.Publish("topic", []byte("before")))
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, m.Publish("topic", []byte("after")))

	require.Equal(t, [][]byte{[]byte("before")}, got)
}

func TestMemoryPublishWithoutSubscribersSucceeds(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Publish("empty", []byte("void")))
}

package bus

import (
	"sync"
)

// Memory is an in-process Bus. It backs standalone single-instance deployments
// (no NATS_URL configured) and tests that connect several hubs to one backbone.
// Delivery is synchronous and in publish order per subscriber.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(data []byte)
	closed bool
}

// NewMemory constructs an empty in-process bus.
func NewMemory() *Memory {
	return &Memory{subs: make(map[string]map[int]func(data []byte))}
}

// Publish delivers data to every handler subscribed to subject, including any
// registered by the publisher itself.
func (m *Memory) Publish(subject string, data []byte) error {
	m.mu.RLock()
	handlers := make([]func(data []byte), 0, len(m.subs[subject]))
	for _, h := range m.subs[subject] {
		handlers = append(handlers, h)
	}
	m.mu.RUnlock()

	for _, h := range handlers {
		h(data)
	}
	return nil
}

// Subscribe registers handler for subject until the returned subscription is
// torn down.
func (m *Memory) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subs[subject] == nil {
		m.subs[subject] = make(map[int]func(data []byte))
	}

	id := m.nextID
	m.nextID++
	m.subs[subject][id] = handler

	return &memorySub{bus: m, subject: subject, id: id}, nil
}

// Close drops all subscriptions.
func (m *Memory) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = make(map[string]map[int]func(data []byte))
	m.closed = true
}

type memorySub struct {
	bus     *Memory
	subject string
	id      int
}

func (s *memorySub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	if handlers, ok := s.bus.subs[s.subject]; ok {
		delete(handlers, s.id)
		if len(handlers) == 0 {
			delete(s.bus.subs, s.subject)
		}
	}
	return nil
}

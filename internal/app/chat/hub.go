/*
Package chat contains the core logic of the presence-and-broadcast engine.

This file defines the Hub struct, the central event loop of one server instance.
It owns the presence registry and the cluster view, fans events out to every
locally attached session, and exchanges presence deltas, messages, and read
receipts with the other instances over the pub/sub backbone.
*/
package chat

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatrelay/internal/app/bus"
	"chatrelay/internal/pkg/logx"
)

const (
	// frameChannelBuffer sizes the queue of backbone frames awaiting the Run loop.
	frameChannelBuffer = 1024

	// announceChannelBuffer sizes the queue of identity claims awaiting the Run loop.
	announceChannelBuffer = 64
)

// registerReq asks the Run loop to attach a session. identity is captured at
// Register time, before the session's read pump starts, so the loop never
// touches the session's own identity field.
type registerReq struct {
	session  *Session
	identity string
}

// announceReq asks the Run loop to claim an identity for a session.
type announceReq struct {
	session  *Session
	identity string
}

// busFrame is one payload received from (or locally redirected to) the backbone.
type busFrame struct {
	subject string
	data    []byte
}

// Hub is the per-instance broadcast router. All presence state and session
// bookkeeping is owned by its Run goroutine; sessions, gateway callbacks, and
// backbone subscriptions talk to it exclusively through channels.
type Hub struct {
	// instanceID distinguishes this process in delta logs; the presence
	// counting protocol itself does not depend on it.
	instanceID string

	bus     bus.Bus
	gateway Gateway

	registry *presenceRegistry
	cluster  *clusterView

	// sessions holds every locally attached session; claims records which
	// identity the registry has counted for each claimed session.
	sessions map[*Session]struct{}
	claims   map[*Session]string

	register   chan registerReq
	unregister chan *Session
	announce   chan announceReq
	frames     chan busFrame

	subs []bus.Subscription

	stop chan struct{}
	done chan struct{}

	logger zerolog.Logger
}

// NewHub constructs a Hub wired to the given backbone and persistence gateway.
func NewHub(backbone bus.Bus, gateway Gateway) *Hub {
	instanceID := uuid.New().String()

	hubLogger := logx.Logger().With().
		Str("component", "Hub").
		Str("instance_id", instanceID).
		Logger()

	return &Hub{
		instanceID: instanceID,
		bus:        backbone,
		gateway:    gateway,
		registry:   newPresenceRegistry(),
		cluster:    newClusterView(),
		sessions:   make(map[*Session]struct{}),
		claims:     make(map[*Session]string),
		register:   make(chan registerReq),
		unregister: make(chan *Session),
		announce:   make(chan announceReq, announceChannelBuffer),
		frames:     make(chan busFrame, frameChannelBuffer),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		logger:     hubLogger,
	}
}

// Start subscribes to the backbone subjects and launches the Run loop.
// Subscriptions are established before the loop starts so no delta published
// after Start can be missed.
func (h *Hub) Start() error {
	for _, subject := range []string{SubjectPresence, SubjectMessage, SubjectReceipt} {
		sub, err := h.bus.Subscribe(subject, h.enqueueFrame(subject))
		if err != nil {
			h.teardownSubs()
			return err
		}
		h.subs = append(h.subs, sub)
	}

	go h.run()

	h.logger.Info().Msg("Hub started and subscribed to backbone subjects.")
	return nil
}

// enqueueFrame adapts a backbone delivery into the Run loop's frame channel.
// Message and receipt frames are stateless and dropped (with a warning) under
// backpressure rather than blocking the bus callback. Presence deltas are
// counted into the cluster view, so losing one skews the counters for the rest
// of the process lifetime; those wait for channel space instead, bounded by
// hub shutdown.
func (h *Hub) enqueueFrame(subject string) func(data []byte) {
	return func(data []byte) {
		frame := busFrame{subject: subject, data: data}

		if subject == SubjectPresence {
			select {
			case h.frames <- frame:
			case <-h.stop:
			}
			return
		}

		select {
		case h.frames <- frame:
		default:
			h.logger.Warn().Str("subject", subject).Msg("Frame channel full, dropping backbone frame.")
		}
	}
}

// Shutdown tears down backbone subscriptions, stops the Run loop, and waits for
// it to finish closing the attached sessions.
func (h *Hub) Shutdown() {
	h.teardownSubs()

	select {
	case <-h.stop:
	default:
		close(h.stop)
	}

	<-h.done
	h.logger.Info().Msg("Hub shutdown complete.")
}

func (h *Hub) teardownSubs() {
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to unsubscribe from backbone subject.")
		}
	}
	h.subs = nil
}

// run is the main event loop. It is the only goroutine that touches the
// registry, the cluster view, and the session set.
func (h *Hub) run() {
	defer func() {
		for s := range h.sessions {
			s.closeSend()
		}
		h.sessions = nil
		h.claims = nil
		close(h.done)
	}()

	for {
		select {
		case req := <-h.register:
			h.handleRegister(req.session, req.identity)

		case s := <-h.unregister:
			h.handleUnregister(s)

		case req := <-h.announce:
			h.handleAnnounce(req.session, req.identity)

		case frame := <-h.frames:
			h.handleFrame(frame)

		case <-h.stop:
			h.logger.Info().Msg("Hub stop initiated.")
			return
		}
	}
}

// handleRegister attaches a session, pushes it the current online snapshot, and
// claims its identity immediately when the transport layer authenticated one.
func (h *Hub) handleRegister(s *Session, identity string) {
	h.sessions[s] = struct{}{}

	h.logger.Info().
		Str("session_id", s.id).
		Int("total_sessions", len(h.sessions)).
		Msg("Session attached.")

	h.sendPresenceSnapshot(s)

	if identity != "" {
		h.handleAnnounce(s, identity)
	}
}

// handleUnregister detaches a session and releases its identity claim, if any.
// Sessions that never announced detach silently.
func (h *Hub) handleUnregister(s *Session) {
	if _, ok := h.sessions[s]; !ok {
		return
	}

	delete(h.sessions, s)
	s.closeSend()

	identity, claimed := h.claims[s]
	if claimed {
		delete(h.claims, s)
		if h.registry.release(identity) {
			h.publishDelta(identity, false)
		}
	}

	h.logger.Info().
		Str("session_id", s.id).
		Str("identity", identity).
		Int("total_sessions", len(h.sessions)).
		Msg("Session detached.")
}

// handleAnnounce claims an identity for a session. Re-announcing the identity a
// session already holds is a no-op.
func (h *Hub) handleAnnounce(s *Session, identity string) {
	if _, ok := h.sessions[s]; !ok {
		return
	}

	if prev, claimed := h.claims[s]; claimed {
		if prev != identity {
			h.logger.Warn().
				Str("session_id", s.id).
				Str("claimed", prev).
				Str("requested", identity).
				Msg("Session attempted to switch identities, ignoring.")
		}
		return
	}

	h.claims[s] = identity

	if h.registry.announce(identity) {
		h.publishDelta(identity, true)
	}

	h.logger.Info().
		Str("session_id", s.id).
		Str("identity", identity).
		Msg("Identity announced.")
}

// publishDelta pushes one presence fact onto the backbone. When the backbone is
// unreachable the delta is folded into the local view directly so this
// instance's own clients still observe the change.
func (h *Hub) publishDelta(identity string, online bool) {
	delta := PresenceDelta{Identity: identity, Online: online, Instance: h.instanceID}

	data, err := json.Marshal(delta)
	if err != nil {
		h.logger.Error().Err(err).Str("identity", identity).Msg("Failed to marshal presence delta.")
		return
	}

	if err := h.bus.Publish(SubjectPresence, data); err != nil {
		h.logger.Warn().Err(err).
			Str("identity", identity).
			Bool("online", online).
			Msg("Backbone publish failed, applying presence delta locally only.")
		h.applyDelta(delta)
	}
}

// handleFrame dispatches one backbone payload. Message and receipt frames are
// already client-facing Event bytes and fan out verbatim; presence frames are
// deltas folded into the cluster view.
func (h *Hub) handleFrame(frame busFrame) {
	switch frame.subject {
	case SubjectPresence:
		var delta PresenceDelta
		if err := json.Unmarshal(frame.data, &delta); err != nil {
			h.logger.Warn().Err(err).Msg("Discarding malformed presence delta from backbone.")
			return
		}
		h.applyDelta(delta)

	case SubjectMessage, SubjectReceipt:
		h.broadcast(frame.data)

	default:
		h.logger.Warn().Str("subject", frame.subject).Msg("Frame for unknown subject.")
	}
}

// applyDelta folds a delta into the cluster view and pushes the recomputed
// online list to every attached session.
func (h *Hub) applyDelta(delta PresenceDelta) {
	h.cluster.apply(delta)

	evt, err := NewEvent(TypePresence, PresencePayload{Online: h.cluster.online()})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build PRESENCE event.")
		return
	}

	data, err := evt.Encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode PRESENCE event.")
		return
	}

	h.broadcast(data)
}

// sendPresenceSnapshot pushes the current online list to a single session.
func (h *Hub) sendPresenceSnapshot(s *Session) {
	evt, err := NewEvent(TypePresence, PresencePayload{Online: h.cluster.online()})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to build PRESENCE snapshot.")
		return
	}

	data, err := evt.Encode()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode PRESENCE snapshot.")
		return
	}

	if !s.enqueue(data) {
		h.logger.Warn().Str("session_id", s.id).Msg("Session send queue full during snapshot.")
	}
}

// broadcast pushes raw event bytes to every attached session. A session whose
// send queue is full is detached rather than allowed to stall the loop.
func (h *Hub) broadcast(data []byte) {
	var stalled []*Session

	for s := range h.sessions {
		if !s.enqueue(data) {
			h.logger.Warn().
				Str("session_id", s.id).
				Msg("Session send queue full or closed, detaching.")
			stalled = append(stalled, s)
		}
	}

	for _, s := range stalled {
		h.handleUnregister(s)
	}
}

// PublishMessage broadcasts a persisted message to every session on every
// instance. It is called from the gateway worker once the store has accepted
// the message, so backbone publication order equals persistence-completion
// order for this instance's messages. Safe for use from any goroutine.
func (h *Hub) PublishMessage(m Message) {
	evt, err := NewEvent(TypeMessage, m)
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", m.ID).Msg("Failed to build MESSAGE event.")
		return
	}
	h.publishEvent(SubjectMessage, evt)
}

// PublishReceipt broadcasts a read receipt to every session on every instance.
// Receipts are idempotent for receivers, so re-publication is harmless.
// Safe for use from any goroutine.
func (h *Hub) PublishReceipt(messageID string) {
	evt, err := NewEvent(TypeReadReceipt, ReadReceiptPayload{MessageID: messageID})
	if err != nil {
		h.logger.Error().Err(err).Str("message_id", messageID).Msg("Failed to build READ_RECEIPT event.")
		return
	}
	h.publishEvent(SubjectReceipt, evt)
}

// publishEvent encodes and publishes one client-facing event on the backbone.
// When the backbone is unreachable the frame is redirected into the local Run
// loop so locally attached sessions still receive it.
func (h *Hub) publishEvent(subject string, evt Event) {
	data, err := evt.Encode()
	if err != nil {
		h.logger.Error().Err(err).Str("subject", subject).Msg("Failed to encode event.")
		return
	}

	if err := h.bus.Publish(subject, data); err != nil {
		h.logger.Warn().Err(err).
			Str("subject", subject).
			Msg("Backbone publish failed, delivering to local sessions only.")
		h.enqueueFrame(subject)(data)
	}
}

// Register queues a session for attachment. The snapshot push and any
// token-derived identity claim happen on the Run loop. Register must be called
// before the session's read pump starts.
func (h *Hub) Register(s *Session) {
	select {
	case h.register <- registerReq{session: s, identity: s.identity}:
	case <-h.stop:
	}
}

// Announce queues an identity claim for a session.
func (h *Hub) Announce(s *Session, identity string) {
	select {
	case h.announce <- announceReq{session: s, identity: identity}:
	case <-h.stop:
	}
}

// Unregister queues a session for detachment. It must fire exactly once per
// session, driven by the read pump's exit.
func (h *Hub) Unregister(s *Session) {
	select {
	case h.unregister <- s:
	case <-h.stop:
	}
}

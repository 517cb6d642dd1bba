/*
Package chat contains the core logic of the presence-and-broadcast engine.

This file defines the Session struct, representing one active WebSocket connection.
A session moves through three states: unclaimed (connected, no identity), claimed
(identity announced), and closed. It manages the connection lifecycle, the message
communication loops (ReadPump and WritePump), and interaction with the Hub and the
persistence gateway.
*/
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/errs"
	"chatrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// MaxContentBytes is the maximum allowed size (in bytes) for message text.
	MaxContentBytes = 5000

	// MaxIdentityBytes is the maximum allowed size (in bytes) of an identity string.
	MaxIdentityBytes = 128

	// sendChannelBuffer sizes the per-session outbound queue.
	sendChannelBuffer = 256
)

// Session represents one active WebSocket connection and its optional identity claim.
type Session struct {
	// id distinguishes this connection in logs; it is never shown to clients.
	id string

	// the hub this session is attached to.
	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// identity claimed for this session; empty while unclaimed. Written only by
	// the transport setup and the read pump, so the pump never races itself; the
	// hub learns the claim through the announce channel.
	identity string

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// closeOnce guards the send channel against double close (hub shutdown
	// racing an unregister).
	closeOnce sync.Once

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession constructs a Session for an upgraded connection. identity may be
// empty, in which case the client must announce before sending or marking read.
func NewSession(hub *Hub, wsConn *websocket.Conn, identity string) *Session {
	sessionID := uuid.New().String()

	sessionLogger := logx.Logger().With().
		Str("session_id", sessionID).
		Logger()

	return &Session{
		id:       sessionID,
		hub:      hub,
		conn:     wsConn,
		identity: identity,
		send:     make(chan []byte, sendChannelBuffer),
		logger:   sessionLogger,
	}
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), frame parsing, and performs cleanup upon
// connection closure. The pump's exit is the single disconnect signal: it fires
// the hub release exactly once whether the client closed cleanly or the network
// dropped and the read deadline expired.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxMessageSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frameBytes, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		s.processInboundFrame(frameBytes)
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the read pump terminates.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Msg("Session cleanup starting.")

	s.hub.Unregister(s)

	if err := s.conn.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Session connection close error")
	}
}

// processInboundFrame handles raw byte frames received from the client.
func (s *Session) processInboundFrame(frameBytes []byte) {
	var evt Event
	if err := json.Unmarshal(frameBytes, &evt); err != nil {
		s.logger.Warn().Err(err).
			Bytes("frame_bytes", frameBytes).
			Msg("Client sent invalid JSON")
		return
	}

	switch evt.Type {
	case TypeAnnounce:
		s.handleAnnounce(evt.Payload)

	case TypeSendMessage:
		s.handleSendMessage(evt.Payload)

	case TypeMarkRead:
		s.handleMarkRead(evt.Payload)

	default:
		s.logger.Warn().Str("event_type", string(evt.Type)).Msg("Client sent unsupported event type")
	}
}

// handleAnnounce processes the client's identity claim, moving the session from
// unclaimed to claimed. Re-announcing the same identity is a no-op; claiming a
// different one is rejected.
func (s *Session) handleAnnounce(payloadBytes json.RawMessage) {
	var payload AnnouncePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid ANNOUNCE payload")
		s.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.Identity == "" || len(payload.Identity) > MaxIdentityBytes {
		s.SendError(errs.NewError(errs.ErrIdentityInvalid))
		return
	}

	if s.identity != "" {
		if s.identity == payload.Identity {
			return
		}
		s.SendError(errs.NewError(errs.ErrIdentityClaimed))
		return
	}

	s.identity = payload.Identity
	s.hub.Announce(s, payload.Identity)
}

// handleSendMessage validates an outgoing message and hands it to the
// persistence gateway. The broadcast happens in the gateway callback, strictly
// after the store accepted the message; on any failure only this session hears
// about it.
func (s *Session) handleSendMessage(payloadBytes json.RawMessage) {
	if s.identity == "" {
		s.SendError(errs.NewError(errs.ErrNotAnnounced))
		return
	}

	var payload SendMessagePayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid SEND_MESSAGE payload")
		s.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	draft := Draft{
		Author:   s.identity,
		Text:     payload.Text,
		VoiceKey: payload.VoiceKey,
	}

	if err := draft.Validate(); err != nil {
		s.SendError(err)
		return
	}

	tempID := payload.TempID

	err := s.hub.gateway.Submit(draft, func(m Message, storeErr error) {
		if storeErr != nil {
			s.logger.Error().Err(storeErr).Msg("Message persistence failed, not broadcasting.")
			s.SendError(errs.NewError(errs.ErrMessagePersistFailed))
			return
		}

		s.sendAck(tempID, m)
		s.hub.PublishMessage(m)
	})

	if err != nil {
		s.logger.Warn().Err(err).Msg("Persistence gateway rejected submission.")
		s.SendError(errs.NewError(errs.ErrPersistQueueFull))
	}
}

// handleMarkRead broadcasts a read receipt. The broadcast is not gated on the
// store; the read flag update is queued best-effort so reconnecting clients see
// read state in history.
func (s *Session) handleMarkRead(payloadBytes json.RawMessage) {
	if s.identity == "" {
		s.SendError(errs.NewError(errs.ErrNotAnnounced))
		return
	}

	var payload MarkReadPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		s.logger.Warn().Err(err).Msg("Client sent invalid MARK_READ payload")
		s.SendError(errs.NewError(errs.ErrInvalidParams))
		return
	}

	if payload.MessageID == "" {
		s.SendError(errs.NewError(errs.ErrReceiptInvalid))
		return
	}

	s.hub.PublishReceipt(payload.MessageID)
	s.hub.gateway.SubmitRead(payload.MessageID)
}

// WritePump handles writing frames from the Session.send channel to the WebSocket connection.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !s.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (s *Session) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Error().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (s *Session) writePingMessage() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue attempts to queue a frame for delivery without blocking. It reports
// false when the queue is full or already closed.
func (s *Session) enqueue(frame []byte) (queued bool) {
	defer func() {
		if recover() != nil {
			queued = false
		}
	}()

	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound queue exactly once, ending the write pump.
func (s *Session) closeSend() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}

// sendEvent marshals the event and attempts to queue it for this session.
func (s *Session) sendEvent(evt Event) error {
	data, err := evt.Encode()
	if err != nil {
		s.logger.Error().Err(err).Msg("Error encoding event for session")
		return err
	}

	if !s.enqueue(data) {
		s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, dropping frame")
		return fmt.Errorf("session send queue full")
	}

	return nil
}

// SendError constructs and sends a TypeError frame to this session only.
func (s *Session) SendError(err error) {
	var code int
	var message string

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
	} else {
		code = errs.ErrUnknown
		message = fmt.Sprintf("Internal server error: %v", err)
	}

	evt, buildErr := NewEvent(TypeError, ErrorPayload{Code: code, Message: message})
	if buildErr != nil {
		s.logger.Error().Err(buildErr).Msg("Failed to build ERROR frame")
		return
	}

	if sendErr := s.sendEvent(evt); sendErr != nil {
		s.logger.Error().Err(sendErr).Msg("Failed to queue ERROR frame")
	}
}

// sendAck confirms to the sender that its message was durably stored, echoing
// the client's temp id alongside the store-assigned id and timestamp.
func (s *Session) sendAck(tempID string, m Message) {
	evt, err := NewEvent(TypeAck, AckPayload{
		TempID:    tempID,
		MessageID: m.ID,
		CreatedAt: m.CreatedAt,
	})

	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to build ACK frame")
		return
	}

	if err := s.sendEvent(evt); err != nil {
		s.logger.Error().Err(err).Msg("Failed to queue ACK frame")
	}
}

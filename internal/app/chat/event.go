/*
Package chat contains the core logic of the presence-and-broadcast engine: connection
sessions, the per-instance hub, the cluster presence view, and message fan-out.

This file defines the wire event envelope exchanged with clients, the message domain
types, and the contracts the engine expects from its external collaborators (the
pub/sub backbone and the persistence gateway).
*/
package chat

import (
	"encoding/json"
	"time"

	"chatrelay/internal/pkg/errs"
)

// EventType identifies the kind of frame carried by the Event envelope.
type EventType string

const (
	// client -> server
	TypeAnnounce    EventType = "ANNOUNCE"
	TypeSendMessage EventType = "SEND_MESSAGE"
	TypeMarkRead    EventType = "MARK_READ"

	// server -> client
	TypeMessage     EventType = "MESSAGE"
	TypeReadReceipt EventType = "READ_RECEIPT"
	TypePresence    EventType = "PRESENCE"
	TypeAck         EventType = "ACK"
	TypeError       EventType = "ERROR"
)

// Backbone subjects. Message and receipt subjects carry fully encoded Event frames
// so a receiving instance fans the bytes out verbatim; the presence subject carries
// PresenceDelta documents that each instance folds into its own cluster view.
const (
	SubjectMessage  = "chatrelay.message"
	SubjectReceipt  = "chatrelay.receipt"
	SubjectPresence = "chatrelay.presence"
)

// Event is the JSON envelope for every frame exchanged over a session connection.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEvent constructs an Event of the given type, marshaling payload into the envelope.
func NewEvent(eventType EventType, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Payload: raw}, nil
}

// Encode serializes the full envelope for transmission.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// AnnouncePayload carries the identity a client claims for its session.
type AnnouncePayload struct {
	Identity string `json:"identity"`
}

// SendMessagePayload is the client request to post a message. At least one of
// Text and VoiceKey must be set. TempID, when present, correlates the ACK frame
// back to the client's optimistic rendering.
type SendMessagePayload struct {
	Text     string `json:"text,omitempty"`
	VoiceKey string `json:"voiceKey,omitempty"`
	TempID   string `json:"tempId,omitempty"`
}

// MarkReadPayload is the client request to flag a message as read.
type MarkReadPayload struct {
	MessageID string `json:"messageId"`
}

// ReadReceiptPayload is broadcast to every session when any client marks a message read.
type ReadReceiptPayload struct {
	MessageID string `json:"messageId"`
}

// PresencePayload carries the full recomputed cluster-wide online set.
type PresencePayload struct {
	Online []string `json:"online"`
}

// AckPayload confirms to the sender that its message reached the durable store.
type AckPayload struct {
	TempID    string    `json:"tempId,omitempty"`
	MessageID string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorPayload reports a session-local failure to the client.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// PresenceDelta is a single online/offline fact for one identity, published on the
// backbone whenever an instance's local reference count for that identity crosses
// zero. Instance is informational only; the counting protocol does not depend on it.
type PresenceDelta struct {
	Identity string `json:"identity"`
	Online   bool   `json:"online"`
	Instance string `json:"instance,omitempty"`
}

// Draft is a message as submitted by a session, before the store has accepted it.
type Draft struct {
	Author   string
	Text     string
	VoiceKey string
}

// Validate checks the draft against the message invariants. A draft with neither
// text nor a voice clip is rejected; both at once are accepted.
func (d Draft) Validate() *errs.CustomError {
	if d.Text == "" && d.VoiceKey == "" {
		return errs.NewError(errs.ErrMessageEmpty)
	}

	if len(d.Text) > MaxContentBytes {
		return errs.NewError(errs.ErrMessageContentTooLong)
	}

	if d.VoiceKey != "" {
		if err := ValidateClipKey(d.VoiceKey); err != nil {
			return err
		}
	}

	return nil
}

// Message is a persisted message: the durable store has accepted it and assigned
// its canonical identifier and timestamp.
type Message struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Text      string    `json:"text,omitempty"`
	VoiceKey  string    `json:"voiceKey,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Gateway is the asynchronous write path to the durable message store. Submit
// enqueues a draft without blocking; done is invoked from the gateway's worker
// once the store has accepted or rejected it. SubmitRead is a best-effort read
// flag update that is never awaited.
type Gateway interface {
	Submit(d Draft, done func(Message, error)) error
	SubmitRead(messageID string)
}

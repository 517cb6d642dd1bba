package store

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"chatrelay/internal/app/chat"
	"chatrelay/internal/pkg/logx"
)

const jobChannelBuffer = 256

// ErrQueueFull is returned by Submit when the gateway's job queue has no room
// or the gateway is shutting down. The caller reports the rejection to the
// client; nothing is retried.
var ErrQueueFull = errors.New("persistence queue full")

type jobKind int

const (
	jobAppend jobKind = iota
	jobMarkRead
)

type job struct {
	kind      jobKind
	draft     chat.Draft
	messageID string
	done      func(chat.Message, error)
}

// Gateway is the asynchronous write path to the Store. A single worker drains
// the job queue, so completion callbacks fire in the order the store accepted
// each message and no write waits on another instance's load.
type Gateway struct {
	store  Store
	jobs   chan job
	done   chan struct{}
	logger zerolog.Logger

	// mu orders submissions against Close. A session read pump that outlives
	// server shutdown may still submit; after Close that is a rejection, never
	// a send on the closed job channel.
	mu     sync.RWMutex
	closed bool
}

// NewGateway creates a gateway and starts its worker.
func NewGateway(s Store) *Gateway {
	g := &Gateway{
		store:  s,
		jobs:   make(chan job, jobChannelBuffer),
		done:   make(chan struct{}),
		logger: logx.Logger().With().Str("component", "Gateway").Logger(),
	}

	go g.worker()

	return g
}

// Submit enqueues a draft for persistence without blocking. The done callback
// runs on the worker goroutine exactly once, after the store has accepted or
// rejected the draft. A full queue, or a gateway already closed, rejects the
// draft immediately.
func (g *Gateway) Submit(d chat.Draft, done func(chat.Message, error)) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		g.logger.Warn().Str("author", d.Author).Msg("Gateway closed, rejecting draft.")
		return ErrQueueFull
	}

	select {
	case g.jobs <- job{kind: jobAppend, draft: d, done: done}:
		return nil
	default:
		g.logger.Warn().Str("author", d.Author).Msg("Persistence queue full, rejecting draft.")
		return ErrQueueFull
	}
}

// SubmitRead enqueues a best-effort read flag update. It is never awaited; a
// full queue or a closed gateway simply drops it, the broadcast receipt has
// already gone out.
func (g *Gateway) SubmitRead(messageID string) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.closed {
		g.logger.Warn().Str("message_id", messageID).Msg("Gateway closed, dropping read flag update.")
		return
	}

	select {
	case g.jobs <- job{kind: jobMarkRead, messageID: messageID}:
	default:
		g.logger.Warn().Str("message_id", messageID).Msg("Persistence queue full, dropping read flag update.")
	}
}

// Close stops accepting jobs, drains those already queued, and waits for the
// worker to finish. Close is idempotent; submissions arriving afterwards are
// rejected rather than allowed to hit the closed channel.
func (g *Gateway) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		<-g.done
		return
	}
	g.closed = true
	g.mu.Unlock()

	close(g.jobs)
	<-g.done
}

func (g *Gateway) worker() {
	defer close(g.done)

	for j := range g.jobs {
		switch j.kind {
		case jobAppend:
			m, err := g.store.Append(context.Background(), j.draft)
			if err != nil {
				g.logger.Error().Err(err).Str("author", j.draft.Author).Msg("Failed to persist message.")
			}
			if j.done != nil {
				j.done(m, err)
			}

		case jobMarkRead:
			if err := g.store.MarkRead(context.Background(), j.messageID); err != nil {
				g.logger.Warn().Err(err).Str("message_id", j.messageID).Msg("Failed to persist read flag.")
			}
		}
	}
}

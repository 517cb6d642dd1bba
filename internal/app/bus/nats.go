package bus

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"chatrelay/internal/pkg/logx"
)

const (
	// reconnectWait is the delay between reconnect attempts after a dropped
	// NATS connection.
	reconnectWait = 2 * time.Second

	// connectionName labels this client in NATS server monitoring.
	connectionName = "chatrelay"
)

// natsBus implements Bus on a NATS connection.
type natsBus struct {
	nc     *nats.Conn
	logger zerolog.Logger
}

// ConnectNATS dials the NATS server at url and returns a Bus backed by it.
// The connection reconnects indefinitely; while it is down, publishes fail and
// the caller is expected to degrade to local-only delivery.
func ConnectNATS(url string) (Bus, error) {
	busLogger := logx.Logger().With().Str("component", "bus").Logger()

	nc, err := nats.Connect(url,
		nats.Name(connectionName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(reconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			busLogger.Warn().Err(err).Msg("NATS disconnected, broadcasts degrade to local-instance visibility.")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			busLogger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected.")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	busLogger.Info().Str("url", nc.ConnectedUrl()).Msg("Connected to NATS.")

	return &natsBus{nc: nc, logger: busLogger}, nil
}

// Publish sends data on subject. NATS preserves publisher-local ordering per
// subject, which is what the broadcast ordering contract relies on.
func (b *natsBus) Publish(subject string, data []byte) error {
	return b.nc.Publish(subject, data)
}

// Subscribe registers handler for subject. NATS runs handlers for one
// subscription sequentially, so handler need not be reentrant.
func (b *natsBus) Subscribe(subject string, handler func(data []byte)) (Subscription, error) {
	sub, err := b.nc.Subscribe(subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	return sub, nil
}

// Close drains the connection so queued publishes flush before teardown.
func (b *natsBus) Close() {
	if err := b.nc.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("NATS drain failed, closing hard.")
		b.nc.Close()
	}
}

/*
Package bus provides the pub/sub backbone used to propagate presence deltas,
message broadcasts, and read receipts between server instances.

Two implementations exist: a NATS-backed bus for clustered deployments and an
in-process bus for standalone single-instance runs and tests. Both loop
published payloads back to the publisher's own subscriptions, so an instance
handles its own events through the same path as everyone else's.
*/
package bus

// Bus is the publish-subscribe transport between server instances.
// Publish is fire-and-forget: no delivery acknowledgement is awaited.
type Bus interface {
	// Publish sends data to every subscriber of subject, including the
	// publisher's own subscriptions.
	Publish(subject string, data []byte) error

	// Subscribe registers handler for every payload published on subject.
	// The handler must not block.
	Subscribe(subject string, handler func(data []byte)) (Subscription, error)

	// Close tears the bus down, draining in-flight deliveries where the
	// transport supports it.
	Close()
}

// Subscription is a handle for tearing down a single subscription.
type Subscription interface {
	Unsubscribe() error
}

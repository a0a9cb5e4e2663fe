package port

import "context"

// Subscriber receives payloads published to groups it has joined. Deliver
// must not block: implementations hand the payload to a buffered per-client
// queue so one slow subscriber never stalls fan-out to the others.
type Subscriber interface {
	// SubscriberID is stable for the subscriber's lifetime and dedupes
	// repeated joins (set semantics per group).
	SubscriberID() string

	// Deliver hands one published payload to the subscriber.
	Deliver(payload []byte)
}

// Backplane is the named-group pub/sub primitive behind all cross-session
// broadcast. Publish delivers to every current subscriber of the group,
// at-least-once, preserving publish order per (publisher, group) pair.
// Publishing to a group with no subscribers is a silent no-op; that is how
// notifications to offline users are dropped.
type Backplane interface {
	Join(ctx context.Context, group string, sub Subscriber) error
	Leave(ctx context.Context, group string, sub Subscriber) error
	Publish(ctx context.Context, group string, payload []byte) error
}

package realtime

import (
	"context"
	"encoding/json"
)

// Event is one fan-out: a payload addressed to a set of rooms, optionally
// excluding every session of one user (the sender).
type Event struct {
	Rooms   []string        `json:"rooms"`
	Exclude uint64          `json:"exclude,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// Broker is the seam between the delivery path and the gateway. Single-node
// deployments use LocalBroker; running more than one node only requires
// swapping in an implementation backed by an external pub/sub (see
// RedisBroker). The delivery path does not change.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// LocalBroker dispatches events synchronously into the in-process hub, which
// preserves publish order end to end.
type LocalBroker struct {
	hub *Hub
}

func NewLocalBroker(hub *Hub) *LocalBroker {
	return &LocalBroker{hub: hub}
}

func (b *LocalBroker) Publish(_ context.Context, ev Event) error {
	b.hub.Deliver(ev.Rooms, ev.Payload, ev.Exclude)
	return nil
}

func (b *LocalBroker) Close() error { return nil }

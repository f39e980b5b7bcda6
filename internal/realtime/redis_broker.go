package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const eventsChannel = "doubtdesk.events"

// RedisBroker fans events out over Redis pub/sub so sessions connected to
// other nodes still receive them. Redis preserves per-channel publish order
// and Listen drains sequentially, so the per-recipient ordering guarantee
// carries across nodes.
type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, eventsChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Listen delivers incoming events into the local hub until ctx is cancelled.
// Run it on every node, including the publishing one.
func (b *RedisBroker) Listen(ctx context.Context, hub *Hub) {
	sub := b.client.Subscribe(ctx, eventsChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("broker: dropping malformed event: %v", err)
				continue
			}
			hub.Deliver(ev.Rooms, ev.Payload, ev.Exclude)
		}
	}
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	platformredis "cropwatch/internal/platform/redis"
)

const (
	// Channel is the pub/sub channel live subscribers listen on.
	Channel = "prices"
	// EventPriceApproved names the approved-price event on the wire.
	EventPriceApproved = "price_approved"
)

// envelope wraps every broadcast with its event name so subscribers on the
// shared channel can dispatch.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RedisNotifier broadcasts events over Redis pub/sub. Delivery reaches only
// currently connected subscribers; nothing is retained or retried.
type RedisNotifier struct {
	client *platformredis.Client
}

func NewRedisNotifier(client *platformredis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) PublishPriceApproved(ctx context.Context, event PriceApprovedEvent) error {
	payload, err := json.Marshal(envelope{Event: EventPriceApproved, Data: event})
	if err != nil {
		return fmt.Errorf("marshal price_approved event: %w", err)
	}
	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish price_approved event: %w", err)
	}
	return nil
}

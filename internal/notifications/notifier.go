// Package notifications announces farm events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"unicornfarm/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PurchaseChannel carries one message per committed purchase.
const PurchaseChannel = "farm:unicorn.purchased"

// EventUnicornPurchased is the type tag of purchase events.
const EventUnicornPurchased = "unicorn.purchased"

// PurchaseEvent is published after a purchase has been committed.
type PurchaseEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	UnicornID    uint      `json:"unicorn_id"`
	UnicornName  string    `json:"unicorn_name"`
	PostsDeleted int       `json:"posts_deleted"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// NewPurchaseEvent builds a purchase event with a fresh id.
func NewPurchaseEvent(unicornID uint, name string, postsDeleted int, at time.Time) PurchaseEvent {
	return PurchaseEvent{
		ID:           uuid.NewString(),
		Type:         EventUnicornPurchased,
		UnicornID:    unicornID,
		UnicornName:  name,
		PostsDeleted: postsDeleted,
		OccurredAt:   at,
	}
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishPurchase announces a committed purchase. Without Redis it is a no-op.
func (n *Notifier) PublishPurchase(ctx context.Context, ev PurchaseEvent) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode purchase event: %w", err)
	}
	return n.rdb.Publish(ctx, PurchaseChannel, payload).Err()
}

// StartPurchaseSubscriber subscribes to purchase events and calls onEvent for
// each one until ctx is cancelled. Malformed payloads are logged and skipped.
func (n *Notifier) StartPurchaseSubscriber(ctx context.Context, onEvent func(PurchaseEvent)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, PurchaseChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", PurchaseChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev PurchaseEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					observability.Logger.Warn("dropping malformed purchase event", slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in purchase subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()

	return nil
}

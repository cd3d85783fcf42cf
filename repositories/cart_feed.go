package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"gpu-shop/models"

	"github.com/redis/go-redis/v9"
)

// CartFeed is the push channel that keeps every session of a signed-in user
// looking at the same cart. Events are scoped per owner.
type CartFeed interface {
	Publish(ctx context.Context, userID int, ev models.CartChangeEvent) error
	// Subscribe delivers events for one owner until the context is
	// canceled. The returned channel is closed on cancellation.
	Subscribe(ctx context.Context, userID int) (<-chan models.CartChangeEvent, error)
}

type RedisCartFeed struct {
	client *redis.Client
}

func NewRedisCartFeed(client *redis.Client) *RedisCartFeed {
	return &RedisCartFeed{client: client}
}

func feedChannel(userID int) string {
	return fmt.Sprintf("cart:events:%d", userID)
}

func (f *RedisCartFeed) Publish(ctx context.Context, userID int, ev models.CartChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal cart event: %w", err)
	}
	return f.client.Publish(ctx, feedChannel(userID), payload).Err()
}

func (f *RedisCartFeed) Subscribe(ctx context.Context, userID int) (<-chan models.CartChangeEvent, error) {
	pubsub := f.client.Subscribe(ctx, feedChannel(userID))

	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	out := make(chan models.CartChangeEvent)
	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev models.CartChangeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("cart feed: bad payload, forwarding as unknown event: %v", err)
					ev = models.CartChangeEvent{Type: "MALFORMED"}
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// NopCartFeed is used when Redis is unavailable: publishing succeeds and
// subscriptions never deliver.
type NopCartFeed struct{}

func (NopCartFeed) Publish(ctx context.Context, userID int, ev models.CartChangeEvent) error {
	return nil
}

func (NopCartFeed) Subscribe(ctx context.Context, userID int) (<-chan models.CartChangeEvent, error) {
	out := make(chan models.CartChangeEvent)
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

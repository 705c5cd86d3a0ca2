package data

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cortexmarket/cortex-ledger/src/core/event"
)

const (
	noncePrefix  = "nonce:"
	streamEvents = "cortex.events"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func SetNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	return rdb.Set(ctx, noncePrefix+addr, nonce, 5*time.Minute).Err()
}

func GetNonce(ctx context.Context, rdb *redis.Client, addr string) (string, error) {
	return rdb.Get(ctx, noncePrefix+addr).Result()
}

func DelNonce(ctx context.Context, rdb *redis.Client, addr string) {
	rdb.Del(ctx, noncePrefix+addr)
}

// PublishEvent pushes one committed ledger event onto the event stream for
// downstream consumers (notifier, indexers).
func PublishEvent(ctx context.Context, rdb *redis.Client, ev event.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamEvents,
		Values: map[string]interface{}{
			"seq":     ev.Seq,
			"kind":    string(ev.Kind),
			"actor":   ev.Actor,
			"payload": string(payload),
		},
	}).Result()
	return err
}

// EventStream is the stream key notifier daemons read from.
func EventStream() string { return streamEvents }

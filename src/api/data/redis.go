package data

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const streamVerified = "wastewatch.verified"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// PublishVerified announces a report that just reached VERIFIED on the
// event stream consumed by the notification service.
func PublishVerified(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamVerified,
		Values: payload,
	}).Result()
	return err
}

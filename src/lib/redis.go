package lib

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	STRIPE_EVENT_TTL = 72 * time.Hour
	ORDER_CART_TTL   = 24 * time.Hour
)

func NewRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[redis] Error parsing connection string: %s\n", err.Error())
		return nil, err
	}
	return redis.NewClient(opt), nil
}

func stripeEventKey(id string) string {
	return fmt.Sprintf("stripe:event:%s", id)
}

func orderKey(orderID string) string {
	return fmt.Sprintf("order:%s", orderID)
}

// ClaimStripeEvent reports false when the event id was already claimed.
func ClaimStripeEvent(ctx context.Context, rdb *redis.Client, eventID string) (bool, error) {
	return rdb.SetNX(ctx, stripeEventKey(eventID), "1", STRIPE_EVENT_TTL).Result()
}

// ReleaseStripeEvent lets Stripe's retry of a failed delivery run again.
func ReleaseStripeEvent(ctx context.Context, rdb *redis.Client, eventID string) error {
	return rdb.Del(ctx, stripeEventKey(eventID)).Err()
}

func CacheOrderCart(ctx context.Context, rdb *redis.Client, orderID string, cart string) error {
	return rdb.SetEx(ctx, orderKey(orderID), cart, ORDER_CART_TTL).Err()
}

func GetOrderCart(ctx context.Context, rdb *redis.Client, orderID string) (string, error) {
	return rdb.Get(ctx, orderKey(orderID)).Result()
}

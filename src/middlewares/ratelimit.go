package middlewares

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	ginmiddleware "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	redisstore "github.com/ulule/limiter/v3/drivers/store/redis"
)

const RATE_LIMIT_PREFIX = "rate_limiter"

func newLimiterStore(rdb *redis.Client, routeID string, period time.Duration) (limiter.Store, error) {
	options := limiter.StoreOptions{
		Prefix:          fmt.Sprintf("%s:%s", RATE_LIMIT_PREFIX, routeID),
		MaxRetry:        3,
		CleanUpInterval: period,
	}
	if rdb == nil {
		return memory.NewStoreWithOptions(options), nil
	}
	store, err := redisstore.NewStoreWithOptions(rdb, options)
	if err != nil {
		return memory.NewStoreWithOptions(options), fmt.Errorf("failed to create redis store for route %s: %w", routeID, err)
	}
	return store, nil
}

// RateLimit limits requests per client IP on the routes that create payment
// sessions. Counters live in Redis when a client is given and reachable, in
// process otherwise.
// A rate such as "30-M" means 30 requests per minute.
func RateLimit(rdb *redis.Client, routeID string, formatted string) gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Printf("[RateLimit] Error parsing rate %q for route %s: %s\n", formatted, routeID, err.Error())
		return func(ctx *gin.Context) { ctx.Next() }
	}

	store, err := newLimiterStore(rdb, routeID, rate.Period)
	if err != nil {
		log.Printf("[RateLimit] Error creating store, counting in process: %s\n", err.Error())
	}

	return ginmiddleware.NewMiddleware(
		limiter.New(store, rate),
		ginmiddleware.WithLimitReachedHandler(func(ctx *gin.Context) {
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests", "code": "rate_limited"})
		}),
		ginmiddleware.WithErrorHandler(func(ctx *gin.Context, err error) {
			// Fail open.
			log.Printf("[RateLimit] Error reading counter for route %s: %s\n", routeID, err.Error())
			ctx.Next()
		}),
	)
}

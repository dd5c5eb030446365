package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// InitRedis initializes the Redis client
func InitRedis() error {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://redis:6379" // Default Redis address for Docker
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	RedisClient = redis.NewClient(opt)

	// Test the connection
	ctx := context.Background()
	_, err = RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheRideStatus stores a ride status snapshot so status polls skip the
// database. The cache is refreshed on every workflow write and expires on
// its own; the database row stays authoritative.
func CacheRideStatus(ctx context.Context, rideID uint, status string) error {
	key := fmt.Sprintf("ride:status:%d", rideID)
	return RedisClient.Set(ctx, key, status, time.Hour).Err()
}

// GetCachedRideStatus retrieves the cached status snapshot for a ride.
func GetCachedRideStatus(ctx context.Context, rideID uint) (string, error) {
	key := fmt.Sprintf("ride:status:%d", rideID)
	return RedisClient.Get(ctx, key).Result()
}

// InvalidateRideStatus drops the snapshot, e.g. after ride deletion.
func InvalidateRideStatus(ctx context.Context, rideID uint) error {
	key := fmt.Sprintf("ride:status:%d", rideID)
	return RedisClient.Del(ctx, key).Err()
}

// PublishRideUpdate publishes a ride/claim/share event to Redis pub/sub so
// other service instances can fan it out to their own WebSocket clients.
func PublishRideUpdate(ctx context.Context, rideID uint, event string, data map[string]interface{}) error {
	updateData := map[string]interface{}{
		"rideId":    rideID,
		"event":     event,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, "ride:updates", jsonData).Err()
}

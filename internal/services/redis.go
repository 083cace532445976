package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chachabrian/carpool-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// cityCacheTTL keeps discovery pickers fresh without hammering the store;
// staleness of a few minutes is acceptable for human-paced search.
const cityCacheTTL = 5 * time.Minute

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

	ctx := context.Background()
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

// CacheDiscoveredCities stores a city-discovery result keyed by the raw
// query it answered.
func CacheDiscoveredCities(ctx context.Context, queryKey string, cities []models.City) error {
	if RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(cities)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("discovery:cities:%s", queryKey)
	return RedisClient.Set(ctx, key, data, cityCacheTTL).Err()
}

// GetDiscoveredCities retrieves a cached city-discovery result. A cache
// miss returns redis.Nil.
func GetDiscoveredCities(ctx context.Context, queryKey string) ([]models.City, error) {
	if RedisClient == nil {
		return nil, redis.Nil
	}

	key := fmt.Sprintf("discovery:cities:%s", queryKey)
	data, err := RedisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	var cities []models.City
	if err := json.Unmarshal([]byte(data), &cities); err != nil {
		return nil, err
	}

	return cities, nil
}

// InvalidateCityCache drops every cached discovery result. Called when
// rides are created or transitioned, since either can change the
// reachable city set.
func InvalidateCityCache(ctx context.Context) error {
	if RedisClient == nil {
		return nil
	}

	iter := RedisClient.Scan(ctx, 0, "discovery:cities:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := RedisClient.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

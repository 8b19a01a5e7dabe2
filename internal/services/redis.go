package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var RedisClient *redis.Client

// vehicleStatusTTL bounds how stale a cached vehicle snapshot can get if an
// invalidation is missed.
const vehicleStatusTTL = 5 * time.Minute

// BookingUpdatesChannel carries booking and trip lifecycle events.
const BookingUpdatesChannel = "booking:updates"

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
	if _, err := RedisClient.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return nil
}

func vehicleStatusKey(vehicleID uuid.UUID) string {
	return fmt.Sprintf("vehicle:status:%s", vehicleID)
}

// CacheVehicleStatus stores a vehicle snapshot for fast status reads
func CacheVehicleStatus(ctx context.Context, vehicleID uuid.UUID, snapshot interface{}) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return RedisClient.Set(ctx, vehicleStatusKey(vehicleID), data, vehicleStatusTTL).Err()
}

// GetCachedVehicleStatus retrieves a cached vehicle snapshot into dest
func GetCachedVehicleStatus(ctx context.Context, vehicleID uuid.UUID, dest interface{}) error {
	data, err := RedisClient.Get(ctx, vehicleStatusKey(vehicleID)).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// InvalidateVehicleStatus drops the cached snapshot after a mutation
func InvalidateVehicleStatus(ctx context.Context, vehicleID uuid.UUID) error {
	return RedisClient.Del(ctx, vehicleStatusKey(vehicleID)).Err()
}

// PublishBookingUpdate publishes a booking lifecycle event to Redis pub/sub
func PublishBookingUpdate(ctx context.Context, bookingID uuid.UUID, status string, data map[string]interface{}) error {
	updateData := map[string]interface{}{
		"bookingId": bookingID,
		"status":    status,
		"data":      data,
		"timestamp": time.Now().Unix(),
	}

	jsonData, err := json.Marshal(updateData)
	if err != nil {
		return err
	}

	return RedisClient.Publish(ctx, BookingUpdatesChannel, jsonData).Err()
}

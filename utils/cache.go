// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"bookly/config"

	"github.com/go-redis/redis/v8"
)

var (
	// SessionCacheClient holds in-progress selection sessions.
	SessionCacheClient *redis.Client
	// SnapshotCacheClient holds last-known master/day bookings for offline availability.
	SnapshotCacheClient *redis.Client
)

func newRedisClient(db int, name string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", name, err)
	}
	return client
}

// GetSessionCacheClient returns the Redis client for selection sessions.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		SessionCacheClient = newRedisClient(config.AppConfig.RedisSessionDB, "Session Cache")
	}
	return SessionCacheClient
}

// GetSnapshotCacheClient returns the Redis client for availability snapshots.
func GetSnapshotCacheClient() *redis.Client {
	if SnapshotCacheClient == nil {
		SnapshotCacheClient = newRedisClient(config.AppConfig.RedisSnapshotDB, "Snapshot Cache")
	}
	return SnapshotCacheClient
}

// CloseCaches closes whichever clients were opened.
func CloseCaches() {
	for _, c := range []*redis.Client{SessionCacheClient, SnapshotCacheClient} {
		if c != nil {
			_ = c.Close()
		}
	}
}

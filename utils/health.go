package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services. Mongo is nil
// when the process runs on the in-memory store.
type HealthStatus struct {
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether every checked dependency answered.
func (h HealthStatus) Healthy() bool {
	if h.Mongo != nil && !*h.Mongo {
		return false
	}
	for _, ok := range h.Redis {
		if !ok {
			return false
		}
	}
	return true
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings every dependency once and stores the result.
func CheckHealth(ctx context.Context, clk clock.Clock, redisClients []*redis.Client, mongoClient *mongo.Client) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{Redis: []bool{}}
	for _, client := range redisClients {
		status.Redis = append(status.Redis, client.Ping(ctx).Err() == nil)
	}
	if mongoClient != nil {
		ok := mongoClient.Ping(ctx, nil) == nil
		status.Mongo = &ok
	}
	status.CheckedAt = clk.Now()

	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor refreshes the health snapshot every minute until ctx is done.
func StartHealthMonitor(ctx context.Context, clk clock.Clock, redisClients []*redis.Client, mongoClient *mongo.Client) {
	CheckHealth(ctx, clk, redisClients, mongoClient)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-clk.After(60 * time.Second):
				CheckHealth(ctx, clk, redisClients, mongoClient)
			}
		}
	}()
}

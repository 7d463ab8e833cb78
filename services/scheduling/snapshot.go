package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"bookly/models"
	"bookly/utils"

	"github.com/go-redis/redis/v8"
	"github.com/juju/clock"
)

var ErrNoSnapshot = errors.New("no availability snapshot")

// Snapshot is the last successfully read view of a master's day.
type Snapshot struct {
	Company  models.Company   `json:"company"`
	Service  models.Service   `json:"service"`
	Bookings []models.Booking `json:"bookings"`
	TakenAt  time.Time        `json:"takenAt"`
}

// SnapshotCache keeps snapshots for advisory availability.
type SnapshotCache interface {
	Put(ctx context.Context, serviceID, masterID, date string, snap Snapshot) error
	Get(ctx context.Context, serviceID, masterID, date string) (*Snapshot, error)
}

func snapshotKey(serviceID, masterID, date string) string {
	return utils.SnapshotCachePrefix + serviceID + ":" + masterID + ":" + date
}

// RedisSnapshotCache stores snapshots as JSON with a TTL.
type RedisSnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisSnapshotCache(client *redis.Client, ttl time.Duration) *RedisSnapshotCache {
	return &RedisSnapshotCache{Client: client, TTL: ttl}
}

func (r *RedisSnapshotCache) Put(ctx context.Context, serviceID, masterID, date string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := r.Client.Set(ctx, snapshotKey(serviceID, masterID, date), data, r.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}
	return nil
}

// Get reads a snapshot. It runs when the store is failing, so it uses its
// own short deadline rather than whatever is left of ctx.
func (r *RedisSnapshotCache) Get(ctx context.Context, serviceID, masterID, date string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	data, err := r.Client.Get(ctx, snapshotKey(serviceID, masterID, date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// MemorySnapshotCache keeps snapshots in process.
type MemorySnapshotCache struct {
	TTL   time.Duration
	Clock clock.Clock

	mu    sync.Mutex
	snaps map[string]Snapshot
}

func NewMemorySnapshotCache(ttl time.Duration) *MemorySnapshotCache {
	return &MemorySnapshotCache{TTL: ttl, Clock: clock.WallClock, snaps: make(map[string]Snapshot)}
}

func (m *MemorySnapshotCache) Put(ctx context.Context, serviceID, masterID, date string, snap Snapshot) error {
	snap.Bookings = append([]models.Booking(nil), snap.Bookings...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snapshotKey(serviceID, masterID, date)] = snap
	return nil
}

func (m *MemorySnapshotCache) Get(ctx context.Context, serviceID, masterID, date string) (*Snapshot, error) {
	key := snapshotKey(serviceID, masterID, date)
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snaps[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	if m.TTL > 0 && m.Clock.Now().Sub(snap.TakenAt) > m.TTL {
		delete(m.snaps, key)
		return nil, ErrNoSnapshot
	}
	snap.Bookings = append([]models.Booking(nil), snap.Bookings...)
	return &snap, nil
}

package bot

import (
	"context"
	"sync"
	"time"

	"rtmbot/internal/service"
)

// zoneCache shares the service's timezone table between users.
type zoneCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	table     []service.Timezone
	fetchedAt time.Time
}

func newZoneCache(ttl time.Duration) *zoneCache {
	return &zoneCache{ttl: ttl}
}

func (c *zoneCache) get(ctx context.Context, svc service.Service, now time.Time) ([]service.Timezone, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && now.Sub(c.fetchedAt) < c.ttl {
		return c.table, nil
	}

	table, err := svc.Timezones(ctx)
	if err != nil {
		return nil, err
	}
	if table == nil {
		table = []service.Timezone{}
	}
	c.table = table
	c.fetchedAt = now
	return table, nil
}

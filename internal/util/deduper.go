package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce tries to take the dedup lock for a handler + event key.
// Returns true on first processing, false on a duplicate delivery.
// If redis is unavailable processing proceeds rather than stalls.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, eventKey string) bool {
	key := fmt.Sprintf("dedup:%s:%s", handler, eventKey)

	ok, err := d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/inkpost/inkpost/internal/model"
)

const (
	// flashPrefix is the Redis key prefix for flash queues.
	flashPrefix = "flash:"
	// flashTTL bounds how long an unread flash queue survives.
	flashTTL = 15 * time.Minute
)

// PushFlash appends a flash message to the queue identified by flashID.
// The queue TTL is refreshed on every push so a redirect chain cannot
// outlive its messages.
func (c *Cache) PushFlash(ctx context.Context, flashID string, flash model.Flash) error {
	data, err := json.Marshal(flash)
	if err != nil {
		return fmt.Errorf("marshal flash: %w", err)
	}

	key := flashPrefix + flashID

	pipe := c.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, flashTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("push flash: %w", err)
	}

	return nil
}

// PopFlashes consumes the whole flash queue: read then delete, so each
// message is rendered at most once. An unknown flashID yields an empty
// slice.
func (c *Cache) PopFlashes(ctx context.Context, flashID string) ([]model.Flash, error) {
	key := flashPrefix + flashID

	pipe := c.client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("pop flashes: %w", err)
	}

	raw, err := items.Result()
	if err != nil {
		return nil, fmt.Errorf("read flashes: %w", err)
	}

	flashes := make([]model.Flash, 0, len(raw))
	for _, item := range raw {
		var flash model.Flash
		if err := json.Unmarshal([]byte(item), &flash); err != nil {
			// Corrupted entry - skip it rather than lose the rest
			continue
		}
		flashes = append(flashes, flash)
	}

	return flashes, nil
}

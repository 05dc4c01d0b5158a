package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lendcore/lending-os/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const summaryTTL = 5 * time.Minute

// SummaryCache caches fund summaries in Redis. Derived data only: every
// ledger mutation invalidates the key, and the TTL bounds staleness if an
// invalidation is missed.
type SummaryCache struct {
	client *redis.Client
	log    *logrus.Logger
}

// NewSummaryCache initializes a Redis-backed summary cache
func NewSummaryCache(addr string, log *logrus.Logger) *SummaryCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &SummaryCache{client: rdb, log: log}
}

func summaryKey(fundID int64) string {
	return fmt.Sprintf("fund:summary:%d", fundID)
}

// GetSummary returns the cached summary for a fund, if present
func (c *SummaryCache) GetSummary(ctx context.Context, fundID int64) (*models.FundSummary, bool) {
	val, err := c.client.Get(ctx, summaryKey(fundID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Errorf("Redis get failed for fund %d: %v", fundID, err)
		}
		return nil, false
	}
	var summary models.FundSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		c.log.Errorf("Failed to decode cached summary for fund %d: %v", fundID, err)
		return nil, false
	}
	return &summary, true
}

// SetSummary stores a fund summary with a bounded TTL
func (c *SummaryCache) SetSummary(ctx context.Context, summary *models.FundSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return c.client.Set(ctx, summaryKey(summary.FundID), data, summaryTTL).Err()
}

// Invalidate drops the cached summary for a fund
func (c *SummaryCache) Invalidate(ctx context.Context, fundID int64) error {
	return c.client.Del(ctx, summaryKey(fundID)).Err()
}

package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/game"
	"golang.org/x/sync/singleflight"
)

// RecordCache wraps a RecordStore with a TTL cache so the analytics viewer's
// repeated lookups do not hit the backing store every time. Writes pass
// through and prime the cache.
type RecordCache struct {
	backing game.RecordStore
	ttl     time.Duration
	clock   func() time.Time
	sf      singleflight.Group
	rnd     *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedRecord
}

type cachedRecord struct {
	record    *domain.GameRecord
	expiresAt time.Time
}

func NewRecordCache(backing game.RecordStore, ttl time.Duration) *RecordCache {
	return &RecordCache{
		backing: backing,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:   make(map[string]cachedRecord),
	}
}

func (c *RecordCache) Save(ctx context.Context, record *domain.GameRecord) error {
	if err := c.backing.Save(ctx, record); err != nil {
		return err
	}
	c.mu.Lock()
	c.cache[record.SessionID] = cachedRecord{record: record, expiresAt: c.clock().Add(c.ttlWithJitter())}
	c.mu.Unlock()
	return nil
}

func (c *RecordCache) Load(ctx context.Context, sessionID string) (*domain.GameRecord, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.record, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(sessionID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[sessionID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.record, nil
		}
		c.mu.RUnlock()

		record, err := c.backing.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[sessionID] = cachedRecord{record: record, expiresAt: now.Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return record, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.GameRecord), nil
}

func (c *RecordCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

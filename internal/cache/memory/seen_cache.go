package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

var _ ports.SeenCache = (*SeenCache)(nil)

type entry struct {
	key       string
	expiresAt time.Time
}

// SeenCache — LRU с TTL для ключей уже обработанных записей.
// Ключ живёт не дольше ttl с момента последнего обращения (ttl <= 0 — без срока),
// при переполнении вытесняется самый давний.
type SeenCache struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex
}

func NewSeenCache(capacity int, ttl time.Duration) *SeenCache {
	if capacity <= 0 {
		capacity = 1
	}
	return &SeenCache{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

// Seen отмечает ключ и сообщает, был ли он отмечен раньше (и ещё не истёк).
func (c *SeenCache) Seen(_ context.Context, key string) bool {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[key]; ok {
		ent := elem.Value.(*entry)
		if !c.isExpired(ent, now) {
			c.ll.MoveToFront(elem)
			ent.expiresAt = c.expiryFrom(now)
			metrics.CacheOps.WithLabelValues("hit").Inc()
			return true
		}
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeElement(elem)
	} else {
		metrics.CacheOps.WithLabelValues("miss").Inc()
	}

	c.pruneExpiredFromBack(now)

	c.index[key] = c.ll.PushFront(&entry{key: key, expiresAt: c.expiryFrom(now)})
	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	metrics.CacheSize.Set(float64(c.ll.Len()))
	return false
}

// Len — число ключей в кэше, включая ещё не вычищенные истёкшие.
func (c *SeenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

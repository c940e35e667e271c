package memory

import (
	"container/list"
	"time"

	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

// evictLRU — удаляет наименее используемый элемент.
func (c *SeenCache) evictLRU() {
	if back := c.ll.Back(); back != nil {
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues("evicted").Inc()
	}
}

// removeElement — удаляет элемент из списка и индекса.
func (c *SeenCache) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	if ent, ok := elem.Value.(*entry); ok {
		delete(c.index, ent.key)
	}
	c.ll.Remove(elem)
}

func (c *SeenCache) isExpired(ent *entry, now time.Time) bool {
	if c.ttl <= 0 {
		return false
	}
	return now.After(ent.expiresAt)
}

func (c *SeenCache) expiryFrom(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

// pruneExpiredFromBack — удаляет элементы с истекшим TTL из хвоста до первого актуального.
func (c *SeenCache) pruneExpiredFromBack(now time.Time) {
	if c.ttl <= 0 {
		return
	}
	for {
		back := c.ll.Back()
		if back == nil {
			return
		}
		ent, ok := back.Value.(*entry)
		if ok && !now.After(ent.expiresAt) {
			return
		}
		c.removeElement(back)
		metrics.CacheOps.WithLabelValues("expired").Inc()
	}
}

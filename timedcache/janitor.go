package timedcache

import "time"

// startJanitor launches the active-expiration goroutine when a cleanup
// interval was configured, the same dual lazy/active expiration model the
// teacher's cache used: Find drops expired entries lazily, the janitor
// sweeps them on a ticker regardless of access.
func (c *Cache[K, V]) startJanitor() {
	if c.cleanupInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.cleanupInterval)

	go func() {
		for {
			select {
			case <-ticker.C:
				c.mu.Lock()
				before := c.order.Len()
				c.dropExpiredLocked()
				swept := before - c.order.Len()
				c.mu.Unlock()
				if swept > 0 {
					c.log.Debug().Int("swept", swept).Msg("janitor removed expired entries")
				}
			case <-c.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

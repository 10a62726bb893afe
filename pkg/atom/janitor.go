package atom

import "time"

// janitor periodically evicts idle cache entries. It runs only for
// stores built with WithIdleTTL and stops when the store closes.
func (s *Store) janitor() {
	interval := s.idleTTL / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	stop := s.stopJanitor
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.evictIdle()
		}
	}
}

// evictIdle removes entries that have had no subscribers, no
// dependents, and no activity for at least the idle TTL. Eviction only
// drops this store's cached value; the atom itself and its entries in
// other stores are untouched.
func (s *Store) evictIdle() {
	now := time.Now()

	s.mu.Lock()
	var evicted []*atomBase
	for b, e := range s.entries {
		if len(e.subs) > 0 || len(e.dependents) > 0 {
			continue
		}
		if now.Sub(e.lastActive) < s.idleTTL {
			continue
		}
		if _, pending := s.pendingSet[e]; pending {
			continue
		}
		if e.cancel != nil {
			e.cancel()
		}
		for d := range e.deps {
			delete(d.dependents, e)
		}
		delete(s.entries, b)
		evicted = append(evicted, b)
	}
	s.mu.Unlock()

	for _, b := range evicted {
		s.emit(eventFor(EventEvict, b))
	}
}

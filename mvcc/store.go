package mvcc

import "sync"

// store is the mapping from key to an ordered chain of versions. It performs
// no visibility reasoning of its own; that's the visibility predicate's job.
type store struct {
	mu     sync.RWMutex
	chains map[string][]*Version
}

func newStore() *store {
	return &store{chains: make(map[string][]*Version)}
}

// append adds v as the newest version for key.
func (s *store) append(key string, v *Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chains[key] = append(s.chains[key], v)
}

// chain returns key's versions, newest first.
func (s *store) chain(key string) []*Version {
	s.mu.RLock()
	defer s.mu.RUnlock()

	oldestFirst := s.chains[key]
	newestFirst := make([]*Version, len(oldestFirst))
	for i, v := range oldestFirst {
		newestFirst[len(oldestFirst)-1-i] = v
	}
	return newestFirst
}

// markFinish records that txID invalidated v. Callers must only do this for
// versions the current transaction observed as live.
func (s *store) markFinish(v *Version, txID uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.finish = txID
}

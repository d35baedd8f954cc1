package core

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Committee is a snapshot of guardians entitled to sign inbound requests,
// append-only per spec §3: SetCommittee never mutates an existing id, it
// allocates the next one. Past committees remain addressable so requests
// signed before a rotation, and reward payouts owed to retired members,
// keep working (spec §4.3 "committee-rotation grace").
type Committee struct {
	ID        uint64
	Members   []AccountID
	Threshold uint64
}

// Has reports whether account is a member of the committee.
func (c Committee) Has(account AccountID) bool {
	for _, m := range c.Members {
		if m == account {
			return true
		}
	}
	return false
}

// committeeRegistry stores every committee ever created, keyed by id.
// Lookups are read-heavy (every receive_request consults one), so a
// bounded LRU sits in front of the backing map the way the wider example
// corpus (go-ethereum's header/state caches) fronts hot, append-only
// lookups with hashicorp/golang-lru rather than hitting the map's lock
// on every read.
type committeeRegistry struct {
	mu      sync.RWMutex
	current uint64
	byID    map[uint64]Committee
	cache   *lru.Cache[uint64, Committee]
}

func newCommitteeRegistry() *committeeRegistry {
	cache, err := lru.New[uint64, Committee](256)
	if err != nil {
		// Only returns an error for a non-positive size, which is a
		// programmer error, not a runtime condition.
		panic(err)
	}
	return &committeeRegistry{byID: make(map[uint64]Committee), cache: cache}
}

// set validates members and threshold (spec §4.3 set_committee) and
// stores the new committee at current+1, returning its id. The first
// committee a contract ever sets is therefore id 1, not 0; callers
// needing a specific committee's members always use the id set returns
// rather than assuming 0 names the initial committee.
func (r *committeeRegistry) set(members []AccountID, threshold uint64) (uint64, error) {
	seen := make(map[AccountID]struct{}, len(members))
	for _, m := range members {
		if _, dup := seen[m]; dup {
			return 0, ErrDuplicateCommitteeMember
		}
		seen[m] = struct{}{}
	}
	if threshold < 1 || threshold > uint64(len(members)) || len(members) > 255 {
		return 0, ErrInvalidThreshold
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.current++
	c := Committee{ID: r.current, Members: append([]AccountID(nil), members...), Threshold: threshold}
	r.byID[r.current] = c
	r.cache.Add(r.current, c)
	return r.current, nil
}

func (r *committeeRegistry) get(id uint64) (Committee, bool) {
	if c, ok := r.cache.Get(id); ok {
		return c, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if ok {
		r.cache.Add(id, c)
	}
	return c, ok
}

func (r *committeeRegistry) currentID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

package relayer

import (
	"sort"
	"sync"
)

// pendingBlockSet tracks block numbers dispatched to a block task but not
// yet drained (spec §4.5/§5: "pending-blocks ordered set", "strict-prefix
// durability"). The durable checkpoint is always `min(set) - 1`: the
// greatest block number K such that every block <= K is fully processed.
// Remove deletes a member unconditionally; the set itself does not keep
// itself non-empty. The listener does that by inserting, alongside each
// dispatched block, the block after it, which stays in the set until that
// next block is itself processed.
type pendingBlockSet struct {
	mu      sync.Mutex
	members map[uint64]struct{}
}

func newPendingBlockSet() *pendingBlockSet {
	return &pendingBlockSet{members: make(map[uint64]struct{})}
}

// Insert adds block to the set.
func (s *pendingBlockSet) Insert(block uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[block] = struct{}{}
}

// Remove drops block from the set once its task has fully drained.
func (s *pendingBlockSet) Remove(block uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, block)
}

// Min returns the smallest member of the set and whether the set is
// non-empty.
func (s *pendingBlockSet) Min() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.members) == 0 {
		return 0, false
	}
	min := uint64(0)
	first := true
	for m := range s.members {
		if first || m < min {
			min = m
			first = false
		}
	}
	return min, true
}

// Checkpoint returns the durable checkpoint value implied by the current
// set contents: min(set) - 1, or ok=false if the set is empty (nothing
// dispatched yet, so there is nothing new to durably record).
func (s *pendingBlockSet) Checkpoint() (uint64, bool) {
	min, ok := s.Min()
	if !ok || min == 0 {
		return 0, false
	}
	return min - 1, true
}

// snapshot returns the set's members in ascending order; used by tests
// to assert on strict-prefix behavior without racing Insert/Remove.
func (s *pendingBlockSet) snapshot() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, 0, len(s.members))
	for m := range s.members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

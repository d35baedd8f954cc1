package core

import (
	"encoding/json"
	"fmt"
	"sync"
)

// tokenPair is the JSON-encoded record stored for every local_token ->
// remote_token mapping (spec §3 "Token pair"). Keeping it KV-backed
// rather than an in-memory map lets an operator iterate/export pairs
// the way the teacher repo's registries are iterated.
type tokenPair struct {
	LocalToken  TokenID `json:"local_token"`
	RemoteToken TokenID `json:"remote_token"`
}

const pairKeyPrefix = "guardianbridge:pair:"

func pairKey(local TokenID) []byte {
	return []byte(fmt.Sprintf("%s%s", pairKeyPrefix, local.Hex()))
}

// pairRegistry mirrors the pair map in both directions (local->remote
// and remote->local) the way spec §3 requires both directions to
// succeed independently.
type pairRegistry struct {
	mu      sync.RWMutex
	store   KVStore
	inverse map[TokenID]TokenID
}

func newPairRegistry(store KVStore) *pairRegistry {
	return &pairRegistry{store: store, inverse: make(map[TokenID]TokenID)}
}

// add records local -> remote. Callers must first confirm the bridge
// holds mint permission on local (spec §3/§4.3); that check lives in
// BridgeContract.AddPair since it needs the Token adapter, not just the
// registry.
func (p *pairRegistry) add(local, remote TokenID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, err := json.Marshal(tokenPair{LocalToken: local, RemoteToken: remote})
	if err != nil {
		return err
	}
	if err := p.store.Set(pairKey(local), raw); err != nil {
		return err
	}
	p.inverse[remote] = local
	return nil
}

func (p *pairRegistry) remove(local TokenID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, err := p.store.Get(pairKey(local))
	if err == nil {
		var pair tokenPair
		if json.Unmarshal(raw, &pair) == nil {
			delete(p.inverse, pair.RemoteToken)
		}
	}
	return p.store.Delete(pairKey(local))
}

// remoteFor returns the remote token paired with local. It reports
// ErrUnsupportedPair if no pair is registered, and ErrCorruptedStorage
// if the stored record exists but fails to decode — the one mapping
// reader spec §6's CorruptedStorage taxonomy entry actually guards
// (a value that should be well-formed JSON but isn't).
func (p *pairRegistry) remoteFor(local TokenID) (TokenID, error) {
	raw, err := p.store.Get(pairKey(local))
	if err != nil {
		return TokenID{}, ErrUnsupportedPair
	}
	var pair tokenPair
	if err := json.Unmarshal(raw, &pair); err != nil {
		return TokenID{}, ErrCorruptedStorage
	}
	return pair.RemoteToken, nil
}

// localFor returns the local token paired with remote, if any (the
// inbound direction: a receive_request names a local_token directly so
// this is mostly used for operator tooling/introspection).
func (p *pairRegistry) localFor(remote TokenID) (TokenID, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	local, ok := p.inverse[remote]
	return local, ok
}

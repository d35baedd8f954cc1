package core

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
)

// rewardLedger tracks, per (committee_id, token_id), the total collected
// commission/base-fee surplus and which members have already been paid
// their share (spec §3 "Reward ledger"). Collected totals are
// KV-persisted JSON records — matching the teacher's BridgeTransfer
// ledger pattern of "marshal, store under a prefix key, mark a boolean
// and re-store on completion" — while the per-member paid flags live in
// a guarded map since they are checked on every payout call.
type rewardLedger struct {
	mu        sync.Mutex
	store     KVStore
	collected map[rewardKey]*big.Int
	paid      map[payoutKey]bool
}

type rewardKey struct {
	committeeID uint64
	token       TokenID
}

type payoutKey struct {
	committeeID uint64
	member      AccountID
	token       TokenID
}

func newRewardLedger(store KVStore) *rewardLedger {
	return &rewardLedger{
		store:     store,
		collected: make(map[rewardKey]*big.Int),
		paid:      make(map[payoutKey]bool),
	}
}

type collectedRecord struct {
	CommitteeID uint64  `json:"committee_id"`
	Token       TokenID `json:"token"`
	Amount      string  `json:"amount"`
}

func collectedStoreKey(committeeID uint64, token TokenID) []byte {
	return []byte(fmt.Sprintf("guardianbridge:reward:%d:%s", committeeID, token.Hex()))
}

// credit adds amount to the collected total for (committeeID, token).
func (l *rewardLedger) credit(committeeID uint64, token TokenID, amount *big.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	k := rewardKey{committeeID, token}
	total, ok := l.collected[k]
	if !ok {
		total = big.NewInt(0)
	}
	total = new(big.Int).Add(total, amount)
	l.collected[k] = total

	raw, err := json.Marshal(collectedRecord{CommitteeID: committeeID, Token: token, Amount: total.String()})
	if err != nil {
		return err
	}
	return l.store.Set(collectedStoreKey(committeeID, token), raw)
}

// collectedTotal returns the total collected for (committeeID, token).
func (l *rewardLedger) collectedTotal(committeeID uint64, token TokenID) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if total, ok := l.collected[rewardKey{committeeID, token}]; ok {
		return new(big.Int).Set(total)
	}
	return big.NewInt(0)
}

// payout pays member's share of (committeeID, token) via pay, marking it
// paid. A repeat call is a no-op returning nil (spec §4.3 payout_rewards
// "double-call is a no-op"). share = floor(collected / memberCount).
func (l *rewardLedger) payout(committeeID uint64, member AccountID, token TokenID, memberCount uint64, pay func(share *big.Int) error) error {
	l.mu.Lock()
	pk := payoutKey{committeeID, member, token}
	if l.paid[pk] {
		l.mu.Unlock()
		return nil
	}
	total, ok := l.collected[rewardKey{committeeID, token}]
	if !ok {
		total = big.NewInt(0)
	}
	share := new(big.Int).Div(total, new(big.Int).SetUint64(memberCount))
	l.mu.Unlock()

	if share.Sign() > 0 {
		if err := pay(share); err != nil {
			return err
		}
	}

	l.mu.Lock()
	l.paid[pk] = true
	l.mu.Unlock()
	return nil
}

package core

import (
	"math/big"
	"sync"
)

// commissionDenominator is the "dix-mille" (ten-thousandths) scale a
// commission rate is expressed in; 30 means 0.30% (spec glossary).
const commissionDenominator = 10000

// usdUnitToken is the reserved TokenID a TokenPriceFeed must answer for
// with a constant (1e18, true) price: the USD peg unit send_request
// checks minimum_transfer_amount_usd against. There is no real token
// behind it; it exists so QueryPrice's (amount, of_token, in_token)
// shape can express "value this amount of local_token in dollars"
// without a second, USD-specific conversion function.
var usdUnitToken TokenID

// nativeRewardToken is the reserved TokenID the reward ledger uses for
// the native-currency surplus send_request credits to the current
// committee (spec §4.3 "surplus native value ... credited to the
// current committee's native-token reward bucket"). Native currency has
// no TokenID of its own on either chain, so BridgeContract reserves this
// sentinel rather than overloading token_id 0 with two meanings.
var nativeRewardToken = TokenID{0xff}

// requestState tracks one inbound request hash's signature count and
// execution flag (spec §3 "Inbound request signature record" / §4.3
// state machine: Unseen -> Pending(k) -> Executed).
type requestState struct {
	committeeID uint64
	signers     map[AccountID]bool
	count       uint64
	executed    bool
}

// BridgeContract is the per-chain bridge state machine of spec §4.3. One
// instance models either Chain A's or Chain E's bridge contract; the two
// differ only in how their host transaction encodes calls into these
// methods, which lives in core/chaina and core/chaine.
type BridgeContract struct {
	*Ownership

	committees *committeeRegistry
	pairs      *pairRegistry
	rewards    *rewardLedger
	oracle     *PriceOracle
	priceFeed  TokenPriceFeed
	events     events

	mu     sync.Mutex
	tokens map[TokenID]Token
	native NativeCurrency

	halted  bool
	nonce   uint64
	pending map[RequestHash]*requestState

	commissionPerDixMille    uint64
	pocketMoney              *big.Int
	minimumTransferAmountUSD *big.Int
}

// NewBridgeContract wires together the collaborators one bridge side
// needs. store backs the pair and reward registries; native is the host
// chain's native-currency adapter; feed supplies USD prices for
// QueryPrice, including the usdUnitToken convention above.
func NewBridgeContract(owner AccountID, store KVStore, oracle *PriceOracle, feed TokenPriceFeed, native NativeCurrency, commissionPerDixMille uint64, pocketMoney, minimumTransferAmountUSD *big.Int) *BridgeContract {
	return &BridgeContract{
		Ownership:                NewOwnership(owner),
		committees:               newCommitteeRegistry(),
		pairs:                    newPairRegistry(store),
		rewards:                  newRewardLedger(store),
		oracle:                   oracle,
		priceFeed:                feed,
		tokens:                   make(map[TokenID]Token),
		native:                   native,
		pending:                  make(map[RequestHash]*requestState),
		commissionPerDixMille:    commissionPerDixMille,
		pocketMoney:              pocketMoney,
		minimumTransferAmountUSD: minimumTransferAmountUSD,
	}
}

// RegisterToken attaches the Token adapter backing id. Both chains call
// this once per deployed/bridged token at setup time, outside the
// operations spec §4.3 enumerates.
func (c *BridgeContract) RegisterToken(id TokenID, token Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[id] = token
}

func (c *BridgeContract) tokenFor(id TokenID) (Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[id]
	return t, ok
}

// IsHalted reports the current halt flag.
func (c *BridgeContract) IsHalted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.halted
}

// SetHalted is the owner-only halt/unhalt switch (spec §4.3).
func (c *BridgeContract) SetHalted(caller AccountID, halted bool) error {
	if err := c.EnsureOwner(caller); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.halted = halted
	return nil
}

// GetBaseFee reads the oracle-derived base fee (spec §4.3 get_base_fee).
func (c *BridgeContract) GetBaseFee() *big.Int {
	return c.oracle.BaseFee()
}

// CurrentCommitteeID returns the id of the most recently set committee,
// 0 if none has ever been set.
func (c *BridgeContract) CurrentCommitteeID() uint64 {
	return c.committees.currentID()
}

// Committee looks up a committee snapshot by id, including retired ones
// still addressable under the rotation grace (spec §4.3).
func (c *BridgeContract) Committee(id uint64) (Committee, bool) {
	return c.committees.get(id)
}

// RemoteTokenFor reports the remote token paired with local, if any.
func (c *BridgeContract) RemoteTokenFor(local TokenID) (TokenID, error) {
	return c.pairs.remoteFor(local)
}

// CollectedRewards reports the total ever collected for (committeeID,
// token), for operator introspection; payouts do not reduce it.
func (c *BridgeContract) CollectedRewards(committeeID uint64, token TokenID) *big.Int {
	return c.rewards.collectedTotal(committeeID, token)
}

// SetCommittee rotates to a new committee snapshot. Owner-only and only
// while halted, per spec §4.3, so a rotation can never race an in-flight
// send_request/receive_request.
func (c *BridgeContract) SetCommittee(caller AccountID, members []AccountID, threshold uint64) (uint64, error) {
	if err := c.EnsureOwner(caller); err != nil {
		return 0, err
	}
	if !c.IsHalted() {
		return 0, ErrHalted
	}
	return c.committees.set(members, threshold)
}

// AddPair registers local -> remote (spec §4.3 add_pair). The bridge
// must hold mint permission on local, the same invariant that decides
// whether ReceiveRequest mints or escrow-transfers on settlement.
func (c *BridgeContract) AddPair(caller AccountID, local, remote TokenID) error {
	if err := c.EnsureOwner(caller); err != nil {
		return err
	}
	token, ok := c.tokenFor(local)
	if !ok || !token.IsMinter() {
		return ErrNoMintPermission
	}
	return c.pairs.add(local, remote)
}

// RemovePair unregisters local (spec §4.3 remove_pair).
func (c *BridgeContract) RemovePair(caller AccountID, local TokenID) error {
	if err := c.EnsureOwner(caller); err != nil {
		return err
	}
	return c.pairs.remove(local)
}

// SendRequest is spec §4.3's send_request: the outbound half of a
// transfer. attachedValue is the native currency the caller supplied
// alongside the call, used to cover base_fee with any surplus credited
// to the current committee's reward bucket.
func (c *BridgeContract) SendRequest(caller AccountID, localToken TokenID, amount *big.Int, remoteReceiver AccountID, attachedValue *big.Int) (uint64, error) {
	if c.IsHalted() {
		return 0, ErrHalted
	}
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrZeroTransferAmount
	}
	remoteToken, err := c.pairs.remoteFor(localToken)
	if err != nil {
		return 0, err
	}
	baseFee := c.oracle.BaseFee()
	if attachedValue == nil || attachedValue.Cmp(baseFee) < 0 {
		return 0, ErrBaseFeeTooLow
	}
	usdValue := c.oracle.QueryPrice(c.priceFeed, amount, localToken, usdUnitToken)
	if usdValue.Cmp(c.minimumTransferAmountUSD) < 0 {
		return 0, ErrAmountBelowMinimum
	}

	token, ok := c.tokenFor(localToken)
	if !ok {
		return 0, ErrUnsupportedPair
	}
	if token.Allowance(caller).Cmp(amount) < 0 {
		return 0, ErrInsufficientAllowance
	}
	if err := token.TransferFrom(caller, amount); err != nil {
		return 0, err
	}
	if token.IsMinter() {
		if err := token.Burn(amount); err != nil {
			return 0, err
		}
	}

	c.mu.Lock()
	n := c.nonce
	c.nonce++
	committeeID := c.committees.currentID()
	c.mu.Unlock()

	if c.native != nil {
		c.native.Credit(attachedValue)
	}

	surplus := new(big.Int).Sub(attachedValue, baseFee)
	if surplus.Sign() > 0 {
		if err := c.rewards.credit(committeeID, nativeRewardToken, surplus); err != nil {
			return 0, err
		}
	}

	c.events.transferRequest.Send(CrosschainTransferRequest{
		CommitteeID:      new(big.Int).SetUint64(committeeID),
		DestTokenAddress: remoteToken,
		Amount:           new(big.Int).Set(amount),
		DestReceiverAddr: remoteReceiver,
		RequestNonce:     new(big.Int).SetUint64(n),
	})
	return n, nil
}

// ReceiveRequest is spec §4.3's receive_request: a committee member
// confirming an inbound request. Settlement (mint/transfer, commission,
// pocket money, RequestProcessed) fires exactly once, on the signature
// that first reaches the governing committee's threshold.
func (c *BridgeContract) ReceiveRequest(caller AccountID, hash RequestHash, committeeID uint64, localToken TokenID, amount *big.Int, receiver AccountID, nonce uint64) error {
	if c.IsHalted() {
		return ErrHalted
	}
	committee, ok := c.committees.get(committeeID)
	if !ok {
		return ErrUnknownCommittee
	}
	if !committee.Has(caller) {
		return ErrNotInCommittee
	}

	want, err := Hash(Request{
		CommitteeID:  new(big.Int).SetUint64(committeeID),
		DestToken:    localToken,
		Amount:       amount,
		DestReceiver: receiver,
		Nonce:        new(big.Int).SetUint64(nonce),
	})
	if err != nil {
		return err
	}
	if want != hash {
		return ErrHashDoesNotMatchData
	}

	c.mu.Lock()
	st, ok := c.pending[hash]
	if !ok {
		st = &requestState{committeeID: committeeID, signers: make(map[AccountID]bool)}
		c.pending[hash] = st
	}
	if st.executed {
		c.mu.Unlock()
		return ErrRequestAlreadyProcessed
	}
	if st.signers[caller] {
		c.mu.Unlock()
		return ErrRequestAlreadySigned
	}
	st.signers[caller] = true
	st.count++
	reachedThreshold := st.count == committee.Threshold
	if reachedThreshold {
		st.executed = true
	}
	c.mu.Unlock()

	c.events.requestSigned.Send(RequestSigned{Signer: caller, RequestHash: hash})

	if !reachedThreshold {
		return nil
	}
	return c.settle(hash, committeeID, localToken, amount, receiver)
}

// settle performs the side effects of a request reaching threshold
// (spec §4.3 receive_request steps 1-5): commission, payout, pocket
// money, and the terminal RequestProcessed event.
func (c *BridgeContract) settle(hash RequestHash, committeeID uint64, localToken TokenID, amount *big.Int, receiver AccountID) error {
	commission := new(big.Int).Div(new(big.Int).Mul(amount, new(big.Int).SetUint64(c.commissionPerDixMille)), big.NewInt(commissionDenominator))
	if err := c.rewards.credit(committeeID, localToken, commission); err != nil {
		return err
	}

	token, ok := c.tokenFor(localToken)
	if !ok {
		return ErrNoMintPermission
	}
	net := new(big.Int).Sub(amount, commission)
	if token.IsMinter() {
		if err := token.Mint(receiver, net); err != nil {
			return err
		}
	} else {
		if err := token.Transfer(receiver, net); err != nil {
			return err
		}
	}

	if c.native != nil && c.pocketMoney != nil && c.pocketMoney.Sign() > 0 {
		if c.native.Balance().Cmp(c.pocketMoney) >= 0 {
			_ = c.native.Transfer(receiver, c.pocketMoney)
		}
	}

	c.events.requestProcessed.Send(RequestProcessed{RequestHash: hash, DestTokenAddress: localToken})
	return nil
}

// PayoutRewards pays member's share of (committeeID, tokenID)'s
// collected total (spec §4.3 payout_rewards). A repeat call for the same
// triple is a no-op, matching rewardLedger.payout.
func (c *BridgeContract) PayoutRewards(committeeID uint64, member AccountID, tokenID TokenID) error {
	committee, ok := c.committees.get(committeeID)
	if !ok {
		return ErrUnknownCommittee
	}
	if !committee.Has(member) {
		return ErrNotInCommittee
	}
	return c.rewards.payout(committeeID, member, tokenID, uint64(len(committee.Members)), func(share *big.Int) error {
		if tokenID == nativeRewardToken {
			if c.native == nil {
				return nil
			}
			return c.native.Transfer(member, share)
		}
		token, ok := c.tokenFor(tokenID)
		if !ok {
			return ErrNoMintPermission
		}
		return token.Transfer(member, share)
	})
}

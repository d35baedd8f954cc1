package core

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testOracle() *PriceOracle {
	o := NewPriceOracle(24*time.Hour, big.NewInt(1), big.NewInt(1), big.NewInt(1_000_000), big.NewInt(1))
	o.Update(big.NewInt(1), time.Now())
	return o
}

func newTestContract(owner AccountID) (*BridgeContract, *fakeToken) {
	token := newFakeToken(true)
	store := NewInMemoryStore()
	c := NewBridgeContract(owner, store, testOracle(), zeroPriceFeed{}, newFakeNativeCurrency(big.NewInt(0)), 30, big.NewInt(0), big.NewInt(0))
	var localToken TokenID
	localToken[0] = 1
	c.RegisterToken(localToken, token)
	return c, token
}

func acct(b byte) AccountID {
	var a AccountID
	a[0] = b
	return a
}

// S1 - Duplicate committee member rejected.
func TestSetCommitteeRejectsDuplicateMember(t *testing.T) {
	owner := acct(0xAA)
	c, _ := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))

	members := []AccountID{acct(0), acct(1), acct(2), acct(3), acct(0)}
	_, err := c.SetCommittee(owner, members, 3)
	require.ErrorIs(t, err, ErrDuplicateCommitteeMember)
}

// S2 - Zero-amount send rejected.
func TestSendRequestRejectsZeroAmount(t *testing.T) {
	owner := acct(0xAA)
	c, token := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))
	_, err := c.SetCommittee(owner, []AccountID{acct(1)}, 1)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	var local, remote TokenID
	local[0] = 1
	remote[0] = 2
	require.NoError(t, c.AddPair(owner, local, remote))

	caller := acct(0x10)
	token.setBalance(caller, big.NewInt(1000))
	token.approve(caller, big.NewInt(1000))

	_, err = c.SendRequest(caller, local, big.NewInt(0), acct(0x20), c.GetBaseFee())
	require.ErrorIs(t, err, ErrZeroTransferAmount)
}

// S3 - Missing mint permission.
func TestAddPairRejectsWithoutMintPermission(t *testing.T) {
	owner := acct(0xAA)
	c, _ := newTestContract(owner)
	nonMinter := newFakeToken(false)
	var local TokenID
	local[0] = 9
	c.RegisterToken(local, nonMinter)

	var remote TokenID
	remote[0] = 10
	err := c.AddPair(owner, local, remote)
	require.ErrorIs(t, err, ErrNoMintPermission)
}

// S4 - Happy-path receive: committee of 5, threshold 3.
func TestReceiveRequestExecutesAtThreshold(t *testing.T) {
	owner := acct(0xAA)
	c, token := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))
	guardians := []AccountID{acct(1), acct(2), acct(3), acct(4), acct(5)}
	committeeID, err := c.SetCommittee(owner, guardians, 3)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	var localToken TokenID
	localToken[0] = 1
	amount := big.NewInt(100)
	receiver := acct(0x99)
	nonce := uint64(1)

	hash, err := Hash(Request{
		CommitteeID:  new(big.Int).SetUint64(committeeID),
		DestToken:    localToken,
		Amount:       amount,
		DestReceiver: receiver,
		Nonce:        new(big.Int).SetUint64(nonce),
	})
	require.NoError(t, err)

	var processed int
	sub := make(chan RequestProcessed, 4)
	s := c.SubscribeRequestProcessed(sub)
	defer s.Unsubscribe()

	for i := 0; i < 2; i++ {
		err := c.ReceiveRequest(guardians[i], hash, committeeID, localToken, amount, receiver, nonce)
		require.NoError(t, err)
	}
	require.Equal(t, 0, big.NewInt(0).Cmp(token.BalanceOf(receiver)))

	err = c.ReceiveRequest(guardians[2], hash, committeeID, localToken, amount, receiver, nonce)
	require.NoError(t, err)

	select {
	case <-sub:
		processed++
	default:
	}
	require.Equal(t, 1, processed)

	commission := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(30)), big.NewInt(commissionDenominator))
	want := new(big.Int).Sub(amount, commission)
	require.Equal(t, 0, want.Cmp(token.BalanceOf(receiver)))

	err = c.ReceiveRequest(guardians[3], hash, committeeID, localToken, amount, receiver, nonce)
	require.ErrorIs(t, err, ErrRequestAlreadyProcessed)
}

// S6 - Committee rotation grace (issue-63 repro): signatures collected
// under committee A's threshold still execute after rotation to B.
func TestReceiveRequestHonorsRotationGrace(t *testing.T) {
	owner := acct(0xAA)
	c, token := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))
	committeeA := []AccountID{acct(1), acct(2), acct(3), acct(4)}
	idA, err := c.SetCommittee(owner, committeeA, 4)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	var localToken TokenID
	localToken[0] = 1
	amount := big.NewInt(841189100000000)
	receiver := acct(0x77)
	nonce := uint64(1)

	hash, err := Hash(Request{
		CommitteeID:  new(big.Int).SetUint64(idA),
		DestToken:    localToken,
		Amount:       amount,
		DestReceiver: receiver,
		Nonce:        new(big.Int).SetUint64(nonce),
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, c.ReceiveRequest(committeeA[i], hash, idA, localToken, amount, receiver, nonce))
	}

	require.NoError(t, c.SetHalted(owner, true))
	committeeB := []AccountID{acct(11), acct(12), acct(13), acct(14), acct(15)}
	_, err = c.SetCommittee(owner, committeeB, 5)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	err = c.ReceiveRequest(committeeA[3], hash, idA, localToken, amount, receiver, nonce)
	require.NoError(t, err)

	commission := new(big.Int).Div(new(big.Int).Mul(amount, big.NewInt(30)), big.NewInt(commissionDenominator))
	want := new(big.Int).Sub(amount, commission)
	require.Equal(t, 0, want.Cmp(token.BalanceOf(receiver)))
}

func TestSendRequestIncrementsNonceStrictly(t *testing.T) {
	owner := acct(0xAA)
	c, token := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))
	_, err := c.SetCommittee(owner, []AccountID{acct(1)}, 1)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	var local, remote TokenID
	local[0] = 1
	remote[0] = 2
	require.NoError(t, c.AddPair(owner, local, remote))

	caller := acct(0x10)
	token.setBalance(caller, big.NewInt(1_000_000))
	token.approve(caller, big.NewInt(1_000_000))

	n0, err := c.SendRequest(caller, local, big.NewInt(500), acct(0x20), c.GetBaseFee())
	require.NoError(t, err)
	n1, err := c.SendRequest(caller, local, big.NewInt(500), acct(0x20), c.GetBaseFee())
	require.NoError(t, err)
	require.Equal(t, uint64(0), n0)
	require.Equal(t, uint64(1), n1)
}

func TestPayoutRewardsIsIdempotent(t *testing.T) {
	owner := acct(0xAA)
	c, token := newTestContract(owner)
	require.NoError(t, c.SetHalted(owner, true))
	guardians := []AccountID{acct(1), acct(2)}
	committeeID, err := c.SetCommittee(owner, guardians, 2)
	require.NoError(t, err)
	require.NoError(t, c.SetHalted(owner, false))

	var localToken TokenID
	localToken[0] = 1
	require.NoError(t, c.rewards.credit(committeeID, localToken, big.NewInt(100)))

	require.NoError(t, c.PayoutRewards(committeeID, guardians[0], localToken))
	require.Equal(t, 0, big.NewInt(50).Cmp(token.BalanceOf(guardians[0])))

	require.NoError(t, c.PayoutRewards(committeeID, guardians[0], localToken))
	require.Equal(t, 0, big.NewInt(50).Cmp(token.BalanceOf(guardians[0])))
}

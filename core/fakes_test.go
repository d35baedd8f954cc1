package core

import (
	"math/big"
	"sync"
)

// fakeToken is a minimal in-memory Token used across the contract test
// suite; it is not a mock of the interface's call sequence, only of its
// observable balance/allowance effects, mirroring how the pack's own
// test doubles (e.g. the teacher's in-memory ledgers) stay close to real
// semantics rather than recording expectations.
type fakeToken struct {
	mu         sync.Mutex
	minter     bool
	balances   map[AccountID]*big.Int
	allowances map[AccountID]*big.Int
	totalBurnt *big.Int
}

func newFakeToken(minter bool) *fakeToken {
	return &fakeToken{
		minter:     minter,
		balances:   make(map[AccountID]*big.Int),
		allowances: make(map[AccountID]*big.Int),
		totalBurnt: big.NewInt(0),
	}
}

func (t *fakeToken) setBalance(account AccountID, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[account] = new(big.Int).Set(amount)
}

func (t *fakeToken) approve(owner AccountID, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.allowances[owner] = new(big.Int).Set(amount)
}

func (t *fakeToken) TransferFrom(owner AccountID, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balances[owner]
	if bal == nil {
		bal = big.NewInt(0)
	}
	t.balances[owner] = new(big.Int).Sub(bal, amount)
	allowance := t.allowances[owner]
	if allowance == nil {
		allowance = big.NewInt(0)
	}
	t.allowances[owner] = new(big.Int).Sub(allowance, amount)
	var bridge AccountID
	bridgeBal := t.balances[bridge]
	if bridgeBal == nil {
		bridgeBal = big.NewInt(0)
	}
	t.balances[bridge] = new(big.Int).Add(bridgeBal, amount)
	return nil
}

func (t *fakeToken) Transfer(to AccountID, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var bridge AccountID
	bridgeBal := t.balances[bridge]
	if bridgeBal == nil {
		bridgeBal = big.NewInt(0)
	}
	t.balances[bridge] = new(big.Int).Sub(bridgeBal, amount)
	bal := t.balances[to]
	if bal == nil {
		bal = big.NewInt(0)
	}
	t.balances[to] = new(big.Int).Add(bal, amount)
	return nil
}

func (t *fakeToken) Mint(to AccountID, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balances[to]
	if bal == nil {
		bal = big.NewInt(0)
	}
	t.balances[to] = new(big.Int).Add(bal, amount)
	return nil
}

func (t *fakeToken) Burn(amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalBurnt = new(big.Int).Add(t.totalBurnt, amount)
	return nil
}

func (t *fakeToken) BalanceOf(account AccountID) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	bal := t.balances[account]
	if bal == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(bal)
}

func (t *fakeToken) Allowance(owner AccountID) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	a := t.allowances[owner]
	if a == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(a)
}

func (t *fakeToken) IsMinter() bool { return t.minter }

// fakeNativeCurrency is a minimal in-memory NativeCurrency.
type fakeNativeCurrency struct {
	mu      sync.Mutex
	balance *big.Int
	sent    map[AccountID]*big.Int
}

func newFakeNativeCurrency(initial *big.Int) *fakeNativeCurrency {
	return &fakeNativeCurrency{balance: new(big.Int).Set(initial), sent: make(map[AccountID]*big.Int)}
}

func (n *fakeNativeCurrency) Balance() *big.Int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return new(big.Int).Set(n.balance)
}

func (n *fakeNativeCurrency) Transfer(to AccountID, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.balance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	n.balance = new(big.Int).Sub(n.balance, amount)
	prior := n.sent[to]
	if prior == nil {
		prior = big.NewInt(0)
	}
	n.sent[to] = new(big.Int).Add(prior, amount)
	return nil
}

func (n *fakeNativeCurrency) Credit(amount *big.Int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.balance = new(big.Int).Add(n.balance, amount)
}

// zeroPriceFeed answers the usdUnitToken convention with a fixed $1 peg
// and otherwise reports every other token as fresh at the same price, so
// tests that don't care about currency conversion can ignore it.
type zeroPriceFeed struct{}

func (zeroPriceFeed) PriceUSD(TokenID) (*big.Int, bool) {
	return big.NewInt(1_000_000_000_000_000_000), true
}

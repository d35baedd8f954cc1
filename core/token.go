package core

import "math/big"

// Token is the external collaborator interface spec §1 assumes: every
// fungible token on either chain exposes mint, burn, transfer,
// transfer-from, balance, total-supply and approve. The bridge contract
// never implements a token itself — it only calls through this
// interface, so a real token contract binding (Chain A or Chain E) can
// be substituted without touching the state machine.
type Token interface {
	// TransferFrom moves amount from owner to the bridge, requiring a
	// prior Approve by owner of at least amount.
	TransferFrom(owner AccountID, amount *big.Int) error
	// Transfer moves amount out of the bridge's own balance to to.
	Transfer(to AccountID, amount *big.Int) error
	// Mint creates amount of new supply directly into to's balance.
	Mint(to AccountID, amount *big.Int) error
	// Burn destroys amount from the bridge's own balance.
	Burn(amount *big.Int) error
	// BalanceOf returns the current balance of account.
	BalanceOf(account AccountID) *big.Int
	// Allowance returns how much owner has approved the bridge to pull.
	Allowance(owner AccountID) *big.Int
	// IsMinter reports whether the bridge holds mint permission on this
	// token, consulted by add_pair (spec §3/§4.3).
	IsMinter() bool
}

// NativeCurrency is the external collaborator for the chain's native
// coin, used for base-fee collection and pocket-money payouts. Unlike
// Token, every method is implicitly scoped to the bridge contract's own
// balance: there is no "accounts" concept to expose here, only the
// contract's own native-currency position.
type NativeCurrency interface {
	// Balance returns the bridge contract's own native-currency balance.
	Balance() *big.Int
	// Transfer pays amount of native currency out of the bridge's
	// balance to to.
	Transfer(to AccountID, amount *big.Int) error
	// Credit records value attached to the current call (the caller has
	// already paid it into the contract at the host-ledger level).
	Credit(amount *big.Int)
}

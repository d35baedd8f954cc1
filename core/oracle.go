package core

import (
	"math/big"
	"sync"
	"time"
)

// The base-fee policy lives in PriceOracle's fields: minGasPrice and
// maxGasPrice clamp get_base_fee's output (spec §4.3), defaultPrice is
// the fallback used once the oracle reading goes stale (spec §4.4), and
// relayGasUsage is the fixed gas budget a receive_request submission is
// assumed to cost on the destination chain. They are set once by
// NewPriceOracle; PriceOracle has no setter for them, so they cannot be
// changed at runtime. The safety margin below is a fixed 120/100.
const safetyMarginNumerator = 120
const safetyMarginDenominator = 100

// PriceOracle is the gas/price adapter described in spec §4.4: a
// freshness-gated price lookup with fallback to a configured default.
// The live (price, timestamp) pair is supplied by an external read-only
// feed (out of scope per spec §1); PriceOracle only adds the
// freshness/fallback/clamping policy on top of it.
type PriceOracle struct {
	mu sync.RWMutex

	price     *big.Int
	timestamp time.Time

	maxOracleAge  time.Duration
	defaultPrice  *big.Int
	minGasPrice   *big.Int
	maxGasPrice   *big.Int
	relayGasUsage *big.Int

	now func() time.Time
}

// NewPriceOracle constructs a PriceOracle with the given policy
// parameters. now defaults to time.Now; tests override it to exercise
// staleness without sleeping (spec §8 scenario S5).
func NewPriceOracle(maxOracleAge time.Duration, defaultPrice, minGasPrice, maxGasPrice, relayGasUsage *big.Int) *PriceOracle {
	return &PriceOracle{
		maxOracleAge:  maxOracleAge,
		defaultPrice:  defaultPrice,
		minGasPrice:   minGasPrice,
		maxGasPrice:   maxGasPrice,
		relayGasUsage: relayGasUsage,
		now:           time.Now,
	}
}

// Update records a new (price, timestamp) reading from the external gas
// oracle feed.
func (o *PriceOracle) Update(price *big.Int, timestamp time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.price = new(big.Int).Set(price)
	o.timestamp = timestamp
}

// isFresh reports whether the last reading is within MAX_ORACLE_AGE of
// now (spec §3 "Gas oracle state").
func (o *PriceOracle) isFresh() bool {
	if o.price == nil {
		return false
	}
	return o.now().Sub(o.timestamp) <= o.maxOracleAge
}

// effectivePrice returns the oracle price if fresh, else the configured
// default (spec §4.4).
func (o *PriceOracle) effectivePrice() *big.Int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.isFresh() {
		return new(big.Int).Set(o.price)
	}
	return new(big.Int).Set(o.defaultPrice)
}

// clamp restricts p to [min, max].
func clamp(p, min, max *big.Int) *big.Int {
	if p.Cmp(min) < 0 {
		return new(big.Int).Set(min)
	}
	if p.Cmp(max) > 0 {
		return new(big.Int).Set(max)
	}
	return new(big.Int).Set(p)
}

// BaseFee implements get_base_fee (spec §4.3): price * relay_gas_usage *
// 120/100, clamped to [MIN_GAS_PRICE, MAX_GAS_PRICE] * relay_gas_usage *
// 120/100.
func (o *PriceOracle) BaseFee() *big.Int {
	price := o.effectivePrice()
	price = clamp(price, o.minGasPrice, o.maxGasPrice)

	fee := new(big.Int).Mul(price, o.relayGasUsage)
	fee = new(big.Int).Mul(fee, big.NewInt(safetyMarginNumerator))
	fee = new(big.Int).Div(fee, big.NewInt(safetyMarginDenominator))
	return fee
}

// TokenPriceFeed supplies a per-token USD price (scaled by 1e18, wei-style
// fixed point) for QueryPrice. Like the gas price feed it is an external,
// read-only collaborator (spec §1); a missing or stale entry is reported
// via the bool so QueryPrice can apply the same fall-through policy
// BaseFee uses for the gas price itself.
type TokenPriceFeed interface {
	PriceUSD(token TokenID) (price *big.Int, fresh bool)
}

// QueryPrice values amountOf units of ofToken in inToken's units, spec
// §4.4's query_price, used by send_request to check a transfer against
// minimum_transfer_amount_usd. Resolved Open Question (spec §8,
// SPEC_FULL §3): when a feed entry is stale or absent, QueryPrice falls
// through to treating that token's price as the oracle's own
// effectivePrice (the same fallback BaseFee applies) rather than
// reverting send_request outright.
func (o *PriceOracle) QueryPrice(feed TokenPriceFeed, amountOf *big.Int, ofToken, inToken TokenID) *big.Int {
	ofPrice, ok := feed.PriceUSD(ofToken)
	if !ok || ofPrice == nil {
		ofPrice = o.effectivePrice()
	}
	inPrice, ok := feed.PriceUSD(inToken)
	if !ok || inPrice == nil || inPrice.Sign() == 0 {
		inPrice = o.effectivePrice()
	}
	if inPrice.Sign() == 0 {
		return big.NewInt(0)
	}
	numerator := new(big.Int).Mul(amountOf, ofPrice)
	return new(big.Int).Div(numerator, inPrice)
}

package core

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

// TestBaseFeeFreshVsStale reproduces spec §8 scenario S5: with a fresh
// oracle reading of 2xMIN_GAS_PRICE, base_fee uses it; once the reading
// exceeds MAX_ORACLE_AGE, base_fee falls back to DEFAULT_GAS_PRICE.
func TestBaseFeeFreshVsStale(t *testing.T) {
	minGas := big.NewInt(1_000_000_000)
	maxGas := big.NewInt(1_000_000_000_000)
	defaultGas := big.NewInt(5_000_000_000)
	relayGasUsage := big.NewInt(21_000)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &fixedClock{t: start}

	oracle := NewPriceOracle(24*time.Hour, defaultGas, minGas, maxGas, relayGasUsage)
	oracle.now = clock.now

	freshPrice := new(big.Int).Mul(minGas, big.NewInt(2))
	oracle.Update(freshPrice, start)

	want := new(big.Int).Div(new(big.Int).Mul(new(big.Int).Mul(freshPrice, relayGasUsage), big.NewInt(120)), big.NewInt(100))
	require.Equal(t, 0, want.Cmp(oracle.BaseFee()))

	clock.t = start.Add(2 * 24 * time.Hour)
	wantStale := new(big.Int).Div(new(big.Int).Mul(new(big.Int).Mul(defaultGas, relayGasUsage), big.NewInt(120)), big.NewInt(100))
	require.Equal(t, 0, wantStale.Cmp(oracle.BaseFee()))
}

func TestBaseFeeClamped(t *testing.T) {
	minGas := big.NewInt(1000)
	maxGas := big.NewInt(2000)
	defaultGas := big.NewInt(1500)
	relayGasUsage := big.NewInt(1)

	oracle := NewPriceOracle(time.Hour, defaultGas, minGas, maxGas, relayGasUsage)
	oracle.Update(big.NewInt(5_000_000), time.Now())

	fee := oracle.BaseFee()
	wantMax := new(big.Int).Div(new(big.Int).Mul(maxGas, big.NewInt(120)), big.NewInt(100))
	require.Equal(t, 0, wantMax.Cmp(fee))
}

type staticFeed struct {
	prices map[TokenID]*big.Int
}

func (f staticFeed) PriceUSD(t TokenID) (*big.Int, bool) {
	p, ok := f.prices[t]
	return p, ok
}

func TestQueryPriceConverts(t *testing.T) {
	oracle := NewPriceOracle(time.Hour, big.NewInt(1), big.NewInt(1), big.NewInt(1_000_000), big.NewInt(1))
	var tokA, tokB TokenID
	tokA[0] = 1
	tokB[0] = 2
	feed := staticFeed{prices: map[TokenID]*big.Int{
		tokA: big.NewInt(2_000_000_000_000_000_000), // $2
		tokB: big.NewInt(1_000_000_000_000_000_000), // $1
	}}

	got := oracle.QueryPrice(feed, big.NewInt(10), tokA, tokB)
	require.Equal(t, big.NewInt(20), got)
}

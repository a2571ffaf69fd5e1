// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/adapter"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

// bridgeFeeBps is the protocol fee: 10 basis points (0.1%).
const bridgeFeeBps = 10

// chainCaps is the per-source-chain single-transfer ceiling, in token
// units.
var chainCaps = map[string]*big.Rat{
	adapter.ChainEthereum:  amount.MustParse("404000"),
	adapter.ChainBSC:       amount.MustParse("101000"),
	adapter.ChainPolygon:   amount.MustParse("250000"),
	adapter.ChainAvalanche: amount.MustParse("300000"),
	adapter.ChainSolana:    amount.MustParse("500000"),
	adapter.ChainPolkadot:  amount.MustParse("750000"),
	adapter.ChainAurigraph: amount.MustParse("1000000"),
}

// TokenPolicy bounds one bridgeable token.
type TokenPolicy struct {
	Symbol   string
	Name     string
	Decimals uint8
	Min      *big.Rat
	Max      *big.Rat
}

var tokenTable = map[string]TokenPolicy{
	"ETH":  {Symbol: "ETH", Name: "Ether", Decimals: 18, Min: amount.MustParse("0.01"), Max: amount.MustParse("100")},
	"USDT": {Symbol: "USDT", Name: "Tether USD", Decimals: 6, Min: amount.MustParse("100"), Max: amount.MustParse("1000000")},
	"USDC": {Symbol: "USDC", Name: "USD Coin", Decimals: 6, Min: amount.MustParse("100"), Max: amount.MustParse("1000000")},
	"WBTC": {Symbol: "WBTC", Name: "Wrapped Bitcoin", Decimals: 8, Min: amount.MustParse("0.001"), Max: amount.MustParse("10")},
	"AUR":  {Symbol: "AUR", Name: "Aurigraph", Decimals: 18, Min: amount.MustParse("1"), Max: amount.MustParse("10000000")},
}

// SupportedToken returns the policy for a token symbol.
func SupportedToken(symbol string) (TokenPolicy, bool) {
	p, ok := tokenTable[symbol]
	return p, ok
}

// ChainCap returns the single-transfer cap for a source chain, if any.
func ChainCap(chainID string) (*big.Rat, bool) {
	limit, ok := chainCaps[chainID]
	if !ok {
		return nil, false
	}
	return new(big.Rat).Set(limit), true
}

// EstimateSlippage returns the expected slippage percentage for an
// amount: 100 * amount / 1e6, i.e. 0.01% per 100 tokens of depth.
func EstimateSlippage(amt *big.Rat) *big.Rat {
	if amt == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Quo(amt, big.NewRat(10000, 1))
}

// slippageWarnPercent is the threshold above which a quote is flagged.
var slippageWarnPercent = big.NewRat(2, 1)

// validatePolicy applies the admission rules that need no adapter access.
func validatePolicy(req Request) error {
	if !amount.IsPositive(req.Amount) {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}
	if req.SourceChain == "" || req.TargetChain == "" || req.SourceChain == req.TargetChain {
		return fmt.Errorf("%w: source and target chains must differ", ErrInvalidRequest)
	}
	if req.SourceAddr == "" || req.TargetAddr == "" {
		return fmt.Errorf("%w: addresses must not be empty", ErrInvalidRequest)
	}

	token, ok := tokenTable[req.TokenSymbol]
	if !ok {
		return fmt.Errorf("%w: unsupported token %q", ErrInvalidRequest, req.TokenSymbol)
	}
	if amount.Cmp(req.Amount, token.Min) < 0 {
		return fmt.Errorf("%w: %s below minimum %s %s", ErrInvalidRequest,
			amount.Format(req.Amount), amount.Format(token.Min), token.Symbol)
	}
	if amount.Cmp(req.Amount, token.Max) > 0 {
		return fmt.Errorf("%w: %s above maximum %s %s", ErrInvalidRequest,
			amount.Format(req.Amount), amount.Format(token.Max), token.Symbol)
	}

	// Both legs must fit under their chain's cap.
	for _, chain := range []string{req.SourceChain, req.TargetChain} {
		if limit, ok := chainCaps[chain]; ok && amount.Cmp(req.Amount, limit) > 0 {
			return fmt.Errorf("%w: %s over %s cap %s", ErrLimitExceeded,
				amount.Format(req.Amount), chain, amount.Format(limit))
		}
	}
	return nil
}

// rateLimiter enforces a rolling-window request limit per source address.
type rateLimiter struct {
	limit  int
	window time.Duration
	nowFn  func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func newRateLimiter(limit int, window time.Duration, nowFn func() time.Time) *rateLimiter {
	return &rateLimiter{
		limit:  limit,
		window: window,
		nowFn:  nowFn,
		hits:   make(map[string][]time.Time),
	}
}

// allow records one request for addr. When over the limit it reports the
// wait until the oldest request leaves the window.
func (rl *rateLimiter) allow(addr string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.nowFn()
	cutoff := now.Add(-rl.window)

	kept := rl.hits[addr][:0]
	for _, t := range rl.hits[addr] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= rl.limit {
		rl.hits[addr] = kept
		return false, kept[0].Sub(cutoff)
	}
	rl.hits[addr] = append(kept, now)
	return true, 0
}

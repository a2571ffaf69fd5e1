// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/adapter"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

func TestValidatePolicyTokenBounds(t *testing.T) {
	req := usdcRequest()
	require.NoError(t, validatePolicy(req)) // 100 USDC, exactly the minimum

	req.Amount = amount.MustParse("50") // below the USDC minimum of 100
	require.ErrorIs(t, validatePolicy(req), ErrInvalidRequest)

	req.Amount = amount.MustParse("2000000") // above the USDC maximum
	require.ErrorIs(t, validatePolicy(req), ErrInvalidRequest)

	req = usdcRequest()
	req.TokenSymbol = "ETH"
	req.Amount = amount.MustParse("0.01") // exactly the ETH minimum
	require.NoError(t, validatePolicy(req))

	req.Amount = amount.MustParse("5000") // above the ETH maximum of 100
	require.ErrorIs(t, validatePolicy(req), ErrInvalidRequest)

	req = usdcRequest()
	req.TokenSymbol = "WBTC"
	req.Amount = amount.MustParse("11") // above the WBTC maximum of 10
	require.ErrorIs(t, validatePolicy(req), ErrInvalidRequest)
}

func TestValidatePolicyChainCaps(t *testing.T) {
	req := usdcRequest()
	req.TargetChain = adapter.ChainBitcoin // no cap on the target leg
	req.Amount = amount.MustParse("404000") // exactly the ethereum cap
	require.NoError(t, validatePolicy(req))

	req.Amount = amount.MustParse("404001")
	require.ErrorIs(t, validatePolicy(req), ErrLimitExceeded)

	// The target chain's cap binds too.
	req = usdcRequest()
	req.SourceChain = adapter.ChainSolana
	req.TargetChain = adapter.ChainBSC
	req.TokenSymbol = "USDT"
	req.Amount = amount.MustParse("200000") // under solana's 500000, over bsc's 101000
	require.ErrorIs(t, validatePolicy(req), ErrLimitExceeded)

	// Chains without caps admit any token-legal amount.
	req.SourceChain = adapter.ChainBitcoin
	req.TargetChain = adapter.ChainCosmos
	req.Amount = amount.MustParse("900000")
	require.NoError(t, validatePolicy(req))
}

func TestChainCapAndTokenLookups(t *testing.T) {
	limit, ok := ChainCap(adapter.ChainAurigraph)
	require.True(t, ok)
	require.Equal(t, "1000000", amount.Format(limit))

	_, ok = ChainCap(adapter.ChainBitcoin)
	require.False(t, ok)

	token, ok := SupportedToken("WBTC")
	require.True(t, ok)
	require.Equal(t, uint8(8), token.Decimals)

	_, ok = SupportedToken("DOGE")
	require.False(t, ok)
}

func TestEstimateSlippage(t *testing.T) {
	require.Equal(t, "0.01", amount.Format(EstimateSlippage(amount.MustParse("100"))))
	require.Equal(t, "1", amount.Format(EstimateSlippage(amount.MustParse("10000"))))
	require.Equal(t, "0", amount.Format(EstimateSlippage(nil)))
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Now()
	clock := now
	rl := newRateLimiter(2, time.Second, func() time.Time { return clock })

	ok, _ := rl.allow("a")
	require.True(t, ok)
	ok, _ = rl.allow("a")
	require.True(t, ok)

	ok, wait := rl.allow("a")
	require.False(t, ok)
	require.Greater(t, wait, time.Duration(0))

	// Other addresses are tracked independently.
	ok, _ = rl.allow("b")
	require.True(t, ok)

	// The window rolls: old hits expire.
	clock = now.Add(1100 * time.Millisecond)
	ok, _ = rl.allow("a")
	require.True(t, ok)
}

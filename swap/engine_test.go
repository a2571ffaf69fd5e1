// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	log "github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(log.NewTestLogger(log.InfoLevel), opts...)
}

func initiate(t *testing.T, e *Engine) InitiateResult {
	t.Helper()
	res, err := e.Initiate("ethereum", "polkadot",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"13UVJyLnbVp9RBZYFwFGyDvVd1y27Tt8tkntv6Q7JVPhFsTB",
		amount.MustParse("10"), "DOT")
	require.NoError(t, err)
	return res
}

func TestInitiateSwap(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)

	require.NotEmpty(t, res.SwapID)
	require.Len(t, res.Secret, 64) // 32 bytes as hex
	require.Len(t, res.Hashlock, 64)
	require.Equal(t, Hashlock(res.Secret), res.Hashlock)

	s, err := e.Get(res.SwapID)
	require.NoError(t, err)
	require.Equal(t, StatusInitiated, s.Status)
	require.True(t, s.ExpiresAt.After(s.InitiatedAt))
	require.Empty(t, s.RevealedSecret) // secret not exposed via reads
}

func TestInitiateValidation(t *testing.T) {
	e := newTestEngine()

	_, err := e.Initiate("ethereum", "ethereum", "a", "b", amount.MustParse("1"), "ETH")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Initiate("ethereum", "polygon", "", "b", amount.MustParse("1"), "ETH")
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = e.Initiate("ethereum", "polygon", "a", "b", amount.MustParse("0"), "ETH")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

// Happy path: initiate, lock both sides, complete with the real secret.
func TestSwapHappyPath(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)

	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	s, _ := e.Get(res.SwapID)
	require.Equal(t, StatusSourceLocked, s.Status)

	require.NoError(t, e.LockTarget(res.SwapID, "0xBBB"))
	s, _ = e.Get(res.SwapID)
	require.Equal(t, StatusBothLocked, s.Status)

	done, err := e.Complete(res.SwapID, res.Secret)
	require.NoError(t, err)
	require.GreaterOrEqual(t, done.Duration, time.Duration(0))
	require.Equal(t, "0xAAA", done.SourceTxHash)
	require.Equal(t, "0xBBB", done.TargetTxHash)

	s, _ = e.Get(res.SwapID)
	require.Equal(t, StatusCompleted, s.Status)
	require.Equal(t, res.Secret, s.RevealedSecret)
	// Invariant: SHA-256(revealed) == hashlock at COMPLETED.
	sum := sha256.Sum256([]byte(s.RevealedSecret))
	require.Equal(t, s.Hashlock, hex.EncodeToString(sum[:]))
}

func TestLockOrderEnforced(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)

	// Target before source is rejected.
	require.ErrorIs(t, e.LockTarget(res.SwapID, "0xBBB"), ErrPreconditionFailed)

	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	// Double source lock is rejected.
	require.ErrorIs(t, e.LockSource(res.SwapID, "0xAAA"), ErrPreconditionFailed)

	// Complete before both locks is rejected.
	_, err := e.Complete(res.SwapID, res.Secret)
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestConcurrentLocksOneWinner(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))

	// Two racing target locks: exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = e.LockTarget(res.SwapID, "0xBBB")
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, ErrPreconditionFailed)
			failures++
		}
	}
	require.Equal(t, 1, failures)
}

// Fraud: wrong secret on complete flips to FRAUD_DETECTED and stores a
// verifiable proof.
func TestFraudDetection(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	require.NoError(t, e.LockTarget(res.SwapID, "0xBBB"))

	_, err := e.Complete(res.SwapID, "deadbeef")
	require.ErrorIs(t, err, ErrInvalidSecret)

	s, _ := e.Get(res.SwapID)
	require.Equal(t, StatusFraudDetected, s.Status)

	proof, err := e.Proof(res.SwapID)
	require.NoError(t, err)
	require.Equal(t, CalculateProofHash(&s, proof.Evidence), proof.ProofHash)
	require.Equal(t, "deadbeef", proof.Evidence)

	ok, err := e.VerifyFraudProof(res.SwapID, proof)
	require.NoError(t, err)
	require.True(t, ok)

	// Tampered proof fails verification.
	proof.Evidence = "something else"
	ok, err = e.VerifyFraudProof(res.SwapID, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTimeoutRefund(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	e := newTestEngine(WithTimeout(time.Hour), WithClock(func() time.Time { return clock() }))

	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))

	// Before expiry: refund rejected.
	_, err := e.Refund(res.SwapID, "changed my mind")
	require.ErrorIs(t, err, ErrNotExpired)

	// Advance past expiry.
	clock = func() time.Time { return now.Add(2 * time.Hour) }

	receipt, err := e.Refund(res.SwapID, "timeout")
	require.NoError(t, err)
	require.Equal(t, res.SwapID, receipt.SwapID)

	s, _ := e.Get(res.SwapID)
	require.Equal(t, StatusRefunded, s.Status)

	// Completing after refund fails even with the correct secret.
	_, err = e.Complete(res.SwapID, res.Secret)
	require.ErrorIs(t, err, ErrPreconditionFailed)

	// Double refund rejected.
	_, err = e.Refund(res.SwapID, "again")
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestExpiredLockTransitionsToExpired(t *testing.T) {
	now := time.Now()
	clock := now
	e := newTestEngine(WithTimeout(time.Hour), WithClock(func() time.Time { return clock }))

	res := initiate(t, e)
	clock = now.Add(2 * time.Hour)

	require.ErrorIs(t, e.LockSource(res.SwapID, "0xAAA"), ErrSwapExpired)
	s, _ := e.Get(res.SwapID)
	require.Equal(t, StatusExpired, s.Status)

	// Expired swaps refund.
	_, err := e.Refund(res.SwapID, "expired")
	require.NoError(t, err)
}

func TestCompletedSwapCannotRefund(t *testing.T) {
	now := time.Now()
	clock := now
	e := newTestEngine(WithTimeout(time.Hour), WithClock(func() time.Time { return clock }))

	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	require.NoError(t, e.LockTarget(res.SwapID, "0xBBB"))
	_, err := e.Complete(res.SwapID, res.Secret)
	require.NoError(t, err)

	clock = now.Add(2 * time.Hour)
	_, err = e.Refund(res.SwapID, "too late")
	require.ErrorIs(t, err, ErrPreconditionFailed)
}

// Terminal statuses stay absorbing past expiry: a refunded or
// fraud-detected swap never drifts to EXPIRED.
func TestTerminalStatusesAbsorbExpiry(t *testing.T) {
	now := time.Now()
	clock := now
	e := newTestEngine(WithTimeout(time.Hour), WithClock(func() time.Time { return clock }))

	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	require.NoError(t, e.LockTarget(res.SwapID, "0xBBB"))
	_, err := e.Complete(res.SwapID, "deadbeef")
	require.ErrorIs(t, err, ErrInvalidSecret)

	clock = now.Add(2 * time.Hour)

	_, err = e.Complete(res.SwapID, res.Secret)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	require.ErrorIs(t, e.LockSource(res.SwapID, "0xCCC"), ErrPreconditionFailed)

	s, _ := e.Get(res.SwapID)
	require.Equal(t, StatusFraudDetected, s.Status)

	// Fraud verdicts refund after expiry; the proof survives.
	_, err = e.Refund(res.SwapID, "fraud")
	require.NoError(t, err)
	_, err = e.Complete(res.SwapID, res.Secret)
	require.ErrorIs(t, err, ErrPreconditionFailed)
	s, _ = e.Get(res.SwapID)
	require.Equal(t, StatusRefunded, s.Status)
}

// Roundtrip property: the hashlock matches only its own secret.
func TestHashlockRoundtrip(t *testing.T) {
	e := newTestEngine()
	a := initiate(t, e)
	b := initiate(t, e)

	require.Equal(t, a.Hashlock, Hashlock(a.Secret))
	require.NotEqual(t, a.Hashlock, Hashlock(b.Secret))
	require.NotEqual(t, a.Secret, b.Secret)
}

func TestGetUnknownSwap(t *testing.T) {
	e := newTestEngine()
	_, err := e.Get("missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, e.LockSource("missing", "0x1"), ErrNotFound)
}

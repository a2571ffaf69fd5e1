// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"crypto/ecdsa"
	"fmt"
	"testing"

	log "github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

type testValidator struct {
	id  string
	key *ecdsa.PrivateKey
}

func newTestSet(t *testing.T, n int) (*ValidatorSet, []testValidator) {
	t.Helper()
	set := NewValidatorSet()
	vals := make([]testValidator, 0, n)
	for i := 0; i < n; i++ {
		key, err := GenerateKey()
		require.NoError(t, err)
		id := fmt.Sprintf("validator-%d", i)
		require.NoError(t, set.Register(id, CompressPubkey(&key.PublicKey)))
		vals = append(vals, testValidator{id: id, key: key})
	}
	return set, vals
}

func testSignable() Signable {
	return Signable{
		TransferID:  "transfer-1",
		SourceChain: "ethereum",
		TargetChain: "polygon",
		SourceAddr:  "0xaaa",
		TargetAddr:  "0xbbb",
		TokenSymbol: "USDC",
		Amount:      amount.MustParse("100"),
		Nonce:       7,
	}
}

func TestSignablePayloadCanonicalForm(t *testing.T) {
	payload := testSignable().Payload()
	require.Equal(t,
		"transfer-1|ethereum|polygon|0xaaa|0xbbb|USDC|100|7",
		string(payload))
}

func TestThresholdFormula(t *testing.T) {
	set := NewValidatorSet()
	require.Equal(t, 1, set.Threshold()) // empty set floors at 1

	for i, want := range map[int]int{1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 4, 9: 6, 10: 7} {
		s := NewValidatorSet()
		for j := 0; j < i; j++ {
			key, err := GenerateKey()
			require.NoError(t, err)
			require.NoError(t, s.Register(fmt.Sprintf("v%d", j), CompressPubkey(&key.PublicKey)))
		}
		require.Equal(t, want, s.Threshold(), "n=%d", i)
	}
}

func TestThresholdTracksSetAtNextOpen(t *testing.T) {
	set, vals := newTestSet(t, 3)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	first, err := collector.Open("v-1", testSignable(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, first.Required)

	// Deactivating a validator changes the threshold for the NEXT open
	// only; the open collection keeps its sampled requirement.
	require.NoError(t, set.SetActive(vals[2].id, false))
	second, err := collector.Open("v-2", testSignable(), 0)
	require.NoError(t, err)
	require.Equal(t, 2, second.Required)

	st, err := collector.Status("v-1")
	require.NoError(t, err)
	require.Equal(t, 2, st.Required)
}

func TestAddSignatureThresholdCrossing(t *testing.T) {
	set, vals := newTestSet(t, 3)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	signable := testSignable()
	_, err := collector.Open("v-1", signable, 0)
	require.NoError(t, err)

	digest := signable.Digest()

	sig0, err := SignDigest(digest, vals[0].key)
	require.NoError(t, err)
	res, err := collector.AddSignature("v-1", vals[0].id, sig0)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.False(t, res.ThresholdReached)

	sig1, err := SignDigest(digest, vals[1].key)
	require.NoError(t, err)
	res, err = collector.AddSignature("v-1", vals[1].id, sig1)
	require.NoError(t, err)
	require.Equal(t, 2, res.Count)
	require.True(t, res.ThresholdReached)

	// A later signature is accepted but does not re-report the crossing.
	sig2, err := SignDigest(digest, vals[2].key)
	require.NoError(t, err)
	res, err = collector.AddSignature("v-1", vals[2].id, sig2)
	require.NoError(t, err)
	require.Equal(t, 3, res.Count)
	require.False(t, res.ThresholdReached)

	st, err := collector.Status("v-1")
	require.NoError(t, err)
	require.True(t, st.Complete)
	require.False(t, st.CompletedAt.IsZero())
}

func TestDuplicateValidatorDoesNotIncrement(t *testing.T) {
	set, vals := newTestSet(t, 3)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	signable := testSignable()
	_, err := collector.Open("v-1", signable, 0)
	require.NoError(t, err)

	sig, err := SignDigest(signable.Digest(), vals[0].key)
	require.NoError(t, err)

	res, err := collector.AddSignature("v-1", vals[0].id, sig)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)

	res, err = collector.AddSignature("v-1", vals[0].id, sig)
	require.NoError(t, err)
	require.Equal(t, 1, res.Count)
	require.False(t, res.ThresholdReached)
}

func TestRejectsBadSignatureAndUnknownValidator(t *testing.T) {
	set, vals := newTestSet(t, 3)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	signable := testSignable()
	_, err := collector.Open("v-1", signable, 0)
	require.NoError(t, err)

	// Signature over a different payload fails verification.
	other := signable
	other.Amount = amount.MustParse("999")
	badSig, err := SignDigest(other.Digest(), vals[0].key)
	require.NoError(t, err)
	_, err = collector.AddSignature("v-1", vals[0].id, badSig)
	require.ErrorIs(t, err, ErrInvalidSignature)

	// Unknown validator.
	_, err = collector.AddSignature("v-1", "stranger", badSig)
	require.ErrorIs(t, err, ErrInvalidValidator)

	// Inactive validator.
	require.NoError(t, set.SetActive(vals[1].id, false))
	sig, err := SignDigest(signable.Digest(), vals[1].key)
	require.NoError(t, err)
	_, err = collector.AddSignature("v-1", vals[1].id, sig)
	require.ErrorIs(t, err, ErrInvalidValidator)

	// Unknown collection.
	_, err = collector.AddSignature("missing", vals[0].id, sig)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestExplicitRequiredOverride(t *testing.T) {
	set, vals := newTestSet(t, 5)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	signable := testSignable()
	col, err := collector.Open("v-1", signable, 5)
	require.NoError(t, err)
	require.Equal(t, 5, col.Required)

	digest := signable.Digest()
	for i, v := range vals {
		sig, err := SignDigest(digest, v.key)
		require.NoError(t, err)
		res, err := collector.AddSignature("v-1", v.id, sig)
		require.NoError(t, err)
		require.Equal(t, i == len(vals)-1, res.ThresholdReached)
	}
}

func TestOpenDuplicateRejected(t *testing.T) {
	set, _ := newTestSet(t, 3)
	collector := NewCollector(set, nil, log.NewTestLogger(log.InfoLevel))

	_, err := collector.Open("v-1", testSignable(), 0)
	require.NoError(t, err)
	_, err = collector.Open("v-1", testSignable(), 0)
	require.ErrorIs(t, err, ErrExists)
}

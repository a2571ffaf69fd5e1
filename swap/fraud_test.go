// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProofHashDeterministic(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)
	s, err := e.Get(res.SwapID)
	require.NoError(t, err)

	first := CalculateProofHash(&s, "evidence")
	require.Equal(t, first, CalculateProofHash(&s, "evidence"))
	require.NotEqual(t, first, CalculateProofHash(&s, "other"))

	// Any field change perturbs the digest.
	mutated := s
	mutated.TargetChain = "bsc"
	require.NotEqual(t, first, CalculateProofHash(&mutated, "evidence"))
}

func TestGenerateFraudProofRequiresFraudState(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)

	_, err := e.GenerateFraudProof(res.SwapID)
	require.ErrorIs(t, err, ErrPreconditionFailed)

	_, err = e.GenerateFraudProof("missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = e.Proof(res.SwapID)
	require.ErrorIs(t, err, ErrNoProof)
}

func TestGenerateFraudProofIsStable(t *testing.T) {
	e := newTestEngine()
	res := initiate(t, e)
	require.NoError(t, e.LockSource(res.SwapID, "0xAAA"))
	require.NoError(t, e.LockTarget(res.SwapID, "0xBBB"))
	_, err := e.Complete(res.SwapID, "ffff")
	require.ErrorIs(t, err, ErrInvalidSecret)

	p1, err := e.GenerateFraudProof(res.SwapID)
	require.NoError(t, err)
	p2, err := e.GenerateFraudProof(res.SwapID)
	require.NoError(t, err)
	require.Equal(t, p1, p2) // proofs are immutable once generated

	mismatched := p1
	mismatched.SwapID = "someone-else"
	ok, err := e.VerifyFraudProof(res.SwapID, mismatched)
	require.NoError(t, err)
	require.False(t, ok)
}

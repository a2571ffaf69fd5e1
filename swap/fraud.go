// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

// CalculateProofHash computes the canonical fraud-proof digest: SHA-256
// over swap_id ++ source_chain ++ target_chain ++ amount_plain ++
// hashlock ++ evidence, lowercase hex. The evidence text is embedded
// verbatim so two stores can never disagree about what was proven.
func CalculateProofHash(s *AtomicSwap, evidence string) string {
	h := sha256.New()
	h.Write([]byte(s.ID))
	h.Write([]byte(s.SourceChain))
	h.Write([]byte(s.TargetChain))
	h.Write([]byte(amount.Format(s.Amount)))
	h.Write([]byte(s.Hashlock))
	h.Write([]byte(evidence))
	return hex.EncodeToString(h.Sum(nil))
}

// buildProofLocked constructs a proof for s. Caller holds e.mu.
func (e *Engine) buildProofLocked(s *AtomicSwap, reason, evidence string) *FraudProof {
	return &FraudProof{
		ProofID:     uuid.NewString(),
		SwapID:      s.ID,
		ProofHash:   CalculateProofHash(s, evidence),
		Reason:      reason,
		Evidence:    evidence,
		GeneratedAt: e.nowFn(),
	}
}

// GenerateFraudProof returns the proof for a swap, creating one if the
// swap is in FRAUD_DETECTED without a stored proof. Proofs are immutable
// once generated.
func (e *Engine) GenerateFraudProof(id string) (FraudProof, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.swaps[id]
	if !ok {
		return FraudProof{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if proof, ok := e.proofs[id]; ok {
		return *proof, nil
	}
	if s.Status != StatusFraudDetected {
		return FraudProof{}, fmt.Errorf("%w: swap %s is %s", ErrPreconditionFailed, id, s.Status)
	}
	proof := e.buildProofLocked(s, "fraud proof requested", "")
	e.proofs[id] = proof
	return *proof, nil
}

// VerifyFraudProof recomputes the digest over the swap and the proof's
// embedded evidence and compares it to the proof hash.
func (e *Engine) VerifyFraudProof(id string, proof FraudProof) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.swaps[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if proof.SwapID != id {
		return false, nil
	}
	return CalculateProofHash(s, proof.Evidence) == proof.ProofHash, nil
}

// Proof returns the stored proof for a swap, if any.
func (e *Engine) Proof(id string) (FraudProof, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proof, ok := e.proofs[id]
	if !ok {
		return FraudProof{}, fmt.Errorf("%w: %s", ErrNoProof, id)
	}
	return *proof, nil
}

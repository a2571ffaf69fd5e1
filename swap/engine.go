// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package swap implements the hash-time-locked atomic swap engine: the
// trust-minimized settlement path next to the orchestrated bridge. Funds
// unlock on preimage reveal or refund after expiry; a failed reveal
// produces a fraud proof.
package swap

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/luxfi/log"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

// Engine owns every atomic swap and its secret.
type Engine struct {
	log     log.Logger
	timeout time.Duration
	nowFn   func() time.Time

	mu      sync.Mutex
	swaps   map[string]*AtomicSwap
	secrets map[string]string // swap id -> lowercase hex secret
	proofs  map[string]*FraudProof
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithTimeout overrides the default 24h swap expiry window.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithClock injects the time source. Tests use this to cross expiries
// without sleeping.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.nowFn = now }
}

// NewEngine creates an empty swap engine.
func NewEngine(logger log.Logger, opts ...Option) *Engine {
	e := &Engine{
		log:     logger,
		timeout: 24 * time.Hour,
		nowFn:   time.Now,
		swaps:   make(map[string]*AtomicSwap),
		secrets: make(map[string]string),
		proofs:  make(map[string]*FraudProof),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Hashlock computes the lowercase hex SHA-256 over the ASCII hex secret.
// The hash is over the hex text, not the raw bytes; counterparty HTLC
// contracts depend on this exact encoding.
func Hashlock(secretHex string) string {
	sum := sha256.Sum256([]byte(secretHex))
	return hex.EncodeToString(sum[:])
}

// Initiate creates a swap: generates the 32-byte secret, derives the
// hashlock, and stores the swap as INITIATED.
func (e *Engine) Initiate(sourceChain, targetChain, sourceAddr, targetAddr string, amt *big.Rat, token string) (InitiateResult, error) {
	if sourceChain == "" || targetChain == "" || sourceChain == targetChain {
		return InitiateResult{}, fmt.Errorf("%w: source and target chains must differ", ErrInvalidRequest)
	}
	if sourceAddr == "" || targetAddr == "" {
		return InitiateResult{}, fmt.Errorf("%w: addresses must not be empty", ErrInvalidRequest)
	}
	if !amount.IsPositive(amt) {
		return InitiateResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidRequest)
	}

	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return InitiateResult{}, fmt.Errorf("swap: secret generation: %w", err)
	}
	secret := hex.EncodeToString(raw[:])
	hashlock := Hashlock(secret)

	now := e.nowFn()
	s := &AtomicSwap{
		ID:          uuid.NewString(),
		SourceChain: sourceChain,
		TargetChain: targetChain,
		SourceAddr:  sourceAddr,
		TargetAddr:  targetAddr,
		Amount:      new(big.Rat).Set(amt),
		TokenSymbol: token,
		Hashlock:    hashlock,
		Status:      StatusInitiated,
		InitiatedAt: now,
		ExpiresAt:   now.Add(e.timeout),
	}

	e.mu.Lock()
	e.swaps[s.ID] = s
	e.secrets[s.ID] = secret
	e.mu.Unlock()

	if e.log != nil {
		e.log.Info("swap initiated", "swap", s.ID,
			"source", sourceChain, "target", targetChain, "expires", s.ExpiresAt)
	}
	return InitiateResult{SwapID: s.ID, Hashlock: hashlock, Secret: secret, ExpiresAt: s.ExpiresAt}, nil
}

// Get returns a copy of the swap. The secret is never included.
func (e *Engine) Get(id string) (AtomicSwap, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.swaps[id]
	if !ok {
		return AtomicSwap{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *s, nil
}

// LockSource records the source-chain lock transaction:
// INITIATED -> SOURCE_LOCKED.
func (e *Engine) LockSource(id, sourceTxHash string) error {
	return e.lock(id, StatusInitiated, StatusSourceLocked, func(s *AtomicSwap) {
		s.SourceTxHash = sourceTxHash
	})
}

// LockTarget records the target-chain lock transaction:
// SOURCE_LOCKED -> BOTH_LOCKED.
func (e *Engine) LockTarget(id, targetTxHash string) error {
	return e.lock(id, StatusSourceLocked, StatusBothLocked, func(s *AtomicSwap) {
		s.TargetTxHash = targetTxHash
	})
}

// live reports whether a swap can still make lock/complete progress.
// Expiry only preempts live swaps; every other status is absorbing.
func live(st Status) bool {
	switch st {
	case StatusInitiated, StatusSourceLocked, StatusBothLocked:
		return true
	}
	return false
}

func (e *Engine) lock(id string, from, to Status, apply func(*AtomicSwap)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.swaps[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if live(s.Status) && e.nowFn().After(s.ExpiresAt) {
		s.Status = StatusExpired
		return fmt.Errorf("%w: %s", ErrSwapExpired, id)
	}
	// Concurrent lock calls race here; only the one matching the expected
	// state wins.
	if s.Status != from {
		return fmt.Errorf("%w: %s is %s, want %s", ErrPreconditionFailed, id, s.Status, from)
	}
	s.Status = to
	apply(s)
	return nil
}

// Complete verifies the revealed secret against the hashlock and settles
// the swap. A mismatched reveal is treated as a fraud attempt: the swap
// moves to FRAUD_DETECTED and a proof is generated.
func (e *Engine) Complete(id, revealedSecretHex string) (CompleteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.swaps[id]
	if !ok {
		return CompleteResult{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if live(s.Status) && e.nowFn().After(s.ExpiresAt) {
		s.Status = StatusExpired
		return CompleteResult{}, fmt.Errorf("%w: %s", ErrSwapExpired, id)
	}
	if s.Status != StatusBothLocked {
		return CompleteResult{}, fmt.Errorf("%w: %s is %s, want %s", ErrPreconditionFailed, id, s.Status, StatusBothLocked)
	}

	if Hashlock(revealedSecretHex) != s.Hashlock {
		s.Status = StatusFraudDetected
		proof := e.buildProofLocked(s, "invalid secret revealed on complete", revealedSecretHex)
		e.proofs[s.ID] = proof
		if e.log != nil {
			e.log.Warn("fraud detected on swap completion", "swap", s.ID, "proof", proof.ProofID)
		}
		return CompleteResult{}, fmt.Errorf("%w: swap %s", ErrInvalidSecret, id)
	}

	s.Status = StatusCompleted
	s.RevealedSecret = revealedSecretHex
	return CompleteResult{
		Duration:     e.nowFn().Sub(s.InitiatedAt),
		SourceTxHash: s.SourceTxHash,
		TargetTxHash: s.TargetTxHash,
	}, nil
}

// Refund releases a swap after expiry. Only non-completed swaps past
// their expiry refund; everything else is rejected.
func (e *Engine) Refund(id, reason string) (RefundReceipt, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.swaps[id]
	if !ok {
		return RefundReceipt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	now := e.nowFn()
	if s.Status == StatusCompleted {
		return RefundReceipt{}, fmt.Errorf("%w: %s already completed", ErrPreconditionFailed, id)
	}
	if s.Status == StatusRefunded {
		return RefundReceipt{}, fmt.Errorf("%w: %s already refunded", ErrPreconditionFailed, id)
	}
	if !now.After(s.ExpiresAt) {
		return RefundReceipt{}, fmt.Errorf("%w: %s expires at %s", ErrNotExpired, id, s.ExpiresAt)
	}

	s.Status = StatusRefunded
	if e.log != nil {
		e.log.Info("swap refunded", "swap", s.ID, "reason", reason)
	}
	return RefundReceipt{SwapID: s.ID, Reason: reason, RefundedAt: now}, nil
}

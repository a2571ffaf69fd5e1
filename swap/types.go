// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package swap

import (
	"errors"
	"math/big"
	"time"
)

// Status is the HTLC swap lifecycle.
type Status string

const (
	StatusInitiated     Status = "INITIATED"
	StatusSourceLocked  Status = "SOURCE_LOCKED"
	StatusBothLocked    Status = "BOTH_LOCKED"
	StatusCompleted     Status = "COMPLETED"
	StatusExpired       Status = "EXPIRED"
	StatusRefunded      Status = "REFUNDED"
	StatusFraudDetected Status = "FRAUD_DETECTED"
)

// AtomicSwap is one hash-time-locked swap. The secret itself never
// appears here; it lives in the engine's private table until revealed.
type AtomicSwap struct {
	ID             string    `json:"id"`
	SourceChain    string    `json:"source_chain"`
	TargetChain    string    `json:"target_chain"`
	SourceAddr     string    `json:"source_addr"`
	TargetAddr     string    `json:"target_addr"`
	Amount         *big.Rat  `json:"amount"`
	TokenSymbol    string    `json:"token_symbol"`
	Hashlock       string    `json:"hashlock"` // lowercase hex SHA-256
	Status         Status    `json:"status"`
	InitiatedAt    time.Time `json:"initiated_at"`
	ExpiresAt      time.Time `json:"expires_at"`
	SourceTxHash   string    `json:"source_tx_hash,omitempty"`
	TargetTxHash   string    `json:"target_tx_hash,omitempty"`
	RevealedSecret string    `json:"revealed_secret,omitempty"`
}

// InitiateResult is returned by Initiate. Secret is handed to the caller
// exactly once, here; the engine never exposes it again.
type InitiateResult struct {
	SwapID    string
	Hashlock  string
	Secret    string
	ExpiresAt time.Time
}

// CompleteResult is returned by Complete.
type CompleteResult struct {
	Duration     time.Duration
	SourceTxHash string
	TargetTxHash string
}

// RefundReceipt is returned by Refund.
type RefundReceipt struct {
	SwapID     string
	Reason     string
	RefundedAt time.Time
}

// FraudProof is the immutable evidence record for a failed reveal.
type FraudProof struct {
	ProofID     string    `json:"proof_id"`
	SwapID      string    `json:"swap_id"`
	ProofHash   string    `json:"proof_hash"` // lowercase hex SHA-256
	Reason      string    `json:"reason"`
	Evidence    string    `json:"evidence,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

var (
	ErrNotFound           = errors.New("swap: not found")
	ErrInvalidRequest     = errors.New("swap: invalid request")
	ErrPreconditionFailed = errors.New("swap: state machine rejects transition")
	ErrSwapExpired        = errors.New("swap: expired")
	ErrNotExpired         = errors.New("swap: not yet expired")
	ErrInvalidSecret      = errors.New("swap: revealed secret does not match hashlock")
	ErrNoProof            = errors.New("swap: no fraud proof recorded")
)

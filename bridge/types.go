// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package bridge

import (
	"errors"
	"math/big"
	"time"
)

// Status is the orchestrated transfer lifecycle. COMPLETED, FAILED and
// REFUNDED are terminal except FAILED -> PENDING on retry and
// FAILED -> REFUNDED after retries are exhausted.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirming Status = "CONFIRMING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
)

// Transfer type, recorded for reconciliation.
type Type string

const (
	TypeLockAndMint    Type = "LOCK_AND_MINT"
	TypeBurnAndRelease Type = "BURN_AND_RELEASE"
)

// Transfer is one orchestrated bridge transfer.
type Transfer struct {
	ID            string    `json:"id"`
	SourceChain   string    `json:"source_chain"`
	TargetChain   string    `json:"target_chain"`
	SourceAddr    string    `json:"source_addr"`
	TargetAddr    string    `json:"target_addr"`
	TokenSymbol   string    `json:"token_symbol"`
	Amount        *big.Rat  `json:"amount"`
	Fee           *big.Rat  `json:"fee"`
	Status        Status    `json:"status"`
	Type          Type      `json:"type"`
	Nonce         uint64    `json:"nonce"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
	Deadline      time.Time `json:"deadline"`
	SourceTxHash  string    `json:"source_tx_hash,omitempty"`
	TargetTxHash  string    `json:"target_tx_hash,omitempty"`
	Retries       int       `json:"retries"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// Request is the caller's view of InitiateBridge.
type Request struct {
	SourceChain string
	TargetChain string
	SourceAddr  string
	TargetAddr  string
	TokenSymbol string
	Amount      *big.Rat
}

// FeeQuote is returned by EstimateFee. BridgeFee is the protocol's cut,
// NetworkFee the target chain's quoted gas cost in its native currency.
// HighSlippage is set when the estimate crosses the warning threshold.
type FeeQuote struct {
	BridgeFee       *big.Rat
	NetworkFee      *big.Rat
	Total           *big.Rat
	SlippagePercent *big.Rat
	HighSlippage    bool
}

// RefundReceipt is returned by RefundTransfer.
type RefundReceipt struct {
	TransferID string
	Reason     string
	RefundedAt time.Time
}

// Statistics is the aggregate view over all transfers.
type Statistics struct {
	Total                int
	Pending              int
	Successful           int
	Failed               int
	Refunded             int
	Volume               *big.Rat // sum of completed amounts
	SuccessRate          float64  // successful / total
	AvgCompletionSeconds float64
}

var (
	ErrInvalidRequest     = errors.New("bridge: invalid request")
	ErrUnsupportedChain   = errors.New("bridge: chain not supported")
	ErrLimitExceeded      = errors.New("bridge: amount exceeds chain limit")
	ErrRateLimited        = errors.New("bridge: rate limit exceeded")
	ErrNotFound           = errors.New("bridge: transfer not found")
	ErrPreconditionFailed = errors.New("bridge: state machine rejects transition")
)

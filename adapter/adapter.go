// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package adapter defines the uniform contract every chain integration
// must satisfy. The orchestrator and swap engine consume only this
// contract; per-chain RPC encoding lives behind it.
//
// Contract guarantees:
//   - All blocking methods take a context and respect cancellation.
//   - Errors are classified transient or terminal via IsTransient.
//   - Implementations are safe for concurrent use.
package adapter

import (
	"context"
	"errors"
	"math/big"
	"time"
)

// ChainAdapter is the uniform capability set for one blockchain.
type ChainAdapter interface {
	// ChainID returns the registry key for this chain ("ethereum", "bsc", ...).
	ChainID() string

	// Info describes the chain's static parameters.
	Info() ChainInfo

	// Initialize prepares the adapter. Idempotent.
	Initialize(ctx context.Context, cfg Config) error

	// CheckConnection probes node health.
	CheckConnection(ctx context.Context) (ConnectionStatus, error)

	// SendTransaction submits a transaction and returns its receipt.
	SendTransaction(ctx context.Context, tx TxRequest) (TxReceipt, error)

	// TransactionStatus looks up a previously submitted transaction.
	TransactionStatus(ctx context.Context, hash string) (StatusResult, error)

	// WaitForConfirmation blocks until the transaction has the required
	// confirmations or the timeout elapses. On timeout it returns
	// Confirmed=false, TimedOut=true and no error.
	WaitForConfirmation(ctx context.Context, hash string, required int, timeout time.Duration) (ConfirmationResult, error)

	// Balance returns the balance of address for asset; empty asset means
	// the native currency.
	Balance(ctx context.Context, address, asset string) (*big.Rat, error)

	// EstimateFee quotes the network fee for tx.
	EstimateFee(ctx context.Context, tx TxRequest) (FeeEstimate, error)

	// ValidateAddress checks address syntax for this chain. Invalid input
	// is reported in the result, not as an error.
	ValidateAddress(address string) AddressCheck

	// SubscribeEvents streams chain events matching filter. The channel is
	// closed on Shutdown or context cancellation.
	SubscribeEvents(ctx context.Context, filter EventFilter) (<-chan Event, error)

	// Shutdown releases connections acquired by Initialize.
	Shutdown(ctx context.Context) error
}

// Config carries per-adapter settings, mirroring the recognized
// adapter.<chain>.* property keys.
type Config struct {
	RPCURL             string
	WebsocketURL       string
	ChainID            string
	ConfirmationBlocks int // 0 means use the adapter's advertised default
	MaxRetries         int
	Timeout            time.Duration
}

// ChainInfo describes a chain's static parameters.
type ChainInfo struct {
	ChainID            string
	Name               string
	NativeCurrency     string
	Decimals           uint8
	BlockTime          time.Duration
	Consensus          string
	ConfirmationBlocks int
	DynamicFees        bool
	Extra              map[string]string
}

// ConnectionStatus reports node health.
type ConnectionStatus struct {
	Connected     bool
	Latency       time.Duration
	NodeVersion   string
	Synced        bool
	SyncedHeight  uint64
	NetworkHeight uint64
	Err           string
}

// TxRequest is a chain-agnostic transaction to submit.
type TxRequest struct {
	From   string
	To     string
	Asset  string // token symbol, empty for native
	Amount *big.Rat
	Memo   string
	Data   []byte
}

// TxStatus is the lifecycle of a submitted transaction.
type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxConfirmed TxStatus = "CONFIRMED"
	TxFinalized TxStatus = "FINALIZED"
	TxFailed    TxStatus = "FAILED"
	TxDropped   TxStatus = "DROPPED"
	TxReplaced  TxStatus = "REPLACED"
)

// TxReceipt is returned by SendTransaction.
type TxReceipt struct {
	Hash        string
	Status      TxStatus
	BlockNumber uint64
	Fee         *big.Rat
}

// StatusResult is returned by TransactionStatus.
type StatusResult struct {
	Status        TxStatus
	Confirmations int
	BlockNumber   uint64
	Success       bool
	Err           string
}

// ConfirmationResult is returned by WaitForConfirmation.
type ConfirmationResult struct {
	Confirmed     bool
	Confirmations int
	TimedOut      bool
}

// FeeEstimate quotes network cost for a transaction.
type FeeEstimate struct {
	Gas      uint64
	GasPrice *big.Rat // native units per gas
	Total    *big.Rat
	Speed    string
}

// AddressCheck is the result of ValidateAddress.
type AddressCheck struct {
	Valid      bool
	Format     string
	Normalized string
	Reason     string
}

// EventFilter selects events for SubscribeEvents.
type EventFilter struct {
	Addresses []string
	Types     []string
}

// Event is a chain event delivered to subscribers.
type Event struct {
	ChainID     string
	Type        string
	TxHash      string
	BlockNumber uint64
	Address     string
	Payload     []byte
	Timestamp   time.Time
}

// Transient adapter failures; everything else is terminal for the caller.
var (
	ErrTimeout     = errors.New("adapter: request timed out")
	ErrConnection  = errors.New("adapter: connection failed")
	ErrNonceTooLow = errors.New("adapter: nonce too low")
	ErrTemporary   = errors.New("adapter: temporary failure")

	ErrInvalidAddress    = errors.New("adapter: invalid address")
	ErrInsufficientFunds = errors.New("adapter: insufficient funds")
	ErrNotInitialized    = errors.New("adapter: not initialized")
)

// IsTransient reports whether err is worth retrying with backoff.
// Context deadline expiry counts as transient: the orchestrator decides
// whether its overall budget allows another attempt.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnection) ||
		errors.Is(err, ErrNonceTooLow) ||
		errors.Is(err, ErrTemporary) ||
		errors.Is(err, context.DeadlineExceeded)
}

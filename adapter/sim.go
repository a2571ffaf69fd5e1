// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/big"
	"math/rand"
	"sync"
	"time"

	"github.com/holiman/uint256"
	luxcrypto "github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
)

// Sim is the in-process chain adapter used for development and tests. It
// satisfies the full ChainAdapter contract: transactions confirm as
// simulated block time elapses, fees are quoted from a per-chain gas price,
// and failures can be injected to exercise the orchestrator's retry paths.
type Sim struct {
	info     ChainInfo
	validate func(string) AddressCheck
	log      log.Logger

	delayMin time.Duration
	delayMax time.Duration

	mu          sync.Mutex
	initialized bool
	cfg         Config
	seq         uint64
	txs         map[string]*simTx
	balances    map[string]map[string]*big.Rat
	failQueue   []error
	subs        []chan Event
	closed      bool
}

type simTx struct {
	receipt     TxReceipt
	submittedAt time.Time
}

// NewSim builds a simulated adapter for a known chain id.
func NewSim(chainID string, logger log.Logger) (*Sim, error) {
	info, ok := chainTable[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotRegistered, chainID)
	}
	return &Sim{
		info:     info,
		validate: validatorFor(chainID),
		log:      logger,
		delayMin: 100 * time.Millisecond,
		delayMax: 500 * time.Millisecond,
		txs:      make(map[string]*simTx),
		balances: make(map[string]map[string]*big.Rat),
	}, nil
}

// SetBlockTime overrides the simulated block interval. Tests use this to
// make confirmation depths reachable in milliseconds.
func (s *Sim) SetBlockTime(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info.BlockTime = d
}

// SetProcessingDelay overrides the simulated send latency window.
func (s *Sim) SetProcessingDelay(min, max time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delayMin, s.delayMax = min, max
}

// FailNext queues an error to be returned by the next SendTransaction.
// Queued failures drain in FIFO order.
func (s *Sim) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failQueue = append(s.failQueue, err)
}

// SetBalance seeds a balance for tests.
func (s *Sim) SetBalance(address, asset string, bal *big.Rat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.balances[address] == nil {
		s.balances[address] = make(map[string]*big.Rat)
	}
	s.balances[address][asset] = bal
}

func (s *Sim) ChainID() string { return s.info.ChainID }

func (s *Sim) Info() ChainInfo { return s.info }

func (s *Sim) Initialize(_ context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	if cfg.ConfirmationBlocks > 0 {
		s.info.ConfirmationBlocks = cfg.ConfirmationBlocks
	}
	s.initialized = true
	s.closed = false
	if s.log != nil {
		s.log.Info("adapter initialized", "chain", s.info.ChainID, "confirmations", s.info.ConfirmationBlocks)
	}
	return nil
}

func (s *Sim) CheckConnection(_ context.Context) (ConnectionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ConnectionStatus{Err: ErrNotInitialized.Error()}, ErrNotInitialized
	}
	height := s.height()
	return ConnectionStatus{
		Connected:     true,
		Latency:       5 * time.Millisecond,
		NodeVersion:   "sim/1.0.0",
		Synced:        true,
		SyncedHeight:  height,
		NetworkHeight: height,
	}, nil
}

func (s *Sim) SendTransaction(ctx context.Context, tx TxRequest) (TxReceipt, error) {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return TxReceipt{}, ErrNotInitialized
	}
	if len(s.failQueue) > 0 {
		err := s.failQueue[0]
		s.failQueue = s.failQueue[1:]
		s.mu.Unlock()
		return TxReceipt{}, err
	}
	if check := s.validate(tx.To); tx.To != "" && !check.Valid {
		s.mu.Unlock()
		return TxReceipt{}, fmt.Errorf("%w: %s: %s", ErrInvalidAddress, tx.To, check.Reason)
	}
	s.seq++
	seq := s.seq
	delay := s.delayMin
	if s.delayMax > s.delayMin {
		delay += time.Duration(rand.Int63n(int64(s.delayMax - s.delayMin)))
	}
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return TxReceipt{}, ErrTimeout
	case <-time.After(delay):
	}

	fee, err := s.EstimateFee(ctx, tx)
	if err != nil {
		return TxReceipt{}, err
	}

	receipt := TxReceipt{
		Hash:        s.txHash(tx, seq),
		Status:      TxPending,
		BlockNumber: s.height(),
		Fee:         fee.Total,
	}

	s.mu.Lock()
	s.txs[receipt.Hash] = &simTx{receipt: receipt, submittedAt: time.Now()}
	s.mu.Unlock()

	s.emit(Event{
		ChainID:     s.info.ChainID,
		Type:        "transaction",
		TxHash:      receipt.Hash,
		BlockNumber: receipt.BlockNumber,
		Address:     tx.To,
		Timestamp:   time.Now(),
	})
	return receipt, nil
}

func (s *Sim) TransactionStatus(_ context.Context, hash string) (StatusResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.txs[hash]
	if !ok {
		return StatusResult{Status: TxDropped, Err: "unknown transaction"}, nil
	}
	confs := s.confirmationsOf(tx)
	status := TxPending
	if confs >= s.info.ConfirmationBlocks {
		status = TxFinalized
	} else if confs > 0 {
		status = TxConfirmed
	}
	return StatusResult{
		Status:        status,
		Confirmations: confs,
		BlockNumber:   tx.receipt.BlockNumber,
		Success:       true,
	}, nil
}

func (s *Sim) WaitForConfirmation(ctx context.Context, hash string, required int, timeout time.Duration) (ConfirmationResult, error) {
	if required <= 0 {
		required = s.info.ConfirmationBlocks
	}
	deadline := time.Now().Add(timeout)
	for {
		res, err := s.TransactionStatus(ctx, hash)
		if err != nil {
			return ConfirmationResult{}, err
		}
		if res.Confirmations >= required {
			return ConfirmationResult{Confirmed: true, Confirmations: res.Confirmations}, nil
		}
		if time.Now().After(deadline) {
			return ConfirmationResult{Confirmations: res.Confirmations, TimedOut: true}, nil
		}
		select {
		case <-ctx.Done():
			return ConfirmationResult{Confirmations: res.Confirmations, TimedOut: true}, nil
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (s *Sim) Balance(_ context.Context, address, asset string) (*big.Rat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if assets, ok := s.balances[address]; ok {
		if bal, ok := assets[asset]; ok {
			return new(big.Rat).Set(bal), nil
		}
	}
	// Unseeded accounts report a generous development balance.
	return amount.MustParse("1000000"), nil
}

func (s *Sim) EstimateFee(_ context.Context, tx TxRequest) (FeeEstimate, error) {
	gas := uint64(21000)
	if tx.Asset != "" && tx.Asset != s.info.NativeCurrency {
		gas = 65000 // token transfers cost more
	}
	// Gas price in wei-scale units of the native currency.
	gasPriceWei := uint256.NewInt(20_000_000_000) // 20 gwei
	if s.info.DynamicFees {
		gasPriceWei = uint256.NewInt(25_000_000_000)
	}
	totalWei := new(uint256.Int).Mul(gasPriceWei, uint256.NewInt(gas))

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	gasPrice := new(big.Rat).SetFrac(gasPriceWei.ToBig(), scale)
	total := new(big.Rat).SetFrac(totalWei.ToBig(), scale)
	return FeeEstimate{Gas: gas, GasPrice: gasPrice, Total: total, Speed: "standard"}, nil
}

func (s *Sim) ValidateAddress(address string) AddressCheck {
	return s.validate(address)
}

func (s *Sim) SubscribeEvents(ctx context.Context, _ EventFilter) (<-chan Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	ch := make(chan Event, 64)
	s.subs = append(s.subs, ch)
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		s.dropSub(ch)
	}()
	return ch, nil
}

func (s *Sim) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.initialized = false
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	return nil
}

// height derives a monotonically increasing simulated block height.
func (s *Sim) height() uint64 {
	return uint64(time.Now().UnixNano() / int64(s.info.BlockTime))
}

func (s *Sim) confirmationsOf(tx *simTx) int {
	elapsed := time.Since(tx.submittedAt)
	return int(elapsed / s.info.BlockTime)
}

func (s *Sim) txHash(tx TxRequest, seq uint64) string {
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	data := append([]byte(s.info.ChainID), seqBuf[:]...)
	data = append(data, tx.From...)
	data = append(data, tx.To...)
	data = append(data, amount.Format(tx.Amount)...)
	return common.BytesToHash(luxcrypto.Keccak256(data)).Hex()
}

func (s *Sim) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default: // slow subscribers drop events
		}
	}
}

func (s *Sim) dropSub(ch chan Event) {
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

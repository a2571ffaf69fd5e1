// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bridge orchestrates cross-chain transfers: admission policy,
// the transfer state machine, validator signature collection and the
// two-legged execution against the source and target chain adapters.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/luxfi/log"

	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/adapter"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/amount"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/config"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/msgqueue"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/multisig"
	"github.com/Aurigraph-DLT-Corp/aurigraph-dlt-backend-sub007/repository"
)

const (
	transferKind = "transfer"

	defaultDeadline   = 5 * time.Minute
	defaultMaxRetries = 3
	defaultRateLimit  = 100
	defaultRateWindow = time.Second

	backoffInitial = time.Second
	backoffMax     = 30 * time.Second
)

// SignFunc asks one validator to sign a payload digest. The orchestrator
// solicits all active validators in parallel through this hook; in
// production it is an RPC to the validator, in tests a local signer.
type SignFunc func(validatorID string, digest []byte) ([]byte, error)

// Orchestrator drives transfers through their lifecycle.
type Orchestrator struct {
	log        log.Logger
	cfg        config.Config
	registry   *adapter.Registry
	store      repository.Store
	queue      *msgqueue.Queue
	validators *multisig.ValidatorSet
	collector  *multisig.Collector
	signFn     SignFunc
	limiter    *rateLimiter

	deadline   time.Duration
	maxRetries int
	boInitial  time.Duration
	boMax      time.Duration
	nowFn      func() time.Time
	sleepFn    func(time.Duration)

	mu        sync.Mutex
	transfers map[string]*Transfer
	nonce     uint64

	wg sync.WaitGroup
}

// Option tweaks orchestrator construction.
type Option func(*Orchestrator)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.nowFn = now }
}

// WithDeadline overrides the per-transfer processing deadline.
func WithDeadline(d time.Duration) Option {
	return func(o *Orchestrator) { o.deadline = d }
}

// WithBackoff overrides the retry backoff window. Tests shrink it to
// keep transient-failure paths fast.
func WithBackoff(initial, max time.Duration) Option {
	return func(o *Orchestrator) { o.boInitial, o.boMax = initial, max }
}

// WithMaxRetries overrides the transient-failure retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) { o.maxRetries = n }
}

// WithRateLimit overrides the per-address admission rate limit.
func WithRateLimit(limit int, window time.Duration) Option {
	return func(o *Orchestrator) {
		o.limiter = newRateLimiter(limit, window, o.nowFn)
	}
}

// New builds an orchestrator over the given adapter registry, store,
// message queue and validator set. signFn may be nil when multi-sig is
// disabled.
func New(cfg config.Config, registry *adapter.Registry, store repository.Store,
	queue *msgqueue.Queue, validators *multisig.ValidatorSet, signFn SignFunc,
	logger log.Logger, opts ...Option) *Orchestrator {

	o := &Orchestrator{
		log:        logger,
		cfg:        cfg,
		registry:   registry,
		store:      store,
		queue:      queue,
		validators: validators,
		collector:  multisig.NewCollector(validators, nil, logger),
		signFn:     signFn,
		deadline:   defaultDeadline,
		maxRetries: defaultMaxRetries,
		boInitial:  backoffInitial,
		boMax:      backoffMax,
		nowFn:      time.Now,
		sleepFn:    time.Sleep,
		transfers:  make(map[string]*Transfer),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.limiter == nil {
		o.limiter = newRateLimiter(defaultRateLimit, defaultRateWindow, o.nowFn)
	}
	return o
}

// Wait blocks until all in-flight transfer processing has settled.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// InitiateBridge admits a transfer request, records it as PENDING and
// processes it asynchronously. Returns the transfer id.
func (o *Orchestrator) InitiateBridge(ctx context.Context, req Request) (string, error) {
	if err := validatePolicy(req); err != nil {
		return "", err
	}

	source, err := o.registry.Get(req.SourceChain)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChain, req.SourceChain)
	}
	target, err := o.registry.Get(req.TargetChain)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedChain, req.TargetChain)
	}
	if check := source.ValidateAddress(req.SourceAddr); !check.Valid {
		return "", fmt.Errorf("%w: source address: %s", ErrInvalidRequest, check.Reason)
	}
	if check := target.ValidateAddress(req.TargetAddr); !check.Valid {
		return "", fmt.Errorf("%w: target address: %s", ErrInvalidRequest, check.Reason)
	}

	if ok, wait := o.limiter.allow(req.SourceAddr); !ok {
		return "", fmt.Errorf("%w: retry in %.3fs", ErrRateLimited, wait.Seconds())
	}

	now := o.nowFn()
	transferType := TypeLockAndMint
	if req.SourceChain == adapter.ChainAurigraph {
		transferType = TypeBurnAndRelease
	}
	t := &Transfer{
		ID:          uuid.NewString(),
		SourceChain: req.SourceChain,
		TargetChain: req.TargetChain,
		SourceAddr:  req.SourceAddr,
		TargetAddr:  req.TargetAddr,
		TokenSymbol: req.TokenSymbol,
		Amount:      new(big.Rat).Set(req.Amount),
		Fee:         amount.Fee(req.Amount, bridgeFeeBps),
		Status:      StatusPending,
		Type:        transferType,
		Nonce:       o.nextNonce(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Deadline:    now.Add(o.deadline),
	}

	o.mu.Lock()
	o.transfers[t.ID] = t
	o.mu.Unlock()
	o.persist(t)

	lockMsgID := o.sendIntent(t, t.SourceChain, "lock_intent")

	if o.log != nil {
		o.log.Info("transfer admitted", "transfer", t.ID,
			"source", t.SourceChain, "target", t.TargetChain,
			"amount", amount.Format(t.Amount), "token", t.TokenSymbol)
	}

	o.wg.Add(1)
	go o.process(t.ID, lockMsgID)
	return t.ID, nil
}

// GetTransfer returns a copy of the transfer.
func (o *Orchestrator) GetTransfer(id string) (Transfer, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	t, ok := o.transfers[id]
	if !ok {
		return Transfer{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *t, nil
}

// ListTransfersForAddress returns transfers where addr is the source or
// target address, newest first.
func (o *Orchestrator) ListTransfersForAddress(addr string) []Transfer {
	o.mu.Lock()
	defer o.mu.Unlock()

	var out []Transfer
	for _, t := range o.transfers {
		if t.SourceAddr == addr || t.TargetAddr == addr {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Nonce > out[j].Nonce
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RetryTransfer re-enqueues a FAILED transfer whose retry budget is not
// exhausted. The pipeline resumes where it left off: a recorded source
// lock is not repeated.
func (o *Orchestrator) RetryTransfer(id string) error {
	o.mu.Lock()
	t, ok := o.transfers[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if t.Status != StatusFailed {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s is %s, want %s", ErrPreconditionFailed, id, t.Status, StatusFailed)
	}
	if t.Retries >= o.maxRetries {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s retry budget exhausted", ErrPreconditionFailed, id)
	}
	t.Status = StatusPending
	t.FailureReason = ""
	t.Retries++
	t.UpdatedAt = o.nowFn()
	o.mu.Unlock()
	o.persist(t)

	o.wg.Add(1)
	go o.process(id, "")
	return nil
}

// RefundTransfer releases a transfer back to its sender. Allowed for
// non-completed transfers past their deadline, or FAILED transfers whose
// retry budget is exhausted.
func (o *Orchestrator) RefundTransfer(id, reason string) (RefundReceipt, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.transfers[id]
	if !ok {
		return RefundReceipt{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if t.Status == StatusCompleted || t.Status == StatusRefunded {
		return RefundReceipt{}, fmt.Errorf("%w: %s is %s", ErrPreconditionFailed, id, t.Status)
	}
	now := o.nowFn()
	expired := now.After(t.Deadline)
	exhausted := t.Status == StatusFailed && t.Retries >= o.maxRetries
	if !expired && !exhausted {
		return RefundReceipt{}, fmt.Errorf("%w: %s not refundable yet", ErrPreconditionFailed, id)
	}

	t.Status = StatusRefunded
	t.FailureReason = reason
	t.UpdatedAt = now
	o.persist(t)
	if o.log != nil {
		o.log.Info("transfer refunded", "transfer", id, "reason", reason)
	}
	return RefundReceipt{TransferID: id, Reason: reason, RefundedAt: now}, nil
}

// EstimateFee quotes the bridge fee plus the target chain's network fee.
func (o *Orchestrator) EstimateFee(ctx context.Context, req Request) (FeeQuote, error) {
	if err := validatePolicy(req); err != nil {
		return FeeQuote{}, err
	}
	target, err := o.registry.Get(req.TargetChain)
	if err != nil {
		return FeeQuote{}, fmt.Errorf("%w: %s", ErrUnsupportedChain, req.TargetChain)
	}
	est, err := target.EstimateFee(ctx, adapter.TxRequest{
		To: req.TargetAddr, Asset: req.TokenSymbol, Amount: req.Amount,
	})
	if err != nil {
		return FeeQuote{}, err
	}
	bridgeFee := amount.Fee(req.Amount, bridgeFeeBps)
	slippage := EstimateSlippage(req.Amount)
	high := slippage.Cmp(slippageWarnPercent) > 0
	if high && o.log != nil {
		o.log.Warn("high slippage estimate",
			"amount", amount.Format(req.Amount), "token", req.TokenSymbol,
			"slippagePercent", amount.Format(slippage))
	}
	return FeeQuote{
		BridgeFee:       bridgeFee,
		NetworkFee:      est.Total,
		Total:           new(big.Rat).Add(bridgeFee, est.Total),
		SlippagePercent: slippage,
		HighSlippage:    high,
	}, nil
}

// Statistics aggregates over all known transfers.
func (o *Orchestrator) Statistics() Statistics {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := Statistics{Volume: new(big.Rat)}
	var completionSum time.Duration
	for _, t := range o.transfers {
		stats.Total++
		switch t.Status {
		case StatusPending, StatusConfirming:
			stats.Pending++
		case StatusCompleted:
			stats.Successful++
			stats.Volume.Add(stats.Volume, t.Amount)
			completionSum += t.CompletedAt.Sub(t.CreatedAt)
		case StatusFailed:
			stats.Failed++
		case StatusRefunded:
			stats.Refunded++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = float64(stats.Successful) / float64(stats.Total)
	}
	if stats.Successful > 0 {
		stats.AvgCompletionSeconds = completionSum.Seconds() / float64(stats.Successful)
	}
	return stats
}

// process drives one transfer through lock, validation, execution and
// confirmation. Runs on its own goroutine per transfer.
func (o *Orchestrator) process(id, lockMsgID string) {
	defer o.wg.Done()

	o.mu.Lock()
	t, ok := o.transfers[id]
	if !ok {
		o.mu.Unlock()
		return
	}
	snapshot := *t
	o.mu.Unlock()

	if o.nowFn().After(snapshot.Deadline) {
		o.settle(id, StatusRefunded, "deadline exceeded before processing")
		o.settleMessage(lockMsgID, "", "deadline exceeded")
		return
	}

	// Leg 1: lock on the source chain. Skipped when a retry resumes a
	// transfer that already locked.
	if snapshot.SourceTxHash == "" {
		source, err := o.registry.Get(snapshot.SourceChain)
		if err != nil {
			o.settle(id, StatusFailed, err.Error())
			return
		}
		receipt, err := o.submitWithRetry(id, source, adapter.TxRequest{
			From:   snapshot.SourceAddr,
			To:     snapshot.SourceAddr,
			Asset:  snapshot.TokenSymbol,
			Amount: snapshot.Amount,
			Memo:   "lock:" + id,
		})
		if err != nil {
			o.settle(id, StatusFailed, "source lock: "+err.Error())
			o.settleMessage(lockMsgID, "", err.Error())
			return
		}
		o.update(id, func(t *Transfer) {
			t.SourceTxHash = receipt.Hash
			t.Status = StatusConfirming
		})
		o.settleMessage(lockMsgID, receipt.Hash, "")
		snapshot.SourceTxHash = receipt.Hash
	} else {
		o.update(id, func(t *Transfer) { t.Status = StatusConfirming })
	}

	if o.nowFn().After(snapshot.Deadline) {
		o.settle(id, StatusRefunded, "deadline exceeded after source lock")
		return
	}

	// Leg 2: validator signatures up to the threshold.
	if o.cfg.MultiSigEnabled && o.signFn != nil && o.validators.TotalActive() > 0 {
		if err := o.collectSignatures(&snapshot); err != nil {
			o.settle(id, StatusFailed, err.Error())
			return
		}
	}

	if o.nowFn().After(snapshot.Deadline) {
		o.settle(id, StatusRefunded, "deadline exceeded before execution")
		return
	}

	// Leg 3: execute on the target chain, net of the bridge fee.
	target, err := o.registry.Get(snapshot.TargetChain)
	if err != nil {
		o.settle(id, StatusFailed, err.Error())
		return
	}
	execMsgID := ""
	o.mu.Lock()
	cur := o.transfers[id]
	o.mu.Unlock()
	if cur != nil {
		execMsgID = o.sendIntent(cur, snapshot.TargetChain, "execute_intent")
	}

	net := new(big.Rat).Sub(snapshot.Amount, snapshot.Fee)
	receipt, err := o.submitWithRetry(id, target, adapter.TxRequest{
		From:   snapshot.SourceAddr,
		To:     snapshot.TargetAddr,
		Asset:  snapshot.TokenSymbol,
		Amount: net,
		Memo:   "release:" + id,
	})
	if err != nil {
		o.settle(id, StatusFailed, "target execute: "+err.Error())
		o.settleMessage(execMsgID, "", err.Error())
		return
	}
	o.update(id, func(t *Transfer) { t.TargetTxHash = receipt.Hash })
	o.settleMessage(execMsgID, receipt.Hash, "")

	// Leg 4: wait out the target chain's confirmation depth.
	acfg := o.cfg.AdapterFor(snapshot.TargetChain)
	required := acfg.ConfirmationBlocks
	if required <= 0 {
		required = adapter.DefaultConfirmations(snapshot.TargetChain)
	}
	ctx, cancel := context.WithTimeout(context.Background(), acfg.Timeout)
	conf, err := target.WaitForConfirmation(ctx, receipt.Hash, required, acfg.Timeout)
	cancel()
	if err != nil {
		o.settle(id, StatusFailed, "confirmation: "+err.Error())
		return
	}
	if !conf.Confirmed {
		o.settle(id, StatusFailed, fmt.Sprintf("confirmation timeout at %d/%d", conf.Confirmations, required))
		return
	}

	now := o.nowFn()
	if now.After(snapshot.Deadline) {
		o.settle(id, StatusRefunded, "deadline exceeded before completion")
		return
	}
	o.update(id, func(t *Transfer) {
		t.Status = StatusCompleted
		t.CompletedAt = now
	})
	if o.log != nil {
		o.log.Info("transfer completed", "transfer", id,
			"sourceTx", snapshot.SourceTxHash, "targetTx", receipt.Hash,
			"confirmations", conf.Confirmations)
	}
}

// collectSignatures opens a validation for the transfer and solicits all
// active validators in parallel until the threshold is crossed.
func (o *Orchestrator) collectSignatures(t *Transfer) error {
	signable := multisig.Signable{
		TransferID:  t.ID,
		SourceChain: t.SourceChain,
		TargetChain: t.TargetChain,
		SourceAddr:  t.SourceAddr,
		TargetAddr:  t.TargetAddr,
		TokenSymbol: t.TokenSymbol,
		Amount:      t.Amount,
		Nonce:       t.Nonce,
	}
	required := 0
	col, err := o.collector.Open(t.ID, signable, 0)
	switch {
	case err == nil:
		required = col.Required
	case errors.Is(err, multisig.ErrExists):
		// A retried transfer resumes against its open validation.
		st, serr := o.collector.Status(t.ID)
		if serr != nil {
			return err
		}
		if st.Complete {
			return nil
		}
		required = st.Required
	default:
		return err
	}
	digest := signable.Digest()

	active := o.validators.Active()
	type signed struct {
		validatorID string
		sig         []byte
		err         error
	}
	results := make(chan signed, len(active))
	for _, v := range active {
		go func(v multisig.Validator) {
			sig, err := o.signFn(v.ID, digest)
			results <- signed{validatorID: v.ID, sig: sig, err: err}
		}(v)
	}

	count := 0
	for range active {
		r := <-results
		if r.err != nil {
			if o.log != nil {
				o.log.Warn("validator signature unavailable",
					"transfer", t.ID, "validator", r.validatorID, "err", r.err)
			}
			continue
		}
		res, err := o.collector.AddSignature(t.ID, r.validatorID, r.sig)
		if err != nil {
			if o.log != nil {
				o.log.Warn("validator signature rejected",
					"transfer", t.ID, "validator", r.validatorID, "err", err)
			}
			continue
		}
		count = res.Count
	}

	if count < required {
		return fmt.Errorf("signature threshold not reached: %d/%d", count, required)
	}
	return nil
}

// submitWithRetry sends a transaction, retrying transient failures with
// exponential backoff and jitter. Each retry is counted on the transfer.
func (o *Orchestrator) submitWithRetry(id string, chain adapter.ChainAdapter, tx adapter.TxRequest) (adapter.TxReceipt, error) {
	acfg := o.cfg.AdapterFor(chain.ChainID())
	var lastErr error
	for attempt := 0; ; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), acfg.Timeout)
		receipt, err := chain.SendTransaction(ctx, tx)
		cancel()
		if err == nil {
			return receipt, nil
		}
		lastErr = err
		if !adapter.IsTransient(err) || attempt >= o.maxRetries {
			return adapter.TxReceipt{}, lastErr
		}
		o.update(id, func(t *Transfer) { t.Retries++ })
		o.sleepFn(o.backoff(attempt))
	}
}

// backoff returns initial * 2^attempt capped at max, with up to 50% jitter.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.boInitial
	for i := 0; i < attempt && d < o.boMax; i++ {
		d *= 2
	}
	if d > o.boMax {
		d = o.boMax
	}
	if half := int64(d / 2); half > 0 {
		d += time.Duration(rand.Int63n(half))
	}
	return d
}

type intentPayload struct {
	TransferID string `json:"transfer_id"`
	Token      string `json:"token"`
	Amount     string `json:"amount"`
	Recipient  string `json:"recipient"`
}

// sendIntent enqueues a processing intent for destChain on the message
// queue. Returns the message id, or "" when the queue rejected it.
func (o *Orchestrator) sendIntent(t *Transfer, destChain, msgType string) string {
	if o.queue == nil {
		return ""
	}
	payload, _ := json.Marshal(intentPayload{
		TransferID: t.ID,
		Token:      t.TokenSymbol,
		Amount:     amount.Format(t.Amount),
		Recipient:  t.TargetAddr,
	})
	msgID, err := o.queue.Send(msgqueue.Request{
		SourceChain: t.SourceChain,
		TargetChain: destChain,
		Sender:      "orchestrator",
		Receiver:    t.TargetAddr,
		Type:        msgType,
		Payload:     payload,
		Nonce:       o.nextNonce(),
	})
	if err != nil {
		if o.log != nil {
			o.log.Warn("intent message rejected", "transfer", t.ID, "type", msgType, "err", err)
		}
		return ""
	}
	return msgID
}

// settleMessage acknowledges or fails an intent message, if one exists.
func (o *Orchestrator) settleMessage(msgID, receipt, failure string) {
	if o.queue == nil || msgID == "" {
		return
	}
	if failure != "" {
		_ = o.queue.MarkFailed(msgID, failure)
		return
	}
	_ = o.queue.Acknowledge(msgID, receipt)
}

// settle moves a transfer to a terminal status with a reason.
func (o *Orchestrator) settle(id string, status Status, reason string) {
	o.update(id, func(t *Transfer) {
		t.Status = status
		t.FailureReason = reason
	})
	if o.log != nil {
		o.log.Warn("transfer settled", "transfer", id, "status", status, "reason", reason)
	}
}

// update mutates a transfer under the lock, stamps UpdatedAt and persists
// the snapshot. COMPLETED and REFUNDED are absorbing: a refund that lands
// while process() is in flight must not be overwritten by a late
// transition.
func (o *Orchestrator) update(id string, apply func(*Transfer)) {
	o.mu.Lock()
	t, ok := o.transfers[id]
	if !ok || t.Status == StatusCompleted || t.Status == StatusRefunded {
		o.mu.Unlock()
		return
	}
	apply(t)
	t.UpdatedAt = o.nowFn()
	snapshot := *t
	o.mu.Unlock()
	o.persist(&snapshot)
}

func (o *Orchestrator) persist(t *Transfer) {
	if o.store == nil {
		return
	}
	if err := o.store.Save(transferKind, t.ID, t); err != nil && o.log != nil {
		o.log.Warn("transfer snapshot not persisted", "transfer", t.ID, "err", err)
	}
}

func (o *Orchestrator) nextNonce() uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.nonce++
	return o.nonce
}

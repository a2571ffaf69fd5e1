// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package msgqueue carries intent and acknowledgement messages between the
// bridge orchestrator and the chain adapters. Each destination chain has
// its own FIFO queue; ordering holds per destination only. Replay
// protection is a strictly increasing nonce per (sender, target chain).
package msgqueue

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/luxfi/log"
)

type nonceKey struct {
	sender string
	target string
}

// Handler processes one dequeued message. A non-nil error marks the
// message FAILED with the error text recorded.
type Handler func(msg *Message) error

// Queue is the cross-chain message queue and delivery tracker.
type Queue struct {
	log log.Logger

	mu         sync.Mutex
	messages   map[string]*Message
	queues     map[string][]string // target chain -> FIFO of message ids
	lastNonce  map[nonceKey]uint64
	processed  map[string]uint64 // per-chain processed counter
	lastDrain  map[string]time.Time
	sent       uint64
	delivered  uint64
	failed     uint64
}

// New creates an empty queue.
func New(logger log.Logger) *Queue {
	return &Queue{
		log:       logger,
		messages:  make(map[string]*Message),
		queues:    make(map[string][]string),
		lastNonce: make(map[nonceKey]uint64),
		processed: make(map[string]uint64),
		lastDrain: make(map[string]time.Time),
	}
}

// Send validates the request, enforces the nonce rule, and enqueues the
// message on its destination queue. Returns the assigned message id.
func (q *Queue) Send(req Request) (string, error) {
	if req.TargetChain == "" {
		return "", ErrUnknownReceiver
	}
	if req.Sender == "" || req.Type == "" {
		return "", ErrInvalidMessage
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	key := nonceKey{sender: req.Sender, target: req.TargetChain}
	if last, seen := q.lastNonce[key]; seen && req.Nonce <= last {
		return "", fmt.Errorf("%w: got %d, last %d", ErrReplayDetected, req.Nonce, last)
	}

	msg := &Message{
		ID:          uuid.NewString(),
		SourceChain: req.SourceChain,
		TargetChain: req.TargetChain,
		Sender:      req.Sender,
		Receiver:    req.Receiver,
		Type:        req.Type,
		Payload:     req.Payload,
		Nonce:       req.Nonce,
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}

	q.lastNonce[key] = req.Nonce
	q.messages[msg.ID] = msg
	q.queues[req.TargetChain] = append(q.queues[req.TargetChain], msg.ID)
	q.sent++
	return msg.ID, nil
}

// Get returns a copy of the message.
func (q *Queue) Get(id string) (Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	msg, ok := q.messages[id]
	if !ok {
		return Message{}, ErrNotFound
	}
	return *msg, nil
}

// Receive returns the undelivered messages for chainID matching filter, in
// FIFO order. The snapshot is restartable: messages stay queued until
// acknowledged or failed.
func (q *Queue) Receive(chainID string, filter Filter) []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []Message
	for _, id := range q.queues[chainID] {
		msg := q.messages[id]
		if msg.Status != StatusPending && msg.Status != StatusProcessing {
			continue
		}
		if filter.Type != "" && msg.Type != filter.Type {
			continue
		}
		if filter.Sender != "" && msg.Sender != filter.Sender {
			continue
		}
		out = append(out, *msg)
	}
	return out
}

// Acknowledge marks a pending or processing message DELIVERED and stamps
// the delivery receipt.
func (q *Queue) Acknowledge(id, receipt string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.messages[id]
	if !ok {
		return ErrNotFound
	}
	if msg.Status != StatusPending && msg.Status != StatusProcessing {
		return fmt.Errorf("%w: %s is %s", ErrBadTransition, id, msg.Status)
	}
	msg.Status = StatusDelivered
	msg.DeliveredAt = time.Now()
	msg.Receipt = receipt
	q.delivered++
	q.dequeueLocked(msg)
	return nil
}

// MarkFailed moves a pending or processing message to FAILED.
func (q *Queue) MarkFailed(id, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	msg, ok := q.messages[id]
	if !ok {
		return ErrNotFound
	}
	if msg.Status != StatusPending && msg.Status != StatusProcessing {
		return fmt.Errorf("%w: %s is %s", ErrBadTransition, id, msg.Status)
	}
	msg.Status = StatusFailed
	msg.Error = reason
	q.failed++
	q.dequeueLocked(msg)
	if q.log != nil {
		q.log.Warn("message failed", "id", id, "target", msg.TargetChain, "reason", reason)
	}
	return nil
}

// ProcessPending drains every destination queue to exhaustion, invoking
// handler per message. Handler errors mark the message FAILED; successful
// handling leaves acknowledgement to the handler (or marks DELIVERED if the
// handler already acknowledged). The queue lock is never held across the
// handler call. Returns the number of messages handed to the handler.
func (q *Queue) ProcessPending(handler Handler) int {
	processed := 0
	for {
		msg, ok := q.nextPending()
		if !ok {
			break
		}
		processed++

		err := handler(&msg)

		q.mu.Lock()
		stored, exists := q.messages[msg.ID]
		if exists && stored.Status == StatusProcessing {
			if err != nil {
				stored.Status = StatusFailed
				stored.Error = err.Error()
				q.failed++
			} else {
				stored.Status = StatusDelivered
				stored.DeliveredAt = time.Now()
				q.delivered++
			}
			q.dequeueLocked(stored)
		}
		q.processed[msg.TargetChain]++
		q.lastDrain[msg.TargetChain] = time.Now()
		q.mu.Unlock()
	}
	return processed
}

// QueueStatus reports the state of one destination queue.
func (q *Queue) QueueStatus(chainID string) Status {
	q.mu.Lock()
	defer q.mu.Unlock()

	pending := 0
	for _, id := range q.queues[chainID] {
		if st := q.messages[id].Status; st == StatusPending || st == StatusProcessing {
			pending++
		}
	}
	return Status{
		ChainID:         chainID,
		Pending:         pending,
		Processed:       q.processed[chainID],
		LastProcessedAt: q.lastDrain[chainID],
	}
}

// Counters returns the global sent/delivered/failed counters.
func (q *Queue) Counters() (sent, delivered, failed uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sent, q.delivered, q.failed
}

// nextPending claims the oldest pending message across all queues by
// moving it to PROCESSING.
func (q *Queue) nextPending() (Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var oldest *Message
	for chain := range q.queues {
		for _, id := range q.queues[chain] {
			msg := q.messages[id]
			if msg.Status != StatusPending {
				continue
			}
			if oldest == nil || msg.CreatedAt.Before(oldest.CreatedAt) {
				oldest = msg
			}
			break // FIFO: only the head of each queue is eligible
		}
	}
	if oldest == nil {
		return Message{}, false
	}
	oldest.Status = StatusProcessing
	return *oldest, true
}

// dequeueLocked removes a settled message from its destination queue.
func (q *Queue) dequeueLocked(msg *Message) {
	ids := q.queues[msg.TargetChain]
	for i, id := range ids {
		if id == msg.ID {
			q.queues[msg.TargetChain] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}

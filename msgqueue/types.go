// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package msgqueue

import (
	"errors"
	"time"
)

// MessageStatus is the delivery lifecycle of a cross-chain message.
type MessageStatus string

const (
	StatusPending    MessageStatus = "PENDING"
	StatusProcessing MessageStatus = "PROCESSING"
	StatusDelivered  MessageStatus = "DELIVERED"
	StatusFailed     MessageStatus = "FAILED"
	StatusExpired    MessageStatus = "EXPIRED"
)

// Message is an intent or acknowledgement carried between the orchestrator
// and the chain adapters.
type Message struct {
	ID          string        `json:"id"`
	SourceChain string        `json:"source_chain"`
	TargetChain string        `json:"target_chain"`
	Sender      string        `json:"sender"`
	Receiver    string        `json:"receiver"`
	Type        string        `json:"type"`
	Payload     []byte        `json:"payload"`
	Nonce       uint64        `json:"nonce"`
	Status      MessageStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	DeliveredAt time.Time     `json:"delivered_at,omitempty"`
	Receipt     string        `json:"receipt,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Request is the caller's view of Send.
type Request struct {
	SourceChain string
	TargetChain string
	Sender      string
	Receiver    string
	Type        string
	Payload     []byte
	Nonce       uint64
}

// Status summarizes one destination queue.
type Status struct {
	ChainID         string
	Pending         int
	Processed       uint64
	LastProcessedAt time.Time
}

// Filter narrows Receive results. Zero value matches everything.
type Filter struct {
	Type   string
	Sender string
}

var (
	ErrReplayDetected  = errors.New("msgqueue: nonce not greater than last seen for sender and target")
	ErrNotFound        = errors.New("msgqueue: message not found")
	ErrBadTransition   = errors.New("msgqueue: message not in an acknowledgeable state")
	ErrInvalidMessage  = errors.New("msgqueue: invalid message request")
	ErrUnknownReceiver = errors.New("msgqueue: empty target chain")
)

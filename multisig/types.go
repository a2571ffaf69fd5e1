// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"errors"
	"time"
)

// Validator is a member of the bridge validator set.
type Validator struct {
	ID        string `json:"id"`
	PublicKey []byte `json:"public_key"` // compressed secp256k1, 33 bytes
	Active    bool   `json:"active"`
}

// Collection tracks signature gathering for one transfer validation.
type Collection struct {
	ValidationID string            `json:"validation_id"`
	TransferID   string            `json:"transfer_id"`
	Required     int               `json:"required"`
	Signatures   map[string][]byte `json:"signatures"` // validator id -> signature
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  time.Time         `json:"completed_at,omitempty"`
}

// Complete reports whether the threshold has been reached.
func (c *Collection) Complete() bool {
	return !c.CompletedAt.IsZero()
}

// AddResult is returned by Collector.AddSignature.
type AddResult struct {
	Count            int
	Required         int
	ThresholdReached bool
}

// CollectionStatus is the read view of a collection.
type CollectionStatus struct {
	ValidationID string
	TransferID   string
	Count        int
	Required     int
	Complete     bool
	OpenedAt     time.Time
	CompletedAt  time.Time
}

var (
	ErrNotFound         = errors.New("multisig: validation not found")
	ErrExists           = errors.New("multisig: validation already open")
	ErrInvalidValidator = errors.New("multisig: unknown or inactive validator")
	ErrInvalidSignature = errors.New("multisig: signature verification failed")
	ErrDuplicateKey     = errors.New("multisig: validator already registered")
)

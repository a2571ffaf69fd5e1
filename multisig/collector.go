// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package multisig collects validator signatures for bridge transfers up
// to an m-of-n threshold. Signatures are verified cryptographically,
// deduplicated per validator, and the threshold crossing is observed
// exactly once per collection.
package multisig

import (
	"fmt"
	"sync"
	"time"

	log "github.com/luxfi/log"
)

// Collector tracks open signature collections keyed by validation id.
type Collector struct {
	validators *ValidatorSet
	verify     VerifyFunc
	log        log.Logger

	mu          sync.Mutex
	collections map[string]*collectionState
}

type collectionState struct {
	Collection
	signable Signable
}

// NewCollector builds a collector over the given validator set. A nil
// verify hook defaults to secp256k1.
func NewCollector(validators *ValidatorSet, verify VerifyFunc, logger log.Logger) *Collector {
	if verify == nil {
		verify = VerifySecp256k1
	}
	return &Collector{
		validators:  validators,
		verify:      verify,
		log:         logger,
		collections: make(map[string]*collectionState),
	}
}

// Open creates an empty collection for transferID. required <= 0 samples
// the validator set's current ceil(2n/3) threshold; the sampled value is
// fixed for the life of the collection.
func (c *Collector) Open(validationID string, signable Signable, required int) (*Collection, error) {
	if required <= 0 {
		required = c.validators.Threshold()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.collections[validationID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, validationID)
	}
	state := &collectionState{
		Collection: Collection{
			ValidationID: validationID,
			TransferID:   signable.TransferID,
			Required:     required,
			Signatures:   make(map[string][]byte),
			CreatedAt:    time.Now(),
		},
		signable: signable,
	}
	c.collections[validationID] = state
	snapshot := state.snapshot()
	return &snapshot, nil
}

// AddSignature verifies and records one validator's signature. Adding the
// same validator twice is idempotent and does not change the count. The
// crossing result (ThresholdReached with the crossing count) is reported
// only to the caller whose signature crossed the threshold.
func (c *Collector) AddSignature(validationID, validatorID string, signature []byte) (AddResult, error) {
	validator, ok := c.validators.Get(validatorID)
	if !ok || !validator.Active {
		return AddResult{}, fmt.Errorf("%w: %s", ErrInvalidValidator, validatorID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.collections[validationID]
	if !ok {
		return AddResult{}, fmt.Errorf("%w: %s", ErrNotFound, validationID)
	}

	if _, dup := state.Signatures[validatorID]; dup {
		return AddResult{Count: len(state.Signatures), Required: state.Required}, nil
	}

	if !c.verify(validator.PublicKey, state.signable.Digest(), signature) {
		return AddResult{}, fmt.Errorf("%w: validator %s", ErrInvalidSignature, validatorID)
	}

	state.Signatures[validatorID] = signature
	count := len(state.Signatures)

	crossed := false
	if count >= state.Required && state.CompletedAt.IsZero() {
		state.CompletedAt = time.Now()
		crossed = true
		if c.log != nil {
			c.log.Info("signature threshold reached",
				"validation", validationID, "transfer", state.TransferID,
				"count", count, "required", state.Required)
		}
	}

	return AddResult{Count: count, Required: state.Required, ThresholdReached: crossed}, nil
}

// Status returns the read view of a collection.
func (c *Collector) Status(validationID string) (CollectionStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.collections[validationID]
	if !ok {
		return CollectionStatus{}, fmt.Errorf("%w: %s", ErrNotFound, validationID)
	}
	return CollectionStatus{
		ValidationID: state.ValidationID,
		TransferID:   state.TransferID,
		Count:        len(state.Signatures),
		Required:     state.Required,
		Complete:     state.Complete(),
		OpenedAt:     state.CreatedAt,
		CompletedAt:  state.CompletedAt,
	}, nil
}

// Signatures returns a copy of the collected validator signatures.
func (c *Collector) Signatures(validationID string) (map[string][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.collections[validationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, validationID)
	}
	out := make(map[string][]byte, len(state.Signatures))
	for id, sig := range state.Signatures {
		out[id] = append([]byte(nil), sig...)
	}
	return out, nil
}

func (s *collectionState) snapshot() Collection {
	cp := s.Collection
	cp.Signatures = make(map[string][]byte, len(s.Signatures))
	for id, sig := range s.Signatures {
		cp.Signatures[id] = append([]byte(nil), sig...)
	}
	return cp
}

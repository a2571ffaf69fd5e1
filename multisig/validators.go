// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package multisig

import (
	"fmt"
	"sort"
	"sync"
)

// ValidatorSet is the process-wide, reconfigurable validator registry.
type ValidatorSet struct {
	mu         sync.RWMutex
	validators map[string]*Validator
}

// NewValidatorSet creates an empty validator set.
func NewValidatorSet() *ValidatorSet {
	return &ValidatorSet{
		validators: make(map[string]*Validator),
	}
}

// Register adds an active validator. The public key is the compressed
// secp256k1 form.
func (vs *ValidatorSet) Register(id string, publicKey []byte) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if _, ok := vs.validators[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, id)
	}
	vs.validators[id] = &Validator{ID: id, PublicKey: publicKey, Active: true}
	return nil
}

// SetActive flips a validator's active flag.
func (vs *ValidatorSet) SetActive(id string, active bool) error {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	v, ok := vs.validators[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidValidator, id)
	}
	v.Active = active
	return nil
}

// Get returns a copy of the validator.
func (vs *ValidatorSet) Get(id string) (Validator, bool) {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	v, ok := vs.validators[id]
	if !ok {
		return Validator{}, false
	}
	return *v, true
}

// Active returns copies of all active validators, ordered by id.
func (vs *ValidatorSet) Active() []Validator {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	out := make([]Validator, 0, len(vs.validators))
	for _, v := range vs.validators {
		if v.Active {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TotalActive counts active validators.
func (vs *ValidatorSet) TotalActive() int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()

	n := 0
	for _, v := range vs.validators {
		if v.Active {
			n++
		}
	}
	return n
}

// Threshold returns ceil(2n/3) over the active validators, minimum 1.
// The value is sampled when a collection opens; set changes never apply
// retroactively to open collections.
func (vs *ValidatorSet) Threshold() int {
	n := vs.TotalActive()
	if n == 0 {
		return 1
	}
	return (2*n + 2) / 3
}

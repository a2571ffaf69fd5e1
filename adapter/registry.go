// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrChainNotRegistered = errors.New("adapter: chain not registered")
	ErrChainRegistered    = errors.New("adapter: chain already registered")
)

// Registry holds the chain adapters keyed by chain id. It is populated at
// startup and read by the orchestrator for every adapter call.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]ChainAdapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[string]ChainAdapter),
	}
}

// Register adds an adapter under its own ChainID. Double registration of
// the same chain id is rejected.
func (r *Registry) Register(a ChainAdapter) error {
	if a == nil {
		return errors.New("adapter: nil adapter")
	}
	id := a.ChainID()
	if id == "" {
		return errors.New("adapter: empty chain id")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.adapters[id]; ok {
		return fmt.Errorf("%w: %s", ErrChainRegistered, id)
	}
	r.adapters[id] = a
	return nil
}

// Get returns the adapter for chainID.
func (r *Registry) Get(chainID string) (ChainAdapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChainNotRegistered, chainID)
	}
	return a, nil
}

// Has reports whether chainID is registered.
func (r *Registry) Has(chainID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[chainID]
	return ok
}

// Chains returns the registered chain ids, sorted.
func (r *Registry) Chains() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

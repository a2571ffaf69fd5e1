// Copyright (C) 2025, Aurigraph DLT Corp. All rights reserved.
// See the file LICENSE for licensing terms.

// Package repository is the persistence contract the bridge core depends
// on. Entities are stored as JSON values under "kind/id" keys; the backing
// database is injected, so durability is the caller's choice (memdb for
// tests, a durable store in deployments).
package repository

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
)

// Store is the repository contract consumed by the core.
type Store interface {
	// Save upserts an entity.
	Save(kind, id string, v any) error

	// FindByID loads an entity into out; the bool reports existence.
	FindByID(kind, id string, out any) (bool, error)

	// FindBy returns the raw JSON of every entity of kind matching pred.
	// A nil pred matches everything.
	FindBy(kind string, pred func(raw []byte) bool) ([][]byte, error)

	// BatchDelete removes the given ids in one database batch.
	BatchDelete(kind string, ids []string) error

	// CountBy counts entities of kind matching pred.
	CountBy(kind string, pred func(raw []byte) bool) (int, error)
}

// DBStore implements Store over a key-value database.
type DBStore struct {
	db database.Database
}

// New wraps an existing database.
func New(db database.Database) *DBStore {
	return &DBStore{db: db}
}

// NewMemory returns a Store backed by an in-memory database.
func NewMemory() *DBStore {
	return New(memdb.New())
}

func key(kind, id string) []byte {
	return []byte(kind + "/" + id)
}

func prefix(kind string) []byte {
	return []byte(kind + "/")
}

func (s *DBStore) Save(kind, id string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("repository: encode %s/%s: %w", kind, id, err)
	}
	return s.db.Put(key(kind, id), raw)
}

func (s *DBStore) FindByID(kind, id string, out any) (bool, error) {
	raw, err := s.db.Get(key(kind, id))
	if err == database.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("repository: decode %s/%s: %w", kind, id, err)
	}
	return true, nil
}

func (s *DBStore) FindBy(kind string, pred func(raw []byte) bool) ([][]byte, error) {
	it := s.db.NewIteratorWithPrefix(prefix(kind))
	defer it.Release()

	var out [][]byte
	for it.Next() {
		raw := make([]byte, len(it.Value()))
		copy(raw, it.Value())
		if pred == nil || pred(raw) {
			out = append(out, raw)
		}
	}
	return out, it.Error()
}

func (s *DBStore) BatchDelete(kind string, ids []string) error {
	batch := s.db.NewBatch()
	for _, id := range ids {
		if err := batch.Delete(key(kind, id)); err != nil {
			return err
		}
	}
	return batch.Write()
}

func (s *DBStore) CountBy(kind string, pred func(raw []byte) bool) (int, error) {
	matches, err := s.FindBy(kind, pred)
	if err != nil {
		return 0, err
	}
	return len(matches), nil
}

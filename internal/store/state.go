package store

import (
	"encoding/json"
	"errors"

	"github.com/dgraph-io/badger/v4"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
)

// Process-restart-surviving state lives in BadgerDB: the scheduler's daily
// counters and a bounded history of computed feature vectors.

// ErrKeyNotFound is returned by GetKV when the key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// SetKV stores a key-value pair
func (s *Store) SetKV(key string, value []byte) error {
	if s.badger == nil {
		return apperrors.ErrStateCorrupted
	}
	return s.badger.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte("kv:"+key), value)
	})
}

// GetKV retrieves a value by key
func (s *Store) GetKV(key string) ([]byte, error) {
	if s.badger == nil {
		return nil, ErrKeyNotFound
	}
	var val []byte
	err := s.badger.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("kv:" + key))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			val = append([]byte{}, v...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrKeyNotFound
	}
	return val, err
}

const vectorHistoryKey = "coach:vector_history"

// AppendVectorSnapshot pushes a serialized feature vector onto the history
// ring, keeping the newest max entries.
func (s *Store) AppendVectorSnapshot(snapshot json.RawMessage, max int) error {
	if s.badger == nil {
		return nil // in-memory test store, history disabled
	}
	if max <= 0 {
		max = 100
	}

	history, err := s.VectorSnapshots()
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}

	history = append(history, snapshot)
	if len(history) > max {
		history = history[len(history)-max:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return err
	}
	return s.SetKV(vectorHistoryKey, data)
}

// VectorSnapshots returns the persisted feature-vector history, oldest first.
func (s *Store) VectorSnapshots() ([]json.RawMessage, error) {
	data, err := s.GetKV(vectorHistoryKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var history []json.RawMessage
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, apperrors.Wrap(err, "STORE_004", "vector history corrupted")
	}
	return history, nil
}

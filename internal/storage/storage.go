// Package storage provides a persistent model store for the ensemble evaluator.
// It uses BoltDB as the underlying storage engine and keeps serialized density
// estimation trees under a name, so runs can reference them as bolt resources
// instead of loose files.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

const (
	modelsBucket = "models" // Bucket name for serialized models
)

// ErrModelNotFound is returned when no model is stored under the requested name.
var ErrModelNotFound = errors.New("model not found")

// ModelRecord is the envelope stored for every model.
type ModelRecord struct {
	Name     string    `json:"name"`
	Format   string    `json:"format"`
	StoredAt time.Time `json:"stored_at"`
	Payload  []byte    `json:"payload"`
}

// ModelInfo summarizes a stored model without its payload.
type ModelInfo struct {
	Name     string
	Format   string
	StoredAt time.Time
	Size     int
}

// Store provides persistent storage for serialized models using BoltDB.
type Store struct {
	db *bbolt.DB // BoltDB database instance
}

// Open opens (or creates, unless readOnly) the database at dbPath.
// A read-only store requires the file and the models bucket to exist already.
func Open(dbPath string, readOnly bool) (*Store, error) {
	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}

	if readOnly {
		return &Store{db: db}, nil
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(modelsBucket)); err != nil {
			return fmt.Errorf("create models bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database connection. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// PutModel stores payload under name, replacing any previous model with that name.
func (s *Store) PutModel(name, format string, payload []byte) error {
	if name == "" {
		return fmt.Errorf("model name cannot be empty")
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))

		data, err := json.Marshal(ModelRecord{
			Name:     name,
			Format:   format,
			StoredAt: time.Now().UTC(),
			Payload:  payload,
		})
		if err != nil {
			return fmt.Errorf("marshal model %s: %w", name, err)
		}

		return b.Put([]byte(name), data)
	})
}

// GetModel returns the record stored under name.
func (s *Store) GetModel(name string) (ModelRecord, error) {
	var record ModelRecord

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))
		if b == nil {
			return fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}

		v := b.Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}

		if err := json.Unmarshal(v, &record); err != nil {
			return fmt.Errorf("unmarshal model %s: %w", name, err)
		}
		return nil
	})

	return record, err
}

// DeleteModel removes the model stored under name.
func (s *Store) DeleteModel(name string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrModelNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}

// ListModels returns every stored model ordered by name.
func (s *Store) ListModels() ([]ModelInfo, error) {
	var models []ModelInfo

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(modelsBucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var record ModelRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return nil // Skip malformed records
			}
			models = append(models, ModelInfo{
				Name:     string(k),
				Format:   record.Format,
				StoredAt: record.StoredAt,
				Size:     len(record.Payload),
			})
			return nil
		})
	})

	sort.Slice(models, func(i, j int) bool {
		return models[i].Name < models[j].Name
	})

	return models, err
}

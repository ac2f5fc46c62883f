package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps every collection in memory and mirrors it to a single
// JSON document shaped {"collection": [records...]}. An empty path keeps
// the data in memory only.
type FileStore struct {
	path string

	mu   sync.RWMutex
	data map[string][]Record
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads path when it exists. A missing file starts empty and
// is created on the first write.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, data: make(map[string][]Record)}
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&s.data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

func (s *FileStore) List(ctx context.Context, collection string) ([]Record, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := s.data[collection]
	out := make([]Record, 0, len(items))
	for _, rec := range items {
		out = append(out, rec.Clone())
	}
	return out, nil
}

func (s *FileStore) Get(ctx context.Context, collection string, id int64) (Record, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidCollection
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	return s.data[collection][i].Clone(), nil
}

// Create assigns the next id (max existing + 1) regardless of any id in rec.
func (s *FileStore) Create(ctx context.Context, collection string, rec Record) (Record, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidCollection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var next int64
	for _, existing := range s.data[collection] {
		if id := existing.ID(); id > next {
			next = id
		}
	}
	stored := make(Record, len(rec)+1)
	merge(stored, rec)
	stored["id"] = next + 1
	s.data[collection] = append(s.data[collection], stored)
	if err := s.flush(); err != nil {
		s.data[collection] = s.data[collection][:len(s.data[collection])-1]
		return nil, err
	}
	return stored.Clone(), nil
}

func (s *FileStore) Replace(ctx context.Context, collection string, id int64, rec Record) (Record, error) {
	return s.update(collection, id, func(old Record) Record {
		next := make(Record, len(rec)+1)
		merge(next, rec)
		next["id"] = id
		return next
	})
}

func (s *FileStore) Patch(ctx context.Context, collection string, id int64, fields Record) (Record, error) {
	return s.update(collection, id, func(old Record) Record {
		next := old.Clone()
		merge(next, fields)
		return next
	})
}

func (s *FileStore) update(collection string, id int64, fn func(Record) Record) (Record, error) {
	if !ValidCollection(collection) {
		return nil, ErrInvalidCollection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(collection, id)
	if i < 0 {
		return nil, ErrNotFound
	}
	prev := s.data[collection][i]
	next := fn(prev)
	s.data[collection][i] = next
	if err := s.flush(); err != nil {
		s.data[collection][i] = prev
		return nil, err
	}
	return next.Clone(), nil
}

func (s *FileStore) Delete(ctx context.Context, collection string, id int64) error {
	if !ValidCollection(collection) {
		return ErrInvalidCollection
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(collection, id)
	if i < 0 {
		return ErrNotFound
	}
	prev := s.data[collection]
	items := make([]Record, 0, len(prev)-1)
	items = append(items, prev[:i]...)
	items = append(items, prev[i+1:]...)
	s.data[collection] = items
	if err := s.flush(); err != nil {
		s.data[collection] = prev
		return err
	}
	return nil
}

// Ping reports whether the backing file is still writable.
func (s *FileStore) Ping(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	dir := filepath.Dir(s.path)
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// index returns the slice position of id or -1. Caller holds s.mu.
func (s *FileStore) index(collection string, id int64) int {
	for i, rec := range s.data[collection] {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

// flush writes the whole document atomically. Caller holds s.mu.
func (s *FileStore) flush() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode db: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".db-*.json")
	if err != nil {
		return fmt.Errorf("write db: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write db: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write db: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write db: %w", err)
	}
	return nil
}

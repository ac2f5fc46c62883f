package events

import (
	"context"

	"wordcheck.org/internal/records"
)

// Store wraps a records.Store and publishes every successful mutation.
type Store struct {
	records.Store
	hub *Hub
}

var _ records.Store = (*Store)(nil)

// Observe returns inner decorated with change notifications to hub.
func Observe(inner records.Store, hub *Hub) *Store {
	return &Store{Store: inner, hub: hub}
}

func (s *Store) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	out, err := s.Store.Create(ctx, collection, rec)
	if err == nil {
		s.publish(Created, collection, out.ID(), out)
	}
	return out, err
}

func (s *Store) Replace(ctx context.Context, collection string, id int64, rec records.Record) (records.Record, error) {
	out, err := s.Store.Replace(ctx, collection, id, rec)
	if err == nil {
		s.publish(Updated, collection, id, out)
	}
	return out, err
}

func (s *Store) Patch(ctx context.Context, collection string, id int64, fields records.Record) (records.Record, error) {
	out, err := s.Store.Patch(ctx, collection, id, fields)
	if err == nil {
		s.publish(Updated, collection, id, out)
	}
	return out, err
}

func (s *Store) Delete(ctx context.Context, collection string, id int64) error {
	err := s.Store.Delete(ctx, collection, id)
	if err == nil {
		s.publish(Deleted, collection, id, nil)
	}
	return err
}

// publish never leaks user password hashes to subscribers.
func (s *Store) publish(kind, collection string, id int64, rec records.Record) {
	if rec != nil {
		rec = rec.Clone()
		delete(rec, "passwordHash")
	}
	s.hub.Publish(RecordEvent{Type: kind, Collection: collection, ID: id, Record: rec})
}

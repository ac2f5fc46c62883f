package pg

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"wordcheck.org/internal/migrate"
	"wordcheck.org/internal/records"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationsDir is the directory inside Migrations holding the *.sql files.
const MigrationsDir = "migrations"

// Migrations exposes the embedded schema files for cmd/migrate.
func Migrations() embed.FS { return migrationFiles }

// Store keeps records in the records table as jsonb documents.
type Store struct {
	db *sql.DB
}

var _ records.Store = (*Store)(nil)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	// Tuned pool defaults; adjust under load tests
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing handle, e.g. a sqlmock connection in tests.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// Migrate applies the embedded schema.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	return migrate.NewManagerFS(s.db, migrationFiles, MigrationsDir, "").Up(ctx)
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) List(ctx context.Context, collection string) ([]records.Record, error) {
	if !records.ValidCollection(collection) {
		return nil, records.ErrInvalidCollection
	}
	rows, err := s.db.QueryContext(ctx, `select body from records where collection = $1 order by id`, collection)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]records.Record, 0)
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		rec, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Get(ctx context.Context, collection string, id int64) (records.Record, error) {
	if !records.ValidCollection(collection) {
		return nil, records.ErrInvalidCollection
	}
	var body []byte
	err := s.db.QueryRowContext(ctx, `select body from records where collection = $1 and id = $2`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBody(body)
}

// Create takes the next id from record_counters inside the same transaction
// as the insert.
func (s *Store) Create(ctx context.Context, collection string, rec records.Record) (records.Record, error) {
	if !records.ValidCollection(collection) {
		return nil, records.ErrInvalidCollection
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, `
		insert into record_counters(collection, last_id) values ($1, 1)
		on conflict (collection) do update set last_id = record_counters.last_id + 1
		returning last_id
	`, collection).Scan(&id); err != nil {
		return nil, err
	}
	stored := withID(rec, id)
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrInvalidRecord, err)
	}
	if _, err := tx.ExecContext(ctx, `insert into records(collection, id, body) values ($1, $2, $3::jsonb)`, collection, id, string(body)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) Replace(ctx context.Context, collection string, id int64, rec records.Record) (records.Record, error) {
	if !records.ValidCollection(collection) {
		return nil, records.ErrInvalidCollection
	}
	stored := withID(rec, id)
	body, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrInvalidRecord, err)
	}
	res, err := s.db.ExecContext(ctx, `update records set body = $3::jsonb, updated_at = now() where collection = $1 and id = $2`, collection, id, string(body))
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, records.ErrNotFound
	}
	return stored, nil
}

// Patch merges fields into the stored document with jsonb concatenation.
func (s *Store) Patch(ctx context.Context, collection string, id int64, fields records.Record) (records.Record, error) {
	if !records.ValidCollection(collection) {
		return nil, records.ErrInvalidCollection
	}
	patch := fields.Clone()
	delete(patch, "id")
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrInvalidRecord, err)
	}
	var body []byte
	err = s.db.QueryRowContext(ctx, `
		update records set body = body || $3::jsonb, updated_at = now()
		where collection = $1 and id = $2
		returning body
	`, collection, id, string(raw)).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBody(body)
}

func (s *Store) Delete(ctx context.Context, collection string, id int64) error {
	if !records.ValidCollection(collection) {
		return records.ErrInvalidCollection
	}
	res, err := s.db.ExecContext(ctx, `delete from records where collection = $1 and id = $2`, collection, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func withID(rec records.Record, id int64) records.Record {
	out := make(records.Record, len(rec)+1)
	for k, v := range rec {
		out[k] = v
	}
	out["id"] = id
	return out
}

func decodeBody(body []byte) (records.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var rec records.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %v", records.ErrInvalidRecord, err)
	}
	return rec, nil
}

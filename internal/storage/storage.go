// Package storage is the Postgres-backed store shared by every component:
// foundations and their project catalogue, tracked repositories, check
// reports, snapshots and view counters. Multi-row updates run inside a
// single transaction so readers never observe half-applied results.
package storage

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a pgx connection pool. Connections are borrowed per call;
// the pool recycles broken ones transparently.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database and makes sure the schema is in place.
func New(ctx context.Context, dbURL string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the pool. In-flight operations are allowed to finish.
func (s *Store) Close() {
	s.pool.Close()
}

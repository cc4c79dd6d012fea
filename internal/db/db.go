// Package db persists boards and their snapshots.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
)

// SnapshotsKept is how many snapshots per board survive a save.
const SnapshotsKept = 10

// Snapshot is one saved version of a board document.
type Snapshot struct {
	ID        string
	BoardID   string
	Version   int32
	Document  []byte // document.Snapshot JSON
	CreatedAt time.Time
}

// Store is implemented by PGStore and MemoryStore.
type Store interface {
	CreateBoard(ctx context.Context, boardID string) error
	BoardExists(ctx context.Context, boardID string) (bool, error)
	SaveSnapshot(ctx context.Context, boardID string, doc []byte) (*Snapshot, error)
	LatestSnapshot(ctx context.Context, boardID string) (*Snapshot, error)
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id         TEXT PRIMARY KEY,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS board_snapshots (
	id         TEXT PRIMARY KEY,
	board_id   TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
	version    INT NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (board_id, version)
);
`

// PGStore keeps boards in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Migrate creates the tables if they do not exist.
func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PGStore) CreateBoard(ctx context.Context, boardID string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO boards (id) VALUES ($1)`, boardID)
	if err != nil {
		if pgErrorCode(err) == "23505" { // unique_violation
			return fmt.Errorf("board %s: %w", boardID, ErrExists)
		}
		return fmt.Errorf("create board: %w", err)
	}
	return nil
}

func (s *PGStore) BoardExists(ctx context.Context, boardID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM boards WHERE id = $1)`, boardID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("board exists: %w", err)
	}
	return exists, nil
}

// SaveSnapshot stores doc as the board's next version and prunes all but
// the newest SnapshotsKept versions.
func (s *PGStore) SaveSnapshot(ctx context.Context, boardID string, doc []byte) (*Snapshot, error) {
	snap := &Snapshot{ID: typeid.NewSnapshotID(), BoardID: boardID, Document: doc}

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO board_snapshots (id, board_id, version, document)
			SELECT $1::text, $2::text, COALESCE(MAX(version), 0) + 1, $3::jsonb
			FROM board_snapshots WHERE board_id = $2
			RETURNING version, created_at`,
			snap.ID, boardID, doc,
		).Scan(&snap.Version, &snap.CreatedAt)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			DELETE FROM board_snapshots
			WHERE board_id = $1 AND version <= $2`,
			boardID, snap.Version-SnapshotsKept,
		)
		return err
	})
	if err != nil {
		if pgErrorCode(err) == "23503" { // foreign_key_violation
			return nil, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	return snap, nil
}

func (s *PGStore) LatestSnapshot(ctx context.Context, boardID string) (*Snapshot, error) {
	snap := &Snapshot{BoardID: boardID}
	err := s.pool.QueryRow(ctx, `
		SELECT id, version, document, created_at
		FROM board_snapshots
		WHERE board_id = $1
		ORDER BY version DESC
		LIMIT 1`,
		boardID,
	).Scan(&snap.ID, &snap.Version, &snap.Document, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("snapshot for %s: %w", boardID, ErrNotFound)
		}
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, nil
}

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

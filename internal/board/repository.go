package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inkboard/inkboard/backend-go/internal/db"
	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

// Repository maps boards onto snapshot storage. Its Load and Save are
// the hub's persistence hooks.
type Repository struct {
	store    db.Store
	darkMode bool
}

func NewRepository(store db.Store, darkMode bool) *Repository {
	return &Repository{store: store, darkMode: darkMode}
}

// Create registers boardID and seeds it with an empty snapshot.
func (r *Repository) Create(ctx context.Context, boardID string) error {
	if err := r.store.CreateBoard(ctx, boardID); err != nil {
		return fmt.Errorf("create board: %w", err)
	}
	if err := r.Save(ctx, boardID, document.NewEmptySnapshot(time.Now().UnixMilli(), r.darkMode)); err != nil {
		return fmt.Errorf("seed board: %w", err)
	}
	return nil
}

// Exists returns ErrNotFound for an unknown board.
func (r *Repository) Exists(ctx context.Context, boardID string) error {
	if err := checkID(boardID); err != nil {
		return err
	}
	ok, err := r.store.BoardExists(ctx, boardID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("board %s: %w", boardID, ErrNotFound)
	}
	return nil
}

// Load returns the newest saved snapshot of a board.
func (r *Repository) Load(ctx context.Context, boardID string) (*document.Snapshot, error) {
	if err := checkID(boardID); err != nil {
		return nil, err
	}
	saved, err := r.store.LatestSnapshot(ctx, boardID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return nil, err
	}

	snap, err := document.ParseSnapshot(saved.Document)
	if err != nil {
		return nil, fmt.Errorf("stored snapshot %s: %w", saved.ID, err)
	}
	return snap, nil
}

// Save stores snap as the board's newest version.
func (r *Repository) Save(ctx context.Context, boardID string, snap *document.Snapshot) error {
	data, err := snap.Marshal()
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if _, err := r.store.SaveSnapshot(ctx, boardID, data); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("board %s: %w", boardID, ErrNotFound)
		}
		return err
	}
	return nil
}

// checkID rejects ids that no board could have without a store lookup.
func checkID(boardID string) error {
	if err := typeid.Validate(boardID, typeid.PrefixBoard); err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return nil
}

// Package board is the HTTP-facing board service: creating boards and
// running undo, redo, erase-all, import and export against them.
package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/inkboard/inkboard/backend-go/internal/auth"
	"github.com/inkboard/inkboard/backend-go/internal/collab"
	"github.com/inkboard/inkboard/backend-go/internal/document"
	"github.com/inkboard/inkboard/backend-go/internal/engine"
	"github.com/inkboard/inkboard/backend-go/internal/typeid"
)

var (
	ErrNotFound      = errors.New("board not found")
	ErrEmptyBoard    = engine.ErrEmptyBoard
	ErrFrameTooLarge = engine.ErrFrameTooLarge
	ErrMalformed     = document.ErrMalformed
)

type Service struct {
	repo   *Repository
	hub    *collab.Hub
	tokens *auth.Service
}

func NewService(repo *Repository, hub *collab.Hub, tokens *auth.Service) *Service {
	return &Service{repo: repo, hub: hub, tokens: tokens}
}

// Board is a newly created board and its edit token.
type Board struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

// HistoryState reports what the board can undo and redo after an action.
type HistoryState struct {
	Changed bool `json:"changed"`
	CanUndo bool `json:"canUndo"`
	CanRedo bool `json:"canRedo"`
}

func (s *Service) Create(ctx context.Context) (*Board, error) {
	boardID := typeid.NewBoardID()
	if err := s.repo.Create(ctx, boardID); err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueBoardToken(boardID)
	if err != nil {
		return nil, err
	}
	return &Board{ID: boardID, Token: token}, nil
}

// Exists returns ErrNotFound for an unknown board.
func (s *Service) Exists(ctx context.Context, boardID string) error {
	return s.repo.Exists(ctx, boardID)
}

// Snapshot returns the board's current state, including changes not yet
// saved.
func (s *Service) Snapshot(ctx context.Context, boardID string) (*document.Snapshot, error) {
	var snap *document.Snapshot
	err := s.hub.View(ctx, boardID, func(e *engine.Engine) error {
		snap = e.Export()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Frame crops the board's current state for rendering.
func (s *Service) Frame(ctx context.Context, boardID string) (engine.Frame, error) {
	var frame engine.Frame
	err := s.hub.View(ctx, boardID, func(e *engine.Engine) error {
		var err error
		frame, err = e.Frame()
		return err
	})
	return frame, err
}

// Import validates data as a snapshot and replaces the board with it.
// Nothing changes when the data is malformed.
func (s *Service) Import(ctx context.Context, boardID string, data []byte) error {
	snap, err := document.ParseSnapshot(data)
	if err != nil {
		return err
	}
	return s.hub.Do(ctx, boardID, func(e *engine.Engine) error {
		return e.Import(snap)
	})
}

func (s *Service) Undo(ctx context.Context, boardID string) (*HistoryState, error) {
	return s.history(ctx, boardID, (*engine.Engine).Undo)
}

func (s *Service) Redo(ctx context.Context, boardID string) (*HistoryState, error) {
	return s.history(ctx, boardID, (*engine.Engine).Redo)
}

func (s *Service) EraseAll(ctx context.Context, boardID string) (*HistoryState, error) {
	return s.history(ctx, boardID, func(e *engine.Engine) bool {
		before := len(e.LiveIDs())
		e.EraseAll()
		return len(e.LiveIDs()) < before
	})
}

func (s *Service) history(ctx context.Context, boardID string, action func(*engine.Engine) bool) (*HistoryState, error) {
	var state HistoryState
	err := s.hub.Do(ctx, boardID, func(e *engine.Engine) error {
		state.Changed = action(e)
		state.CanUndo = e.CanUndo()
		state.CanRedo = e.CanRedo()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("board %s: %w", boardID, err)
	}
	return &state, nil
}

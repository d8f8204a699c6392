package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/selection"
)

// SelectionView is the batch delete state.
type SelectionView struct {
	State    selection.State `json:"state"`
	Selected []uuid.UUID     `json:"selected"`
}

func (s *Session) selectionView() SelectionView {
	return SelectionView{State: s.sel.State(), Selected: s.sel.Selected()}
}

// SelectionState returns the current batch delete state.
func (s *Session) SelectionState(ctx context.Context) (SelectionView, error) {
	var v SelectionView
	err := s.do(ctx, func() { v = s.selectionView() })
	return v, err
}

// BeginSelection enters batch delete mode with an empty selection.
func (s *Session) BeginSelection(ctx context.Context) (SelectionView, error) {
	var v SelectionView
	err := s.do(ctx, func() {
		s.sel.Begin()
		v = s.selectionView()
	})
	return v, err
}

// ToggleSelection flips an item's membership in the selection. The item must
// be part of the current projection.
func (s *Session) ToggleSelection(ctx context.Context, id uuid.UUID) (SelectionView, error) {
	var v SelectionView
	var serr error
	err := s.do(ctx, func() {
		if s.sel.State() != selection.SelectingForDelete {
			serr = selection.ErrNotSelecting
		} else if !s.snap.Contains(id) {
			serr = fmt.Errorf("item %s: %w", id, model.ErrNotFound)
		} else {
			_, serr = s.sel.Toggle(id)
		}
		v = s.selectionView()
	})
	if err != nil {
		return SelectionView{}, err
	}
	return v, serr
}

// CancelSelection leaves batch delete mode without deleting anything.
func (s *Session) CancelSelection(ctx context.Context) (SelectionView, error) {
	var v SelectionView
	err := s.do(ctx, func() {
		s.sel.Cancel()
		v = s.selectionView()
	})
	return v, err
}

// ConfirmSelection deletes every selected item, leaves batch delete mode and
// recomputes. Individual failures are logged and reported in the result; they
// do not stop the batch.
func (s *Session) ConfirmSelection(ctx context.Context) (selection.Result, error) {
	var res selection.Result
	var serr error
	err := s.do(ctx, func() {
		var ids []uuid.UUID
		if ids, serr = s.sel.Confirm(); serr != nil {
			return
		}
		res = selection.BatchDelete(ctx, s.store, ids)
		if n := len(res.Failed); n > 0 && s.metrics != nil {
			s.metrics.BatchDeleteFailed(n)
		}
		slog.Info("batch delete finished", "deleted", len(res.Deleted), "failed", len(res.Failed))

		s.drain()
		if err := s.recompute(ctx); err != nil {
			slog.Error("projection recompute failed", "error", err)
		}
	})
	if err != nil {
		return selection.Result{}, err
	}
	return res, serr
}

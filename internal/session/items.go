package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/model"
)

// GetItem returns one item, for the edit flow.
func (s *Session) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var it *model.Item
	var serr error
	if err := s.do(ctx, func() { it, serr = s.store.GetItem(ctx, id) }); err != nil {
		return nil, err
	}
	return it, serr
}

// AddItem creates an item. It is refused with a *model.CatalogMissingError
// while any of the room, owner, brand or category catalogs is empty.
func (s *Session) AddItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	var it *model.Item
	var serr error
	err := s.do(ctx, func() {
		missing, err := s.store.MissingCatalogs(ctx)
		if err != nil {
			serr = fmt.Errorf("checking catalogs: %w", err)
			return
		}
		if len(missing) > 0 {
			serr = &model.CatalogMissingError{Missing: missing}
			return
		}
		if it, serr = s.store.CreateItem(ctx, in); serr == nil {
			slog.Info("item created", "item", it.ID, "name", it.Name)
		}
		s.sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	return it, serr
}

// UpdateItem replaces an item's editable fields.
func (s *Session) UpdateItem(ctx context.Context, id uuid.UUID, in model.ItemInput) (*model.Item, error) {
	var it *model.Item
	var serr error
	err := s.do(ctx, func() {
		if it, serr = s.store.UpdateItem(ctx, id, in); serr == nil {
			slog.Info("item updated", "item", id)
		}
		s.sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	return it, serr
}

// DeleteItem removes a single item.
func (s *Session) DeleteItem(ctx context.Context, id uuid.UUID) error {
	var serr error
	err := s.do(ctx, func() {
		if serr = s.store.DeleteItem(ctx, id); serr == nil {
			slog.Info("item deleted", "item", id)
		}
		s.sync(ctx)
	})
	if err != nil {
		return err
	}
	return serr
}

// DuplicateItem copies an item under a new identity, appending the localized
// "(copy)" suffix to its name.
func (s *Session) DuplicateItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var it *model.Item
	var serr error
	err := s.do(ctx, func() {
		orig, err := s.store.GetItem(ctx, id)
		if err != nil {
			serr = err
			return
		}
		if it, serr = s.store.DuplicateItem(ctx, id, s.loc.CopyName(orig.Name)); serr == nil {
			slog.Info("item duplicated", "item", id, "copy", it.ID)
		}
		s.sync(ctx)
	})
	if err != nil {
		return nil, err
	}
	return it, serr
}

package session

import (
	"context"
	"fmt"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/projection"
	"github.com/erazemk/inventar/internal/query"
)

// Snapshot returns the current projection.
func (s *Session) Snapshot(ctx context.Context) (*projection.Snapshot, error) {
	var snap *projection.Snapshot
	if err := s.do(ctx, func() { snap = s.snap }); err != nil {
		return nil, err
	}
	return snap, nil
}

// Filter returns the active filter.
func (s *Session) Filter(ctx context.Context) (query.Filter, error) {
	var f query.Filter
	err := s.do(ctx, func() { f = s.filter })
	return f, err
}

// SetFilter replaces the whole filter and recomputes. The localized "All"
// label is accepted for either scope. If the recompute fails the previous
// filter and snapshot are kept and the error is returned with the snapshot.
func (s *Session) SetFilter(ctx context.Context, f query.Filter) (*projection.Snapshot, error) {
	return s.updateFilter(ctx, func(query.Filter) query.Filter { return f })
}

// SetOwnerScope constrains the projection to one owner, or to every owner
// when owner is query.All or the localized "All" label.
func (s *Session) SetOwnerScope(ctx context.Context, owner string) (*projection.Snapshot, error) {
	return s.updateFilter(ctx, func(f query.Filter) query.Filter {
		f.Owner = owner
		return f
	})
}

// SetRoomScope constrains the projection to one room.
func (s *Session) SetRoomScope(ctx context.Context, room string) (*projection.Snapshot, error) {
	return s.updateFilter(ctx, func(f query.Filter) query.Filter {
		f.Room = room
		return f
	})
}

// SetSearch sets the name search text. Every call recomputes.
func (s *Session) SetSearch(ctx context.Context, text string) (*projection.Snapshot, error) {
	return s.updateFilter(ctx, func(f query.Filter) query.Filter {
		f.Search = text
		return f
	})
}

// ResetFilter clears both scopes and the search text.
func (s *Session) ResetFilter(ctx context.Context) (*projection.Snapshot, error) {
	return s.updateFilter(ctx, func(query.Filter) query.Filter { return query.Filter{} })
}

func (s *Session) updateFilter(ctx context.Context, change func(query.Filter) query.Filter) (*projection.Snapshot, error) {
	var snap *projection.Snapshot
	var qerr error
	err := s.do(ctx, func() {
		prev := s.filter
		s.filter = change(prev).Normalize(s.loc.All())
		if qerr = s.recompute(ctx); qerr != nil {
			s.filter = prev
		}
		snap = s.snap
	})
	if err != nil {
		return nil, err
	}
	return snap, qerr
}

// Refresh recomputes the projection on request. A failed recompute keeps the
// previous snapshot, which is returned along with the error.
func (s *Session) Refresh(ctx context.Context) (*projection.Snapshot, error) {
	var snap *projection.Snapshot
	var qerr error
	err := s.do(ctx, func() {
		qerr = s.recompute(ctx)
		snap = s.snap
	})
	if err != nil {
		return nil, err
	}
	return snap, qerr
}

// ScopeOptions lists the choices of the owner and room scope controls.
type ScopeOptions struct {
	Owners []string `json:"owners"`
	Rooms  []string `json:"rooms"`
}

// ScopeOptions returns the localized "All" label followed by every owner
// name, and the same for rooms, each sorted by locale collation.
func (s *Session) ScopeOptions(ctx context.Context) (ScopeOptions, error) {
	var opts ScopeOptions
	var qerr error
	err := s.do(ctx, func() {
		if opts.Owners, qerr = s.scopeNames(ctx, model.KindOwner); qerr != nil {
			return
		}
		opts.Rooms, qerr = s.scopeNames(ctx, model.KindRoom)
	})
	if err != nil {
		return ScopeOptions{}, err
	}
	return opts, qerr
}

func (s *Session) scopeNames(ctx context.Context, kind model.CatalogKind) ([]string, error) {
	entries, err := s.store.ListCatalog(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", projection.ErrQuery, err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	s.loc.SortStrings(names)
	return append([]string{s.loc.All()}, names...), nil
}

// Package projection materializes the browsing list: the items matching the
// active filter, grouped into sections by room and ordered by locale-aware
// collation. A projection is always rebuilt in full, never patched.
package projection

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/i18n"
	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/query"
)

// ErrQuery wraps store failures during a recompute.
var ErrQuery = errors.New("query failed")

// Source is the store read used by a recompute.
type Source interface {
	QueryItems(ctx context.Context, pred query.Predicate) ([]model.Item, error)
}

// Observer is told about every recompute attempt.
type Observer interface {
	ObserveRecompute(d time.Duration, err error)
}

// Section is one room's group of matching items.
type Section struct {
	Key        string       `json:"key"`
	Items      []model.Item `json:"items"`
	CountLabel string       `json:"count_label"`
}

// Snapshot is an immutable projection result. Callers must not modify it.
type Snapshot struct {
	Filter     query.Filter `json:"filter"`
	Sections   []Section    `json:"sections"`
	Total      int          `json:"total"`
	CountLabel string       `json:"count_label"`
	Version    uint64       `json:"version"`
}

// Empty returns the snapshot shown before the first recompute.
func Empty(loc *i18n.Localizer) *Snapshot {
	return &Snapshot{Sections: []Section{}, CountLabel: loc.ItemCount(0)}
}

// Items returns every item of the snapshot in display order.
func (s *Snapshot) Items() []model.Item {
	var out []model.Item
	for _, sec := range s.Sections {
		out = append(out, sec.Items...)
	}
	return out
}

// Contains reports whether an item with the given ID is in the snapshot.
func (s *Snapshot) Contains(id uuid.UUID) bool {
	for i := range s.Sections {
		for j := range s.Sections[i].Items {
			if s.Sections[i].Items[j].ID == id {
				return true
			}
		}
	}
	return false
}

// Sections queries src with pred and groups the result by room name. Rooms
// and items within a room are ordered by the localizer's collation. Rooms
// with no matching items do not appear.
func Sections(ctx context.Context, src Source, pred query.Predicate, loc *i18n.Localizer) ([]Section, error) {
	items, err := src.QueryItems(ctx, pred)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuery, err)
	}

	col := loc.Collator()
	sort.SliceStable(items, func(i, j int) bool {
		a, b := &items[i], &items[j]
		if c := col.CompareString(a.RoomName, b.RoomName); c != 0 {
			return c < 0
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c < 0
		}
		return a.ID.String() < b.ID.String()
	})

	sections := []Section{}
	for _, it := range items {
		n := len(sections)
		if n == 0 || sections[n-1].Key != it.RoomName {
			sections = append(sections, Section{Key: it.RoomName})
			n++
		}
		sections[n-1].Items = append(sections[n-1].Items, it)
	}
	for i := range sections {
		sections[i].CountLabel = loc.ItemCount(len(sections[i].Items))
	}
	return sections, nil
}

// Projector produces versioned snapshots. It is not safe for concurrent use;
// it belongs to the session's control goroutine.
type Projector struct {
	src      Source
	loc      *i18n.Localizer
	observer Observer
	version  uint64
}

// NewProjector returns a projector reading from src. observer may be nil.
func NewProjector(src Source, loc *i18n.Localizer, observer Observer) *Projector {
	return &Projector{src: src, loc: loc, observer: observer}
}

// Recompute rebuilds the projection for a filter. On error no snapshot is
// produced and the version is unchanged.
func (p *Projector) Recompute(ctx context.Context, f query.Filter) (*Snapshot, error) {
	start := time.Now()
	sections, err := Sections(ctx, p.src, query.Build(f), p.loc)
	if p.observer != nil {
		p.observer.ObserveRecompute(time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	total := 0
	for _, sec := range sections {
		total += len(sec.Items)
	}
	p.version++
	return &Snapshot{
		Filter:     f,
		Sections:   sections,
		Total:      total,
		CountLabel: p.loc.ItemCount(total),
		Version:    p.version,
	}, nil
}

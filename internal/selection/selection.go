// Package selection implements multi-select batch deletion: a two-state
// controller (browsing, selecting for delete) and a best-effort delete of the
// confirmed selection.
package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
)

// ErrNotSelecting is returned when a selection command arrives while browsing.
var ErrNotSelecting = errors.New("not selecting items for deletion")

// State is the controller mode.
type State int

const (
	Browsing State = iota
	SelectingForDelete
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case SelectingForDelete:
		return "selecting_for_delete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "browsing":
		*s = Browsing
	case "selecting_for_delete":
		*s = SelectingForDelete
	default:
		return fmt.Errorf("unknown selection state %q", text)
	}
	return nil
}

// Controller tracks the selection set. The zero value is browsing with an
// empty selection. It is not safe for concurrent use.
type Controller struct {
	state    State
	selected map[uuid.UUID]struct{}
}

// State returns the current mode.
func (c *Controller) State() State {
	return c.state
}

// Begin enters selection mode with an empty selection.
func (c *Controller) Begin() {
	c.state = SelectingForDelete
	c.selected = make(map[uuid.UUID]struct{})
}

// Toggle adds id to the selection if absent and removes it if present. It
// reports whether id is selected afterwards.
func (c *Controller) Toggle(id uuid.UUID) (bool, error) {
	if c.state != SelectingForDelete {
		return false, ErrNotSelecting
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
		return false, nil
	}
	c.selected[id] = struct{}{}
	return true, nil
}

// IsSelected reports whether id is in the selection.
func (c *Controller) IsSelected(id uuid.UUID) bool {
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selection in a stable order.
func (c *Controller) Selected() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Cancel discards the selection and returns to browsing. Cancelling while
// browsing is a no-op.
func (c *Controller) Cancel() {
	c.state = Browsing
	c.selected = nil
}

// Confirm returns the selection and returns to browsing with it cleared.
// The caller deletes the returned items.
func (c *Controller) Confirm() ([]uuid.UUID, error) {
	if c.state != SelectingForDelete {
		return nil, ErrNotSelecting
	}
	ids := c.Selected()
	c.Cancel()
	return ids, nil
}

// Deleter removes a single item.
type Deleter interface {
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// ItemError is a failed delete within a batch.
type ItemError struct {
	ID  uuid.UUID
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("deleting item %s: %v", e.ID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

// Result reports the outcome of a batch delete.
type Result struct {
	Deleted []uuid.UUID  `json:"deleted"`
	Failed  []*ItemError `json:"-"`
}

// BatchDelete deletes every id independently. A failed delete is logged and
// skipped; it never stops the rest of the batch.
func BatchDelete(ctx context.Context, d Deleter, ids []uuid.UUID) Result {
	var res Result
	for _, id := range ids {
		if err := d.DeleteItem(ctx, id); err != nil {
			slog.Warn("batch delete: skipping item", "item", id, "error", err)
			res.Failed = append(res.Failed, &ItemError{ID: id, Err: err})
			continue
		}
		res.Deleted = append(res.Deleted, id)
	}
	return res
}

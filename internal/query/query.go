// Package query holds the browsing filter state and derives the store
// predicate and sort order from it.
package query

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/erazemk/inventar/internal/model"
)

// All is the scope value meaning "no constraint".
const All = ""

// Filter is the active owner scope, room scope and free-text search.
type Filter struct {
	Owner  string `json:"owner"`
	Room   string `json:"room"`
	Search string `json:"search"`
}

// Normalize maps the localized "All" label to All and trims scope names.
// Search text is kept as typed.
func (f Filter) Normalize(allLabel string) Filter {
	f.Owner = normalizeScope(f.Owner, allLabel)
	f.Room = normalizeScope(f.Room, allLabel)
	return f
}

func normalizeScope(s, allLabel string) string {
	s = strings.TrimSpace(s)
	if allLabel != "" && s == allLabel {
		return All
	}
	return s
}

// IsDefault reports whether the filter constrains nothing.
func (f Filter) IsDefault() bool {
	return f.Owner == All && f.Room == All && strings.TrimSpace(f.Search) == ""
}

// Predicate is the AND of the owner scope, room scope and name search.
// The zero value matches everything.
type Predicate struct {
	owner  string
	room   string
	search string // case-folded; empty means no name constraint
}

// Build derives the predicate for a filter.
func Build(f Filter) Predicate {
	p := Predicate{owner: f.Owner, room: f.Room}
	if strings.TrimSpace(f.Search) != "" {
		p.search = fold(f.Search)
	}
	return p
}

// MatchesAll reports whether the predicate is unconstrained.
func (p Predicate) MatchesAll() bool {
	return p.owner == All && p.room == All && p.search == ""
}

// Where returns the SQL scope clause and its arguments. The clause refers to
// the owner catalog as "o" and the room catalog as "r". Name search is not
// part of the clause; see MatchName.
func (p Predicate) Where() (string, []any) {
	var clauses []string
	var args []any
	if p.owner != All {
		clauses = append(clauses, "o.name = ?")
		args = append(args, p.owner)
	}
	if p.room != All {
		clauses = append(clauses, "r.name = ?")
		args = append(args, p.room)
	}
	if len(clauses) == 0 {
		return "1=1", nil
	}
	return strings.Join(clauses, " AND "), args
}

// OrderBy returns the store sort order: room name, then item name.
func (p Predicate) OrderBy() string {
	return "r.name COLLATE NOCASE, i.name COLLATE NOCASE, i.id"
}

// MatchName reports whether name contains the search text, ignoring case.
// Case folding is Unicode-aware, so "ŠOLA" matches "šol".
func (p Predicate) MatchName(name string) bool {
	if p.search == "" {
		return true
	}
	return strings.Contains(fold(name), p.search)
}

// Match evaluates the whole predicate against an item with joined names.
func (p Predicate) Match(it *model.Item) bool {
	if p.owner != All && it.OwnerName != p.owner {
		return false
	}
	if p.room != All && it.RoomName != p.room {
		return false
	}
	return p.MatchName(it.Name)
}

func fold(s string) string {
	return cases.Fold().String(s)
}

package query

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/erazemk/inventar/internal/model"
)

func TestBuildDefaultMatchesEverything(t *testing.T) {
	p := Build(Filter{})

	assert.True(t, p.MatchesAll())
	where, args := p.Where()
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
	assert.True(t, p.Match(&model.Item{Name: "Anything", OwnerName: "X", RoomName: "Y"}))
}

func TestWhereCombinesScopesWithAnd(t *testing.T) {
	tests := []struct {
		filter Filter
		where  string
		args   []any
	}{
		{Filter{Owner: "Alice"}, "o.name = ?", []any{"Alice"}},
		{Filter{Room: "Kitchen"}, "r.name = ?", []any{"Kitchen"}},
		{Filter{Owner: "Alice", Room: "Kitchen"}, "o.name = ? AND r.name = ?", []any{"Alice", "Kitchen"}},
		{Filter{Search: "lamp"}, "1=1", nil},
	}

	for _, tt := range tests {
		where, args := Build(tt.filter).Where()
		assert.Equal(t, tt.where, where, "filter %+v", tt.filter)
		assert.Equal(t, tt.args, args, "filter %+v", tt.filter)
	}
}

func TestMatchNameCaseInsensitive(t *testing.T) {
	tests := []struct {
		search string
		name   string
		want   bool
	}{
		{"o", "Desk", false},
		{"e", "Desk", true},
		{"LAMP", "Desk lamp", true},
		{"šol", "ŠOLSKA torba", true},
		{"   ", "anything", true},
		{"fork", "Spoon", false},
	}

	for _, tt := range tests {
		got := Build(Filter{Search: tt.search}).MatchName(tt.name)
		assert.Equal(t, tt.want, got, "search %q in %q", tt.search, tt.name)
	}
}

func TestMatchAllCombinations(t *testing.T) {
	items := []model.Item{
		{Name: "Lamp", RoomName: "Kitchen", OwnerName: "Alice"},
		{Name: "Fork", RoomName: "Kitchen", OwnerName: "Bob"},
		{Name: "Desk", RoomName: "Office", OwnerName: "Alice"},
	}
	owners := []string{All, "Alice", "Bob", "Nobody"}
	rooms := []string{All, "Kitchen", "Office"}
	searches := []string{"", "o", "K", "zz"}

	for _, o := range owners {
		for _, r := range rooms {
			for _, s := range searches {
				p := Build(Filter{Owner: o, Room: r, Search: s})
				for i := range items {
					it := &items[i]
					want := (o == All || it.OwnerName == o) &&
						(r == All || it.RoomName == r) &&
						(s == "" || containsFold(it.Name, s))
					assert.Equal(t, want, p.Match(it), fmt.Sprintf("owner=%q room=%q search=%q item=%s", o, r, s, it.Name))
				}
			}
		}
	}
}

func TestNormalizeAllLabel(t *testing.T) {
	f := Filter{Owner: "All", Room: " Kitchen ", Search: " lamp"}.Normalize("All")

	assert.Equal(t, All, f.Owner)
	assert.Equal(t, "Kitchen", f.Room)
	assert.Equal(t, " lamp", f.Search)
	assert.False(t, f.IsDefault())
	assert.True(t, Filter{Search: "  "}.IsDefault())
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// Package sample fills an empty inventory with demonstration data, so the
// add-item flow can proceed when the catalogs are still empty.
package sample

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/query"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed is the demonstration data set.
type Seed struct {
	Rooms      []string   `yaml:"rooms"`
	Owners     []string   `yaml:"owners"`
	Brands     []string   `yaml:"brands"`
	Categories []string   `yaml:"categories"`
	Items      []SeedItem `yaml:"items"`
}

// SeedItem is an item whose references are given by name.
type SeedItem struct {
	Name           string    `yaml:"name"`
	Room           string    `yaml:"room"`
	Owner          string    `yaml:"owner"`
	Brand          string    `yaml:"brand"`
	Category       string    `yaml:"category"`
	Price          int64     `yaml:"price"`
	WarrantyMonths int       `yaml:"warranty_months"`
	PurchaseDate   time.Time `yaml:"purchase_date"`
	SerialNumber   string    `yaml:"serial_number"`
	Remark         string    `yaml:"remark"`
}

// Store is the subset of the record store used for seeding.
type Store interface {
	FindCatalogEntry(ctx context.Context, kind model.CatalogKind, name string) (*model.CatalogEntry, error)
	CreateCatalogEntry(ctx context.Context, kind model.CatalogKind, name string) (*model.CatalogEntry, error)
	QueryItems(ctx context.Context, pred query.Predicate) ([]model.Item, error)
	CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error)
}

// Summary counts what a run created.
type Summary struct {
	Catalogs int `json:"catalogs_created"`
	Items    int `json:"items_created"`
}

// Default returns the embedded seed.
func Default() (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(seedYAML, &s); err != nil {
		return nil, fmt.Errorf("parsing sample seed: %w", err)
	}
	return &s, nil
}

// Generate creates every catalog entry and item of the seed that does not
// exist yet. Entries are matched by name, items by name and room, so running
// it twice creates nothing the second time.
func Generate(ctx context.Context, st Store, seed *Seed) (Summary, error) {
	var sum Summary
	ids := make(map[model.CatalogKind]map[string]model.CatalogEntry)

	lists := []struct {
		kind  model.CatalogKind
		names []string
	}{
		{model.KindRoom, seed.Rooms},
		{model.KindOwner, seed.Owners},
		{model.KindBrand, seed.Brands},
		{model.KindCategory, seed.Categories},
	}
	for _, l := range lists {
		ids[l.kind] = make(map[string]model.CatalogEntry)
		for _, name := range l.names {
			e, err := st.FindCatalogEntry(ctx, l.kind, name)
			if err != nil {
				return sum, err
			}
			if e == nil {
				if e, err = st.CreateCatalogEntry(ctx, l.kind, name); err != nil {
					return sum, err
				}
				sum.Catalogs++
			}
			ids[l.kind][name] = *e
		}
	}

	existing, err := st.QueryItems(ctx, query.Build(query.Filter{}))
	if err != nil {
		return sum, err
	}
	have := make(map[[2]string]bool, len(existing))
	for _, it := range existing {
		have[[2]string{it.Name, it.RoomName}] = true
	}

	for _, si := range seed.Items {
		room, ok := ids[model.KindRoom][si.Room]
		if !ok {
			return sum, fmt.Errorf("sample item %q: unknown room %q", si.Name, si.Room)
		}
		if have[[2]string{si.Name, room.Name}] {
			continue
		}

		in := model.ItemInput{
			Name:           si.Name,
			Price:          si.Price,
			WarrantyMonths: si.WarrantyMonths,
			SerialNumber:   si.SerialNumber,
			Remark:         si.Remark,
			RoomID:         room.ID,
			OwnerID:        ids[model.KindOwner][si.Owner].ID,
			BrandID:        ids[model.KindBrand][si.Brand].ID,
			CategoryID:     ids[model.KindCategory][si.Category].ID,
		}
		if !si.PurchaseDate.IsZero() {
			d := si.PurchaseDate
			in.PurchaseDate = &d
		}
		if _, err := st.CreateItem(ctx, in); err != nil {
			return sum, fmt.Errorf("sample item %q: %w", si.Name, err)
		}
		sum.Items++
	}

	slog.Info("sample data generated", "catalogs", sum.Catalogs, "items", sum.Items)
	return sum, nil
}

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/inventar/internal/db"
	"github.com/erazemk/inventar/internal/model"
)

func TestCatalogCRUD(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	room, err := s.CreateCatalogEntry(ctx, model.KindRoom, "  Kitchen ")
	if err != nil {
		t.Fatalf("CreateCatalogEntry: %v", err)
	}
	if room.Name != "Kitchen" || room.Kind != model.KindRoom {
		t.Errorf("unexpected entry: %+v", room)
	}

	s.CreateCatalogEntry(ctx, model.KindRoom, "bathroom")
	s.CreateCatalogEntry(ctx, model.KindOwner, "Alice")

	rooms, err := s.ListCatalog(ctx, model.KindRoom)
	if err != nil {
		t.Fatalf("ListCatalog: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "bathroom" || rooms[1].Name != "Kitchen" {
		t.Errorf("expected [bathroom Kitchen], got %+v", rooms)
	}

	if err := s.UpdateCatalogEntry(ctx, model.KindRoom, room.ID, "Galley"); err != nil {
		t.Fatalf("UpdateCatalogEntry: %v", err)
	}
	got, _ := s.GetCatalogEntry(ctx, model.KindRoom, room.ID)
	if got.Name != "Galley" {
		t.Errorf("expected 'Galley', got %q", got.Name)
	}

	// The ID exists but is not an owner.
	if _, err := s.GetCatalogEntry(ctx, model.KindOwner, room.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound for wrong kind, got %v", err)
	}

	if err := s.DeleteCatalogEntry(ctx, model.KindRoom, room.ID); err != nil {
		t.Fatalf("DeleteCatalogEntry: %v", err)
	}
	if err := s.DeleteCatalogEntry(ctx, model.KindRoom, room.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogNameValidation(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	if _, err := s.CreateCatalogEntry(ctx, model.KindBrand, "   "); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	s.CreateCatalogEntry(ctx, model.KindBrand, "Ikea")
	if _, err := s.CreateCatalogEntry(ctx, model.KindBrand, "IKEA"); !errors.Is(err, model.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	// Same name in a different kind is fine.
	if _, err := s.CreateCatalogEntry(ctx, model.KindOwner, "Ikea"); err != nil {
		t.Errorf("expected success across kinds, got %v", err)
	}

	found, err := s.FindCatalogEntry(ctx, model.KindBrand, "ikea")
	if err != nil || found == nil || found.Name != "Ikea" {
		t.Errorf("expected to find Ikea, got %+v, %v", found, err)
	}
	missing, _ := s.FindCatalogEntry(ctx, model.KindBrand, "Nope")
	if missing != nil {
		t.Error("expected nil for missing entry")
	}
}

func TestDeleteReferencedCatalogEntryRestricted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.add(t, "Lamp", "Kitchen", "Alice")

	err := f.s.DeleteCatalogEntry(ctx, model.KindRoom, f.ids["Kitchen"])
	if !errors.Is(err, model.ErrCatalogInUse) {
		t.Fatalf("expected ErrCatalogInUse, got %v", err)
	}
	if _, err := f.s.GetCatalogEntry(ctx, model.KindRoom, f.ids["Kitchen"]); err != nil {
		t.Errorf("expected room to survive, got %v", err)
	}

	// Unreferenced entries delete normally.
	if err := f.s.DeleteCatalogEntry(ctx, model.KindOwner, f.ids["Bob"]); err != nil {
		t.Errorf("DeleteCatalogEntry: %v", err)
	}
}

func TestMissingCatalogs(t *testing.T) {
	s := New(db.NewTestDB(t))
	ctx := context.Background()

	missing, err := s.MissingCatalogs(ctx)
	if err != nil {
		t.Fatalf("MissingCatalogs: %v", err)
	}
	if len(missing) != 4 {
		t.Errorf("expected all 4 kinds missing, got %v", missing)
	}

	s.CreateCatalogEntry(ctx, model.KindRoom, "Kitchen")
	s.CreateCatalogEntry(ctx, model.KindBrand, "Ikea")

	missing, _ = s.MissingCatalogs(ctx)
	if len(missing) != 2 || missing[0] != model.KindOwner || missing[1] != model.KindCategory {
		t.Errorf("expected [owner category], got %v", missing)
	}
}

func TestRoomIcon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room := f.ids["Kitchen"]
	icon, err := f.s.GetRoomIcon(ctx, room)
	if err != nil || icon != nil {
		t.Fatalf("expected no icon, got %v, %v", icon, err)
	}

	if err := f.s.SetRoomIcon(ctx, room, []byte("png")); err != nil {
		t.Fatalf("SetRoomIcon: %v", err)
	}
	icon, _ = f.s.GetRoomIcon(ctx, room)
	if string(icon) != "png" {
		t.Errorf("expected icon bytes, got %q", icon)
	}

	entry, _ := f.s.GetCatalogEntry(ctx, model.KindRoom, room)
	if !entry.HasIcon {
		t.Error("expected HasIcon")
	}

	// Owners have no icons.
	if err := f.s.SetRoomIcon(ctx, f.ids["Alice"], []byte("png")); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

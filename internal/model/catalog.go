package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// CatalogKind identifies one of the reference catalogs an item points into.
type CatalogKind string

// Catalog kinds.
const (
	KindRoom     CatalogKind = "room"
	KindOwner    CatalogKind = "owner"
	KindBrand    CatalogKind = "brand"
	KindCategory CatalogKind = "category"
)

// CatalogKinds lists every kind in the order the add-item check reports them.
var CatalogKinds = []CatalogKind{KindRoom, KindOwner, KindBrand, KindCategory}

// ParseCatalogKind maps a kind name or its plural ("rooms") to a CatalogKind.
func ParseCatalogKind(s string) (CatalogKind, bool) {
	switch strings.ToLower(s) {
	case "room", "rooms":
		return KindRoom, true
	case "owner", "owners":
		return KindOwner, true
	case "brand", "brands":
		return KindBrand, true
	case "category", "categories":
		return KindCategory, true
	}
	return "", false
}

// CatalogEntry is a room, owner, brand or category.
type CatalogEntry struct {
	ID        uuid.UUID   `json:"id"`
	Kind      CatalogKind `json:"kind"`
	Name      string      `json:"name"`
	HasIcon   bool        `json:"has_icon,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// NormalizeCatalogName trims the name and rejects empty names.
func NormalizeCatalogName(kind CatalogKind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ValidationErrorf("please enter valid %s", kind)
	}
	return name, nil
}

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Item is a single inventoried belonging. Every persisted item references
// exactly one room, owner, brand and category.
type Item struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	PurchaseDate    *time.Time `json:"purchase_date,omitempty"`
	Price           int64      `json:"price"`
	SerialNumber    string     `json:"serial_number,omitempty"`
	Remark          string     `json:"remark,omitempty"`
	WarrantyMonths  int        `json:"warranty_months"`
	ImageFileName   string     `json:"image_file_name,omitempty"`
	InvoiceFileName string     `json:"invoice_file_name,omitempty"`
	HasImage        bool       `json:"has_image"`
	HasInvoice      bool       `json:"has_invoice"`
	RoomID          uuid.UUID  `json:"room_id"`
	OwnerID         uuid.UUID  `json:"owner_id"`
	BrandID         uuid.UUID  `json:"brand_id"`
	CategoryID      uuid.UUID  `json:"category_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Joined fields (populated by store reads).
	RoomName     string `json:"room_name,omitempty"`
	OwnerName    string `json:"owner_name,omitempty"`
	BrandName    string `json:"brand_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
}

// ItemInput holds the editable fields of an item, as submitted by the add
// and edit forms.
type ItemInput struct {
	Name           string     `json:"name"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	Price          int64      `json:"price"`
	SerialNumber   string     `json:"serial_number,omitempty"`
	Remark         string     `json:"remark,omitempty"`
	WarrantyMonths int        `json:"warranty_months"`
	RoomID         uuid.UUID  `json:"room_id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	BrandID        uuid.UUID  `json:"brand_id"`
	CategoryID     uuid.UUID  `json:"category_id"`
}

// Validate checks the required fields of an item.
func (in *ItemInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return ValidationErrorf("item name required")
	}
	if in.Price < 0 {
		return ValidationErrorf("price must not be negative")
	}
	if in.WarrantyMonths < 0 {
		return ValidationErrorf("warranty must not be negative")
	}
	refs := []struct {
		id   uuid.UUID
		kind CatalogKind
	}{
		{in.RoomID, KindRoom},
		{in.OwnerID, KindOwner},
		{in.BrandID, KindBrand},
		{in.CategoryID, KindCategory},
	}
	for _, ref := range refs {
		if ref.id == uuid.Nil {
			return ValidationErrorf("%s required", ref.kind)
		}
	}
	return nil
}

// Input returns the editable fields of the item.
func (it *Item) Input() ItemInput {
	return ItemInput{
		Name:           it.Name,
		PurchaseDate:   it.PurchaseDate,
		Price:          it.Price,
		SerialNumber:   it.SerialNumber,
		Remark:         it.Remark,
		WarrantyMonths: it.WarrantyMonths,
		RoomID:         it.RoomID,
		OwnerID:        it.OwnerID,
		BrandID:        it.BrandID,
		CategoryID:     it.CategoryID,
	}
}

// Attachment is a stored binary blob (image or invoice) and its filename.
type Attachment struct {
	Data     []byte
	FileName string
	MIME     string
}

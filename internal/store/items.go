package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/query"
)

const itemColumns = `i.id, i.name, i.purchase_date, i.price, i.serial_number, i.remark,
	i.warranty_months, i.image_file_name, i.invoice_file_name,
	i.image IS NOT NULL, i.invoice IS NOT NULL,
	i.room_id, i.owner_id, i.brand_id, i.category_id, i.created_at, i.updated_at,
	r.name, o.name, b.name, c.name`

const itemJoins = `FROM items i
	JOIN catalog_entries r ON r.id = i.room_id
	JOIN catalog_entries o ON o.id = i.owner_id
	JOIN catalog_entries b ON b.id = i.brand_id
	JOIN catalog_entries c ON c.id = i.category_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	it := &model.Item{}
	var serial, remark, imageName, invoiceName sql.NullString
	err := row.Scan(&it.ID, &it.Name, &it.PurchaseDate, &it.Price, &serial, &remark,
		&it.WarrantyMonths, &imageName, &invoiceName,
		&it.HasImage, &it.HasInvoice,
		&it.RoomID, &it.OwnerID, &it.BrandID, &it.CategoryID, &it.CreatedAt, &it.UpdatedAt,
		&it.RoomName, &it.OwnerName, &it.BrandName, &it.CategoryName)
	if err != nil {
		return nil, err
	}
	it.SerialNumber = serial.String
	it.Remark = remark.String
	it.ImageFileName = imageName.String
	it.InvoiceFileName = invoiceName.String
	return it, nil
}

// CreateItem validates and inserts a new item. Every catalog reference must
// name an existing entry of the matching kind.
func (s *Store) CreateItem(ctx context.Context, in model.ItemInput) (*model.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkReferences(ctx, tx, &in); err != nil {
		return nil, err
	}

	id := uuid.New()
	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, name, purchase_date, price, serial_number, remark, warranty_months,
		                    room_id, owner_id, brand_id, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.PurchaseDate, in.Price, nullString(in.SerialNumber), nullString(in.Remark),
		in.WarrantyMonths, in.RoomID, in.OwnerID, in.BrandID, in.CategoryID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}
	s.notify()

	return s.GetItem(ctx, id)
}

// GetItem returns an item with its catalog names joined in.
func (s *Store) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` `+itemJoins+` WHERE i.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return it, nil
}

// QueryItems returns the items matching a predicate, ordered by room name and
// then item name. Scope constraints run in SQL; the name search is applied
// afterwards with Unicode case folding.
func (s *Store) QueryItems(ctx context.Context, pred query.Predicate) ([]model.Item, error) {
	where, args := pred.Where()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` `+itemJoins+` WHERE `+where+` ORDER BY `+pred.OrderBy(),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		if !pred.MatchName(it.Name) {
			continue
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

// CountItems returns the total number of stored items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

// UpdateItem replaces an item's editable fields.
func (s *Store) UpdateItem(ctx context.Context, id uuid.UUID, in model.ItemInput) (*model.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := checkReferences(ctx, tx, &in); err != nil {
		return nil, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET name = ?, purchase_date = ?, price = ?, serial_number = ?, remark = ?,
		                  warranty_months = ?, room_id = ?, owner_id = ?, brand_id = ?, category_id = ?,
		                  updated_at = ?
		 WHERE id = ?`,
		in.Name, in.PurchaseDate, in.Price, nullString(in.SerialNumber), nullString(in.Remark),
		in.WarrantyMonths, in.RoomID, in.OwnerID, in.BrandID, in.CategoryID, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item update: %w", err)
	}
	s.notify()

	return s.GetItem(ctx, id)
}

// DeleteItem permanently removes an item and its attachments.
func (s *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	s.notify()
	return nil
}

// DuplicateItem copies an item, attachments included, under a new ID and
// name. The copy gets fresh timestamps.
func (s *Store) DuplicateItem(ctx context.Context, id uuid.UUID, name string) (*model.Item, error) {
	newID := uuid.New()
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, name, purchase_date, price, serial_number, remark, warranty_months,
		                    image, image_file_name, invoice, invoice_file_name,
		                    room_id, owner_id, brand_id, category_id, created_at, updated_at)
		 SELECT ?, ?, purchase_date, price, serial_number, remark, warranty_months,
		        image, image_file_name, invoice, invoice_file_name,
		        room_id, owner_id, brand_id, category_id, ?, ?
		 FROM items WHERE id = ?`,
		newID, name, now, now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("duplicating item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	s.notify()

	return s.GetItem(ctx, newID)
}

// SetItemImage replaces an item's image.
func (s *Store) SetItemImage(ctx context.Context, id uuid.UUID, a model.Attachment) error {
	return s.setAttachment(ctx, id, "image", a)
}

// GetItemImage returns an item's image, or nil if it has none.
func (s *Store) GetItemImage(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	return s.getAttachment(ctx, id, "image", "image/jpeg")
}

// SetItemInvoice replaces an item's invoice document.
func (s *Store) SetItemInvoice(ctx context.Context, id uuid.UUID, a model.Attachment) error {
	return s.setAttachment(ctx, id, "invoice", a)
}

// GetItemInvoice returns an item's invoice, or nil if it has none.
func (s *Store) GetItemInvoice(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	return s.getAttachment(ctx, id, "invoice", "application/pdf")
}

// column is one of the fixed strings "image" or "invoice".
func (s *Store) setAttachment(ctx context.Context, id uuid.UUID, column string, a model.Attachment) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE items SET `+column+` = ?, `+column+`_file_name = ?, updated_at = ? WHERE id = ?`,
		a.Data, nullString(a.FileName), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting item %s: %w", column, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	s.notify()
	return nil
}

func (s *Store) getAttachment(ctx context.Context, id uuid.UUID, column, mime string) (*model.Attachment, error) {
	var data []byte
	var name sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT `+column+`, `+column+`_file_name FROM items WHERE id = ?`, id,
	).Scan(&data, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item %s: %w", column, err)
	}
	if data == nil {
		return nil, nil
	}
	return &model.Attachment{Data: data, FileName: name.String, MIME: mime}, nil
}

func checkReferences(ctx context.Context, tx *sql.Tx, in *model.ItemInput) error {
	refs := []struct {
		kind model.CatalogKind
		id   uuid.UUID
	}{
		{model.KindRoom, in.RoomID},
		{model.KindOwner, in.OwnerID},
		{model.KindBrand, in.BrandID},
		{model.KindCategory, in.CategoryID},
	}
	for _, ref := range refs {
		if err := checkReference(ctx, tx, ref.kind, ref.id); err != nil {
			return err
		}
	}
	return nil
}

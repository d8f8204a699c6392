package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/inventar/internal/model"
)

// CreateCatalogEntry creates a room, owner, brand or category.
func (s *Store) CreateCatalogEntry(ctx context.Context, kind model.CatalogKind, name string) (*model.CatalogEntry, error) {
	name, err := model.NormalizeCatalogName(kind, name)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO catalog_entries (id, kind, name, created_at) VALUES (?, ?, ?, ?)`,
		id, string(kind), name, time.Now().UTC(),
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%s %q: %w", kind, name, model.ErrDuplicateName)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", kind, err)
	}
	s.notify()

	return s.GetCatalogEntry(ctx, kind, id)
}

// GetCatalogEntry returns a catalog entry of the given kind by ID.
func (s *Store) GetCatalogEntry(ctx context.Context, kind model.CatalogKind, id uuid.UUID) (*model.CatalogEntry, error) {
	e := &model.CatalogEntry{}
	var k string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, icon IS NOT NULL, created_at
		 FROM catalog_entries WHERE id = ? AND kind = ?`, id, string(kind),
	).Scan(&e.ID, &k, &e.Name, &e.HasIcon, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting %s: %w", kind, err)
	}
	e.Kind = model.CatalogKind(k)
	return e, nil
}

// FindCatalogEntry returns the entry of the given kind with a matching name
// (case-insensitive), or nil if there is none.
func (s *Store) FindCatalogEntry(ctx context.Context, kind model.CatalogKind, name string) (*model.CatalogEntry, error) {
	e := &model.CatalogEntry{}
	var k string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, icon IS NOT NULL, created_at
		 FROM catalog_entries WHERE kind = ? AND name = ? COLLATE NOCASE`, string(kind), name,
	).Scan(&e.ID, &k, &e.Name, &e.HasIcon, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", kind, err)
	}
	e.Kind = model.CatalogKind(k)
	return e, nil
}

// ListCatalog returns all entries of a kind, sorted by name.
func (s *Store) ListCatalog(ctx context.Context, kind model.CatalogKind) ([]model.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, icon IS NOT NULL, created_at
		 FROM catalog_entries WHERE kind = ? ORDER BY name COLLATE NOCASE`, string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("listing %s catalog: %w", kind, err)
	}
	defer rows.Close()

	var entries []model.CatalogEntry
	for rows.Next() {
		var e model.CatalogEntry
		var k string
		if err := rows.Scan(&e.ID, &k, &e.Name, &e.HasIcon, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", kind, err)
		}
		e.Kind = model.CatalogKind(k)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MissingCatalogs returns the kinds that have no entries yet, in
// model.CatalogKinds order.
func (s *Store) MissingCatalogs(ctx context.Context) ([]model.CatalogKind, error) {
	counts := make(map[string]int, len(model.CatalogKinds))
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM catalog_entries GROUP BY kind`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting catalogs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scanning catalog count: %w", err)
		}
		counts[kind] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []model.CatalogKind
	for _, k := range model.CatalogKinds {
		if counts[string(k)] == 0 {
			missing = append(missing, k)
		}
	}
	return missing, nil
}

// UpdateCatalogEntry renames a catalog entry.
func (s *Store) UpdateCatalogEntry(ctx context.Context, kind model.CatalogKind, id uuid.UUID, name string) error {
	name, err := model.NormalizeCatalogName(kind, name)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries SET name = ? WHERE id = ? AND kind = ?`,
		name, id, string(kind),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s %q: %w", kind, name, model.ErrDuplicateName)
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", kind, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}
	s.notify()
	return nil
}

// DeleteCatalogEntry deletes a catalog entry. Fails with ErrCatalogInUse if
// any item still references it.
func (s *Store) DeleteCatalogEntry(ctx context.Context, kind model.CatalogKind, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items
		 WHERE room_id = ? OR owner_id = ? OR brand_id = ? OR category_id = ?`,
		id, id, id, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking %s references: %w", kind, err)
	}
	if count > 0 {
		return fmt.Errorf("cannot delete %s: still referenced by %d items: %w", kind, count, model.ErrCatalogInUse)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_entries WHERE id = ? AND kind = ?`, id, string(kind),
	)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, model.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s deletion: %w", kind, err)
	}
	s.notify()
	return nil
}

// SetRoomIcon stores a room's icon image.
func (s *Store) SetRoomIcon(ctx context.Context, id uuid.UUID, icon []byte) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE catalog_entries SET icon = ? WHERE id = ? AND kind = 'room'`,
		icon, id,
	)
	if err != nil {
		return fmt.Errorf("setting room icon: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// GetRoomIcon returns a room's icon, or nil if it has none.
func (s *Store) GetRoomIcon(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var icon []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT icon FROM catalog_entries WHERE id = ? AND kind = 'room'`, id,
	).Scan(&icon)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting room icon: %w", err)
	}
	return icon, nil
}

// checkReference verifies that id names an existing entry of the given kind.
func checkReference(ctx context.Context, tx *sql.Tx, kind model.CatalogKind, id uuid.UUID) error {
	var k string
	err := tx.QueryRowContext(ctx,
		`SELECT kind FROM catalog_entries WHERE id = ?`, id,
	).Scan(&k)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && k != string(kind)) {
		return model.ValidationErrorf("unknown %s %s", kind, id)
	}
	if err != nil {
		return fmt.Errorf("checking %s: %w", kind, err)
	}
	return nil
}

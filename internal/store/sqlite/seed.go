package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sdsscan/internal/store"
	"sdsscan/internal/textutil"
)

// UpsertCategory inserts or updates a category keyed by name.
func (s *Store) UpsertCategory(ctx context.Context, category store.Category) (int64, error) {
	id, err := s.queryIDWithRetry(ctx,
		`INSERT INTO ingredient_category (name, ordinal, description) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET ordinal = excluded.ordinal, description = excluded.description
         RETURNING id`,
		category.Name, category.Ordinal, nullableString(category.Description),
	)
	if err != nil {
		return 0, fmt.Errorf("upsert category %q: %w", category.Name, err)
	}
	return id, nil
}

// UpsertVendor inserts or updates a vendor keyed by code.
func (s *Store) UpsertVendor(ctx context.Context, vendor store.Vendor) (int64, error) {
	name := vendor.Name
	if name == "" {
		name = vendor.Code
	}
	slug := vendor.Slug
	if slug == "" {
		slug = textutil.Slugify(name)
	}
	id, err := s.queryIDWithRetry(ctx,
		`INSERT INTO vendor (name, slug, code) VALUES (?, ?, ?)
         ON CONFLICT(code) DO UPDATE SET name = excluded.name, slug = excluded.slug
         RETURNING id`,
		name, slug, vendor.Code,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert vendor %q: %w", vendor.Code, err)
	}
	return id, nil
}

// UpsertFlavor inserts a flavor for the vendor unless one with the same name exists.
func (s *Store) UpsertFlavor(ctx context.Context, vendorCode, name string) (int64, error) {
	id, err := s.queryIDWithRetry(ctx,
		`INSERT INTO flavor (name, slug, vendor_id)
         SELECT ?, ?, v.id FROM vendor v WHERE v.code = ?
         ON CONFLICT(vendor_id, name) DO UPDATE SET slug = excluded.slug
         RETURNING id`,
		name, textutil.Slugify(name), vendorCode,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("upsert flavor %q: vendor %q does not exist", name, vendorCode)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert flavor %q: %w", name, err)
	}
	return id, nil
}

// UpsertIngredient inserts or updates an ingredient keyed by CAS number. The
// category is referenced by name and must already exist.
func (s *Store) UpsertIngredient(ctx context.Context, ingredient store.Ingredient) (int64, error) {
	category, err := s.LookupCategory(ctx, ingredient.Category)
	if err != nil {
		return 0, err
	}
	if category == nil {
		return 0, fmt.Errorf("upsert ingredient %q: category %q does not exist", ingredient.Name, ingredient.Category)
	}
	stamp := formatTime(s.now())
	id, err := s.queryIDWithRetry(ctx,
		`INSERT INTO ingredient (name, notes, cas_number, ingredient_category_id, created, updated)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(cas_number) DO UPDATE SET
             name = excluded.name,
             notes = excluded.notes,
             ingredient_category_id = excluded.ingredient_category_id,
             updated = excluded.updated
         RETURNING id`,
		ingredient.Name, nullableString(ingredient.Notes), nullableString(ingredient.CASNumber), category.ID, stamp, stamp,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert ingredient %q: %w", ingredient.Name, err)
	}
	return id, nil
}

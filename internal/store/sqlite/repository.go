package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"sdsscan/internal/store"
)

// LookupCategory returns the category with the exact name, or nil.
func (s *Store) LookupCategory(ctx context.Context, name string) (*store.Category, error) {
	var (
		c    store.Category
		desc sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, ordinal, description FROM ingredient_category WHERE name = ?`, name,
	).Scan(&c.ID, &c.Name, &c.Ordinal, &desc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	c.Description = desc.String
	return &c, nil
}

// SearchFlavors matches every token against the flavor full-text index,
// restricted to the vendor. Tokens are bound as a single MATCH parameter.
func (s *Store) SearchFlavors(ctx context.Context, tokens []string, vendorCode string) ([]store.FlavorCandidate, error) {
	query := matchExpression(tokens)
	if query == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.id, f.name, v.id, v.code
         FROM flavor_fts
         JOIN flavor f ON f.id = flavor_fts.rowid
         JOIN vendor v ON v.id = f.vendor_id
         WHERE flavor_fts MATCH ? AND v.code = ?
         ORDER BY f.id`,
		query, vendorCode,
	)
	if err != nil {
		return nil, fmt.Errorf("search flavors: %w", err)
	}
	defer rows.Close()

	var out []store.FlavorCandidate
	for rows.Next() {
		var c store.FlavorCandidate
		if err := rows.Scan(&c.ID, &c.Name, &c.VendorID, &c.VendorCode); err != nil {
			return nil, fmt.Errorf("scan flavor: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search flavors: %w", err)
	}
	return out, nil
}

// matchExpression quotes each token as an FTS5 string so punctuation inside
// a token cannot be read as query syntax. Adjacent strings are ANDed.
func matchExpression(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(tok, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// LookupIngredientByIdentifier returns the ingredient with the CAS number, or nil.
func (s *Store) LookupIngredientByIdentifier(ctx context.Context, identifier string) (*store.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT i.id, i.name, i.notes, i.cas_number, ic.name, i.created, i.updated
         FROM ingredient i
         LEFT JOIN ingredient_category ic ON ic.id = i.ingredient_category_id
         WHERE i.cas_number = ?`, identifier)
	ing, err := scanIngredient(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ingredient: %w", err)
	}
	return ing, nil
}

func scanIngredient(scanner interface{ Scan(dest ...any) error }) (*store.Ingredient, error) {
	var (
		ing      store.Ingredient
		notes    sql.NullString
		cas      sql.NullString
		category sql.NullString
		created  sql.NullString
		updated  sql.NullString
	)
	if err := scanner.Scan(&ing.ID, &ing.Name, &notes, &cas, &category, &created, &updated); err != nil {
		return nil, err
	}
	ing.Notes = notes.String
	ing.CASNumber = cas.String
	ing.Category = category.String
	ing.Created = parseTime(created)
	ing.Updated = parseTime(updated)
	return &ing, nil
}

// GetAssociation returns the association for the pair, or nil.
func (s *Store) GetAssociation(ctx context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	var created, updated sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT created, updated FROM flavors_ingredients WHERE flavor_id = ? AND ingredient_id = ?`,
		flavorID, ingredientID,
	).Scan(&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get association: %w", err)
	}
	return &store.Association{
		FlavorID:     flavorID,
		IngredientID: ingredientID,
		Created:      parseTime(created),
		Updated:      parseTime(updated),
	}, nil
}

// InsertAssociation records a new flavor/ingredient association.
func (s *Store) InsertAssociation(ctx context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	now := s.now().UTC()
	stamp := formatTime(now)
	if err := s.execWithRetry(ctx,
		`INSERT INTO flavors_ingredients (flavor_id, ingredient_id, created, updated) VALUES (?, ?, ?, ?)`,
		flavorID, ingredientID, stamp, stamp,
	); err != nil {
		return nil, fmt.Errorf("insert association: %w", err)
	}
	return &store.Association{FlavorID: flavorID, IngredientID: ingredientID, Created: now, Updated: now}, nil
}

// ListIngredientSignatures returns every ingredient with a CAS number, in id order.
func (s *Store) ListIngredientSignatures(ctx context.Context) ([]store.IngredientSignature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.cas_number, ic.name, i.name
         FROM ingredient i
         JOIN ingredient_category ic ON ic.id = i.ingredient_category_id
         WHERE i.cas_number IS NOT NULL AND i.cas_number <> ''
         ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	defer rows.Close()

	var out []store.IngredientSignature
	for rows.Next() {
		var sig store.IngredientSignature
		if err := rows.Scan(&sig.Identifier, &sig.Category, &sig.Name); err != nil {
			return nil, fmt.Errorf("scan signature: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	return out, nil
}

// ResolveIdentifiers finds the flavor by exact vendor code and name and the
// ingredient by exact name.
func (s *Store) ResolveIdentifiers(ctx context.Context, vendorCode, flavorName, ingredientName string) (*store.Identifiers, error) {
	var ids store.Identifiers
	err := s.db.QueryRowContext(ctx,
		`SELECT f.id, i.id
         FROM flavor f
         JOIN vendor v ON v.id = f.vendor_id
         JOIN ingredient i ON i.name = ?
         WHERE v.code = ? AND f.name = ?
         ORDER BY f.id, i.id
         LIMIT 1`,
		ingredientName, vendorCode, flavorName,
	).Scan(&ids.FlavorID, &ids.IngredientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identifiers: %w", err)
	}
	return &ids, nil
}

// Counts returns row counts for the main tables.
func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	var c store.Counts
	err := s.db.QueryRowContext(ctx,
		`SELECT
            (SELECT COUNT(1) FROM vendor),
            (SELECT COUNT(1) FROM flavor),
            (SELECT COUNT(1) FROM ingredient),
            (SELECT COUNT(1) FROM flavors_ingredients)`,
	).Scan(&c.Vendors, &c.Flavors, &c.Ingredients, &c.Associations)
	if err != nil {
		return store.Counts{}, fmt.Errorf("count rows: %w", err)
	}
	return c, nil
}

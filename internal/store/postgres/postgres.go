// Package postgres implements the store contracts on PostgreSQL through a
// pgx connection pool. Flavor search uses the built-in text search with the
// query text bound as a parameter.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"sdsscan/internal/store"
	"sdsscan/internal/textutil"
)

//go:embed schema.sql
var schemaSQL string

const uniqueViolation = "23505"

// Store is the PostgreSQL implementation of store.Repository and store.Seeder.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Seeder     = (*Store)(nil)
)

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates any missing tables and indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *Store) LookupCategory(ctx context.Context, name string) (*store.Category, error) {
	var (
		c    store.Category
		desc *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, ordinal, description FROM ingredient_category WHERE name = $1`, name,
	).Scan(&c.ID, &c.Name, &c.Ordinal, &desc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup category: %w", err)
	}
	if desc != nil {
		c.Description = *desc
	}
	return &c, nil
}

func (s *Store) SearchFlavors(ctx context.Context, tokens []string, vendorCode string) ([]store.FlavorCandidate, error) {
	query := searchText(tokens)
	if query == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT f.id, f.name, v.id, v.code
         FROM flavor f
         JOIN vendor v ON v.id = f.vendor_id
         WHERE to_tsvector('english', f.name) @@ plainto_tsquery('english', $1) AND v.code = $2
         ORDER BY f.id`,
		query, vendorCode,
	)
	if err != nil {
		return nil, fmt.Errorf("search flavors: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.FlavorCandidate, error) {
		var c store.FlavorCandidate
		err := row.Scan(&c.ID, &c.Name, &c.VendorID, &c.VendorCode)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("search flavors: %w", err)
	}
	return out, nil
}

// searchText joins tokens for plainto_tsquery, which ANDs every word and
// ignores operator characters.
func searchText(tokens []string) string {
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			kept = append(kept, tok)
		}
	}
	return strings.Join(kept, " ")
}

func (s *Store) LookupIngredientByIdentifier(ctx context.Context, identifier string) (*store.Ingredient, error) {
	var (
		ing      store.Ingredient
		notes    *string
		cas      *string
		category *string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT i.id, i.name, i.notes, i.cas_number, ic.name, i.created, i.updated
         FROM ingredient i
         LEFT JOIN ingredient_category ic ON ic.id = i.ingredient_category_id
         WHERE i.cas_number = $1`, identifier,
	).Scan(&ing.ID, &ing.Name, &notes, &cas, &category, &ing.Created, &ing.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup ingredient: %w", err)
	}
	ing.Notes = deref(notes)
	ing.CASNumber = deref(cas)
	ing.Category = deref(category)
	return &ing, nil
}

func (s *Store) GetAssociation(ctx context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	a := store.Association{FlavorID: flavorID, IngredientID: ingredientID}
	err := s.pool.QueryRow(ctx,
		`SELECT created, updated FROM flavors_ingredients WHERE flavor_id = $1 AND ingredient_id = $2`,
		flavorID, ingredientID,
	).Scan(&a.Created, &a.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get association: %w", err)
	}
	return &a, nil
}

// InsertAssociation inserts the pair. A concurrent writer that got there
// first is not an error: the existing row is returned instead.
func (s *Store) InsertAssociation(ctx context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	a := store.Association{FlavorID: flavorID, IngredientID: ingredientID}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO flavors_ingredients (flavor_id, ingredient_id) VALUES ($1, $2) RETURNING created, updated`,
		flavorID, ingredientID,
	).Scan(&a.Created, &a.Updated)
	if isUniqueViolation(err) {
		return s.GetAssociation(ctx, flavorID, ingredientID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert association: %w", err)
	}
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *Store) ListIngredientSignatures(ctx context.Context) ([]store.IngredientSignature, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT i.cas_number, ic.name, i.name
         FROM ingredient i
         JOIN ingredient_category ic ON ic.id = i.ingredient_category_id
         WHERE i.cas_number IS NOT NULL AND i.cas_number <> ''
         ORDER BY i.id`)
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.IngredientSignature, error) {
		var sig store.IngredientSignature
		err := row.Scan(&sig.Identifier, &sig.Category, &sig.Name)
		return sig, err
	})
	if err != nil {
		return nil, fmt.Errorf("list signatures: %w", err)
	}
	return out, nil
}

func (s *Store) ResolveIdentifiers(ctx context.Context, vendorCode, flavorName, ingredientName string) (*store.Identifiers, error) {
	var ids store.Identifiers
	err := s.pool.QueryRow(ctx,
		`SELECT f.id, i.id
         FROM flavor f
         JOIN vendor v ON v.id = f.vendor_id
         JOIN ingredient i ON i.name = $1
         WHERE v.code = $2 AND f.name = $3
         ORDER BY f.id, i.id
         LIMIT 1`,
		ingredientName, vendorCode, flavorName,
	).Scan(&ids.FlavorID, &ids.IngredientID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve identifiers: %w", err)
	}
	return &ids, nil
}

func (s *Store) Counts(ctx context.Context) (store.Counts, error) {
	var c store.Counts
	err := s.pool.QueryRow(ctx,
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

func (s *Store) UpsertCategory(ctx context.Context, category store.Category) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingredient_category (name, ordinal, description) VALUES ($1, $2, NULLIF($3, ''))
         ON CONFLICT (name) DO UPDATE SET ordinal = EXCLUDED.ordinal, description = EXCLUDED.description
         RETURNING id`,
		category.Name, category.Ordinal, category.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert category %q: %w", category.Name, err)
	}
	return id, nil
}

func (s *Store) UpsertVendor(ctx context.Context, vendor store.Vendor) (int64, error) {
	name := vendor.Name
	if name == "" {
		name = vendor.Code
	}
	slug := vendor.Slug
	if slug == "" {
		slug = textutil.Slugify(name)
	}
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO vendor (name, slug, code) VALUES ($1, $2, $3)
         ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug
         RETURNING id`,
		name, slug, vendor.Code,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert vendor %q: %w", vendor.Code, err)
	}
	return id, nil
}

func (s *Store) UpsertFlavor(ctx context.Context, vendorCode, name string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO flavor (name, slug, vendor_id)
         SELECT $1, $2, v.id FROM vendor v WHERE v.code = $3
         ON CONFLICT (vendor_id, name) DO UPDATE SET slug = EXCLUDED.slug
         RETURNING id`,
		name, textutil.Slugify(name), vendorCode,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("upsert flavor %q: vendor %q does not exist", name, vendorCode)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert flavor %q: %w", name, err)
	}
	return id, nil
}

func (s *Store) UpsertIngredient(ctx context.Context, ingredient store.Ingredient) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO ingredient (name, notes, cas_number, ingredient_category_id)
         SELECT $1, NULLIF($2, ''), NULLIF($3, ''), ic.id FROM ingredient_category ic WHERE ic.name = $4
         ON CONFLICT (cas_number) DO UPDATE SET
             name = EXCLUDED.name,
             notes = EXCLUDED.notes,
             ingredient_category_id = EXCLUDED.ingredient_category_id,
             updated = now()
         RETURNING id`,
		ingredient.Name, ingredient.Notes, ingredient.CASNumber, ingredient.Category,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("upsert ingredient %q: category %q does not exist", ingredient.Name, ingredient.Category)
	}
	if err != nil {
		return 0, fmt.Errorf("upsert ingredient %q: %w", ingredient.Name, err)
	}
	return id, nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

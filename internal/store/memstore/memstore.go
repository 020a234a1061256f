// Package memstore is an in-memory store used by tests and dry runs.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode"

	"sdsscan/internal/store"
	"sdsscan/internal/textutil"
)

type pairKey struct {
	flavor     int64
	ingredient int64
}

type flavorRow struct {
	id       int64
	name     string
	vendorID int64
}

// Store keeps every table in maps guarded by a single mutex.
type Store struct {
	mu sync.Mutex

	nextID       int64
	categories   []store.Category
	vendors      []store.Vendor
	flavors      []flavorRow
	ingredients  []store.Ingredient
	associations map[pairKey]store.Association

	// FailInsert, when set, is returned by InsertAssociation.
	FailInsert error
	inserts    int
	now        func() time.Time
}

var (
	_ store.Repository = (*Store)(nil)
	_ store.Seeder     = (*Store)(nil)
)

// New returns an empty store.
func New() *Store {
	return &Store{associations: make(map[pairKey]store.Association), now: time.Now}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Inserts reports how many associations InsertAssociation has written.
func (s *Store) Inserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

// Associations returns a snapshot of stored pairs.
func (s *Store) Associations() []store.Association {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Association, 0, len(s.associations))
	for _, a := range s.associations {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b store.Association) int {
		if a.FlavorID != b.FlavorID {
			return int(a.FlavorID - b.FlavorID)
		}
		return int(a.IngredientID - b.IngredientID)
	})
	return out
}

func (s *Store) Close() error { return nil }

func (s *Store) LookupCategory(_ context.Context, name string) (*store.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.categories {
		if c.Name == name {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) vendorByCode(code string) (store.Vendor, bool) {
	for _, v := range s.vendors {
		if v.Code == code {
			return v, true
		}
	}
	return store.Vendor{}, false
}

// words lowercases s and splits it on every rune that is not a letter or
// digit, the way the full-text tokenizers of the real stores do.
func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// SearchFlavors matches case-insensitively on whole words.
func (s *Store) SearchFlavors(_ context.Context, tokens []string, vendorCode string) ([]store.FlavorCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var wanted []string
	for _, tok := range tokens {
		wanted = append(wanted, words(tok)...)
	}
	if len(wanted) == 0 {
		return nil, nil
	}
	vendor, ok := s.vendorByCode(vendorCode)
	if !ok {
		return nil, nil
	}
	var out []store.FlavorCandidate
	for _, f := range s.flavors {
		if f.vendorID != vendor.ID {
			continue
		}
		nameWords := words(f.name)
		matched := true
		for _, tok := range wanted {
			if !slices.Contains(nameWords, tok) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, store.FlavorCandidate{ID: f.id, Name: f.name, VendorID: vendor.ID, VendorCode: vendor.Code})
		}
	}
	return out, nil
}

func (s *Store) LookupIngredientByIdentifier(_ context.Context, identifier string) (*store.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ing := range s.ingredients {
		if ing.CASNumber != "" && ing.CASNumber == identifier {
			ing := ing
			return &ing, nil
		}
	}
	return nil, nil
}

func (s *Store) GetAssociation(_ context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.associations[pairKey{flavorID, ingredientID}]; ok {
		return &a, nil
	}
	return nil, nil
}

func (s *Store) InsertAssociation(_ context.Context, flavorID, ingredientID int64) (*store.Association, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		return nil, s.FailInsert
	}
	key := pairKey{flavorID, ingredientID}
	if _, exists := s.associations[key]; exists {
		return nil, fmt.Errorf("association %d/%d already exists", flavorID, ingredientID)
	}
	now := s.now().UTC()
	a := store.Association{FlavorID: flavorID, IngredientID: ingredientID, Created: now, Updated: now}
	s.associations[key] = a
	s.inserts++
	return &a, nil
}

func (s *Store) ListIngredientSignatures(_ context.Context) ([]store.IngredientSignature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []store.IngredientSignature
	for _, ing := range s.ingredients {
		if ing.CASNumber == "" || ing.Category == "" {
			continue
		}
		out = append(out, store.IngredientSignature{Identifier: ing.CASNumber, Category: ing.Category, Name: ing.Name})
	}
	return out, nil
}

func (s *Store) ResolveIdentifiers(_ context.Context, vendorCode, flavorName, ingredientName string) (*store.Identifiers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vendor, ok := s.vendorByCode(vendorCode)
	if !ok {
		return nil, nil
	}
	var ids store.Identifiers
	for _, f := range s.flavors {
		if f.vendorID == vendor.ID && f.name == flavorName {
			ids.FlavorID = f.id
			break
		}
	}
	for _, ing := range s.ingredients {
		if ing.Name == ingredientName {
			ids.IngredientID = ing.ID
			break
		}
	}
	if ids.FlavorID == 0 || ids.IngredientID == 0 {
		return nil, nil
	}
	return &ids, nil
}

func (s *Store) Counts(_ context.Context) (store.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return store.Counts{
		Vendors:      len(s.vendors),
		Flavors:      len(s.flavors),
		Ingredients:  len(s.ingredients),
		Associations: len(s.associations),
	}, nil
}

func (s *Store) UpsertCategory(_ context.Context, category store.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.Name == category.Name {
			category.ID = c.ID
			s.categories[i] = category
			return c.ID, nil
		}
	}
	category.ID = s.id()
	s.categories = append(s.categories, category)
	return category.ID, nil
}

func (s *Store) UpsertVendor(_ context.Context, vendor store.Vendor) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if vendor.Name == "" {
		vendor.Name = vendor.Code
	}
	if vendor.Slug == "" {
		vendor.Slug = textutil.Slugify(vendor.Name)
	}
	for i, v := range s.vendors {
		if v.Code == vendor.Code {
			vendor.ID = v.ID
			s.vendors[i] = vendor
			return v.ID, nil
		}
	}
	vendor.ID = s.id()
	s.vendors = append(s.vendors, vendor)
	return vendor.ID, nil
}

func (s *Store) UpsertFlavor(_ context.Context, vendorCode, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vendor, ok := s.vendorByCode(vendorCode)
	if !ok {
		return 0, fmt.Errorf("upsert flavor %q: vendor %q does not exist", name, vendorCode)
	}
	for _, f := range s.flavors {
		if f.vendorID == vendor.ID && f.name == name {
			return f.id, nil
		}
	}
	row := flavorRow{id: s.id(), name: name, vendorID: vendor.ID}
	s.flavors = append(s.flavors, row)
	return row.id, nil
}

func (s *Store) UpsertIngredient(_ context.Context, ingredient store.Ingredient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, c := range s.categories {
		if c.Name == ingredient.Category {
			found = true
			break
		}
	}
	if !found {
		return 0, fmt.Errorf("upsert ingredient %q: category %q does not exist", ingredient.Name, ingredient.Category)
	}
	now := s.now().UTC()
	ingredient.Updated = now
	for i, existing := range s.ingredients {
		if ingredient.CASNumber != "" && existing.CASNumber == ingredient.CASNumber {
			ingredient.ID = existing.ID
			ingredient.Created = existing.Created
			s.ingredients[i] = ingredient
			return existing.ID, nil
		}
	}
	ingredient.ID = s.id()
	ingredient.Created = now
	s.ingredients = append(s.ingredients, ingredient)
	return ingredient.ID, nil
}

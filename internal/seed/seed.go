// Package seed loads catalog data (categories, ingredients, vendors and
// their flavors) from a YAML file into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"sdsscan/internal/store"
	"sdsscan/internal/vendors"
)

// Catalog is the on-disk seed format.
type Catalog struct {
	Categories  []Category   `yaml:"categories"`
	Ingredients []Ingredient `yaml:"ingredients"`
	Vendors     []Vendor     `yaml:"vendors"`
}

type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Ingredient struct {
	Name      string `yaml:"name"`
	CASNumber string `yaml:"cas_number"`
	Category  string `yaml:"category"`
	Notes     string `yaml:"notes"`
}

type Vendor struct {
	Code    string   `yaml:"code"`
	Name    string   `yaml:"name"`
	Flavors []string `yaml:"flavors"`
}

// Result counts rows written by Apply.
type Result struct {
	Categories  int
	Ingredients int
	Vendors     int
	Flavors     int
}

// Load reads and validates a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// DefaultCategories are seeded ahead of any file-provided categories so the
// scanner's three buckets always exist.
func DefaultCategories() []Category {
	return []Category{
		{Name: store.CategoryAvoid, Description: "Known respiratory hazard when inhaled"},
		{Name: store.CategoryCaution, Description: "Irritant or sensitizer at vaping concentrations"},
		{Name: store.CategoryResearch, Description: "Insufficient inhalation data"},
	}
}

// Validate reports every problem in the catalog at once.
func (c *Catalog) Validate() error {
	var errs []error
	categories := make(map[string]struct{})
	for _, cat := range DefaultCategories() {
		categories[cat.Name] = struct{}{}
	}
	for i, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			errs = append(errs, fmt.Errorf("categories[%d]: name is required", i))
			continue
		}
		categories[cat.Name] = struct{}{}
	}
	seenCAS := make(map[string]struct{})
	for i, ing := range c.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			errs = append(errs, fmt.Errorf("ingredients[%d]: name is required", i))
		}
		if _, ok := categories[ing.Category]; !ok {
			errs = append(errs, fmt.Errorf("ingredients[%d] %q: unknown category %q", i, ing.Name, ing.Category))
		}
		if ing.CASNumber == "" {
			continue
		}
		if _, dup := seenCAS[ing.CASNumber]; dup {
			errs = append(errs, fmt.Errorf("ingredients[%d] %q: duplicate cas_number %s", i, ing.Name, ing.CASNumber))
		}
		seenCAS[ing.CASNumber] = struct{}{}
	}
	for i, v := range c.Vendors {
		if _, err := vendors.ParseCode(v.Code); err != nil {
			errs = append(errs, fmt.Errorf("vendors[%d]: %w", i, err))
		}
		for j, flavor := range v.Flavors {
			if strings.TrimSpace(flavor) == "" {
				errs = append(errs, fmt.Errorf("vendors[%d].flavors[%d]: name is required", i, j))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply upserts the default categories and then the catalog into s. It is
// safe to run repeatedly.
func Apply(ctx context.Context, s store.Seeder, catalog *Catalog) (Result, error) {
	var result Result
	categories := append(DefaultCategories(), catalog.Categories...)
	for i, cat := range categories {
		if _, err := s.UpsertCategory(ctx, store.Category{Name: cat.Name, Ordinal: i + 1, Description: cat.Description}); err != nil {
			return result, err
		}
		result.Categories++
	}
	for _, ing := range catalog.Ingredients {
		if _, err := s.UpsertIngredient(ctx, store.Ingredient{
			Name:      strings.TrimSpace(ing.Name),
			CASNumber: strings.TrimSpace(ing.CASNumber),
			Category:  ing.Category,
			Notes:     ing.Notes,
		}); err != nil {
			return result, err
		}
		result.Ingredients++
	}
	for _, v := range catalog.Vendors {
		code, err := vendors.ParseCode(v.Code)
		if err != nil {
			return result, err
		}
		if _, err := s.UpsertVendor(ctx, store.Vendor{Code: string(code), Name: v.Name}); err != nil {
			return result, err
		}
		result.Vendors++
		for _, flavor := range v.Flavors {
			if _, err := s.UpsertFlavor(ctx, string(code), strings.TrimSpace(flavor)); err != nil {
				return result, err
			}
			result.Flavors++
		}
	}
	return result, nil
}

package store

import (
	"context"
	"time"
)

// Ingredient categories.
const (
	CategoryAvoid    = "Avoid"
	CategoryCaution  = "Caution"
	CategoryResearch = "Research"
)

// Category is an ingredient hazard category.
type Category struct {
	ID          int64
	Name        string
	Ordinal     int
	Description string
}

// Vendor is a document source.
type Vendor struct {
	ID   int64
	Name string
	Slug string
	Code string
}

// FlavorCandidate is a flavor returned by a name search.
type FlavorCandidate struct {
	ID         int64
	Name       string
	VendorID   int64
	VendorCode string
}

// Label is the composite "<vendor code> <flavor name>" label.
func (c FlavorCandidate) Label() string {
	return c.VendorCode + " " + c.Name
}

// Ingredient is a canonical ingredient keyed by CAS number.
type Ingredient struct {
	ID        int64
	Name      string
	Notes     string
	CASNumber string
	Category  string
	Created   time.Time
	Updated   time.Time
}

// Association links a flavor to an ingredient. At most one exists per pair.
type Association struct {
	FlavorID     int64
	IngredientID int64
	Created      time.Time
	Updated      time.Time
}

// IngredientSignature is what the scanner looks for in document text.
type IngredientSignature struct {
	Identifier string
	Category   string
	Name       string
}

// Identifiers resolves a manual override row.
type Identifiers struct {
	FlavorID     int64
	IngredientID int64
}

// Counts summarizes table sizes.
type Counts struct {
	Vendors      int
	Flavors      int
	Ingredients  int
	Associations int
}

// Repository is the persistence contract consumed by the merge engine and
// the batch runner. Lookups return nil with a nil error on a miss; errors are
// reserved for store failures.
type Repository interface {
	LookupCategory(ctx context.Context, name string) (*Category, error)
	// SearchFlavors returns flavors of vendorCode whose names contain every
	// token, in any order.
	SearchFlavors(ctx context.Context, tokens []string, vendorCode string) ([]FlavorCandidate, error)
	LookupIngredientByIdentifier(ctx context.Context, identifier string) (*Ingredient, error)
	GetAssociation(ctx context.Context, flavorID, ingredientID int64) (*Association, error)
	InsertAssociation(ctx context.Context, flavorID, ingredientID int64) (*Association, error)
	ListIngredientSignatures(ctx context.Context) ([]IngredientSignature, error)
	ResolveIdentifiers(ctx context.Context, vendorCode, flavorName, ingredientName string) (*Identifiers, error)
	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// Seeder loads catalog data. Every method is an upsert keyed by the natural
// key (category name, vendor code, vendor+flavor name, CAS number) and
// returns the row id.
type Seeder interface {
	UpsertCategory(ctx context.Context, category Category) (int64, error)
	UpsertVendor(ctx context.Context, vendor Vendor) (int64, error)
	UpsertFlavor(ctx context.Context, vendorCode, name string) (int64, error)
	UpsertIngredient(ctx context.Context, ingredient Ingredient) (int64, error)
}

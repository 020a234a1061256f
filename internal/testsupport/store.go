package testsupport

import (
	"context"
	"testing"

	"sdsscan/internal/config"
	"sdsscan/internal/seed"
	"sdsscan/internal/store"
	"sdsscan/internal/store/memstore"
	"sdsscan/internal/store/sqlite"
)

// CatalogYAML is a small catalog shared by pipeline tests.
const CatalogYAML = `
ingredients:
  - name: Diacetyl
    cas_number: 431-03-8
    category: Avoid
  - name: Fructose
    cas_number: 57-48-7
    category: Caution
  - name: Acetoin
    cas_number: 513-86-0
    category: Research
vendors:
  - code: CAP
    name: Capella
    flavors: [Apple Pie, Sweet Strawberry, Strawberry Jam]
  - code: TPA
    name: The Flavor Apprentice
    flavors: [Banana Cream, Strawberry]
  - code: HS
    flavors: [Lemon Tart]
`

// MustOpenStore opens the SQLite store named by cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	s, err := sqlite.Open(context.Background(), cfg.Store.SQLitePath)
	if err != nil {
		t.Fatalf("sqlite.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// Seed applies CatalogYAML to s.
func Seed(t testing.TB, s store.Seeder) {
	t.Helper()

	catalog, err := seed.Parse([]byte(CatalogYAML))
	if err != nil {
		t.Fatalf("seed.Parse: %v", err)
	}
	if _, err := seed.Apply(context.Background(), s, catalog); err != nil {
		t.Fatalf("seed.Apply: %v", err)
	}
}

// SeededMemStore returns an in-memory store loaded with CatalogYAML.
func SeededMemStore(t testing.TB) *memstore.Store {
	t.Helper()

	s := memstore.New()
	Seed(t, s)
	return s
}

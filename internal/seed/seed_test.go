package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sdsscan/internal/seed"
	"sdsscan/internal/store"
	"sdsscan/internal/store/memstore"
)

const catalogYAML = `
ingredients:
  - name: Diacetyl
    cas_number: 431-03-8
    category: Avoid
    notes: Bronchiolitis obliterans
  - name: Cinnamaldehyde
    cas_number: 104-55-2
    category: Caution
vendors:
  - code: cap
    name: Capella
    flavors:
      - Sweet Strawberry
      - Vanilla Custard
  - code: TPA
    flavors: [Strawberry]
`

func TestLoadAndApplyIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	catalog, err := seed.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	ctx := context.Background()
	s := memstore.New()
	for i := 0; i < 2; i++ {
		res, err := seed.Apply(ctx, s, catalog)
		if err != nil {
			t.Fatalf("Apply #%d: %v", i+1, err)
		}
		if res.Categories != 3 || res.Ingredients != 2 || res.Vendors != 2 || res.Flavors != 3 {
			t.Fatalf("unexpected result %+v", res)
		}
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts != (store.Counts{Vendors: 2, Flavors: 3, Ingredients: 2}) {
		t.Fatalf("unexpected counts %+v", counts)
	}
	got, err := s.SearchFlavors(ctx, []string{"custard"}, "CAP")
	if err != nil || len(got) != 1 {
		t.Fatalf("expected lowercase vendor code to be normalized: %+v, %v", got, err)
	}
	ing, _ := s.LookupIngredientByIdentifier(ctx, "431-03-8")
	if ing == nil || ing.Category != store.CategoryAvoid || ing.Notes == "" {
		t.Fatalf("unexpected ingredient %+v", ing)
	}
}

func TestParseReportsEveryProblem(t *testing.T) {
	body := `
ingredients:
  - name: A
    cas_number: 1-1-1
    category: Banned
  - name: B
    cas_number: 1-1-1
    category: Avoid
vendors:
  - code: XYZ
    flavors: [""]
`
	_, err := seed.Parse([]byte(body))
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{`unknown category "Banned"`, "duplicate cas_number 1-1-1", "unknown vendor", "vendors[0].flavors[0]"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	if _, err := seed.Parse([]byte("vendors: [code: {")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCustomCategoriesAreAccepted(t *testing.T) {
	body := `
categories:
  - name: Banned
ingredients:
  - name: A
    cas_number: 1-1-1
    category: Banned
`
	catalog, err := seed.Parse([]byte(body))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	s := memstore.New()
	res, err := seed.Apply(context.Background(), s, catalog)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.Categories != 4 {
		t.Fatalf("expected default plus custom categories, got %d", res.Categories)
	}
	sigs, _ := s.ListIngredientSignatures(context.Background())
	if len(sigs) != 1 || sigs[0].Category != "Banned" {
		t.Fatalf("unexpected signatures %+v", sigs)
	}
}

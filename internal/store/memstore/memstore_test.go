package memstore_test

import (
	"context"
	"errors"
	"testing"

	"sdsscan/internal/store"
	"sdsscan/internal/store/memstore"
)

func TestSearchFlavorsScopesVendorAndIgnoresOrder(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	for _, code := range []string{"CAP", "FA"} {
		if _, err := s.UpsertVendor(ctx, store.Vendor{Code: code}); err != nil {
			t.Fatal(err)
		}
	}
	mustFlavor := func(code, name string) int64 {
		id, err := s.UpsertFlavor(ctx, code, name)
		if err != nil {
			t.Fatal(err)
		}
		return id
	}
	sweet := mustFlavor("CAP", "Sweet Strawberry")
	mustFlavor("FA", "Strawberry Sweet")

	got, err := s.SearchFlavors(ctx, []string{"STRAWBERRY", "sweet"}, "CAP")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != sweet {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if got[0].Label() != "CAP Sweet Strawberry" {
		t.Fatalf("unexpected label %q", got[0].Label())
	}
	if again := mustFlavor("CAP", "Sweet Strawberry"); again != sweet {
		t.Fatalf("flavor upsert not idempotent: %d vs %d", again, sweet)
	}
}

func TestSearchFlavorsIgnoresPunctuationInNames(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	if _, err := s.UpsertVendor(ctx, store.Vendor{Code: "CAP"}); err != nil {
		t.Fatal(err)
	}
	cola, err := s.UpsertFlavor(ctx, "CAP", "Cola (Type)")
	if err != nil {
		t.Fatal(err)
	}
	cream, err := s.UpsertFlavor(ctx, "CAP", "Peaches&Cream")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tokens []string
		want   int64
	}{
		{[]string{"type"}, cola},
		{[]string{"cola", "type"}, cola},
		{[]string{"cream", "peaches"}, cream},
		{[]string{"peaches&cream"}, cream},
	}
	for _, tt := range tests {
		got, err := s.SearchFlavors(ctx, tt.tokens, "CAP")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0].ID != tt.want {
			t.Errorf("SearchFlavors(%v) = %+v, want id %d", tt.tokens, got, tt.want)
		}
	}
}

func TestInsertAssociationRejectsDuplicatesAndInjectedFailure(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	if _, err := s.InsertAssociation(ctx, 1, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.InsertAssociation(ctx, 1, 2); err == nil {
		t.Fatal("expected duplicate to fail")
	}
	if s.Inserts() != 1 {
		t.Fatalf("expected one insert, got %d", s.Inserts())
	}
	s.FailInsert = errors.New("disk full")
	if _, err := s.InsertAssociation(ctx, 3, 4); !errors.Is(err, s.FailInsert) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if a, _ := s.GetAssociation(ctx, 1, 2); a == nil {
		t.Fatal("expected stored association")
	}
}

func TestIngredientSignaturesKeepInsertOrder(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	if _, err := s.UpsertCategory(ctx, store.Category{Name: store.CategoryCaution}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.UpsertIngredient(ctx, store.Ingredient{Name: "B", CASNumber: "2-2-2", Category: "Missing"}); err == nil {
		t.Fatal("expected missing category to fail")
	}
	for _, cas := range []string{"9-9-9", "1-1-1"} {
		if _, err := s.UpsertIngredient(ctx, store.Ingredient{Name: cas, CASNumber: cas, Category: store.CategoryCaution}); err != nil {
			t.Fatal(err)
		}
	}
	sigs, err := s.ListIngredientSignatures(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sigs) != 2 || sigs[0].Identifier != "9-9-9" || sigs[1].Identifier != "1-1-1" {
		t.Fatalf("unexpected signatures %+v", sigs)
	}
}

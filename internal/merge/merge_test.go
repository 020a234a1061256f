package merge_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sdsscan/internal/merge"
	"sdsscan/internal/overrides"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/prompt"
	"sdsscan/internal/scan"
	"sdsscan/internal/store"
	"sdsscan/internal/store/memstore"
)

type fixture struct {
	store   *memstore.Store
	flavors map[string]int64
	ings    map[string]int64
}

func newFixture(t *testing.T, flavors ...string) *fixture {
	t.Helper()
	ctx := context.Background()
	fx := &fixture{store: memstore.New(), flavors: map[string]int64{}, ings: map[string]int64{}}
	for _, name := range []string{store.CategoryAvoid, store.CategoryCaution} {
		if _, err := fx.store.UpsertCategory(ctx, store.Category{Name: name}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := fx.store.UpsertVendor(ctx, store.Vendor{Code: "CAP"}); err != nil {
		t.Fatal(err)
	}
	for _, name := range flavors {
		id, err := fx.store.UpsertFlavor(ctx, "CAP", name)
		if err != nil {
			t.Fatal(err)
		}
		fx.flavors[name] = id
	}
	for _, ing := range []store.Ingredient{
		{Name: "Diacetyl", CASNumber: "431-03-8", Category: store.CategoryAvoid},
		{Name: "Ethyl maltol", CASNumber: "4940-11-8", Category: store.CategoryCaution},
	} {
		id, err := fx.store.UpsertIngredient(ctx, ing)
		if err != nil {
			t.Fatal(err)
		}
		fx.ings[ing.CASNumber] = id
	}
	return fx
}

func finding(flavor, cas string) scan.Finding {
	return scan.Finding{Category: store.CategoryAvoid, Vendor: "CAP", Flavor: flavor, Ingredient: cas}
}

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestQueryTokens(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Peaches & Cream", "peaches cream"},
		{"Cola (Type)", "cola type"},
		{"  Strawberry  ", "strawberry"},
		{"Lemon - Lime !", "lemon lime"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := strings.Join(merge.QueryTokens(tt.in), " "); got != tt.want {
			t.Errorf("QueryTokens(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRankOrdersBySimilarity(t *testing.T) {
	candidates := []store.FlavorCandidate{
		{ID: 1, Name: "Frozen Banana Cream Dream", VendorCode: "CAP"},
		{ID: 2, Name: "Banana Cream Pie", VendorCode: "CAP"},
		{ID: 3, Name: "Banana Cream Pie", VendorCode: "CAP"},
	}
	ranked := merge.Rank("CAP Banana Cream", candidates)
	var ids []int64
	for _, r := range ranked {
		ids = append(ids, r.Candidate.ID)
	}
	if len(ids) != 3 || ids[0] != 2 || ids[1] != 3 || ids[2] != 1 {
		t.Fatalf("unexpected order %v", ids)
	}
	if ranked[0].Label != "cap banana cream pie" || ranked[0].Score <= ranked[2].Score {
		t.Fatalf("unexpected ranking %+v", ranked)
	}
}

func TestMergeInsertsOnceAcrossRuns(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	engine := merge.NewEngine(fx.store, nil, nil)
	findings := []scan.Finding{finding("Sweet Strawberry", "431-03-8")}

	first, err := engine.Merge(context.Background(), findings)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if first.Inserted() != 1 {
		t.Fatalf("expected one insert, got %+v", first)
	}
	second, err := engine.Merge(context.Background(), findings)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if second.Inserted() != 0 || second.Counts[merge.OutcomeExisting] != 1 {
		t.Fatalf("expected existing on rerun, got %+v", second)
	}
	if fx.store.Inserts() != 1 {
		t.Fatalf("expected exactly one store insert, got %d", fx.store.Inserts())
	}
}

func TestMergeLogsExistingAssociation(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	flavorID := fx.flavors["Sweet Strawberry"]
	if _, err := fx.store.InsertAssociation(context.Background(), flavorID, fx.ings["431-03-8"]); err != nil {
		t.Fatal(err)
	}
	logger, buf := captureLogger()
	engine := merge.NewEngine(fx.store, nil, logger)

	summary, err := engine.Merge(context.Background(), []scan.Finding{finding("Sweet Strawberry", "431-03-8")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if summary.Counts[merge.OutcomeExisting] != 1 || fx.store.Inserts() != 1 {
		t.Fatalf("expected no new insert, summary=%+v inserts=%d", summary, fx.store.Inserts())
	}
	if !strings.Contains(buf.String(), "level=INFO") || !strings.Contains(buf.String(), "already exists") {
		t.Fatalf("expected info log about existing association:\n%s", buf.String())
	}
}

func TestMergeExactLabelWinsWithoutPrompt(t *testing.T) {
	fx := newFixture(t, "Strawberry Jam", "Strawberry")
	chooser := &prompt.Scripted{}
	engine := merge.NewEngine(fx.store, chooser, nil)

	summary, err := engine.Merge(context.Background(), []scan.Finding{finding("strawberry", "431-03-8")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if summary.Inserted() != 1 {
		t.Fatalf("expected insert, got %+v", summary)
	}
	if len(chooser.Questions) != 0 {
		t.Fatalf("chooser should not be asked, got %v", chooser.Questions)
	}
	assoc := fx.store.Associations()
	if len(assoc) != 1 || assoc[0].FlavorID != fx.flavors["Strawberry"] {
		t.Fatalf("expected exact flavor to be linked, got %+v", assoc)
	}
}

func TestMergeChoosesSecondRankedCandidate(t *testing.T) {
	fx := newFixture(t, "Frozen Banana Cream Dream", "Banana Cream Pie")
	chooser := &prompt.Scripted{Answers: []int{1}}
	engine := merge.NewEngine(fx.store, chooser, nil)

	if _, err := engine.Merge(context.Background(), []scan.Finding{finding("Banana Cream", "431-03-8")}); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(chooser.Offered) != 1 {
		t.Fatalf("expected one prompt, got %d", len(chooser.Offered))
	}
	offered := chooser.Offered[0]
	if offered[0].Label != "cap banana cream pie" || offered[1].Label != "cap frozen banana cream dream" {
		t.Fatalf("unexpected ranking %+v", offered)
	}
	if offered[0].Score < offered[1].Score {
		t.Fatalf("ranking not descending: %+v", offered)
	}
	assoc := fx.store.Associations()
	if len(assoc) != 1 || assoc[0].FlavorID != fx.flavors["Frozen Banana Cream Dream"] {
		t.Fatalf("expected second-ranked flavor linked, got %+v", assoc)
	}
}

func TestMergeDeclinedChoiceSkips(t *testing.T) {
	fx := newFixture(t, "Banana Cream Pie", "Banana Cream Custard")
	engine := merge.NewEngine(fx.store, prompt.Skip{}, nil)
	summary, err := engine.Merge(context.Background(), []scan.Finding{finding("Banana Cream", "431-03-8")})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if summary.Counts[merge.OutcomeDeclined] != 1 || fx.store.Inserts() != 0 {
		t.Fatalf("expected declined skip, got %+v", summary)
	}
}

func TestMergeLookupMissesAreSoft(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	logger, buf := captureLogger()
	engine := merge.NewEngine(fx.store, nil, logger)
	findings := []scan.Finding{
		{Category: "Banned", Vendor: "CAP", Flavor: "Sweet Strawberry", Ingredient: "431-03-8"},
		finding("Vanilla", "431-03-8"),
		finding("Sweet Strawberry", "0-00-0"),
		finding("Sweet Strawberry", "4940-11-8"),
	}
	summary, err := engine.Merge(context.Background(), findings)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := map[merge.Outcome]int{
		merge.OutcomeCategoryMissing:   1,
		merge.OutcomeFlavorMissing:     1,
		merge.OutcomeIngredientMissing: 1,
		merge.OutcomeInserted:          1,
	}
	for outcome, n := range want {
		if summary.Counts[outcome] != n {
			t.Errorf("%s: got %d want %d", outcome, summary.Counts[outcome], n)
		}
	}
	if summary.Processed != 4 || summary.Skipped() != 3 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for _, event := range []string{"category_not_found", "flavor_not_found", "ingredient_not_found"} {
		if !strings.Contains(buf.String(), "event_type="+event) {
			t.Errorf("missing %s warning", event)
		}
	}
}

func TestMergeAbortsOnStoreFailure(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	fx.store.FailInsert = errors.New("disk I/O error")
	engine := merge.NewEngine(fx.store, nil, nil)
	findings := []scan.Finding{
		finding("Sweet Strawberry", "431-03-8"),
		finding("Sweet Strawberry", "4940-11-8"),
	}
	summary, err := engine.Merge(context.Background(), findings)
	if !errors.Is(err, pipeline.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !pipeline.Aborts(err) {
		t.Fatal("persistence errors must abort")
	}
	if summary.Processed != 0 {
		t.Fatalf("expected abort on first finding, got %+v", summary)
	}
}

func TestMergeManual(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	engine := merge.NewEngine(fx.store, nil, nil)
	rows := []overrides.Warning{
		{Vendor: "CAP", Flavor: "Sweet Strawberry", Ingredient: "Diacetyl", Line: 2},
		{Vendor: "CAP", Flavor: "Unknown", Ingredient: "Diacetyl", Line: 3},
		{Vendor: "CAP", Flavor: "Sweet Strawberry", Ingredient: "Ethyl maltol", Line: 4},
		{Vendor: "CAP", Flavor: "Sweet Strawberry", Ingredient: "Diacetyl", Line: 5},
	}
	summary, err := engine.MergeManual(context.Background(), rows)
	if err != nil {
		t.Fatalf("MergeManual: %v", err)
	}
	if summary.Inserted() != 2 || summary.Counts[merge.OutcomeUnresolved] != 1 || summary.Counts[merge.OutcomeExisting] != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}

func TestMergeStopsOnCancelledContext(t *testing.T) {
	fx := newFixture(t, "Sweet Strawberry")
	engine := merge.NewEngine(fx.store, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.Merge(ctx, []scan.Finding{finding("Sweet Strawberry", "431-03-8")}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSummaryAdd(t *testing.T) {
	var total merge.Summary
	total.Add(merge.Summary{Processed: 2, Counts: map[merge.Outcome]int{merge.OutcomeInserted: 2}})
	total.Add(merge.Summary{Processed: 1, Counts: map[merge.Outcome]int{merge.OutcomeExisting: 1}})
	if total.Processed != 3 || total.Inserted() != 2 || total.Skipped() != 1 {
		t.Fatalf("unexpected total %+v", total)
	}
}

// Package merge resolves findings against the store and records new
// flavor/ingredient associations.
//
// Each finding is resolved in four steps: category by name, flavor by token
// search within the vendor (exact composite label first, otherwise ranked by
// bigram similarity and handed to a Chooser), ingredient by identifier, and
// finally an idempotent association write. Lookup misses drop the finding;
// store failures abort the merge.
package merge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"sdsscan/internal/logging"
	"sdsscan/internal/overrides"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/prompt"
	"sdsscan/internal/scan"
	"sdsscan/internal/store"
	"sdsscan/internal/textutil"
)

// Outcome is what happened to a single finding.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeExisting
	OutcomeCategoryMissing
	OutcomeFlavorMissing
	OutcomeDeclined
	OutcomeIngredientMissing
	OutcomeUnresolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeExisting:
		return "existing"
	case OutcomeCategoryMissing:
		return "category_missing"
	case OutcomeFlavorMissing:
		return "flavor_missing"
	case OutcomeDeclined:
		return "declined"
	case OutcomeIngredientMissing:
		return "ingredient_missing"
	case OutcomeUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// Summary counts outcomes across a merge.
type Summary struct {
	Processed int
	Counts    map[Outcome]int
}

func newSummary() Summary {
	return Summary{Counts: make(map[Outcome]int)}
}

func (s *Summary) record(o Outcome) {
	s.Processed++
	s.Counts[o]++
}

// Inserted is the number of new associations.
func (s Summary) Inserted() int { return s.Counts[OutcomeInserted] }

// Skipped is every processed finding that did not produce a new association.
func (s Summary) Skipped() int { return s.Processed - s.Inserted() }

// Add folds other into s.
func (s *Summary) Add(other Summary) {
	if s.Counts == nil {
		s.Counts = make(map[Outcome]int)
	}
	s.Processed += other.Processed
	for k, v := range other.Counts {
		s.Counts[k] += v
	}
}

// Engine merges findings through a Repository.
type Engine struct {
	repo    store.Repository
	chooser prompt.Chooser
	logger  *slog.Logger
}

// NewEngine builds an Engine. A nil chooser declines every ambiguous match.
func NewEngine(repo store.Repository, chooser prompt.Chooser, logger *slog.Logger) *Engine {
	if chooser == nil {
		chooser = prompt.Skip{}
	}
	return &Engine{
		repo:    repo,
		chooser: chooser,
		logger:  logging.NewComponentLogger(logger, "merge"),
	}
}

// Merge processes findings in order.
func (e *Engine) Merge(ctx context.Context, findings []scan.Finding) (Summary, error) {
	summary := newSummary()
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := e.mergeOne(ctx, f)
		if err != nil {
			return summary, err
		}
		summary.record(outcome)
	}
	e.logger.Info("merge complete",
		logging.Int("processed", summary.Processed),
		logging.Int("inserted", summary.Inserted()),
		logging.Int("skipped", summary.Skipped()),
	)
	return summary, nil
}

func (e *Engine) mergeOne(ctx context.Context, f scan.Finding) (Outcome, error) {
	logger := logging.WithContext(pipeline.WithVendor(ctx, f.Vendor), e.logger).With(
		logging.String("flavor", f.Flavor),
		logging.String("ingredient", f.Ingredient),
	)

	category, err := e.repo.LookupCategory(ctx, f.Category)
	if err != nil {
		return 0, persistence("lookup category", err)
	}
	if category == nil {
		logging.WarnWithContext(logger, "category not found", "category_not_found",
			logging.String("category", f.Category),
			logging.String(logging.FieldErrorHint, "seed the category with sdsscan db seed"),
		)
		return OutcomeCategoryMissing, nil
	}

	flavor, outcome, err := e.resolveFlavor(ctx, logger, f)
	if err != nil || flavor == nil {
		return outcome, err
	}

	ingredient, err := e.repo.LookupIngredientByIdentifier(ctx, f.Ingredient)
	if err != nil {
		return 0, persistence("lookup ingredient", err)
	}
	if ingredient == nil {
		logging.WarnWithContext(logger, "ingredient not found", "ingredient_not_found",
			logging.String(logging.FieldErrorHint, "add the identifier to the catalog"),
		)
		return OutcomeIngredientMissing, nil
	}

	return e.associate(ctx, logger, flavor.ID, flavor.Label(), ingredient.ID)
}

func (e *Engine) associate(ctx context.Context, logger *slog.Logger, flavorID int64, label string, ingredientID int64) (Outcome, error) {
	existing, err := e.repo.GetAssociation(ctx, flavorID, ingredientID)
	if err != nil {
		return 0, persistence("get association", err)
	}
	if existing != nil {
		logger.Info("association already exists",
			logging.String("label", label),
			logging.Int64("flavor_id", flavorID),
			logging.Int64("ingredient_id", ingredientID),
		)
		return OutcomeExisting, nil
	}
	if _, err := e.repo.InsertAssociation(ctx, flavorID, ingredientID); err != nil {
		return 0, persistence("insert association", err)
	}
	logger.Info("association recorded",
		logging.String("label", label),
		logging.Int64("flavor_id", flavorID),
		logging.Int64("ingredient_id", ingredientID),
	)
	return OutcomeInserted, nil
}

// Ranked is a flavor candidate scored against a composite label.
type Ranked struct {
	Candidate store.FlavorCandidate
	// Label is the candidate's lowercased composite label.
	Label string
	Score float64
}

// Rank scores candidates by bigram similarity between lowercased composite
// labels, highest first. Equal scores keep the store's order.
func Rank(label string, candidates []store.FlavorCandidate) []Ranked {
	want := strings.ToLower(label)
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		l := strings.ToLower(c.Label())
		ranked[i] = Ranked{Candidate: c, Label: l, Score: textutil.DiceSimilarity(want, l)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	return ranked
}

func (e *Engine) resolveFlavor(ctx context.Context, logger *slog.Logger, f scan.Finding) (*store.FlavorCandidate, Outcome, error) {
	tokens := QueryTokens(f.Flavor)
	candidates, err := e.repo.SearchFlavors(ctx, tokens, f.Vendor)
	if err != nil {
		return nil, 0, persistence("search flavors", err)
	}
	switch len(candidates) {
	case 0:
		logging.WarnWithContext(logger, "flavor not found", "flavor_not_found",
			logging.String("query", strings.Join(tokens, " ")),
			logging.String(logging.FieldErrorHint, "add the flavor to the catalog or an override row"),
		)
		return nil, OutcomeFlavorMissing, nil
	case 1:
		return &candidates[0], 0, nil
	}

	want := strings.ToLower(f.Label())
	for i, c := range candidates {
		if strings.ToLower(c.Label()) == want {
			logger.Debug("flavor disambiguated",
				logging.Args(logging.DecisionAttrs("flavor_match", "exact", "composite label equal")...)...)
			return &candidates[i], 0, nil
		}
	}
	ranked := Rank(want, candidates)

	choices := make([]prompt.Choice, len(ranked))
	for i, r := range ranked {
		choices[i] = prompt.Choice{Label: r.Label, Score: r.Score}
	}
	question := fmt.Sprintf("Multiple flavors match %q. Which one is it?", want)
	idx, err := e.chooser.Choose(ctx, question, choices)
	if err != nil {
		return nil, 0, err
	}
	if idx == prompt.None || idx < 0 || idx >= len(ranked) {
		logging.WarnWithContext(logger, "no flavor selected", "flavor_declined",
			logging.Int("candidates", len(ranked)),
			logging.String(logging.FieldErrorHint, "rerun interactively or add an override row"),
		)
		return nil, OutcomeDeclined, nil
	}
	logger.Debug("flavor disambiguated",
		logging.Args(logging.DecisionAttrs("flavor_match", "chosen", ranked[idx].Label)...)...)
	return &ranked[idx].Candidate, 0, nil
}

// MergeManual resolves override rows by exact vendor, flavor and ingredient
// names. Unresolved rows are counted and skipped.
func (e *Engine) MergeManual(ctx context.Context, rows []overrides.Warning) (Summary, error) {
	summary := newSummary()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		logger := logging.WithContext(pipeline.WithVendor(ctx, row.Vendor), e.logger).With(
			logging.String("flavor", row.Flavor),
			logging.String("ingredient", row.Ingredient),
			logging.Int("line", row.Line),
		)
		ids, err := e.repo.ResolveIdentifiers(ctx, row.Vendor, row.Flavor, row.Ingredient)
		if err != nil {
			return summary, persistence("resolve override", err)
		}
		if ids == nil {
			logger.Debug("override row unresolved")
			summary.record(OutcomeUnresolved)
			continue
		}
		outcome, err := e.associate(ctx, logger, ids.FlavorID, row.Vendor+" "+row.Flavor, ids.IngredientID)
		if err != nil {
			return summary, err
		}
		summary.record(outcome)
	}
	e.logger.Info("overrides merged",
		logging.Int("processed", summary.Processed),
		logging.Int("inserted", summary.Inserted()),
		logging.Int("unresolved", summary.Counts[OutcomeUnresolved]),
	)
	return summary, nil
}

func persistence(op string, err error) error {
	return pipeline.Wrap(pipeline.ErrPersistence, "merge", op, "", err)
}

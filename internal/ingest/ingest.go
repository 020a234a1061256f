// Package ingest walks a vendor's document directory, extracts text in
// bounded concurrent windows, and turns scanner matches into findings.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sdsscan/internal/logging"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/scan"
	"sdsscan/internal/staging"
	"sdsscan/internal/store"
	"sdsscan/internal/textract"
	"sdsscan/internal/vendors"
)

const (
	defaultBatchSize = 100
	defaultTimeout   = 120 * time.Second
)

// Options configures a Runner.
type Options struct {
	DocumentsDir string
	// StagingDir enables staging copies when non-empty.
	StagingDir string
	BatchSize  int
	Timeout    time.Duration
	Extensions []string
}

// DocumentResult is the outcome for one file.
type DocumentResult struct {
	Path     string
	Flavor   string
	Fallback bool
	Matches  []scan.Match
	Staged   string
	Err      error
}

// VendorResult aggregates a vendor batch.
type VendorResult struct {
	Vendor    vendors.Code
	Documents []DocumentResult
	Findings  []scan.Finding
	Failed    int
	Empty     int
	Fallbacks int
	Staged    int
}

// Runner processes vendor batches.
type Runner struct {
	opts       Options
	extractor  textract.Extractor
	signatures []store.IngredientSignature
	logger     *slog.Logger
}

// NewRunner builds a Runner. signatures is shared read-only by every task.
func NewRunner(opts Options, extractor textract.Extractor, signatures []store.IngredientSignature, logger *slog.Logger) *Runner {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Runner{
		opts:       opts,
		extractor:  extractor,
		signatures: signatures,
		logger:     logging.NewComponentLogger(logger, "ingest"),
	}
}

// RunVendor processes every document under <DocumentsDir>/<code>. Windows of
// BatchSize documents run concurrently and fully drain before the next
// window starts. Per-document failures are logged and counted, never
// returned; only an unknown vendor, an unreadable vendor directory or
// cancellation is.
func (r *Runner) RunVendor(ctx context.Context, code vendors.Code) (VendorResult, error) {
	result := VendorResult{Vendor: code}
	rule, err := vendors.RuleFor(code)
	if err != nil {
		return result, err
	}
	ctx = pipeline.WithVendor(pipeline.WithStage(ctx, "ingest"), string(code))
	logger := logging.WithContext(ctx, r.logger)

	paths, err := r.enumerate(code)
	if err != nil {
		return result, pipeline.Wrap(pipeline.ErrExtraction, "ingest", "enumerate", string(code), err)
	}
	if len(paths) == 0 {
		logging.WarnWithContext(logger, "no documents found", "vendor_empty",
			logging.String("dir", filepath.Join(r.opts.DocumentsDir, string(code))),
			logging.String(logging.FieldImpact, "vendor contributes no findings"),
			logging.String(logging.FieldErrorHint, "check paths.documents_dir and the vendor directory name"),
		)
		return result, nil
	}
	logger.Info("vendor batch started",
		logging.Int("documents", len(paths)),
		logging.String("strategy", rule.Strategy.String()),
	)

	for start := 0; start < len(paths); start += r.opts.BatchSize {
		end := min(start+r.opts.BatchSize, len(paths))
		window, err := r.runWindow(ctx, rule, paths[start:end])
		if err != nil {
			return result, err
		}
		for _, doc := range window {
			result.add(code, doc)
		}
		logger.Debug("window drained", logging.Int("start", start), logging.Int("size", end-start))
	}

	logger.Info("vendor batch complete",
		logging.Int("documents", len(result.Documents)),
		logging.Int("findings", len(result.Findings)),
		logging.Int("failed", result.Failed),
		logging.Int("fallbacks", result.Fallbacks),
	)
	return result, nil
}

func (v *VendorResult) add(code vendors.Code, doc DocumentResult) {
	v.Documents = append(v.Documents, doc)
	switch {
	case doc.Err != nil:
		v.Failed++
		return
	case doc.Flavor == "":
		v.Empty++
		return
	}
	if doc.Fallback {
		v.Fallbacks++
	}
	if doc.Staged != "" {
		v.Staged++
	}
	v.Findings = append(v.Findings, scan.Findings(string(code), doc.Flavor, doc.Matches)...)
}

// runWindow runs one task per path. Each task writes only its own slot.
func (r *Runner) runWindow(ctx context.Context, rule vendors.Rule, paths []string) ([]DocumentResult, error) {
	slots := make([]DocumentResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			slots[i] = r.processDocument(gctx, rule, p, r.relative(p))
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *Runner) processDocument(ctx context.Context, rule vendors.Rule, absPath, rel string) DocumentResult {
	res := DocumentResult{Path: rel}
	ctx = pipeline.WithDocument(ctx, rel)
	logger := logging.WithContext(ctx, r.logger)

	docCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()
	started := time.Now()
	text, err := r.extractor.Extract(docCtx, absPath)
	if err != nil {
		res.Err = pipeline.Wrap(pipeline.ErrExtraction, "ingest", "extract text", rel, err)
		logging.ErrorWithContext(logger, "text extraction failed", "extraction_failed",
			logging.Error(err),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldImpact, "document skipped"),
			logging.String(logging.FieldErrorHint, "verify the file opens and extraction.command works"),
		)
		return res
	}
	if strings.TrimSpace(text) == "" {
		logger.Debug("document has no text")
		return res
	}

	extraction := rule.Extract(vendors.Document{Path: rel, Text: text})
	res.Flavor = extraction.Name
	res.Fallback = extraction.Fallback
	for _, w := range extraction.Warnings {
		logging.WarnWithContext(logger, "flavor name fallback", "name_fallback",
			logging.String("reason", w),
			logging.String("flavor", extraction.Name),
			logging.String(logging.FieldImpact, "filename used as flavor name"),
			logging.String(logging.FieldErrorHint, "add an override row if the name is wrong"),
		)
	}
	res.Matches = scan.Scan(text, r.signatures)
	for _, m := range res.Matches {
		logger.Info("ingredient found",
			logging.String("flavor", res.Flavor),
			logging.String("category", m.Category),
			logging.String("identifier", m.Identifier),
			logging.String("ingredient", m.Name),
		)
	}

	if r.opts.StagingDir != "" {
		dst, copied, err := staging.Stage(r.opts.StagingDir, string(rule.Code), res.Flavor, absPath)
		if err != nil {
			logging.WarnWithContext(logger, "staging copy failed", "staging_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "document not staged"),
			)
		} else if copied {
			res.Staged = dst
		}
	}
	return res
}

// Document processes a single file as a member of the code batch without
// walking the vendor directory. Files outside the documents root are named
// as if they lived directly under <code>/.
func (r *Runner) Document(ctx context.Context, code vendors.Code, path string) (DocumentResult, error) {
	rule, err := vendors.RuleFor(code)
	if err != nil {
		return DocumentResult{}, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("resolve document path: %w", err)
	}
	rel := r.relative(absPath)
	if rel == ".." || strings.HasPrefix(rel, "../") || filepath.IsAbs(filepath.FromSlash(rel)) {
		rel = string(code) + "/" + filepath.Base(absPath)
	}
	ctx = pipeline.WithVendor(pipeline.WithStage(ctx, "ingest"), string(code))
	res := r.processDocument(ctx, rule, absPath, rel)
	return res, res.Err
}

func (r *Runner) relative(absPath string) string {
	rel, err := filepath.Rel(r.opts.DocumentsDir, absPath)
	if err != nil {
		return filepath.ToSlash(absPath)
	}
	return filepath.ToSlash(rel)
}

// enumerate lists matching files under the vendor directory in lexical order.
func (r *Runner) enumerate(code vendors.Code) ([]string, error) {
	root := filepath.Join(r.opts.DocumentsDir, string(code))
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat vendor dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vendor path %s is not a directory", root)
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !r.wanted(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vendor dir: %w", err)
	}
	slices.Sort(paths)
	return paths, nil
}

func (r *Runner) wanted(path string) bool {
	if len(r.opts.Extensions) == 0 {
		return true
	}
	return slices.Contains(r.opts.Extensions, strings.ToLower(filepath.Ext(path)))
}

// Package runner orchestrates a full scan: it owns the store lifecycle,
// walks vendors in their fixed order, merges findings, and applies manual
// overrides.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"sdsscan/internal/config"
	"sdsscan/internal/ingest"
	"sdsscan/internal/logging"
	"sdsscan/internal/logs"
	"sdsscan/internal/merge"
	"sdsscan/internal/overrides"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/prompt"
	"sdsscan/internal/scan"
	"sdsscan/internal/textract"
	"sdsscan/internal/vendors"
)

// Options adjusts a run. Zero values use the configured behaviour.
type Options struct {
	// Vendors restricts the run; empty means every vendor in order.
	Vendors []string
	// DryRun extracts and scans without writing associations.
	DryRun bool
	// OverridesPath replaces paths.overrides_path when set.
	OverridesPath string
	SkipOverrides bool

	Store     Store
	Extractor textract.Extractor
	Chooser   prompt.Chooser
	Logger    *slog.Logger
}

// VendorReport summarizes one vendor batch.
type VendorReport struct {
	Code      string
	Documents int
	Findings  int
	Failed    int
	Empty     int
	Fallbacks int
	Staged    int
	Skipped   bool
}

// Report is the outcome of Run.
type Report struct {
	RunID     string
	LogPath   string
	Vendors   []VendorReport
	Findings  []scan.Finding
	Merge     merge.Summary
	Overrides merge.Summary
	DryRun    bool
	Duration  time.Duration
}

type session struct {
	cfg     *config.Config
	opts    Options
	runID   string
	logPath string
	logger  *slog.Logger
	store   Store
	close   []func()
}

func (s *session) cleanup() {
	for i := len(s.close) - 1; i >= 0; i-- {
		s.close[i]()
	}
}

func begin(ctx context.Context, cfg *config.Config, opts Options, lock bool) (context.Context, *session, error) {
	if cfg == nil {
		return ctx, nil, pipeline.Wrap(pipeline.ErrConfiguration, "runner", "start", "config is required", nil)
	}
	s := &session{cfg: cfg, opts: opts, runID: uuid.NewString()}
	ctx = pipeline.WithRunID(ctx, s.runID)

	if opts.Logger != nil {
		s.logger = opts.Logger
	} else {
		logger, logPath, err := logging.NewFromConfig(cfg, s.runID)
		if err != nil {
			return ctx, nil, fmt.Errorf("init logger: %w", err)
		}
		s.logger, s.logPath = logger, logPath
	}
	s.logger = logging.WithContext(ctx, logging.NewComponentLogger(s.logger, "runner"))

	if lock {
		l, err := acquireLock(cfg.LockPath())
		if err != nil {
			return ctx, nil, err
		}
		s.close = append(s.close, func() {
			if err := l.Unlock(); err != nil {
				s.logger.Warn("failed to release lock", logging.Error(err))
			}
		})
	}

	if opts.Store != nil {
		s.store = opts.Store
	} else {
		st, err := OpenStore(ctx, cfg, false)
		if err != nil {
			s.cleanup()
			return ctx, nil, err
		}
		s.store = st
		s.close = append(s.close, func() { _ = st.Close() })
	}
	return ctx, s, nil
}

// Run executes a scan. Extraction failures, lookup misses and unknown
// vendors are logged and skipped; a store failure aborts the run and is
// returned together with the partial report.
func Run(ctx context.Context, cfg *config.Config, opts Options) (Report, error) {
	started := time.Now()
	ctx, s, err := begin(ctx, cfg, opts, !opts.DryRun)
	if err != nil {
		return Report{}, err
	}
	defer s.cleanup()

	report := Report{RunID: s.runID, LogPath: s.logPath, DryRun: opts.DryRun}
	err = s.run(ctx, &report)
	report.Duration = time.Since(started)

	removed := logs.Prune(s.logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, s.logPath)
	if removed > 0 {
		s.logger.Debug("pruned old run logs", logging.Int("removed", removed))
	}

	if err != nil {
		logging.ErrorWithContext(s.logger, "run aborted", "run_aborted",
			logging.Error(err),
			logging.Int("merged", report.Merge.Processed),
			logging.String(logging.FieldErrorHint, "check store connectivity and rerun; merges are idempotent"),
		)
		return report, err
	}
	s.logger.Info("run complete",
		logging.Int("vendors", len(report.Vendors)),
		logging.Int("findings", len(report.Findings)),
		logging.Int("inserted", report.Merge.Inserted()+report.Overrides.Inserted()),
		logging.Duration("duration", report.Duration),
		logging.Bool("dry_run", opts.DryRun),
	)
	return report, nil
}

func (s *session) run(ctx context.Context, report *Report) error {
	signatures, err := s.store.ListIngredientSignatures(ctx)
	if err != nil {
		return pipeline.Wrap(pipeline.ErrPersistence, "runner", "load signatures", "", err)
	}
	if len(signatures) == 0 {
		logging.WarnWithContext(s.logger, "no ingredient signatures loaded", "signatures_empty",
			logging.String(logging.FieldImpact, "no findings can be produced"),
			logging.String(logging.FieldErrorHint, "seed the catalog with sdsscan db seed"),
		)
	}

	extractor := s.opts.Extractor
	if extractor == nil {
		extractor = textract.NewDispatch(s.cfg.Extraction.Command)
	}
	chooser := s.opts.Chooser
	if chooser == nil {
		chooser = prompt.ForStdio(s.cfg.Merge.Interactive)
	}
	ingester := ingest.NewRunner(ingest.Options{
		DocumentsDir: s.cfg.Paths.DocumentsDir,
		StagingDir:   s.cfg.Paths.StagingDir,
		BatchSize:    s.cfg.Extraction.BatchSize,
		Timeout:      s.cfg.ExtractionTimeout(),
		Extensions:   s.cfg.Extraction.Extensions,
	}, extractor, signatures, s.logger)
	engine := merge.NewEngine(s.store, chooser, s.logger)

	perVendor := s.cfg.Merge.Mode != config.MergeModeRun
	var pending []scan.Finding
	order := s.vendorList()
	s.logger.Info("vendor batches queued", logging.String("order", strings.Join(order, " ")))
	for _, raw := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		vr := VendorReport{Code: raw}
		code, err := vendors.ParseCode(raw)
		if err == nil {
			var res ingest.VendorResult
			res, err = ingester.RunVendor(ctx, code)
			vr.Documents, vr.Findings = len(res.Documents), len(res.Findings)
			vr.Failed, vr.Empty, vr.Fallbacks, vr.Staged = res.Failed, res.Empty, res.Fallbacks, res.Staged
			report.Findings = append(report.Findings, res.Findings...)
			if err == nil {
				pending = append(pending, res.Findings...)
			}
		}
		if err != nil {
			if pipeline.Aborts(err) {
				return err
			}
			vr.Skipped = true
			logging.WarnWithContext(s.logger, "vendor batch skipped", "vendor_skipped",
				logging.String(logging.FieldVendor, raw),
				logging.Error(err),
				logging.String(logging.FieldImpact, "vendor contributes no findings"),
			)
		}
		report.Vendors = append(report.Vendors, vr)

		if perVendor && !s.opts.DryRun && len(pending) > 0 {
			summary, err := engine.Merge(pipeline.WithStage(ctx, "merge"), pending)
			report.Merge.Add(summary)
			if err != nil {
				return err
			}
			pending = nil
		}
	}
	if !s.opts.DryRun && len(pending) > 0 {
		summary, err := engine.Merge(pipeline.WithStage(ctx, "merge"), pending)
		report.Merge.Add(summary)
		if err != nil {
			return err
		}
	}

	if s.opts.DryRun || s.opts.SkipOverrides {
		return nil
	}
	summary, err := s.applyOverrides(ctx, engine, s.overridesPath(), false)
	report.Overrides = summary
	return err
}

// vendorList returns the vendor batches to run. Known codes always follow
// the fixed vendor order, each at most once, whatever order they were
// requested in. Unrecognized codes come last so they are reported as skipped.
func (s *session) vendorList() []string {
	codes := vendors.Codes()
	if len(s.opts.Vendors) == 0 {
		out := make([]string, len(codes))
		for i, c := range codes {
			out[i] = string(c)
		}
		return out
	}

	requested := make(map[vendors.Code]struct{}, len(s.opts.Vendors))
	var unknown []string
	seenUnknown := make(map[string]struct{})
	for _, raw := range s.opts.Vendors {
		code, err := vendors.ParseCode(raw)
		if err != nil {
			key := strings.ToUpper(strings.TrimSpace(raw))
			if _, dup := seenUnknown[key]; !dup {
				seenUnknown[key] = struct{}{}
				unknown = append(unknown, key)
			}
			continue
		}
		requested[code] = struct{}{}
	}
	out := make([]string, 0, len(requested)+len(unknown))
	for _, c := range codes {
		if _, ok := requested[c]; ok {
			out = append(out, string(c))
		}
	}
	return append(out, unknown...)
}

func (s *session) overridesPath() string {
	if s.opts.OverridesPath != "" {
		return s.opts.OverridesPath
	}
	return s.cfg.Paths.OverridesPath
}

// applyOverrides loads and merges the override file. A missing file is an
// error only when required is set.
func (s *session) applyOverrides(ctx context.Context, engine *merge.Engine, path string, required bool) (merge.Summary, error) {
	if path == "" {
		if required {
			return merge.Summary{}, pipeline.Wrap(pipeline.ErrConfiguration, "overrides", "load", "no override file configured", nil)
		}
		return merge.Summary{}, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && !required {
		s.logger.Debug("no override file", logging.String("path", path))
		return merge.Summary{}, nil
	}
	parsed, err := overrides.Load(path)
	if err != nil {
		return merge.Summary{}, pipeline.Wrap(pipeline.ErrConfiguration, "overrides", "load", path, err)
	}
	if parsed.Legacy {
		s.logger.Info("override file decoded as Windows-1252", logging.String("path", path))
	}
	if parsed.Skipped > 0 {
		logging.WarnWithContext(s.logger, "incomplete override rows skipped", "override_rows_incomplete",
			logging.Int("rows", parsed.Skipped),
			logging.String("path", path),
			logging.String(logging.FieldImpact, "rows ignored"),
		)
	}
	return engine.MergeManual(pipeline.WithStage(ctx, "overrides"), parsed.Warnings)
}

// ApplyOverrides merges a single override file outside a full run.
func ApplyOverrides(ctx context.Context, cfg *config.Config, path string, opts Options) (merge.Summary, error) {
	ctx, s, err := begin(ctx, cfg, opts, true)
	if err != nil {
		return merge.Summary{}, err
	}
	defer s.cleanup()
	if path == "" {
		path = s.overridesPath()
	}
	engine := merge.NewEngine(s.store, prompt.Skip{}, s.logger)
	return s.applyOverrides(ctx, engine, path, true)
}

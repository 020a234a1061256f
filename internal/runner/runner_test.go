package runner_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"sdsscan/internal/config"
	"sdsscan/internal/logging"
	"sdsscan/internal/merge"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/prompt"
	"sdsscan/internal/runner"
	"sdsscan/internal/testsupport"
	"sdsscan/internal/textract"
)

func writeVendorDocs(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteDocuments(t, cfg.Paths.DocumentsDir, "CAP", map[string]string{
		"apple.pdf": "Safety Data Sheet\nMaterial name: Apple Pie Flavor\nCAS 57-48-7 Fructose",
		"empty.pdf": "",
	})
	testsupport.WriteDocuments(t, cfg.Paths.DocumentsDir, "HS", map[string]string{
		"12 Lemon Tart.pdf": "Composition: 2,3-butanedione CAS 431-03-8",
	})
}

func baseOptions(t *testing.T) runner.Options {
	return runner.Options{
		Store:     testsupport.SeededMemStore(t),
		Extractor: textract.PlainText{},
		Chooser:   prompt.Skip{},
		Logger:    logging.NewNop(),
	}
}

func TestRunMergesAndIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeVendorDocs(t, cfg)
	opts := baseOptions(t)
	opts.Vendors = []string{"CAP", "ZZZ", "HS"}

	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(report.Vendors) != 3 || report.Vendors[2].Code != "ZZZ" || !report.Vendors[2].Skipped || report.Vendors[1].Skipped {
		t.Fatalf("expected unknown vendor to be skipped only: %+v", report.Vendors)
	}
	if report.Vendors[0].Documents != 2 || report.Vendors[0].Empty != 1 {
		t.Fatalf("unexpected CAP report %+v", report.Vendors[0])
	}
	if len(report.Findings) != 2 || report.Merge.Inserted() != 2 {
		t.Fatalf("expected two inserted findings, got findings=%+v merge=%+v", report.Findings, report.Merge)
	}
	if report.Findings[0].Flavor != "Apple Pie" || report.Findings[1].Flavor != "Lemon Tart" {
		t.Fatalf("unexpected flavors %+v", report.Findings)
	}

	again, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Merge.Inserted() != 0 || again.Merge.Counts[merge.OutcomeExisting] != 2 {
		t.Fatalf("expected rerun to insert nothing, got %+v", again.Merge)
	}
}

func TestRunWalksRequestedVendorsInFixedOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeVendorDocs(t, cfg)
	opts := baseOptions(t)
	opts.DryRun = true
	opts.Vendors = []string{"HS", "zz", "CAP", "hs", "ZZ"}

	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	var codes []string
	for _, v := range report.Vendors {
		codes = append(codes, v.Code)
	}
	if strings.Join(codes, " ") != "CAP HS ZZ" {
		t.Fatalf("processing order = %v, want [CAP HS ZZ]", codes)
	}
	if report.Vendors[0].Skipped || report.Vendors[1].Skipped || !report.Vendors[2].Skipped {
		t.Fatalf("unexpected skip flags %+v", report.Vendors)
	}
	if len(report.Findings) != 2 || report.Findings[0].Vendor != "CAP" || report.Findings[1].Vendor != "HS" {
		t.Fatalf("expected one CAP and one HS finding, got %+v", report.Findings)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeVendorDocs(t, cfg)
	opts := baseOptions(t)
	opts.DryRun = true
	mem := testsupport.SeededMemStore(t)
	opts.Store = mem

	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Findings) != 2 || report.Merge.Processed != 0 {
		t.Fatalf("unexpected dry run report %+v", report)
	}
	if mem.Inserts() != 0 {
		t.Fatalf("dry run inserted %d associations", mem.Inserts())
	}
}

func TestRunModeMergesAfterAllVendors(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMergeMode(config.MergeModeRun))
	writeVendorDocs(t, cfg)
	opts := baseOptions(t)

	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Merge.Inserted() != 2 || len(report.Vendors) != 13 {
		t.Fatalf("unexpected report vendors=%d merge=%+v", len(report.Vendors), report.Merge)
	}
}

func TestRunAbortsOnPersistenceFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeVendorDocs(t, cfg)
	opts := baseOptions(t)
	mem := testsupport.SeededMemStore(t)
	mem.FailInsert = errors.New("database is closed")
	opts.Store = mem

	report, err := runner.Run(context.Background(), cfg, opts)
	if !errors.Is(err, pipeline.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(report.Vendors) != 3 {
		t.Fatalf("expected abort after the CAP batch, got %d vendors", len(report.Vendors))
	}
}

func TestRunAppliesOverrides(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.Paths.OverridesPath, "vendor,flavor,ingredient\nTPA,Banana Cream,Acetoin\nTPA,Missing,Acetoin\n")
	opts := baseOptions(t)
	opts.Vendors = []string{"FW"}

	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Overrides.Inserted() != 1 || report.Overrides.Counts[merge.OutcomeUnresolved] != 1 {
		t.Fatalf("unexpected override summary %+v", report.Overrides)
	}
}

func TestApplyOverridesRequiresFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := runner.ApplyOverrides(context.Background(), cfg, filepath.Join(t.TempDir(), "none.csv"), baseOptions(t))
	if !errors.Is(err, pipeline.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunRefusesConcurrentWriter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: %v %v", ok, err)
	}
	defer held.Unlock()

	if _, err := runner.Run(context.Background(), cfg, baseOptions(t)); !errors.Is(err, runner.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunAgainstSQLite(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	writeVendorDocs(t, cfg)
	s := testsupport.MustOpenStore(t, cfg)
	testsupport.Seed(t, s)

	opts := runner.Options{Extractor: textract.PlainText{}, Chooser: prompt.Skip{}, Logger: logging.NewNop()}
	report, err := runner.Run(context.Background(), cfg, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Merge.Inserted() != 2 {
		t.Fatalf("expected two inserts, got %+v", report.Merge)
	}
	counts, err := s.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if counts.Associations != 2 {
		t.Fatalf("expected associations visible to other connections, got %+v", counts)
	}
}

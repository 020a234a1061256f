package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"sdsscan/internal/ingest"
	"sdsscan/internal/pipeline"
	"sdsscan/internal/store"
	"sdsscan/internal/vendors"
)

type fakeExtractor struct {
	mu       sync.Mutex
	texts    map[string]string
	fail     map[string]error
	calls    []string
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (string, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, filepath.Base(path))
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	base := filepath.Base(path)
	if err := f.fail[base]; err != nil {
		return "", err
	}
	return f.texts[base], nil
}

var signatures = []store.IngredientSignature{
	{Identifier: "57-48-7", Category: store.CategoryCaution, Name: "Fructose"},
	{Identifier: "431-03-8", Category: store.CategoryAvoid, Name: "Diacetyl"},
}

func writeDocs(t *testing.T, root string, code string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, code, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunVendorProducesFindingsInOrder(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, root, "CAP", "b.pdf", "a.pdf", "sub/c.pdf", "notes.docx")
	fx := &fakeExtractor{texts: map[string]string{
		"a.pdf": "Material name: Apple Pie Flavor\nMCT\nCAS 57-48-7",
		"b.pdf": "Material name: Banana Split\nCAS 431-03-8 and 57-48-7",
		"c.pdf": "Material name: Cherry\nnothing listed",
	}}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root, Extensions: []string{".pdf"}}, fx, signatures, nil)

	res, err := runner.RunVendor(context.Background(), vendors.CAP)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	if len(res.Documents) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(res.Documents))
	}
	wantPaths := []string{"CAP/a.pdf", "CAP/b.pdf", "CAP/sub/c.pdf"}
	for i, doc := range res.Documents {
		if doc.Path != wantPaths[i] {
			t.Fatalf("document %d: got %q want %q", i, doc.Path, wantPaths[i])
		}
	}
	if len(res.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %+v", res.Findings)
	}
	first := res.Findings[0]
	if first.Vendor != "CAP" || first.Flavor != "Apple Pie" || first.Ingredient != "57-48-7" || first.Category != store.CategoryCaution {
		t.Fatalf("unexpected first finding %+v", first)
	}
	if res.Findings[1].Ingredient != "57-48-7" || res.Findings[2].Ingredient != "431-03-8" {
		t.Fatalf("findings not in signature order: %+v", res.Findings[1:])
	}
}

func TestRunVendorBoundsConcurrencyPerWindow(t *testing.T) {
	root := t.TempDir()
	names := []string{"1.txt", "2.txt", "3.txt", "4.txt", "5.txt"}
	writeDocs(t, root, "HS", names...)
	fx := &fakeExtractor{texts: map[string]string{}, delay: 20 * time.Millisecond}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root, BatchSize: 2, Extensions: []string{".txt"}}, fx, signatures, nil)

	res, err := runner.RunVendor(context.Background(), vendors.HS)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	if peak := fx.peak.Load(); peak > 2 {
		t.Fatalf("expected at most 2 concurrent extractions, saw %d", peak)
	}
	if len(fx.calls) != 5 || res.Empty != 5 {
		t.Fatalf("expected every document processed as empty, calls=%d empty=%d", len(fx.calls), res.Empty)
	}
}

func TestRunVendorIsolatesFailures(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, root, "CAP", "bad.pdf", "good.pdf", "empty.pdf")
	fx := &fakeExtractor{
		texts: map[string]string{"good.pdf": "Material name: Lime\nCAS 57-48-7"},
		fail:  map[string]error{"bad.pdf": errors.New("pdftotext: exit status 1")},
	}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root}, fx, signatures, nil)

	res, err := runner.RunVendor(context.Background(), vendors.CAP)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	if res.Failed != 1 || res.Empty != 1 || len(res.Findings) != 1 {
		t.Fatalf("unexpected result failed=%d empty=%d findings=%d", res.Failed, res.Empty, len(res.Findings))
	}
	if !errors.Is(res.Documents[0].Err, pipeline.ErrExtraction) {
		t.Fatalf("expected extraction error on bad.pdf, got %v", res.Documents[0].Err)
	}
	if res.Documents[1].Flavor != "" {
		t.Fatalf("empty text must not produce a flavor, got %q", res.Documents[1].Flavor)
	}
}

func TestRunVendorAppliesDocumentTimeout(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, root, "CAP", "slow.pdf")
	fx := &fakeExtractor{texts: map[string]string{"slow.pdf": "Material name: Slow"}, delay: time.Second}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root, Timeout: 20 * time.Millisecond}, fx, signatures, nil)

	res, err := runner.RunVendor(context.Background(), vendors.CAP)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	if res.Failed != 1 || !errors.Is(res.Documents[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout failure, got %+v", res.Documents)
	}
}

func TestRunVendorMissingDirectoryIsEmpty(t *testing.T) {
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: t.TempDir()}, &fakeExtractor{}, signatures, nil)
	res, err := runner.RunVendor(context.Background(), vendors.FW)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	if len(res.Documents) != 0 {
		t.Fatalf("expected no documents, got %+v", res.Documents)
	}
}

func TestRunVendorUnknownVendor(t *testing.T) {
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: t.TempDir()}, &fakeExtractor{}, signatures, nil)
	_, err := runner.RunVendor(context.Background(), vendors.Code("ZZZ"))
	if !errors.Is(err, pipeline.ErrUnknownVendor) {
		t.Fatalf("expected ErrUnknownVendor, got %v", err)
	}
}

func TestRunVendorStagesDocuments(t *testing.T) {
	root := t.TempDir()
	stagingDir := t.TempDir()
	writeDocs(t, root, "CAP", "x.pdf")
	fx := &fakeExtractor{texts: map[string]string{"x.pdf": "Material name: Peaches & Cream\nCAS 57-48-7"}}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root, StagingDir: stagingDir}, fx, signatures, nil)

	res, err := runner.RunVendor(context.Background(), vendors.CAP)
	if err != nil {
		t.Fatalf("RunVendor: %v", err)
	}
	want := filepath.Join(stagingDir, "CAP", "peaches-cream.pdf")
	if res.Staged != 1 || res.Documents[0].Staged != want {
		t.Fatalf("expected staged copy at %s, got %+v", want, res.Documents[0])
	}
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("staged file missing: %v", err)
	}
}

func TestRunVendorCancelled(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, root, "CAP", "a.pdf")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root}, &fakeExtractor{}, signatures, nil)
	if _, err := runner.RunVendor(ctx, vendors.CAP); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDocumentOutsideRootUsesVendorPrefix(t *testing.T) {
	root := t.TempDir()
	elsewhere := t.TempDir()
	writeDocs(t, elsewhere, "downloads", "123 Lemon Tart.pdf")
	fx := &fakeExtractor{texts: map[string]string{
		"123 Lemon Tart.pdf": "Composition\nDiacetyl 431-03-8",
	}}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root}, fx, signatures, nil)

	res, err := runner.Document(context.Background(), vendors.HS, filepath.Join(elsewhere, "downloads", "123 Lemon Tart.pdf"))
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if res.Path != "HS/123 Lemon Tart.pdf" {
		t.Fatalf("unexpected path %q", res.Path)
	}
	if res.Flavor != "Lemon Tart" || res.Fallback {
		t.Fatalf("unexpected flavor %q (fallback=%v)", res.Flavor, res.Fallback)
	}
	if len(res.Matches) != 1 || res.Matches[0].Identifier != "431-03-8" {
		t.Fatalf("unexpected matches %+v", res.Matches)
	}
}

func TestDocumentReportsExtractionFailure(t *testing.T) {
	root := t.TempDir()
	writeDocs(t, root, "HS", "1 Broken.pdf")
	fx := &fakeExtractor{fail: map[string]error{"1 Broken.pdf": errors.New("damaged")}}
	runner := ingest.NewRunner(ingest.Options{DocumentsDir: root}, fx, signatures, nil)

	res, err := runner.Document(context.Background(), vendors.HS, filepath.Join(root, "HS", "1 Broken.pdf"))
	if !errors.Is(err, pipeline.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if res.Path != "HS/1 Broken.pdf" {
		t.Fatalf("unexpected path %q", res.Path)
	}
}

package pipeline_test

import (
	"errors"
	"strings"
	"testing"

	"sdsscan/internal/pipeline"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := pipeline.Wrap(pipeline.ErrExtraction, "ingest", "pdftotext", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, pipeline.ErrExtraction) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"ingest", "pdftotext", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := pipeline.Wrap(pipeline.ErrLookupMiss, "", "", "", nil)
	if err.Error() != "lookup miss: pipeline failure" {
		t.Fatalf("unexpected message %q", err)
	}
}

func TestAbortsClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"extraction", pipeline.Wrap(pipeline.ErrExtraction, "ingest", "", "", errors.New("io")), false},
		{"lookup", pipeline.Wrap(pipeline.ErrLookupMiss, "merge", "", "", nil), false},
		{"vendor", pipeline.Wrap(pipeline.ErrUnknownVendor, "ingest", "", "ZZ", nil), false},
		{"persistence", pipeline.Wrap(pipeline.ErrPersistence, "merge", "insert", "", errors.New("disk")), true},
		{"plain", errors.New("unclassified"), true},
	}
	for _, tt := range tests {
		if got := pipeline.Aborts(tt.err); got != tt.want {
			t.Fatalf("%s: Aborts = %v, want %v", tt.name, got, tt.want)
		}
	}
}

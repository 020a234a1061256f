package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownVendor = errors.New("unknown vendor")
	ErrExtraction    = errors.New("extraction failure")
	ErrLookupMiss    = errors.New("lookup miss")
	ErrPersistence   = errors.New("persistence error")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Aborts reports whether err must stop the whole run. Extraction failures,
// lookup misses and unknown vendors only drop the affected document, finding,
// or vendor batch.
func Aborts(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrExtraction), errors.Is(err, ErrLookupMiss), errors.Is(err, ErrUnknownVendor):
		return false
	default:
		return true
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

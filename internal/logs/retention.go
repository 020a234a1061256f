package logs

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sdsscan/internal/logging"
)

// Prune removes run logs in dir older than retentionDays, never touching
// keep (usually the current run's log). Zero or negative retention disables
// pruning. It returns the number of files removed.
func Prune(logger *slog.Logger, dir string, retentionDays int, keep string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	runs, err := List(dir)
	if err != nil {
		return 0
	}
	if keep != "" {
		if abs, err := filepath.Abs(keep); err == nil {
			keep = abs
		}
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, run := range runs {
		if !run.ModTime.Before(cutoff) {
			continue
		}
		path := run.Path
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if path == keep {
			continue
		}
		if err := os.Remove(path); err != nil {
			logging.WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check log_dir ownership"),
				logging.String(logging.FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned", logging.String("run_id", run.RunID), logging.String(logging.FieldEventType, "log_pruned"))
		}
	}
	return removed
}

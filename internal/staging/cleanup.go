package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"sdsscan/internal/logging"
)

// CleanStaleResult contains the outcome of a stale file cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staged documents older than maxAge from every vendor
// directory, then removes vendor directories left empty.
func CleanStale(ctx context.Context, stagingDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return result
	}

	vendors, err := os.ReadDir(stagingDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: stagingDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, vendor := range vendors {
		if ctx.Err() != nil {
			return result
		}
		if !vendor.IsDir() {
			continue
		}
		vendorDir := filepath.Join(stagingDir, vendor.Name())
		files, err := os.ReadDir(vendorDir)
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: vendorDir, Error: err})
			continue
		}
		remaining := len(files)
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			path := filepath.Join(vendorDir, file.Name())
			info, err := file.Info()
			if err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
				logging.WarnWithContext(logger, "failed to remove stale staged document", "staging_cleanup_failed",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
				continue
			}
			remaining--
			result.Removed = append(result.Removed, path)
			if logger != nil {
				logger.Info("removed stale staged document",
					logging.String("path", path),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "staging_cleanup"),
				)
			}
		}
		if remaining == 0 {
			_ = os.Remove(vendorDir)
		}
	}

	return result
}

// DirInfo contains metadata about a vendor staging directory.
type DirInfo struct {
	Name    string
	Path    string
	Files   int
	Size    int64
	ModTime time.Time
}

// ListDirectories returns every vendor directory in the staging tree, sorted by name.
func ListDirectories(stagingDir string) ([]DirInfo, error) {
	stagingDir = strings.TrimSpace(stagingDir)
	if stagingDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(stagingDir, entry.Name())
		files, size := dirStats(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			Files:   files,
			Size:    size,
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })
	return dirs, nil
}

// dirStats counts regular files and their total size, best effort.
func dirStats(path string) (int, int64) {
	var (
		count int
		size  int64
	)
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			count++
			size += info.Size()
		}
		return nil
	})
	return count, size
}

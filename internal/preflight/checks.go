package preflight

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"sdsscan/internal/config"
	"sdsscan/internal/deps"
	"sdsscan/internal/runner"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckOverrides reports whether the configured override file is readable.
// A missing file is not a failure; runs simply skip overrides.
func CheckOverrides(path string) Result {
	const name = "Override file"
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := unix.Access(path, unix.R_OK); err != nil {
			return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Optional: true, Detail: path}
	case errors.Is(err, os.ErrNotExist):
		return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (absent, skipped)", path)}
	default:
		return Result{Name: name, Optional: true, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
}

// CheckStore opens the configured store and counts its rows.
func CheckStore(ctx context.Context, cfg *config.Config) Result {
	name := "Store (" + cfg.Store.Driver + ")"
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	s, err := runner.OpenStore(checkCtx, cfg, false)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer s.Close()
	counts, err := s.Counts(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("query failed: %v", err)}
	}
	if counts.Ingredients == 0 {
		return Result{Name: name, Detail: "no ingredients seeded (run sdsscan db seed)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d vendors, %d flavors, %d ingredients, %d associations",
		counts.Vendors, counts.Flavors, counts.Ingredients, counts.Associations)}
}

// CheckSystemDeps evaluates the external binaries required by the config.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	var requirements []deps.Requirement
	for _, ext := range cfg.Extraction.Extensions {
		if ext == ".pdf" {
			requirements = append(requirements, deps.Requirement{
				Name:        "Text extractor",
				Command:     cfg.Extraction.Command,
				Description: "Required for PDF text extraction",
				VersionArgs: []string{"-v"},
			})
			break
		}
	}
	return deps.CheckBinaries(ctx, requirements)
}

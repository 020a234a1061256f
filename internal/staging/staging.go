package staging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sdsscan/internal/fileutil"
	"sdsscan/internal/textutil"
)

// Path returns the staging destination for a document of vendor code whose
// extracted flavor name is name: <stagingDir>/<CODE>/<slug><ext>.
func Path(stagingDir, code, name, srcPath string) string {
	ext := strings.ToLower(filepath.Ext(srcPath))
	return filepath.Join(stagingDir, code, textutil.Slugify(name)+ext)
}

// Stage copies srcPath into the staging tree. Existing destinations are left
// untouched; the boolean reports whether a copy was written.
func Stage(stagingDir, code, name, srcPath string) (string, bool, error) {
	dst := Path(stagingDir, code, name, srcPath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return dst, false, fmt.Errorf("create staging directory: %w", err)
	}
	copied, err := fileutil.CopyFileExclusive(srcPath, dst)
	if err != nil {
		return dst, false, fmt.Errorf("stage %s: %w", filepath.Base(srcPath), err)
	}
	return dst, copied, nil
}

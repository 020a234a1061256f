package fileutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
)

// CopyFileExclusive copies src to dst only when dst does not exist yet. The
// destination is created with O_EXCL so concurrent callers racing for the same
// path produce exactly one copy. It reports whether this call wrote the file.
// A partially written destination is removed on failure.
func CopyFileExclusive(src, dst string) (bool, error) {
	in, err := os.Open(src)
	if err != nil {
		return false, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return false, err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return false, err
	}
	return true, nil
}

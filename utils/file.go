package utils

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// ResolveFile returns the path of the given file relative to the root
// of the codebase. For example, if this file currently
// lives in utils/file.go and ./foo/bar/baz is given, then the result
// is foo/bar/baz. This is helpful when you don't want to relatively
// refer to files when you're not sure where the caller actually
// lives in relation to the target file.
func ResolveFile(fn string) string {
	//nolint:dogsled
	_, thisFilePath, _, _ := runtime.Caller(0)
	thisDirPath, err := filepath.Abs(filepath.Dir(thisFilePath))
	if err != nil {
		panic(err)
	}
	return filepath.Join(thisDirPath, "..", fn)
}

// RemoveFileNoError will remove the file at the given path if it exists. Any
// errors will be suppressed.
func RemoveFileNoError(path string) {
	utils.UncheckedErrorFunc(func() error {
		if _, err := os.Stat(path); err == nil {
			return os.Remove(path)
		}
		return nil
	})
}

// WriteFileAtomic writes the output of fn to path. The data is staged in a temporary file in
// the same directory and renamed over path only once fn, the flush and the close all succeed, so
// path either holds the complete output or is left untouched. The directory must already exist.
func WriteFileAtomic(path string, perm os.FileMode, fn func(w io.Writer) error) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	info, err := os.Stat(dir)
	if err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	if !info.IsDir() {
		return errors.Errorf("cannot write %q: %q is not a directory", path, dir)
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return errors.Wrapf(err, "cannot write %q", path)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			RemoveFileNoError(tmpName)
		}
	}()

	w := bufio.NewWriter(tmp)
	if err := fn(w); err != nil {
		return multierr.Combine(errors.Wrapf(err, "error writing %q", path), tmp.Close())
	}
	if err := w.Flush(); err != nil {
		return multierr.Combine(errors.Wrapf(err, "error writing %q", path), tmp.Close())
	}
	if err := tmp.Chmod(perm); err != nil {
		return multierr.Combine(errors.Wrapf(err, "error writing %q", path), tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "error writing %q", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrapf(err, "error writing %q", path)
	}
	return nil
}

// Package equivalence compares serialized factor graphs and trajectories, either exactly line by
// line or within the tolerance implied by a precision policy.
package equivalence

import (
	"bufio"
	"os"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"
)

// DataLines trims every line and drops blank and comment lines.
func DataLines(lines []string) []string {
	trimmed := lo.Map(lines, func(l string, _ int) string { return strings.TrimSpace(l) })
	return lo.Filter(trimmed, func(l string, _ int) bool {
		return l != "" && !strings.HasPrefix(l, "#")
	})
}

// LinesEqual reports whether a and b have the same number of lines and each pair of lines is
// equal once surrounding whitespace is removed.
func LinesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != strings.TrimSpace(b[i]) {
			return false
		}
	}
	return true
}

// Diff returns a human readable description of how b differs from a, or "" if they are equal
// line by line.
func Diff(a, b []string) string {
	trim := cmp.Transformer("TrimSpace", strings.TrimSpace)
	return cmp.Diff(a, b, trim)
}

// ReadLines returns the lines of a file without their line endings.
func ReadLines(path string) ([]string, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", path)
	}
	defer goutils.UncheckedErrorFunc(f.Close)

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", path)
	}
	return lines, nil
}

// FilesEqual compares two files with LinesEqual.
func FilesEqual(path1, path2 string) (bool, error) {
	a, err := ReadLines(path1)
	if err != nil {
		return false, err
	}
	b, err := ReadLines(path2)
	if err != nil {
		return false, err
	}
	return LinesEqual(a, b), nil
}

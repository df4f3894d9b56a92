package gen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Diff compares the files with the versions on disk and returns a unified diff of each one which differs, or an empty
// string if they're all up to date. A missing file is diffed against an empty one.
func Diff(files Files) (string, error) {
	var diffs []string
	for _, f := range []File{files.Release, files.Dev} {
		current, err := os.ReadFile(f.Path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("diffing generated file: %w", err)
		}
		if diff := computeTextDiff(f.Path, string(current), string(f.Contents)); diff != "" {
			diffs = append(diffs, diff)
		}
	}
	return strings.Join(diffs, "\n"), nil
}

func computeTextDiff(path, current, generated string) string {
	edits := myers.ComputeEdits(span.URIFromPath(path), current, generated)
	if len(edits) == 0 {
		return ""
	}
	return fmt.Sprint(gotextdiff.ToUnified(path+" (current)", path+" (generated)", current, edits))
}

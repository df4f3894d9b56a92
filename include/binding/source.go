package binding

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/marcuscaisey/lazyinclude/include"
)

// Source provides the contents of the files that bindings refer to.
type Source interface {
	// ReadFile returns the contents of the file at the given path, which uses the operating system's separator and is
	// relative to the root of the source unless it's absolute.
	ReadFile(name string) ([]byte, error)
}

// DiskSource returns a [Source] which reads files from disk relative to root.
// If root is empty then it's found with [ProjectRoot] when the first file is read.
func DiskSource(root string) Source {
	s := &diskSource{}
	s.root = sync.OnceValues(func() (string, error) {
		if root != "" {
			return root, nil
		}
		return ProjectRoot()
	})
	return s
}

type diskSource struct {
	root func() (string, error)
}

func (s *diskSource) ReadFile(name string) ([]byte, error) {
	if filepath.IsAbs(name) {
		return os.ReadFile(name)
	}
	root, err := s.root()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(root, name))
}

// FSSource returns a [Source] which reads files from fsys. This is usually an [embed.FS].
func FSSource(fsys fs.FS) Source {
	return fsSource{fsys: fsys}
}

type fsSource struct {
	fsys fs.FS
}

func (s fsSource) ReadFile(name string) ([]byte, error) {
	name = path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "./"))
	return fs.ReadFile(s.fsys, name)
}

// ProjectRoot returns the directory that binding paths are resolved against: the value of the LAZYINCLUDE_ROOT
// environment variable if it's set, otherwise the root of the Go module containing the working directory.
func ProjectRoot() (string, error) {
	if root := os.Getenv(include.RootEnv); root != "" {
		return root, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("finding project root: %w", err)
	}
	return FindRoot(wd)
}

// FindRoot returns the closest directory to dir, starting with dir itself and then its ancestors, which contains a
// go.mod file.
func FindRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("finding project root: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("finding project root: %w", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("finding project root: no go.mod found and %s is not set", include.RootEnv)
		}
		dir = parent
	}
}

// Path joins a project root and path segments into a single path.
func Path(root string, segments ...string) string {
	return filepath.Join(append([]string{root}, segments...)...)
}

// Package binding declares named bindings to the contents of files.
//
// A binding resolves to the text of a file, its bytes, or a fixed-length array decoded from an array literal in the
// file. The file is read the first time that the binding is accessed and the result is cached for the lifetime of the
// [Registry] that it was declared in:
//
//	var (
//		reg    = binding.NewRegistry()
//		primes = binding.Array(reg, "primes", arraylit.U64, 5, "data/primes.txt")
//	)
//
//	func main() {
//		fmt.Println(primes.Get())
//	}
package binding

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/marcuscaisey/lazyinclude/include"
)

// Registry holds a set of bindings with unique names and the [Source] that they're read from.
type Registry struct {
	source Source
	logger *slog.Logger

	mu       sync.Mutex
	bindings map[string]entry
	names    []string
}

// entry is the type-erased view of a [Binding] which the registry holds.
type entry interface {
	Name() string
	Resolved() bool
	resolveAny() (any, error)
	preload() error
}

// Option can be passed to [NewRegistry] to configure it.
type Option func(*registryConfig)

type registryConfig struct {
	root     string
	source   Source
	embedded fs.FS
	logger   *slog.Logger
}

// WithRoot sets the directory that relative paths are resolved against when reading from disk. By default, this is
// found with [ProjectRoot].
func WithRoot(dir string) Option {
	return func(c *registryConfig) {
		c.root = dir
	}
}

// WithSource sets the [Source] that files are read from, overriding both the disk and any embedded file system.
func WithSource(source Source) Option {
	return func(c *registryConfig) {
		c.source = source
	}
}

// WithEmbedded sets the file system that files are read from when [Optimized] is true.
func WithEmbedded(fsys fs.FS) Option {
	return func(c *registryConfig) {
		c.embedded = fsys
	}
}

// WithLogger sets the logger that resolution is logged to. By default, this is [slog.Default].
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// NewRegistry returns an empty [Registry] configured with the given options.
func NewRegistry(opts ...Option) *Registry {
	cfg := &registryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	reg := &Registry{
		source:   cfg.source,
		logger:   cfg.logger,
		bindings: map[string]entry{},
	}
	if reg.logger == nil {
		reg.logger = slog.Default()
	}
	if reg.source == nil {
		if Optimized && cfg.embedded != nil {
			reg.source = FSSource(cfg.embedded)
		} else {
			reg.source = DiskSource(cfg.root)
		}
	}
	return reg
}

// add registers a binding. It panics if a binding with the same name has already been declared.
func (r *Registry) add(e entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bindings[e.Name()]; ok {
		panic(fmt.Sprintf("binding %q declared twice", e.Name()))
	}
	r.bindings[e.Name()] = e
	r.names = append(r.names, e.Name())
}

func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.bindings[name]
	return e, ok
}

// Names returns the names of the declared bindings in the order that they were declared.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Resolve resolves the binding with the given name and returns its value.
func (r *Registry) Resolve(name string) (any, error) {
	e, ok := r.lookup(name)
	if !ok {
		return nil, fmt.Errorf("no binding named %q", name)
	}
	return e.resolveAny()
}

// Preload resolves every declared binding concurrently and returns the errors of those which failed, joined with
// [errors.Join]. Bindings which haven't been started when ctx is done are skipped and ctx's error is included.
func (r *Registry) Preload(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range r.Names() {
		if ctx.Err() != nil {
			break
		}
		e, _ := r.lookup(name)
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := e.preload(); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	g.Wait() // errors are collected in errs so none are returned
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// read returns the contents of the file at path.
func (r *Registry) read(name, path string) ([]byte, error) {
	start := time.Now()
	data, err := r.source.ReadFile(path)
	if err != nil {
		return nil, include.NewSourceError(path, err)
	}
	r.logger.Debug("Read file", "binding", name, "path", path, "bytes", len(data), "duration", time.Since(start))
	return data, nil
}

// readText is like read but also checks that the contents are valid UTF-8.
func (r *Registry) readText(name, path string) ([]byte, error) {
	data, err := r.read(name, path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, include.NewSourceError(path, errors.New("file is not valid UTF-8"))
	}
	return data, nil
}

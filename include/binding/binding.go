package binding

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"time"
	"unsafe"

	"github.com/marcuscaisey/lazyinclude/include/arraylit"
	"github.com/marcuscaisey/lazyinclude/include/lazy"
)

// ErrReentrant is returned when a binding is accessed while it's being resolved by the same goroutine.
var ErrReentrant = lazy.ErrReentrant

// Binding is a named value which is read from one or more files the first time that it's accessed.
type Binding[T any] struct {
	reg   *Registry
	name  string
	paths []string
	value *lazy.Value[T]
	clone func(T) T // nil if T is immutable
}

// declare creates a binding and adds it to reg. It panics if name is already declared or no paths are given.
// If clone is non-nil then each caller is given a copy of the resolved value made with it.
func declare[T any](reg *Registry, name string, paths []string, clone func(T) T, resolve func() (T, error)) *Binding[T] {
	if len(paths) == 0 {
		panic(fmt.Sprintf("binding %q declared without any paths", name))
	}
	b := &Binding[T]{
		reg:   reg,
		name:  name,
		paths: paths,
		clone: clone,
	}
	b.value = lazy.New(func() (T, error) {
		start := time.Now()
		reg.logger.Debug("Resolving binding", "binding", name, "paths", paths)
		val, err := resolve()
		if err != nil {
			reg.logger.Error("Failed to resolve binding", "binding", name, "error", err)
			return val, err
		}
		reg.logger.Debug("Resolved binding", "binding", name, "duration", time.Since(start))
		return val, nil
	})
	reg.add(b)
	return b
}

// Name returns the name of the binding.
func (b *Binding[T]) Name() string {
	return b.name
}

// Paths returns the paths of the files that the binding is read from.
func (b *Binding[T]) Paths() []string {
	return b.paths
}

// Resolve returns the value of the binding, reading it if this is the first access.
// If the value can't be read then an [*include.Error] is returned. Failed resolutions aren't retried.
// Slices in the returned value belong to the caller: modifying them doesn't change the value of the binding.
func (b *Binding[T]) Resolve() (T, error) {
	val, err := b.value.Get()
	if errors.Is(err, lazy.ErrReentrant) {
		return val, fmt.Errorf("resolving binding %q: %w", b.name, err)
	}
	if err != nil || b.clone == nil {
		return val, err
	}
	return b.clone(val), nil
}

// Get is like Resolve but panics if the value can't be read.
func (b *Binding[T]) Get() T {
	val, err := b.Resolve()
	if err != nil {
		panic(err)
	}
	return val
}

// Resolved reports whether the binding has finished resolving, successfully or not.
func (b *Binding[T]) Resolved() bool {
	return b.value.State() == lazy.Resolved
}

func (b *Binding[T]) resolveAny() (any, error) {
	return b.Resolve()
}

// preload resolves the binding without copying its value.
func (b *Binding[T]) preload() error {
	_, err := b.value.Get()
	return err
}

// Access returns the binding with the given name. It panics if no binding with the name has been declared in reg or
// if the binding doesn't have type T.
func Access[T any](reg *Registry, name string) *Binding[T] {
	e, ok := reg.lookup(name)
	if !ok {
		panic(fmt.Sprintf("no binding named %q", name))
	}
	b, ok := e.(*Binding[T])
	if !ok {
		panic(fmt.Sprintf("binding %q has type %T, not %T", name, e, (*Binding[T])(nil)))
	}
	return b
}

// Str declares a binding to the text of the file at path.
func Str(reg *Registry, name, path string) *Binding[string] {
	return declare(reg, name, []string{path}, nil, func() (string, error) {
		return readStr(reg, name, path)
	})
}

// StrSeq declares a binding to the text of each of the files at paths.
func StrSeq(reg *Registry, name string, paths ...string) *Binding[[]string] {
	return declare(reg, name, paths, slices.Clone[[]string], func() ([]string, error) {
		return each(paths, func(path string) (string, error) { return readStr(reg, name, path) })
	})
}

// Bytes declares a binding to the contents of the file at path.
func Bytes(reg *Registry, name, path string) *Binding[[]byte] {
	return declare(reg, name, []string{path}, bytes.Clone, func() ([]byte, error) {
		return reg.read(name, path)
	})
}

// BytesSeq declares a binding to the contents of each of the files at paths.
func BytesSeq(reg *Registry, name string, paths ...string) *Binding[[][]byte] {
	return declare(reg, name, paths, cloneEach(bytes.Clone), func() ([][]byte, error) {
		return each(paths, func(path string) ([]byte, error) { return reg.read(name, path) })
	})
}

// Array declares a binding to the array literal in the file at path, which must have exactly n elements of type typ.
func Array[T any](reg *Registry, name string, typ arraylit.ElemType[T], n int, path string) *Binding[[]T] {
	if n < 0 {
		panic(fmt.Sprintf("binding %q declared with negative length %d", name, n))
	}
	return declare(reg, name, []string{path}, typ.Clone, func() ([]T, error) {
		return readArray(reg, name, typ, n, path)
	})
}

// ArraySeq declares a binding to the array literals in each of the files at paths.
func ArraySeq[T any](reg *Registry, name string, typ arraylit.ElemType[T], n int, paths ...string) *Binding[[][]T] {
	if n < 0 {
		panic(fmt.Sprintf("binding %q declared with negative length %d", name, n))
	}
	return declare(reg, name, paths, cloneEach(typ.Clone), func() ([][]T, error) {
		return each(paths, func(path string) ([]T, error) { return readArray(reg, name, typ, n, path) })
	})
}

// ArrayValues is like [ArraySeq] but the element type is chosen at runtime and elements are decoded into
// [arraylit.Value]s. It's used by tools which read binding declarations from a manifest.
func ArrayValues(reg *Registry, name string, desc *arraylit.Desc, n int, paths ...string) *Binding[[][]arraylit.Value] {
	if n < 0 {
		panic(fmt.Sprintf("binding %q declared with negative length %d", name, n))
	}
	return declare(reg, name, paths, cloneEach(cloneValues), func() ([][]arraylit.Value, error) {
		return each(paths, func(path string) ([]arraylit.Value, error) {
			data, err := reg.readText(name, path)
			if err != nil {
				return nil, err
			}
			return arraylit.DecodeValues(data, path, desc, n)
		})
	})
}

func readStr(reg *Registry, name, path string) (string, error) {
	data, err := reg.readText(name, path)
	if err != nil || len(data) == 0 {
		return "", err
	}
	// data is never modified after this point so it can back the string.
	return unsafe.String(unsafe.SliceData(data), len(data)), nil
}

func readArray[T any](reg *Registry, name string, typ arraylit.ElemType[T], n int, path string) ([]T, error) {
	data, err := reg.readText(name, path)
	if err != nil {
		return nil, err
	}
	return arraylit.Decode(data, path, typ, n)
}

// cloneEach returns a function which copies a slice and each of its elements with clone.
func cloneEach[E any](clone func(E) E) func([]E) []E {
	return func(s []E) []E {
		if s == nil {
			return nil
		}
		cloned := make([]E, len(s))
		for i, e := range s {
			cloned[i] = clone(e)
		}
		return cloned
	}
}

func cloneValues(values []arraylit.Value) []arraylit.Value {
	return cloneEach(arraylit.Value.Clone)(values)
}

// each calls f for each path and returns the results in the same order, stopping at the first error.
func each[E any](paths []string, f func(path string) (E, error)) ([]E, error) {
	vals := make([]E, 0, len(paths))
	for _, path := range paths {
		val, err := f(path)
		if err != nil {
			return nil, err
		}
		vals = append(vals, val)
	}
	return vals, nil
}

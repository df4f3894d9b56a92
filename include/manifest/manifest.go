// Package manifest loads the files which declare the bindings of a package for the includegen command.
//
// A manifest is written in either HCL:
//
//	package = "data"
//
//	array "Primes" {
//	  type   = "u64"
//	  length = 5
//	  paths  = ["primes.txt"]
//	}
//
// or YAML:
//
//	package: data
//	bindings:
//	  - kind: array
//	    name: Primes
//	    type: u64
//	    length: 5
//	    paths: [primes.txt]
package manifest

import (
	"errors"
	"fmt"
	gotoken "go/token"
	"os"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marcuscaisey/lazyinclude/include/arraylit"
)

// DefaultOutput is the base name of the generated files if a manifest doesn't set one.
const DefaultOutput = "lazyinclude"

// Kind is the shape of the value that a binding resolves to.
type Kind string

// The list of all binding kinds.
const (
	Str   Kind = "str"
	Bytes Kind = "bytes"
	Array Kind = "array"
)

// Binding is a single declared binding.
type Binding struct {
	Kind Kind
	Name string
	// Paths are slash separated and relative to the directory containing the manifest.
	Paths []string
	// TypeName is the name of the element type of an array binding, such as u64.
	TypeName string
	// Type is the element type of an array binding. It's set by [Manifest.Validate].
	Type   *arraylit.Desc
	Length int
	Doc    string
}

// DataVar returns the name of the variable which holds the binding's value in generated code built with the
// lazyinclude_release tag. Bindings to more than one str or bytes file have a variable per file, named DataVar
// followed by the index of the file.
func (b Binding) DataVar() string {
	return lowerFirst(b.Name) + "Data"
}

// BindingVar returns the name of the variable which holds the binding in generated code built without the
// lazyinclude_release tag.
func (b Binding) BindingVar() string {
	return lowerFirst(b.Name) + "Binding"
}

// identifiers returns the package level identifiers declared by the code generated for the binding.
func (b Binding) identifiers() []string {
	ids := []string{b.Name, b.BindingVar(), b.DataVar()}
	if b.Kind != Array && len(b.Paths) > 1 {
		for i := range b.Paths {
			ids = append(ids, fmt.Sprintf("%s%d", b.DataVar(), i))
		}
	}
	return ids
}

// reservedIdents are the package level identifiers which generated code uses for its own declarations and imports.
var reservedIdents = map[string]bool{
	"includeRegistry": true,
	"binding":         true,
	"arraylit":        true,
	"big":             true,
	"math":            true,
	"init":            true,
	"_":               true,
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// Manifest is a set of bindings which belong to a Go package.
type Manifest struct {
	// Path is the path of the manifest file.
	Path string
	// Dir is the directory containing the manifest, which is also the directory of the package.
	Dir      string
	Package  string
	Output   string
	Bindings []Binding
}

// Load reads the manifest at path and validates it. The format is chosen from the file extension: .hcl for HCL,
// .yaml or .yml for YAML.
func Load(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading manifest: %w", err)
	}
	var m *Manifest
	switch ext := filepath.Ext(path); ext {
	case ".hcl":
		m, err = ParseHCL(src, path, environ())
	case ".yaml", ".yml":
		m, err = ParseYAML(src, path)
	default:
		return nil, fmt.Errorf("loading manifest %s: unsupported extension %q, expected .hcl, .yaml or .yml", path, ext)
	}
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// environ returns the process environment as a map.
func environ() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}

func newManifest(path string) *Manifest {
	return &Manifest{
		Path:   path,
		Dir:    filepath.Dir(path),
		Output: DefaultOutput,
	}
}

// Validate checks that the manifest is well formed and resolves the element types of its array bindings. All problems
// found are returned together.
func (m *Manifest) Validate() error {
	var errs []error
	errorf := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%s: %s", m.Path, fmt.Sprintf(format, args...)))
	}

	if !gotoken.IsIdentifier(m.Package) {
		errorf("package %q is not a valid Go package name", m.Package)
	}
	if m.Output == "" || strings.ContainsAny(m.Output, `/\`) {
		errorf("output %q must be a non-empty file name without a directory", m.Output)
	}

	seen := map[string]bool{}
	declaredBy := map[string]string{} // generated identifier to the name of the binding which declares it
	for i := range m.Bindings {
		b := &m.Bindings[i]
		switch {
		case !gotoken.IsIdentifier(b.Name):
			errorf("binding name %q is not a valid Go identifier", b.Name)
		case seen[b.Name]:
			errorf("binding %s declared more than once", b.Name)
		default:
			ids := b.identifiers()
			for _, id := range ids {
				if reservedIdents[id] || (m.Package == "main" && id == "main") {
					errorf("binding %s: generated identifier %s is reserved", b.Name, id)
					break
				}
				if other, ok := declaredBy[id]; ok {
					errorf("binding %s: generated identifier %s is also declared for binding %s", b.Name, id, other)
					break
				}
			}
			for _, id := range ids {
				if _, ok := declaredBy[id]; !ok {
					declaredBy[id] = b.Name
				}
			}
		}
		seen[b.Name] = true

		if len(b.Paths) == 0 {
			errorf("binding %s must have at least one path", b.Name)
		}
		for _, p := range b.Paths {
			if p == "" {
				errorf("binding %s has an empty path", b.Name)
			}
		}

		switch b.Kind {
		case Str, Bytes:
			if b.TypeName != "" {
				errorf("binding %s: type can only be set for array bindings", b.Name)
			}
		case Array:
			desc, ok := arraylit.Lookup(b.TypeName)
			if !ok {
				errorf("binding %s: unknown element type %q, expected one of %s", b.Name, b.TypeName, strings.Join(arraylit.Names(), ", "))
			}
			b.Type = desc
			if b.Length < 0 {
				errorf("binding %s: length must not be negative, got %d", b.Name, b.Length)
			}
		default:
			errorf("binding %s: unknown kind %q, expected str, bytes or array", b.Name, b.Kind)
		}
	}

	return errors.Join(errs...)
}

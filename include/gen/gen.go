// Package gen generates the Go source files which expose the bindings declared in a manifest as accessor functions.
//
// Two files are generated into the manifest's directory. <output>_release.go is built with the lazyinclude_release tag
// and embeds each file into the binary with go:embed, or as a literal Go array for array bindings. <output>_dev.go is
// built otherwise and reads each file from disk the first time that its accessor is called.
package gen

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"

	"github.com/marcuscaisey/lazyinclude/include"
	"github.com/marcuscaisey/lazyinclude/include/arraylit"
	"github.com/marcuscaisey/lazyinclude/include/binding"
	"github.com/marcuscaisey/lazyinclude/include/manifest"
)

var (
	//go:embed release.go.tmpl
	releaseTmplText string
	//go:embed dev.go.tmpl
	devTmplText string

	funcs = template.FuncMap{
		"comment":    comment,
		"join":       strings.Join,
		"quoteAll":   quoteAll,
	}
	releaseTmpl = template.Must(template.New("release").Funcs(funcs).Parse(releaseTmplText))
	devTmpl     = template.Must(template.New("dev").Funcs(funcs).Parse(devTmplText))
)

// File is a generated source file.
type File struct {
	Path     string
	Contents []byte
}

// Files are the files generated for a manifest.
type Files struct {
	Release File
	Dev     File
}

// Generate renders the files for a validated manifest and writes them into the manifest's directory.
func Generate(ctx context.Context, m *manifest.Manifest, logger *slog.Logger) (Files, error) {
	files, err := Render(ctx, m)
	if err != nil {
		return Files{}, err
	}
	for _, f := range []File{files.Release, files.Dev} {
		if err := os.WriteFile(f.Path, f.Contents, 0o644); err != nil {
			return Files{}, fmt.Errorf("writing generated file: %w", err)
		}
		logger.Info("Wrote generated file", "path", f.Path, "bytes", len(f.Contents))
	}
	return files, nil
}

// Render renders the files for a validated manifest without writing them.
// The array bindings are decoded while rendering so any array which is malformed causes an error to be returned.
func Render(ctx context.Context, m *manifest.Manifest) (Files, error) {
	root, err := binding.FindRoot(m.Dir)
	if err != nil {
		return Files{}, err
	}
	absDir, err := filepath.Abs(m.Dir)
	if err != nil {
		return Files{}, fmt.Errorf("rendering %s: %w", m.Path, err)
	}
	relDir, err := filepath.Rel(root, absDir)
	if err != nil {
		return Files{}, fmt.Errorf("rendering %s: %w", m.Path, err)
	}

	data := &fileData{
		Manifest: filepath.Base(m.Path),
		Package:  m.Package,
		Tag:      include.ReleaseTag,
		Bindings: make([]bindingData, len(m.Bindings)),
	}
	g, ctx := errgroup.WithContext(ctx)
	for i, b := range m.Bindings {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			bd, err := newBindingData(m.Dir, filepath.ToSlash(relDir), b)
			if err != nil {
				return err
			}
			data.Bindings[i] = bd
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Files{}, err
	}
	for _, b := range data.Bindings {
		if b.Kind != manifest.Array {
			data.Embed = true
			continue
		}
		data.Arrays = true
		data.Big = data.Big || b.Binding.Type.IsBig()
		for _, elems := range b.Arrays {
			for _, elem := range elems {
				data.Math = data.Math || strings.HasPrefix(elem, b.ElemType+"(math.")
			}
		}
	}

	release, err := render(releaseTmpl, data)
	if err != nil {
		return Files{}, err
	}
	dev, err := render(devTmpl, data)
	if err != nil {
		return Files{}, err
	}
	return Files{
		Release: File{Path: filepath.Join(m.Dir, m.Output+"_release.go"), Contents: release},
		Dev:     File{Path: filepath.Join(m.Dir, m.Output+"_dev.go"), Contents: dev},
	}, nil
}

type fileData struct {
	Manifest string
	Package  string
	Tag      string
	Embed    bool // any file is embedded with go:embed
	Arrays   bool
	Big      bool // any array has 128-bit elements
	Math     bool // any array literal refers to the math package
	Bindings []bindingData
}

type bindingData struct {
	manifest.Binding
	// Seq is true if the binding has more than one path and so its accessor returns a value for each.
	Seq bool
	// ProjectPaths are the paths relative to the project root.
	ProjectPaths []string
	ElemType     string // Go element type of an array
	ElemVar      string // arraylit variable describing the element type of an array
	Arrays       [][]string
	GoType       string // Go type returned by the accessor
}

func newBindingData(dir, relDir string, b manifest.Binding) (bindingData, error) {
	bd := bindingData{
		Binding: b,
		Seq:     len(b.Paths) > 1,
	}
	for _, p := range b.Paths {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return bindingData{}, fmt.Errorf("binding %s: path %s is outside the package directory so it can't be embedded", b.Name, p)
		}
		bd.ProjectPaths = append(bd.ProjectPaths, path.Join(relDir, p))
	}

	var elemType string
	switch b.Kind {
	case manifest.Str:
		elemType = "string"
		for _, p := range b.Paths {
			if _, err := readSource(dir, p, true); err != nil {
				return bindingData{}, fmt.Errorf("binding %s: %w", b.Name, err)
			}
		}
	case manifest.Bytes:
		elemType = "[]byte"
		for _, p := range b.Paths {
			if _, err := readSource(dir, p, false); err != nil {
				return bindingData{}, fmt.Errorf("binding %s: %w", b.Name, err)
			}
		}
	case manifest.Array:
		bd.ElemType = b.Type.GoType
		bd.ElemVar = elemVars[b.Type]
		elemType = fmt.Sprintf("[%d]%s", b.Length, b.Type.GoType)
		for _, p := range b.Paths {
			elems, err := decodeArray(dir, p, b.Type, b.Length)
			if err != nil {
				return bindingData{}, fmt.Errorf("binding %s: %w", b.Name, err)
			}
			bd.Arrays = append(bd.Arrays, elems)
		}
	default:
		panic(fmt.Sprintf("unexpected manifest.Kind: %q", b.Kind))
	}

	bd.GoType = elemType
	if bd.Seq {
		if b.Kind == manifest.Array {
			bd.GoType = fmt.Sprintf("[%d]%s", len(b.Paths), elemType)
		} else {
			bd.GoType = "[]" + elemType
		}
	}
	return bd, nil
}

// decodeArray decodes the array in the file at p, which is relative to dir, and returns its elements as Go literals.
func decodeArray(dir, p string, desc *arraylit.Desc, n int) ([]string, error) {
	src, err := readSource(dir, p, true)
	if err != nil {
		return nil, err
	}
	values, err := arraylit.DecodeValues(src, p, desc, n)
	if err != nil {
		return nil, err
	}
	elems := make([]string, len(values))
	for i, v := range values {
		elems[i] = v.GoLiteral()
	}
	return elems, nil
}

// readSource reads the file at p, which is relative to dir. If text is true then the file must be valid UTF-8, as it
// must be when it's read by a binding in development mode.
func readSource(dir, p string, text bool) ([]byte, error) {
	src, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(p)))
	if err != nil {
		return nil, include.NewSourceError(p, err)
	}
	if text && !utf8.Valid(src) {
		return nil, include.NewSourceError(p, errors.New("file is not valid UTF-8"))
	}
	return src, nil
}

func render(tmpl *template.Template, data *fileData) ([]byte, error) {
	var b bytes.Buffer
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("executing %s template: %w", tmpl.Name(), err)
	}
	src, err := imports.Process("", b.Bytes(), &imports.Options{Comments: true, TabIndent: true, TabWidth: 8})
	if err != nil {
		return nil, fmt.Errorf("formatting generated %s file: %w\n%s", tmpl.Name(), err, b.Bytes())
	}
	return src, nil
}

// elemVars maps each element type to the name of the arraylit variable which describes it.
var elemVars = map[*arraylit.Desc]string{
	arraylit.Bool.Desc(): "Bool", arraylit.Char.Desc(): "Char", arraylit.Str.Desc(): "Str",
	arraylit.I8.Desc(): "I8", arraylit.I16.Desc(): "I16", arraylit.I32.Desc(): "I32", arraylit.I64.Desc(): "I64",
	arraylit.I128.Desc(): "I128", arraylit.Isize.Desc(): "Isize",
	arraylit.U8.Desc(): "U8", arraylit.U16.Desc(): "U16", arraylit.U32.Desc(): "U32", arraylit.U64.Desc(): "U64",
	arraylit.U128.Desc(): "U128", arraylit.Usize.Desc(): "Usize",
	arraylit.F32.Desc(): "F32", arraylit.F64.Desc(): "F64",
}

// quoteAll quotes each string and joins them with commas.
func quoteAll(ss []string) string {
	quoted := make([]string, len(ss))
	for i, s := range ss {
		quoted[i] = strconv.Quote(s)
	}
	return strings.Join(quoted, ", ")
}

// comment formats text as a line comment.
func comment(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("// "+line, " ")
	}
	return strings.Join(lines, "\n")
}

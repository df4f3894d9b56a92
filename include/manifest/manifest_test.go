package manifest_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuscaisey/lazyinclude/include/arraylit"
	"github.com/marcuscaisey/lazyinclude/include/binding"
	"github.com/marcuscaisey/lazyinclude/include/manifest"
)

var wantBindings = []manifest.Binding{
	{Kind: manifest.Str, Name: "Greeting", Paths: []string{"hello.txt"}, Doc: "Greeting is printed on startup."},
	{Kind: manifest.Array, Name: "primes", Paths: []string{"primes.txt"}, TypeName: "u64", Type: arraylit.U64.Desc(), Length: 5},
	{Kind: manifest.Bytes, Name: "Blobs", Paths: []string{"blob.bin", "hello.txt"}},
}

func TestLoad(t *testing.T) {
	for _, name := range []string{"include.hcl", "include.yaml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join("testdata", name)
			m, err := manifest.Load(path)
			require.NoError(t, err)

			assert.Equal(t, path, m.Path)
			assert.Equal(t, "testdata", m.Dir)
			assert.Equal(t, "data", m.Package)
			assert.Equal(t, "embedded", m.Output)
			assert.Equal(t, wantBindings, m.Bindings)
		})
	}
}

func TestParseHCLEnv(t *testing.T) {
	src := []byte(`
package = "data"

str "Config" {
  paths = ["${env.CONFIG_DIR}/config.txt"]
}
`)
	m, err := manifest.ParseHCL(src, "include.hcl", map[string]string{"CONFIG_DIR": "configs/prod"})
	require.NoError(t, err)
	require.Len(t, m.Bindings, 1)
	assert.Equal(t, []string{"configs/prod/config.txt"}, m.Bindings[0].Paths)
	assert.Equal(t, manifest.DefaultOutput, m.Output)
}

func TestParseHCLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "MissingPackage", src: `str "A" { paths = ["a.txt"] }`},
		{name: "MissingPaths", src: "package = \"data\"\nstr \"A\" {}\n"},
		{name: "UnknownBlock", src: "package = \"data\"\nfile \"A\" { paths = [\"a.txt\"] }\n"},
		{name: "UnknownVariable", src: "package = \"data\"\nstr \"A\" { paths = [env.NOPE] }\n"},
		{name: "Syntax", src: `package = `},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := manifest.ParseHCL([]byte(test.src), "include.hcl", map[string]string{})
			assert.Error(t, err)
		})
	}
}

func TestParseYAMLUnknownField(t *testing.T) {
	src := []byte("package: data\nbindings:\n  - kind: str\n    name: A\n    path: a.txt\n")
	_, err := manifest.ParseYAML(src, "include.yaml")
	assert.ErrorContains(t, err, "field path not found")
}

func TestValidate(t *testing.T) {
	m := &manifest.Manifest{
		Path:    "include.yaml",
		Package: "my-data",
		Output:  "a/b",
		Bindings: []manifest.Binding{
			{Kind: manifest.Str, Name: "A", Paths: []string{"a.txt"}},
			{Kind: manifest.Bytes, Name: "A", Paths: []string{"b.txt"}},
			{Kind: manifest.Str, Name: "not valid", Paths: []string{"c.txt"}},
			{Kind: manifest.Str, Name: "NoPaths"},
			{Kind: manifest.Array, Name: "BadType", TypeName: "u7", Paths: []string{"d.txt"}},
			{Kind: manifest.Array, Name: "BadLength", TypeName: "u8", Length: -1, Paths: []string{"e.txt"}},
			{Kind: manifest.Str, Name: "Typed", TypeName: "u8", Paths: []string{"f.txt"}},
			{Kind: "file", Name: "BadKind", Paths: []string{"g.txt"}},
		},
	}
	err := m.Validate()
	require.Error(t, err)
	for _, want := range []string{
		`package "my-data" is not a valid Go package name`,
		`output "a/b" must be a non-empty file name without a directory`,
		"binding A declared more than once",
		`binding name "not valid" is not a valid Go identifier`,
		"binding NoPaths must have at least one path",
		`binding BadType: unknown element type "u7"`,
		"binding BadLength: length must not be negative, got -1",
		"binding Typed: type can only be set for array bindings",
		`binding BadKind: unknown kind "file"`,
	} {
		assert.ErrorContains(t, err, want)
	}
}

func TestValidateGeneratedIdentifiers(t *testing.T) {
	tests := []struct {
		name     string
		pkg      string
		bindings []manifest.Binding
		wantErr  string
	}{
		{
			name: "NamesDifferingInCaseOfFirstLetter",
			bindings: []manifest.Binding{
				{Kind: manifest.Str, Name: "A", Paths: []string{"a.txt"}},
				{Kind: manifest.Str, Name: "a", Paths: []string{"b.txt"}},
			},
			wantErr: "binding a: generated identifier aBinding is also declared for binding A",
		},
		{
			name: "NameOfDataVariable",
			bindings: []manifest.Binding{
				{Kind: manifest.Str, Name: "Primes", Paths: []string{"a.txt"}},
				{Kind: manifest.Bytes, Name: "primesData", Paths: []string{"b.bin"}},
			},
			wantErr: "binding primesData: generated identifier primesData is also declared for binding Primes",
		},
		{
			name: "NameOfPerFileDataVariable",
			bindings: []manifest.Binding{
				{Kind: manifest.Bytes, Name: "Chunks", Paths: []string{"a.bin", "b.bin"}},
				{Kind: manifest.Str, Name: "chunksData1", Paths: []string{"c.txt"}},
			},
			wantErr: "binding chunksData1: generated identifier chunksData1 is also declared for binding Chunks",
		},
		{
			name:     "Registry",
			bindings: []manifest.Binding{{Kind: manifest.Str, Name: "includeRegistry", Paths: []string{"a.txt"}}},
			wantErr:  "binding includeRegistry: generated identifier includeRegistry is reserved",
		},
		{
			name:     "ImportedPackage",
			bindings: []manifest.Binding{{Kind: manifest.Str, Name: "binding", Paths: []string{"a.txt"}}},
			wantErr:  "binding binding: generated identifier binding is reserved",
		},
		{
			name:     "MainInPackageMain",
			pkg:      "main",
			bindings: []manifest.Binding{{Kind: manifest.Str, Name: "main", Paths: []string{"a.txt"}}},
			wantErr:  "binding main: generated identifier main is reserved",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			pkg := test.pkg
			if pkg == "" {
				pkg = "data"
			}
			m := &manifest.Manifest{Path: "include.hcl", Package: pkg, Output: manifest.DefaultOutput, Bindings: test.bindings}
			assert.EqualError(t, m.Validate(), "include.hcl: "+test.wantErr)
		})
	}

	m := &manifest.Manifest{Path: "include.hcl", Package: "main", Output: manifest.DefaultOutput, Bindings: []manifest.Binding{
		{Kind: manifest.Bytes, Name: "Chunks", Paths: []string{"a.bin", "b.bin"}},
		{Kind: manifest.Array, Name: "Data", TypeName: "u8", Length: 1, Paths: []string{"c.txt"}},
	}}
	assert.NoError(t, m.Validate())
}

func TestLoadUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "include.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
	_, err := manifest.Load(path)
	assert.ErrorContains(t, err, `unsupported extension ".toml"`)
}

func TestDeclare(t *testing.T) {
	m, err := manifest.Load(filepath.Join("testdata", "include.hcl"))
	require.NoError(t, err)

	reg := binding.NewRegistry(binding.WithRoot(m.Dir), binding.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	m.Declare(reg)
	require.NoError(t, reg.Preload(context.Background()))

	assert.Equal(t, []string{"Greeting", "primes", "Blobs"}, reg.Names())
	assert.Equal(t, []string{"Hello world!\n"}, binding.Access[[]string](reg, "Greeting").Get())
	assert.Equal(t, [][]byte{[]byte("\x89PNG\x00"), []byte("Hello world!\n")}, binding.Access[[][]byte](reg, "Blobs").Get())

	primes := binding.Access[[][]arraylit.Value](reg, "primes").Get()
	require.Len(t, primes, 1)
	var got []string
	for _, v := range primes[0] {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"2", "3", "5", "7", "11"}, got)
}

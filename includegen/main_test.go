package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuscaisey/lazyinclude/include/ansi"
)

func init() {
	ansi.Enabled = false
	color.NoColor = true
}

type result struct {
	Code   int
	Stdout string
	Stderr string
}

func runIncludegen(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	t.Logf("includegen %s", strings.Join(args, " "))
	return result{Code: code, Stdout: stdout.String(), Stderr: stderr.String()}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want result
	}{
		{
			name: "Integers",
			args: []string{"-type", "u8", "-len", "3", "-c", "[1, 2, 0xff]"},
			want: result{Code: 0, Stdout: "[1, 2, 255]\n"},
		},
		{
			name: "AnyLength",
			args: []string{"-type", "i32", "-c", "[-1, 2, -3, 4]"},
			want: result{Code: 0, Stdout: "[-1, 2, -3, 4]\n"},
		},
		{
			name: "Strings",
			args: []string{"-type", "&str", "-c", `["Hi", "Hello", "哈囉"]`},
			want: result{Code: 0, Stdout: `["Hi", "Hello", "哈囉"]` + "\n"},
		},
		{
			name: "Floats",
			args: []string{"-type", "f32", "-c", "[1.5, 0.1, 2f32]"},
			want: result{Code: 0, Stdout: "[1.5, 0.1, 2]\n"},
		},
		{
			name: "PrintAST",
			args: []string{"-p", "-c", "[1, -2, foo]"},
			want: result{Code: 0, Stdout: "(array 1 (- 2) foo)\n"},
		},
		{
			name: "OutOfRange",
			args: []string{"-type", "u8", "-len", "3", "-c", "[1, 2, 256]"},
			want: result{Code: 1, Stderr: "1:8: error: element 2: 256 is out of range for u8 (max 255)\n[1, 2, 256]\n       ~~~\n"},
		},
		{
			name: "WrongLength",
			args: []string{"-type", "i32", "-len", "5", "-c", "[1, 2, 3]"},
			want: result{Code: 1, Stderr: "1:9: error: incorrect length, expected 5 elements, found 3\n[1, 2, 3]\n        ~\n"},
		},
		{
			name: "UnknownType",
			args: []string{"-type", "u7", "-c", "[1]"},
			want: result{Code: 1, Stderr: `unknown element type "u7", expected one of bool, char, &str, i8, i16, i32, i64, i128, isize, u8, u16, u32, u64, u128, usize, f32, f64` + "\n"},
		},
		{
			name: "MissingType",
			args: []string{"-c", "[1]"},
			want: result{Code: 1, Stderr: "-type must be set to decode an array literal\n"},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := runIncludegen(t, test.args...)
			assert.Equal(t, test.want, got)
		})
	}
}

func TestUsage(t *testing.T) {
	got := runIncludegen(t)
	assert.Equal(t, 2, got.Code)
	assert.Contains(t, got.Stderr, "Usage: includegen [options] [manifest]")
}

// newModule creates a Go module in a temporary directory containing the given files and returns the directory.
func newModule(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	files["go.mod"] = "module example.com/m\n"
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	return dir
}

func TestCheck(t *testing.T) {
	dir := newModule(t, map[string]string{
		"data/include.yaml": `package: data
bindings:
  - kind: array
    name: Primes
    type: u64
    length: 5
    paths: [primes.txt]
  - kind: array
    name: Bad
    type: u8
    length: 2
    paths: [bad.txt]
  - kind: str
    name: Missing
    paths: [missing.txt]
`,
		"data/primes.txt": "[2, 3, 5, 7, 11]\n",
		"data/bad.txt":    "[1, -2]\n",
	})
	manifestPath := filepath.Join(dir, "data", "include.yaml")

	got := runIncludegen(t, "-check", manifestPath)
	assert.Equal(t, 1, got.Code)
	assert.Contains(t, got.Stderr, "bad.txt:1:5: error: element 1: negative literal is not allowed in an array of u8")
	assert.Contains(t, got.Stderr, "missing.txt: error: open ")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "bad.txt"), []byte("[1, 2]"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "missing.txt"), []byte("here"), 0o644))
	got = runIncludegen(t, "-check", manifestPath)
	assert.Equal(t, 0, got.Code, "stderr:\n%s", got.Stderr)
}

func TestGenerateAndVerify(t *testing.T) {
	dir := newModule(t, map[string]string{
		"assets/include.hcl": `package = "assets"

str "Greeting" {
  paths = ["hello.txt"]
}

array "Primes" {
  type   = "u64"
  length = 5
  paths  = ["primes.txt"]
}
`,
		"assets/hello.txt":  "Hello world!\n",
		"assets/primes.txt": "[2, 3, 5, 7, 11]\n",
	})
	manifestPath := filepath.Join(dir, "assets", "include.hcl")

	got := runIncludegen(t, "-verify", manifestPath)
	assert.Equal(t, 1, got.Code)
	assert.Contains(t, got.Stderr, "out of date")

	got = runIncludegen(t, manifestPath)
	require.Equal(t, 0, got.Code, "stderr:\n%s", got.Stderr)
	assert.FileExists(t, filepath.Join(dir, "assets", "lazyinclude_release.go"))
	assert.FileExists(t, filepath.Join(dir, "assets", "lazyinclude_dev.go"))

	got = runIncludegen(t, "-verify", manifestPath)
	assert.Equal(t, result{Code: 0}, got)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "primes.txt"), []byte("[2, 3, 5, 7, 13]\n"), 0o644))
	got = runIncludegen(t, "-verify", manifestPath)
	assert.Equal(t, 1, got.Code)
	assert.Contains(t, got.Stdout, "-\t11,")
	assert.Contains(t, got.Stdout, "+\t13,")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "primes.txt"), []byte("[2, 3, 5, 7]\n"), 0o644))
	got = runIncludegen(t, manifestPath)
	assert.Equal(t, 1, got.Code)
	assert.Contains(t, got.Stderr, "incorrect length, expected 5 elements, found 4")
}

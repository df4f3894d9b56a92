package binding_test

import (
	"context"
	"embed"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcuscaisey/lazyinclude/include"
	"github.com/marcuscaisey/lazyinclude/include/arraylit"
	"github.com/marcuscaisey/lazyinclude/include/binding"
)

//go:embed testdata
var testdata embed.FS

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newDiskRegistry(opts ...binding.Option) *binding.Registry {
	return binding.NewRegistry(append([]binding.Option{binding.WithRoot("testdata"), binding.WithLogger(discardLogger)}, opts...)...)
}

func newEmbeddedRegistry(t *testing.T) *binding.Registry {
	t.Helper()
	sub, err := fs.Sub(testdata, "testdata")
	require.NoError(t, err)
	return binding.NewRegistry(binding.WithSource(binding.FSSource(sub)), binding.WithLogger(discardLogger))
}

type values struct {
	Hello     string
	Data      []byte
	U64       []uint64
	Greetings []string
	I128      []string
	F64       []float64
	U8        []uint8
	Texts     []string
	Arrays    [][]uint8
}

// resolveAll declares a binding of every shape in reg and returns their values.
func resolveAll(t *testing.T, reg *binding.Registry) values {
	t.Helper()
	hello := binding.Str(reg, "hello", "hello.txt")
	data := binding.Bytes(reg, "data", "data.bin")
	u64 := binding.Array(reg, "u64", arraylit.U64, 5, "u64_array.txt")
	greetings := binding.Array(reg, "greetings", arraylit.Str, 3, "greetings.txt")
	i128 := binding.Array(reg, "i128", arraylit.I128, 2, "i128_array.txt")
	f64 := binding.Array(reg, "f64", arraylit.F64, 3, "f64_array.txt")
	u8 := binding.Array(reg, "u8", arraylit.U8, 4, "u8_array.txt")
	texts := binding.StrSeq(reg, "texts", "hello.txt", "greetings.txt")
	arrays := binding.ArraySeq(reg, "arrays", arraylit.U8, 4, "u8_array.txt", "./u8_array.txt")

	var i128Strings []string
	for _, n := range i128.Get() {
		i128Strings = append(i128Strings, n.String())
	}
	return values{
		Hello:     hello.Get(),
		Data:      data.Get(),
		U64:       u64.Get(),
		Greetings: greetings.Get(),
		I128:      i128Strings,
		F64:       f64.Get(),
		U8:        u8.Get(),
		Texts:     texts.Get(),
		Arrays:    arrays.Get(),
	}
}

func TestBindings(t *testing.T) {
	want := values{
		Hello:     "Hello world!\n",
		Data:      []byte{0x00, 0x01, 0x02, 0xff, 0xfe},
		U64:       []uint64{123, 456, 789, 1000, 500000000000},
		Greetings: []string{"Hi", "Hello", "哈囉"},
		I128:      []string{"-170141183460469231731687303715884105728", "500000000000000000000000"},
		F64:       []float64{1.5, -2.25, 3e8},
		U8:        []uint8{255, 15, 1, 10},
		Texts:     []string{"Hello world!\n", "[\"Hi\", \"Hello\", \"哈囉\"]\n"},
		Arrays:    [][]uint8{{255, 15, 1, 10}, {255, 15, 1, 10}},
	}

	t.Run("Disk", func(t *testing.T) {
		got := resolveAll(t, newDiskRegistry())
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("incorrect values (-want +got):\n%s", diff)
		}
	})

	t.Run("Embedded", func(t *testing.T) {
		got := resolveAll(t, newEmbeddedRegistry(t))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("incorrect values (-want +got):\n%s", diff)
		}
	})
}

func TestModifyingResultDoesNotChangeBinding(t *testing.T) {
	reg := newDiskRegistry()
	u8 := binding.Array(reg, "u8", arraylit.U8, 4, "u8_array.txt")
	data := binding.Bytes(reg, "data", "data.bin")
	texts := binding.StrSeq(reg, "texts", "hello.txt", "greetings.txt")
	chunks := binding.BytesSeq(reg, "chunks", "data.bin", "hello.txt")
	arrays := binding.ArraySeq(reg, "arrays", arraylit.U8, 4, "u8_array.txt", "u8_array.txt")
	i128 := binding.Array(reg, "i128", arraylit.I128, 2, "i128_array.txt")
	values := binding.ArrayValues(reg, "values", arraylit.I128.Desc(), 2, "i128_array.txt")

	u8.Get()[0] = 7
	data.Get()[0] = 0xaa
	texts.Get()[0] = "changed"
	chunks.Get()[0][0] = 0xaa
	arrays.Get()[1][0] = 7
	i128.Get()[1].SetInt64(1)
	values.Get()[0][1].Int.SetInt64(1)

	assert.Equal(t, []uint8{255, 15, 1, 10}, u8.Get())
	assert.Equal(t, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, data.Get())
	assert.Equal(t, "Hello world!\n", texts.Get()[0])
	assert.Equal(t, byte(0x00), chunks.Get()[0][0])
	assert.Equal(t, [][]uint8{{255, 15, 1, 10}, {255, 15, 1, 10}}, arrays.Get())
	assert.Equal(t, "500000000000000000000000", i128.Get()[1].String())
	assert.Equal(t, "500000000000000000000000", values.Get()[0][1].String())
}

type countingSource struct {
	binding.Source
	mu    sync.Mutex
	reads map[string]int
}

func newCountingSource(src binding.Source) *countingSource {
	return &countingSource{Source: src, reads: map[string]int{}}
}

func (s *countingSource) ReadFile(name string) ([]byte, error) {
	s.mu.Lock()
	s.reads[name]++
	s.mu.Unlock()
	return s.Source.ReadFile(name)
}

func TestFilesAreReadOnce(t *testing.T) {
	src := newCountingSource(binding.DiskSource("testdata"))
	reg := binding.NewRegistry(binding.WithSource(src), binding.WithLogger(discardLogger))
	u64 := binding.Array(reg, "u64", arraylit.U64, 5, "u64_array.txt")
	bad := binding.Array(reg, "bad", arraylit.U8, 3, "bad_u8.txt")

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, []uint64{123, 456, 789, 1000, 500000000000}, u64.Get())
			_, err := bad.Resolve()
			assert.Error(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, map[string]int{"u64_array.txt": 1, "bad_u8.txt": 1}, src.reads)
	assert.True(t, u64.Resolved())
	assert.True(t, bad.Resolved())
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name     string
		declare  func(reg *binding.Registry) func() error
		wantKind include.Kind
		wantPath string
	}{
		{
			name: "MissingFile",
			declare: func(reg *binding.Registry) func() error {
				b := binding.Str(reg, "missing", "missing.txt")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.SourceIO,
			wantPath: "missing.txt",
		},
		{
			name: "InvalidUTF8Text",
			declare: func(reg *binding.Registry) func() error {
				b := binding.Str(reg, "data", "data.bin")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.SourceIO,
			wantPath: "data.bin",
		},
		{
			name: "InvalidUTF8Array",
			declare: func(reg *binding.Registry) func() error {
				b := binding.Array(reg, "data", arraylit.U8, 5, "data.bin")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.SourceIO,
			wantPath: "data.bin",
		},
		{
			name: "OutOfRange",
			declare: func(reg *binding.Registry) func() error {
				b := binding.Array(reg, "bad", arraylit.U8, 3, "bad_u8.txt")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.Range,
			wantPath: "bad_u8.txt",
		},
		{
			name: "WrongLength",
			declare: func(reg *binding.Registry) func() error {
				b := binding.Array(reg, "u64", arraylit.U64, 4, "u64_array.txt")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.Length,
			wantPath: "u64_array.txt",
		},
		{
			name: "SecondPathOfSeq",
			declare: func(reg *binding.Registry) func() error {
				b := binding.BytesSeq(reg, "seq", "data.bin", "missing.bin")
				return func() error { _, err := b.Resolve(); return err }
			},
			wantKind: include.SourceIO,
			wantPath: "missing.bin",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resolve := test.declare(newDiskRegistry())
			err := resolve()
			var includeErr *include.Error
			require.ErrorAs(t, err, &includeErr)
			assert.Equal(t, test.wantKind, includeErr.Kind, "kind")
			assert.Equal(t, test.wantPath, includeErr.Path, "path")
			var again *include.Error
			require.ErrorAs(t, resolve(), &again)
			assert.Same(t, includeErr, again, "error should be cached")
		})
	}
}

func TestMissingFileWrapsNotExist(t *testing.T) {
	b := binding.Bytes(newDiskRegistry(), "missing", "missing.bin")
	_, err := b.Resolve()
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestGetPanicsWithError(t *testing.T) {
	b := binding.Array(newDiskRegistry(), "bad", arraylit.U8, 3, "bad_u8.txt")
	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(t, ok, "Get panicked with %#v, want an error", r)
		var includeErr *include.Error
		require.ErrorAs(t, err, &includeErr)
		assert.Equal(t, include.Range, includeErr.Kind)
		assert.Equal(t, 2, includeErr.Index)
	}()
	b.Get()
	t.Fatal("Get didn't panic")
}

func TestReentrantResolution(t *testing.T) {
	var b *binding.Binding[string]
	src := sourceFunc(func(name string) ([]byte, error) {
		_, err := b.Resolve()
		return nil, err
	})
	reg := binding.NewRegistry(binding.WithSource(src), binding.WithLogger(discardLogger))
	b = binding.Str(reg, "self", "self.txt")

	_, err := b.Resolve()
	assert.ErrorIs(t, err, binding.ErrReentrant)
}

type sourceFunc func(name string) ([]byte, error)

func (f sourceFunc) ReadFile(name string) ([]byte, error) {
	return f(name)
}

func TestDeclarationPanics(t *testing.T) {
	reg := newDiskRegistry()
	binding.Str(reg, "hello", "hello.txt")
	assert.Panics(t, func() { binding.Bytes(reg, "hello", "data.bin") }, "duplicate name")
	assert.Panics(t, func() { binding.StrSeq(reg, "none") }, "no paths")
	assert.Panics(t, func() { binding.Array(reg, "negative", arraylit.U8, -1, "u8_array.txt") }, "negative length")
}

func TestAccess(t *testing.T) {
	reg := newDiskRegistry()
	hello := binding.Str(reg, "hello", "hello.txt")
	binding.Array(reg, "u8", arraylit.U8, 4, "u8_array.txt")

	assert.Same(t, hello, binding.Access[string](reg, "hello"))
	assert.Equal(t, []uint8{255, 15, 1, 10}, binding.Access[[]uint8](reg, "u8").Get())
	assert.Panics(t, func() { binding.Access[[]byte](reg, "hello") }, "wrong type")
	assert.Panics(t, func() { binding.Access[string](reg, "goodbye") }, "undeclared")
}

func TestRegistryResolve(t *testing.T) {
	reg := newDiskRegistry()
	binding.Str(reg, "hello", "hello.txt")
	binding.Bytes(reg, "data", "data.bin")

	got, err := reg.Resolve("hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello world!\n", got)

	_, err = reg.Resolve("goodbye")
	assert.Error(t, err)

	assert.Equal(t, []string{"hello", "data"}, reg.Names())
}

func TestPreload(t *testing.T) {
	reg := newDiskRegistry()
	hello := binding.Str(reg, "hello", "hello.txt")
	bad := binding.Array(reg, "bad", arraylit.U8, 3, "bad_u8.txt")
	missing := binding.Bytes(reg, "missing", "missing.bin")

	err := reg.Preload(context.Background())
	require.Error(t, err)

	var includeErrs []*include.Error
	for _, err := range err.(interface{ Unwrap() []error }).Unwrap() {
		var includeErr *include.Error
		require.ErrorAs(t, err, &includeErr)
		includeErrs = append(includeErrs, includeErr)
	}
	errs := include.Errors(includeErrs)
	errs.Sort()
	require.Len(t, errs, 2)
	assert.Equal(t, "bad_u8.txt", errs[0].Path)
	assert.Equal(t, "missing.bin", errs[1].Path)

	assert.True(t, hello.Resolved())
	assert.True(t, bad.Resolved())
	assert.True(t, missing.Resolved())
}

func TestPreloadCancelled(t *testing.T) {
	reg := newDiskRegistry()
	hello := binding.Str(reg, "hello", "hello.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := reg.Preload(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, hello.Resolved())
}

func TestEmbeddedIgnoredInDevelopmentMode(t *testing.T) {
	if binding.Optimized {
		t.Skip("embedded files are used in optimized mode")
	}
	fsys := fstest.MapFS{"hello.txt": {Data: []byte("embedded")}}
	reg := newDiskRegistry(binding.WithEmbedded(fsys))
	assert.Equal(t, "Hello world!\n", binding.Str(reg, "hello", "hello.txt").Get())
}

func TestFindRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/m\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	got, err := binding.FindRoot(nested)
	require.NoError(t, err)
	assert.Equal(t, root, got)
}

func TestProjectRootFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(include.RootEnv, dir)
	got, err := binding.ProjectRoot()
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	var calls atomic.Int32
	reg := binding.NewRegistry(binding.WithLogger(discardLogger), binding.WithSource(sourceFunc(func(name string) ([]byte, error) {
		calls.Add(1)
		return binding.DiskSource("").ReadFile(name)
	})))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.txt"), []byte("x"), 0o644))
	assert.Equal(t, "x", binding.Str(reg, "x", "x.txt").Get())
	assert.Equal(t, int32(1), calls.Load())
}

func TestPath(t *testing.T) {
	assert.Equal(t, filepath.Join("root", "data", "u8.txt"), binding.Path("root", "data", "u8.txt"))
}

package manifest

import (
	"fmt"
	"path/filepath"

	"github.com/marcuscaisey/lazyinclude/include/binding"
)

// Declare declares each of the manifest's bindings in reg, which should read files relative to the manifest's
// directory. The manifest must have been validated.
func (m *Manifest) Declare(reg *binding.Registry) {
	for _, b := range m.Bindings {
		paths := make([]string, len(b.Paths))
		for i, p := range b.Paths {
			paths[i] = filepath.FromSlash(p)
		}
		switch b.Kind {
		case Str:
			binding.StrSeq(reg, b.Name, paths...)
		case Bytes:
			binding.BytesSeq(reg, b.Name, paths...)
		case Array:
			binding.ArrayValues(reg, b.Name, b.Type, b.Length, paths...)
		default:
			panic(fmt.Sprintf("unexpected manifest.Kind: %q", b.Kind))
		}
	}
}

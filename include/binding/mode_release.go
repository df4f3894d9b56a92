//go:build lazyinclude_release

package binding

// Optimized reports whether the package was built with the lazyinclude_release build tag. When it's true, registries
// which were given an embedded file system with WithEmbedded read from it instead of the disk.
const Optimized = true

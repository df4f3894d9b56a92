//go:build !lazyinclude_release

package binding

// Optimized reports whether the package was built with the lazyinclude_release build tag. When it's false, bindings
// read their files from disk on first access.
const Optimized = false

// Package include implements functionality shared by the packages which include file contents into a program as
// named bindings.
//
// Bindings are declared with the constructors in the binding package and resolve to either the text of a file, its
// raw bytes, or a fixed-length array decoded from an array literal in the file by the arraylit package.
package include

//go:generate go run github.com/BurntSushi/go-sumtype ./...

const (
	// RootEnv is the name of the environment variable which can be used to override the project root that binding
	// paths are resolved against.
	RootEnv = "LAZYINCLUDE_ROOT"

	// ReleaseTag is the build tag which switches bindings to their optimized, embedded form.
	ReleaseTag = "lazyinclude_release"
)

//go:build lplib_debug

package internal

import "fmt"

// Assert panics with a descriptive message if cond is false. This
// build-tagged implementation is active only in debug builds
// (-tags lplib_debug), which is where the coloring engine's invariant
// checks belong: they are too costly to carry in every release build.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf("lplib: internal assertion failed: "+format, args...))
	}
}

// DebugBuild reports whether this binary was compiled with the
// lplib_debug build tag.
const DebugBuild = true

//go:build !lplib_debug

package internal

// Assert is a no-op in release builds; see assert_debug.go.
func Assert(cond bool, format string, args ...interface{}) {}

// DebugBuild reports whether this binary was compiled with the
// lplib_debug build tag.
const DebugBuild = false

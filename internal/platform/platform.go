// Package platform answers the few questions plugins ask about the host OS.
package platform

import "runtime"

type Info interface {
	IsWindowsLike() bool
}

// Runtime reports on the platform the binary was built for.
type Runtime struct{}

func (Runtime) IsWindowsLike() bool {
	return IsWindowsLike(runtime.GOOS)
}

// Static is an Info with a fixed answer.
type Static bool

func (s Static) IsWindowsLike() bool {
	return bool(s)
}

// IsWindowsLike reports whether goos lacks UNIX named pipes and exit-code
// conventions.
func IsWindowsLike(goos string) bool {
	return goos == "windows"
}

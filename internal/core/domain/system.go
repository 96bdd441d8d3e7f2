package domain

import "runtime"

// CurrentSystem returns the system identifier of the running process in the
// usual <arch>-<os> spelling (e.g. "x86_64-linux").
func CurrentSystem() string {
	arch := runtime.GOARCH
	switch arch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	}
	return arch + "-" + runtime.GOOS
}

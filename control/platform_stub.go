//go:build !linux && !windows
// +build !linux,!windows

// File: control/platform_stub.go
// Author: momentics <momentics@gmail.com>

package control

import "runtime"

func registerOSProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.kernel", func() any { return runtime.GOOS })
}

// File: control/platform.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform probes shared by every OS.

package control

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/affinity"
)

// RegisterPlatformProbes sets platform debug probes: usable CPUs, the
// scheduler width, the padding unit and OS-specific details.
func RegisterPlatformProbes(dp *DebugProbes) {
	dp.RegisterProbe("platform.cpus", func() any {
		return affinity.NumCPU()
	})
	dp.RegisterProbe("platform.gomaxprocs", func() any {
		return runtime.GOMAXPROCS(0)
	})
	dp.RegisterProbe("platform.cacheline", func() any {
		return int(unsafe.Sizeof(cpu.CacheLinePad{}))
	})
	registerOSProbes(dp)
}

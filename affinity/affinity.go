// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations are located
// in separate files (affinity_linux.go, affinity_windows.go, etc.) guarded by build tags.
//
// Pinning is used by the stress harness to force workers onto distinct cores
// so that lock-free operations really interleave instead of time-slicing.

package affinity

import (
	"fmt"
	"runtime"
)

// SetAffinity pins current OS thread to a given logical CPU/core on supported platforms.
// On unsupported platforms returns an error. The caller must hold
// runtime.LockOSThread for the pin to stay attached to its goroutine.
func SetAffinity(cpuID int) error {
	if cpuID < 0 {
		return fmt.Errorf("affinity: invalid cpu %d", cpuID)
	}
	return setAffinityPlatform(cpuID)
}

// PinWorker locks the calling goroutine to its OS thread and pins that
// thread to the (worker mod usable)-th CPU of the process affinity mask.
func PinWorker(worker int) (cpuID int, err error) {
	runtime.LockOSThread()
	cpuID = nthAllowedCPU(worker % NumCPU())
	return cpuID, SetAffinity(cpuID)
}

// NumCPU returns the number of CPUs the process may run on.
func NumCPU() int {
	if n := allowedCPUs(); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

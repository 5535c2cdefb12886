//go:build linux || darwin || freebsd

package model

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// amiInitFunc mirrors the IBIS-AMI AMI_Init prototype:
//
//	long AMI_Init(double *impulse_matrix, long row_size, long aggressors,
//	              double sample_interval, double bit_time,
//	              char *AMI_parameters_in, char **AMI_parameters_out,
//	              void **AMI_memory_handle, char **msg);
//
// Parameter order and widths must match exactly; a mismatch corrupts
// memory instead of failing cleanly.
type amiInitFunc func(impulse *float64, rowSize, aggressors int64,
	sampleInterval, bitTime float64,
	paramsIn *byte, paramsOut *uintptr, memory *uintptr, msg *uintptr) int64

type amiCloseFunc func(memory uintptr) int64

type nativeDriver struct {
	lib      uintptr
	amiInit  amiInitFunc
	amiClose amiCloseFunc
}

func openDriver(path string) (driver, error) {
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	initAddr, err := purego.Dlsym(lib, "AMI_Init")
	if err != nil {
		purego.Dlclose(lib)
		return nil, fmt.Errorf("%s lacks AMI_Init: %w", path, err)
	}
	closeAddr, err := purego.Dlsym(lib, "AMI_Close")
	if err != nil {
		purego.Dlclose(lib)
		return nil, fmt.Errorf("%s lacks AMI_Close: %w", path, err)
	}

	d := &nativeDriver{lib: lib}
	purego.RegisterFunc(&d.amiInit, initAddr)
	purego.RegisterFunc(&d.amiClose, closeAddr)
	return d, nil
}

func (d *nativeDriver) init(impulse []float64, rowSize, aggressors int, sampleInterval, bitTime float64, paramsIn []byte) initOut {
	var paramsOut, memory, msg uintptr
	status := d.amiInit(&impulse[0], int64(rowSize), int64(aggressors),
		sampleInterval, bitTime,
		&paramsIn[0], &paramsOut, &memory, &msg)
	out := initOut{
		status: int(status),
		state:  memory,
		// Copy the C strings out immediately: the plugin may reuse this
		// scratch memory on its next call.
		paramsOut: goString(paramsOut),
		message:   goString(msg),
	}
	runtime.KeepAlive(impulse)
	runtime.KeepAlive(paramsIn)
	return out
}

func (d *nativeDriver) close(state uintptr) int {
	return int(d.amiClose(state))
}

func (d *nativeDriver) unload() error {
	return purego.Dlclose(d.lib)
}

// goString copies a NUL-terminated C string out of plugin memory.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}

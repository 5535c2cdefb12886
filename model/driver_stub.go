//go:build !(linux || darwin || freebsd)

package model

import (
	"fmt"
	"runtime"
)

func openDriver(path string) (driver, error) {
	return nil, fmt.Errorf("loading %s: no model binding on %s", path, runtime.GOOS)
}

//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package pool

import (
	"runtime"

	"github.com/juju/errors"
)

const mmapSupported = false

func mapBacking(int, int) (*backing, error) {
	return nil, errors.NotSupportedf("mmap backing on %s", runtime.GOOS)
}

//go:build linux || darwin || freebsd || netbsd || openbsd

package pool

import (
	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// mmapSupported reports whether BackingMmap can be used on this platform.
const mmapSupported = true

func mapBacking(size, align int) (*backing, error) {
	n := size
	if align > unix.Getpagesize() {
		n += align
	}
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Annotatef(err, "mmap %d bytes", n)
	}
	return &backing{
		buf:   buf,
		bytes: alignSlice(buf, size, align),
		kind:  BackingMmap,
		unmap: unix.Munmap,
	}, nil
}

//go:build linux

package escape

import (
	"github.com/moby/sys/capability"
)

// CanChroot reports whether the calling process has CAP_SYS_CHROOT in its
// effective set. It does not try to acquire it.
func CanChroot() (bool, error) {
	caps, err := capability.NewPid2(0)
	if err != nil {
		return false, err
	}
	if err := caps.Load(); err != nil {
		return false, err
	}
	return caps.Get(capability.EFFECTIVE, capability.CAP_SYS_CHROOT), nil
}

//go:build !linux

package escape

// CanChroot returns ErrNotSupported.
func CanChroot() (bool, error) {
	return false, ErrNotSupported
}

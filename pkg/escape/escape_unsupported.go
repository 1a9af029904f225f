//go:build !linux

package escape

// New returns ErrNotSupported.
func New(staging string, maxAscent int) (*Engine, error) {
	return nil, ErrNotSupported
}

// Package username checks account names before they are handed to su(1).
package username

import (
	"errors"
	"fmt"
)

// MaxLength is the longest account name Validate accepts.
const MaxLength = 64

var (
	// ErrEmpty is returned for a zero-length name.
	ErrEmpty = errors.New("username is empty")
	// ErrTooLong is returned for names longer than MaxLength.
	ErrTooLong = errors.New("username is too long")
	// ErrNotAlphanumeric is returned when a name contains anything other
	// than ASCII letters and digits.
	ErrNotAlphanumeric = errors.New("username is not alphanumeric")
)

// Validate accepts names of at most MaxLength ASCII letters and digits.
// The name ends up inside a command line run by a shell, so nothing that a
// shell could interpret is allowed through.
func Validate(name string) error {
	if name == "" {
		return ErrEmpty
	}
	if len(name) > MaxLength {
		return fmt.Errorf("%w (%d > %d): %q", ErrTooLong, len(name), MaxLength, name)
	}
	for i := 0; i < len(name); i++ {
		if !isAlnum(name[i]) {
			return fmt.Errorf("%w: %q", ErrNotAlphanumeric, name)
		}
	}
	return nil
}

func isAlnum(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

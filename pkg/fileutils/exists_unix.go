//go:build !windows

package fileutils

import (
	"os"

	"golang.org/x/sys/unix"
)

// Exists checks whether a file or directory exists at the given path.
// If the path is a symlink, the symlink is followed.
func Exists(path string) error {
	// faccessat(2) is cheaper than a full stat when only existence matters.
	return pathError("faccessat", path, unix.Faccessat(unix.AT_FDCWD, path, unix.F_OK, 0))
}

// Executable checks whether the file at path exists and may be executed by
// the calling process.
func Executable(path string) error {
	if err := Exists(path); err != nil {
		return err
	}
	return pathError("faccessat", path, unix.Faccessat(unix.AT_FDCWD, path, unix.X_OK, 0))
}

func pathError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &os.PathError{Op: op, Path: path, Err: err}
}

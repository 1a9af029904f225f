//go:build linux

package escape

import (
	"fmt"
	"os"

	"github.com/containers/unchroot/pkg/fileutils"
	"github.com/containers/unchroot/pkg/loginshell"
	"golang.org/x/sys/unix"
)

// New returns an Engine acting on the calling process. staging is the
// path of the staging directory.
func New(staging string, maxAscent int) (*Engine, error) {
	return &Engine{
		FS:         osFileSystem{},
		Executor:   osExecutor{},
		StagingDir: staging,
		MaxAscent:  maxAscent,
		Env:        os.Environ(),
	}, nil
}

// osFileSystem is the FileSystem of the running process. Root and working
// directory are shared by all of its threads.
type osFileSystem struct{}

func (osFileSystem) Stat(path string) (os.FileMode, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	mode := os.FileMode(st.Mode & 0o777)
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= os.ModeDir
	case unix.S_IFLNK:
		mode |= os.ModeSymlink
	case unix.S_IFIFO:
		mode |= os.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= os.ModeSocket
	case unix.S_IFCHR:
		mode |= os.ModeDevice | os.ModeCharDevice
	case unix.S_IFBLK:
		mode |= os.ModeDevice
	}
	return mode, nil
}

func (osFileSystem) Mkdir(path string, perm os.FileMode) error {
	return unix.Mkdir(path, uint32(perm.Perm()))
}

func (osFileSystem) OpenDir(path string) (int, error) {
	return unix.Open(path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
}

func (osFileSystem) Close(fd int) error {
	return unix.Close(fd)
}

func (osFileSystem) Chroot(path string) error {
	return unix.Chroot(path)
}

func (osFileSystem) Fchdir(fd int) error {
	return unix.Fchdir(fd)
}

func (osFileSystem) Chdir(path string) error {
	return unix.Chdir(path)
}

func (osFileSystem) AtRoot() (bool, error) {
	var dot, dotdot unix.Stat_t
	if err := unix.Stat(".", &dot); err != nil {
		return false, err
	}
	if err := unix.Stat("..", &dotdot); err != nil {
		return false, err
	}
	return dot.Dev == dotdot.Dev && dot.Ino == dotdot.Ino, nil
}

type osExecutor struct{}

func (osExecutor) Exec(cmd loginshell.Command, env []string) error {
	if err := fileutils.Executable(cmd.Path); err != nil {
		return fmt.Errorf("shell is not usable from the restored root: %w", err)
	}
	return unix.Exec(cmd.Path, cmd.Args, env)
}

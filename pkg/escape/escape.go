// Package escape moves a chrooted process back to the real root directory
// and replaces it with another program.
//
// A process's root directory and working directory are separate kernel
// attributes. A directory descriptor opened before chroot(2) still refers
// to its directory afterwards, so fchdir(2) on it leaves the working
// directory outside the new root. From there, ".." is no longer clamped at
// the process root and can be followed all the way up to the real "/",
// which then becomes the root again with chroot(".").
package escape

import (
	"errors"
	"fmt"
	"os"

	"github.com/containers/unchroot/pkg/loginshell"
	"github.com/sirupsen/logrus"
)

const (
	// StagingDirMode is the mode the staging directory is created with.
	StagingDirMode os.FileMode = 0o755
	// DefaultMaxAscent is used when Engine.MaxAscent is not set.
	DefaultMaxAscent = 1024
)

var (
	// ErrNotDirectory is returned when something other than a directory
	// occupies the staging path.
	ErrNotDirectory = errors.New("is not a directory")
	// ErrNotSupported is returned on platforms without chroot(2) and fchdir(2).
	ErrNotSupported = errors.New("escaping a chroot is not supported on this platform")
)

// State is a step of the escape sequence.
type State int

const (
	Init State = iota
	StagingReady
	Confined
	Escaping
	Restored
	Replaced
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "init"
	case StagingReady:
		return "staging-ready"
	case Confined:
		return "confined"
	case Escaping:
		return "escaping"
	case Restored:
		return "restored"
	case Replaced:
		return "replaced"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FileSystem is the part of the process's filesystem context the escape
// works on: its root directory, its working directory, and the directory
// descriptors used to move between them. Errors are returned bare; the
// engine adds the operation and path.
type FileSystem interface {
	// Stat returns the mode of the object at path, following symlinks.
	Stat(path string) (os.FileMode, error)
	Mkdir(path string, perm os.FileMode) error
	// OpenDir opens the directory at path for reading and returns its
	// descriptor.
	OpenDir(path string) (int, error)
	Close(fd int) error
	Chroot(path string) error
	Fchdir(fd int) error
	Chdir(path string) error
	// AtRoot reports whether the working directory is the top of the
	// directory tree, i.e. "." and ".." are the same directory.
	AtRoot() (bool, error)
}

// Executor replaces the running process image. On success a real Executor
// never returns.
type Executor interface {
	Exec(cmd loginshell.Command, env []string) error
}

// Error describes a failed step of the escape.
type Error struct {
	State State
	Op    string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("failed to %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Result is the outcome of Run.
type Result struct {
	State   State
	Command loginshell.Command
	// Ascents is the number of parent-directory steps taken.
	Ascents int
}

// Transferred reports whether control was handed to the new process image.
func (r *Result) Transferred() bool {
	return r != nil && r.State == Replaced
}

// Engine runs the escape sequence. It owns the process's root and working
// directory for the duration of Run, and must not be run concurrently with
// anything else that depends on either.
type Engine struct {
	FS       FileSystem
	Executor Executor
	// StagingDir is the first chroot target. It is created if missing.
	StagingDir string
	// MaxAscent bounds the walk up to the real root.
	MaxAscent int
	// Env is the environment of the new process image.
	Env []string
	// BeforeExec, if set, runs once the real root is back in place, just
	// before the process image is replaced.
	BeforeExec func()

	state State
}

// State returns the step the engine has reached.
func (e *Engine) State() State {
	return e.state
}

func (e *Engine) transition(to State) {
	logrus.Debugf("escape: %s -> %s", e.state, to)
	e.state = to
}

func (e *Engine) fail(op, path string, err error) error {
	failed := &Error{State: e.state, Op: op, Path: path, Err: err}
	e.transition(Failed)
	return failed
}

// Run breaks out of the current chroot and then executes cmd. Any failure
// before the final chroot leaves the process in whatever state it reached;
// callers are expected to exit.
func (e *Engine) Run(cmd loginshell.Command) (*Result, error) {
	if e.state != Init {
		return nil, fmt.Errorf("escape already ran, engine is %s", e.state)
	}
	result := &Result{Command: cmd}

	if err := e.ensureStagingDir(); err != nil {
		result.State = e.state
		return result, err
	}
	e.transition(StagingReady)

	fd, err := e.FS.OpenDir(".")
	if err != nil {
		result.State = Failed
		return result, e.fail("open", `"." for reading`, err)
	}
	if err := e.FS.Chroot(e.StagingDir); err != nil {
		e.FS.Close(fd)
		result.State = Failed
		return result, e.fail("chroot to", e.StagingDir, err)
	}
	e.transition(Confined)

	if err := e.FS.Fchdir(fd); err != nil {
		e.FS.Close(fd)
		result.State = Failed
		return result, e.fail("fchdir", "", err)
	}
	e.transition(Escaping)
	if err := e.FS.Close(fd); err != nil {
		result.State = Failed
		return result, e.fail("close directory", fmt.Sprintf("descriptor %d", fd), err)
	}

	result.Ascents = e.ascend()
	logrus.Debugf("escape: reached the top after %d ascents", result.Ascents)

	if err := e.FS.Chroot("."); err != nil {
		logrus.Warnf("Failed to chroot to the real root directory: %v", err)
	}
	e.transition(Restored)

	if e.BeforeExec != nil {
		e.BeforeExec()
	}
	logrus.Debugf("escape: executing %s", cmd)
	if err := e.Executor.Exec(cmd, e.Env); err != nil {
		result.State = Failed
		return result, e.fail("exec", cmd.Path, err)
	}
	e.transition(Replaced)
	result.State = Replaced
	return result, nil
}

// ensureStagingDir makes sure a directory exists at the staging path.
func (e *Engine) ensureStagingDir() error {
	mode, err := e.FS.Stat(e.StagingDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return e.fail("stat", e.StagingDir, err)
		}
		err = e.FS.Mkdir(e.StagingDir, StagingDirMode)
		if err == nil {
			return nil
		}
		if !errors.Is(err, os.ErrExist) {
			return e.fail("create", e.StagingDir, err)
		}
		// Someone else created it first; make sure it is a directory.
		if mode, err = e.FS.Stat(e.StagingDir); err != nil {
			return e.fail("stat", e.StagingDir, err)
		}
	}
	if !mode.IsDir() {
		return e.fail("use", e.StagingDir, ErrNotDirectory)
	}
	return nil
}

// ascend walks the working directory up to the top of the tree. Failing to
// move up is not an error: above the real root, ".." is the root itself.
func (e *Engine) ascend() int {
	limit := e.MaxAscent
	if limit <= 0 {
		limit = DefaultMaxAscent
	}
	n := 0
	for ; n < limit; n++ {
		if top, err := e.FS.AtRoot(); err == nil && top {
			break
		}
		if err := e.FS.Chdir(".."); err != nil {
			logrus.Debugf("escape: chdir(\"..\") after %d ascents: %v", n, err)
		}
	}
	return n
}

// Package loginshell builds the command line that replaces the escaping
// process once the real root has been restored.
package loginshell

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
)

// DefaultShell is run when no other shell has been configured.
const DefaultShell = "/bin/bash"

// ErrUnsafeCommand is returned when the switch-user command would not be
// read back by a shell as exactly the words it was built from.
var ErrUnsafeCommand = errors.New("switch-user command does not round-trip through shell parsing")

// Command is a program and its full argument vector, argv[0] included.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// switchUserArgv is the argument vector of the login command run by the
// shell. su is started through the shell rather than exec'd directly so
// that --login sets up the full environment.
func switchUserArgv(username string) []string {
	return []string{"su", "--login", username}
}

// SwitchUserCommand returns the command string handed to the shell to log
// in as username.
func SwitchUserCommand(username string) string {
	return strings.Join(switchUserArgv(username), " ")
}

// Build returns the command that starts an interactive shell, and, if
// username is set, has that shell log in as username.
func Build(shell, username string) (Command, error) {
	if shell == "" {
		return Command{}, errors.New("no shell configured")
	}
	if !filepath.IsAbs(shell) {
		return Command{}, fmt.Errorf("shell %q must be an absolute path", shell)
	}
	cmd := Command{
		Path: shell,
		Args: []string{filepath.Base(shell), "-i"},
	}
	if username == "" {
		return cmd, nil
	}

	line := SwitchUserCommand(username)
	words, err := shellwords.Parse(line)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %q: %v", ErrUnsafeCommand, line, err)
	}
	if !slices.Equal(words, switchUserArgv(username)) {
		return Command{}, fmt.Errorf("%w: %q", ErrUnsafeCommand, line)
	}
	cmd.Args = append(cmd.Args, "-c", line)
	return cmd, nil
}

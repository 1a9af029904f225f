package loginshell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildNoUser(t *testing.T) {
	cmd, err := Build(DefaultShell, "")
	require.NoError(t, err)
	assert.Equal(t, "/bin/bash", cmd.Path)
	assert.Equal(t, []string{"bash", "-i"}, cmd.Args)
}

func TestBuildWithUser(t *testing.T) {
	cmd, err := Build(DefaultShell, "alice")
	require.NoError(t, err)
	assert.Equal(t, "/bin/bash", cmd.Path)
	require.Len(t, cmd.Args, 4)
	assert.Equal(t, []string{"bash", "-i", "-c"}, cmd.Args[:3])
	assert.Equal(t, "su --login alice", cmd.Args[3])
}

func TestSwitchUserCommand(t *testing.T) {
	assert.Equal(t, "su --login root", SwitchUserCommand("root"))
	assert.Equal(t, "su --login User64", SwitchUserCommand("User64"))
}

func TestBuildOtherShell(t *testing.T) {
	cmd, err := Build("/usr/bin/zsh", "bob")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/zsh", cmd.Path)
	assert.Equal(t, []string{"zsh", "-i", "-c", "su --login bob"}, cmd.Args)
	assert.Equal(t, "zsh -i -c su --login bob", cmd.String())
}

func TestBuildBadShell(t *testing.T) {
	_, err := Build("", "")
	assert.Error(t, err)
	_, err = Build("bash", "")
	assert.Error(t, err)
}

func TestBuildRejectsInjection(t *testing.T) {
	for _, name := range []string{
		"alice; id",
		"alice && id",
		"alice bob",
		"'alice'",
		`"alice"`,
		"alice|id",
		`alice\`,
	} {
		_, err := Build(DefaultShell, name)
		assert.ErrorIs(t, err, ErrUnsafeCommand, "%q", name)
	}
}

package loginshell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPasswd = `root:x:0:0:root:/root:/bin/bash
daemon:x:1:1:daemon:/usr/sbin:/usr/sbin/nologin
alice:x:1000:1000:Alice,,,:/home/alice:/bin/zsh
`

func TestLookupAccount(t *testing.T) {
	passwd := filepath.Join(t.TempDir(), "passwd")
	require.NoError(t, os.WriteFile(passwd, []byte(testPasswd), 0o644))

	u, err := LookupAccount(passwd, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1000, u.Uid)
	assert.Equal(t, "/home/alice", u.Home)
	assert.Equal(t, "/bin/zsh", u.Shell)

	u, err = LookupAccount(passwd, "root")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Uid)

	_, err = LookupAccount(passwd, "mallory")
	assert.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestLookupAccountMissingFile(t *testing.T) {
	_, err := LookupAccount(filepath.Join(t.TempDir(), "nope"), "root")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSuchAccount)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

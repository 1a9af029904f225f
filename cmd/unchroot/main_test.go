package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	var out bytes.Buffer

	inv, err := parseArgs(nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "", inv.username)
	assert.False(t, inv.switchUser)
	assert.False(t, inv.debug)

	inv, err = parseArgs([]string{""}, &out)
	require.NoError(t, err)
	assert.True(t, inv.switchUser)
	assert.Equal(t, "", inv.username)

	inv, err = parseArgs([]string{"-D", "alice"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "alice", inv.username)
	assert.True(t, inv.debug)

	inv, err = parseArgs([]string{"--config", "/tmp/u.conf", "bob"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/u.conf", inv.configFile)
	assert.Equal(t, "bob", inv.username)

	out.Reset()
	_, err = parseArgs([]string{"alice", "bob"}, &out)
	assert.ErrorContains(t, err, "too many arguments")
	assert.Contains(t, out.String(), "Usage: unchroot")

	_, err = parseArgs([]string{"--help"}, &out)
	assert.ErrorIs(t, err, pflag.ErrHelp)
}

func TestCheckUsername(t *testing.T) {
	var out bytes.Buffer

	assert.True(t, checkUsername("alice", &out))
	assert.True(t, checkUsername(strings.Repeat("a", 64), &out))
	assert.Empty(t, out.String())

	long := strings.Repeat("a", 65)
	assert.False(t, checkUsername(long, &out))
	assert.Equal(t, "Bad username. It is much too long! Username follows:\n"+long+"\n", out.String())

	out.Reset()
	assert.False(t, checkUsername("", &out))
	assert.Equal(t, "Bad username. It is empty. Username follows:\n\n", out.String())

	out.Reset()
	assert.False(t, checkUsername("root;id", &out))
	assert.Equal(t, "Bad username. It is not alphanumeric. Username follows:\nroot;id\n", out.String())
}

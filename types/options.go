package types

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/containers/unchroot/pkg/fileutils"
	"github.com/containers/unchroot/pkg/loginshell"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultConfigFile is read when $UNCHROOT_CONF is not set.
	DefaultConfigFile = "/etc/containers/unchroot.conf"
	// DefaultStagingDir is created in the invocation directory and used as
	// the first chroot target.
	DefaultStagingDir = "foo"
	// DefaultMaxAscent bounds the number of chdir("..") calls made while
	// walking up to the real root. It is far deeper than any real tree.
	DefaultMaxAscent = 1024
)

// Options configures an escape.
type Options struct {
	// StagingDir is the name of the staging directory, relative to the
	// directory unchroot is run from.
	StagingDir string `toml:"staging_dir,omitempty"`
	// Shell is the absolute path of the shell that replaces the process.
	Shell string `toml:"shell,omitempty"`
	// MaxAscent is the most parent-directory steps taken on the way up.
	MaxAscent int `toml:"max_ascent,omitempty"`
	// PasswdFile is consulted after the escape to check the target account.
	PasswdFile string `toml:"passwd_file,omitempty"`
}

type tomlConfig struct {
	Unchroot Options `toml:"unchroot"`
}

// DefaultOptions returns the built-in defaults.
func DefaultOptions() Options {
	return Options{
		StagingDir: DefaultStagingDir,
		Shell:      loginshell.DefaultShell,
		MaxAscent:  DefaultMaxAscent,
		PasswdFile: loginshell.DefaultPasswdFile,
	}
}

// ConfigFile returns the path of the configuration file to read.
func ConfigFile() string {
	if path, ok := os.LookupEnv("UNCHROOT_CONF"); ok && path != "" {
		return path
	}
	return DefaultConfigFile
}

// LoadOptions returns the defaults, overridden by the configuration file at
// path if one exists, then by the environment.
func LoadOptions(path string) (Options, error) {
	options := DefaultOptions()
	if err := ReloadConfigurationFile(path, &options); err != nil {
		return options, err
	}
	if shell := os.Getenv("UNCHROOT_SHELL"); shell != "" {
		options.Shell = shell
	}
	if dir := os.Getenv("UNCHROOT_STAGING_DIR"); dir != "" {
		options.StagingDir = dir
	}
	return options, options.Validate()
}

// ReloadConfigurationFile merges the [unchroot] table of the TOML file at
// path into options. A missing file is not an error.
func ReloadConfigurationFile(path string, options *Options) error {
	if err := fileutils.Exists(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("Configuration file %s not found, using defaults", path)
			return nil
		}
		return err
	}
	config := tomlConfig{Unchroot: *options}
	meta, err := toml.DecodeFile(path, &config)
	if err != nil {
		return fmt.Errorf("decoding configuration file %s: %w", path, err)
	}
	for _, key := range meta.Undecoded() {
		logrus.Warnf("Unknown key %q in configuration file %s", key.String(), path)
	}
	*options = config.Unchroot
	return nil
}

// Validate checks options for values the escape cannot work with.
func (o Options) Validate() error {
	if o.StagingDir == "" {
		return errors.New("staging directory name must not be empty")
	}
	if !filepath.IsAbs(o.Shell) {
		return fmt.Errorf("shell %q must be an absolute path", o.Shell)
	}
	if o.MaxAscent <= 0 {
		return fmt.Errorf("max_ascent must be positive, got %d", o.MaxAscent)
	}
	return nil
}

// StagingPath resolves StagingDir inside cwd. Symlinks and ".." components
// are not allowed to carry it outside cwd.
func (o Options) StagingPath(cwd string) (string, error) {
	path, err := securejoin.SecureJoin(cwd, o.StagingDir)
	if err != nil {
		return "", fmt.Errorf("resolving staging directory %q under %s: %w", o.StagingDir, cwd, err)
	}
	if path == filepath.Clean(cwd) {
		return "", fmt.Errorf("staging directory %q resolves to %s itself", o.StagingDir, cwd)
	}
	return path, nil
}

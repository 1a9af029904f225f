package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/containers/unchroot/pkg/escape"
	"github.com/containers/unchroot/pkg/loginshell"
	"github.com/containers/unchroot/pkg/username"
	"github.com/containers/unchroot/types"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

type invocation struct {
	debug      bool
	configFile string
	// switchUser is set when a username argument was given, even an empty one.
	switchUser bool
	username   string
}

func parseArgs(args []string, output io.Writer) (invocation, error) {
	inv := invocation{}
	flags := pflag.NewFlagSet("unchroot", pflag.ContinueOnError)
	flags.SetOutput(output)
	flags.BoolVarP(&inv.debug, "debug", "D", false, "Print debugging information")
	flags.StringVar(&inv.configFile, "config", types.ConfigFile(), "Configuration file ($UNCHROOT_CONF)")
	flags.Usage = func() {
		fmt.Fprintf(output, "Usage: unchroot [options] [username]\n\n")
		fmt.Fprintf(output, "Leave the current chroot and start an interactive shell, optionally\n")
		fmt.Fprintf(output, "logged in as username.\n\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return inv, err
	}
	switch flags.NArg() {
	case 0:
	case 1:
		inv.switchUser = true
		inv.username = flags.Arg(0)
	default:
		flags.Usage()
		return inv, fmt.Errorf("too many arguments (%v)", flags.Args())
	}
	return inv, nil
}

// checkUsername prints the rejection diagnostic for a bad username.
func checkUsername(name string, output io.Writer) bool {
	if err := username.Validate(name); err != nil {
		reason := "It is not alphanumeric."
		switch {
		case errors.Is(err, username.ErrTooLong):
			reason = "It is much too long!"
		case errors.Is(err, username.ErrEmpty):
			reason = "It is empty."
		}
		fmt.Fprintf(output, "Bad username. %s Username follows:\n%s\n", reason, name)
		return false
	}
	return true
}

func main() {
	inv, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if inv.debug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
	if inv.switchUser && !checkUsername(inv.username, os.Stderr) {
		os.Exit(1)
	}

	options, err := types.LoadOptions(inv.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	logrus.Debugf("Staging directory: %s", options.StagingDir)
	logrus.Debugf("Shell: %s", options.Shell)
	logrus.Debugf("Max ascent: %d", options.MaxAscent)

	cmd, err := loginshell.Build(options.Shell, inv.username)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to get the current directory - %v\n", err)
		os.Exit(1)
	}
	staging, err := options.StagingPath(cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if ok, err := escape.CanChroot(); err != nil {
		logrus.Debugf("Checking for CAP_SYS_CHROOT: %v", err)
	} else if !ok {
		logrus.Warnf("CAP_SYS_CHROOT is not in the effective capability set, chroot(2) will likely fail")
	}

	engine, err := escape.New(staging, options.MaxAscent)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if inv.username != "" {
		engine.BeforeExec = func() {
			if _, err := loginshell.LookupAccount(options.PasswdFile, inv.username); err != nil {
				logrus.Warnf("Looking up %q: %v", inv.username, err)
			}
		}
	}
	if _, err := engine.Run(cmd); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}

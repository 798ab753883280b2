// Package nativehost provides CLI commands for managing native messaging host integration.
package nativehost

import (
	"strings"

	"github.com/urfave/cli"
)

// Commands contains all native-host related subcommands.
var Commands = []cli.Command{
	{
		Name:   "install",
		Action: install,
		Usage:  "install native messaging manifest for browsers",
		Flags:  installFlags,
	},
	{
		Name:   "uninstall",
		Action: uninstall,
		Usage:  "remove native messaging manifest from browsers",
		Flags:  uninstallFlags,
	},
	{
		Name:   "run",
		Action: run,
		Usage:  "run native messaging host (called by browser)",
		Hidden: true, // Hidden from help as it's called by browsers
	},
	{
		Name:   "status",
		Action: status,
		Usage:  "show installation status for all browsers",
	},
}

var installFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "browser",
		Usage: "browser to install for (chrome, firefox, chromium, edge, brave, vivaldi, all)",
		Value: "all",
	},
	cli.StringFlag{
		Name:  "chrome-extension-id",
		Usage: "Chrome extension ID (required for Chrome-based browsers)",
	},
	cli.StringFlag{
		Name:  "firefox-extension-id",
		Usage: "Firefox extension ID (required for Firefox)",
	},
	cli.BoolFlag{
		Name:  "auto",
		Usage: "use default extension IDs (for package manager hooks)",
	},
}

var uninstallFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "browser",
		Usage: "browser to uninstall from (chrome, firefox, chromium, edge, brave, vivaldi, all)",
		Value: "all",
	},
}

// LaunchedByBrowser reports whether args (without the program name) are
// what a browser passes when it starts a native messaging host: the
// calling extension's origin for Chromium, or the manifest path and
// extension id for Firefox.
func LaunchedByBrowser(args []string) bool {
	if len(args) == 0 {
		return false
	}
	return strings.HasPrefix(args[0], "chrome-extension://") ||
		strings.HasSuffix(args[0], HostManifestFile)
}

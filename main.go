package main

import (
	"fmt"
	"os"

	"github.com/cookieport/cookieport/cmd"
	"github.com/cookieport/cookieport/cmd/nativehost"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

var osExit = os.Exit

func main() {
	osExit(runMain(os.Args, func(args []string) error {
		return cmd.Execute(args, cmd.BuildArgs{
			Version:   version,
			Commit:    commit,
			Date:      date,
			BuildType: buildType,
		})
	}))
}

// runMain runs execute and maps its result to an exit code. A browser
// starting the binary as a native messaging host is routed to "host run".
func runMain(args []string, execute func([]string) error) int {
	if len(args) > 0 && nativehost.LaunchedByBrowser(args[1:]) {
		args = []string{args[0], "host", "run"}
	}
	if err := execute(args); err != nil {
		fmt.Fprintf(os.Stderr, "cookieport: %s\n", err.Error())
		return 1
	}
	return 0
}

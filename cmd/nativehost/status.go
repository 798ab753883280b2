package nativehost

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/internal/nativehost"
)

func status(c *cli.Context) error {
	m := &nativehost.ManifestInstaller{BaseDir: baseDir}

	fmt.Println("Native Messaging Host Status")
	fmt.Println("============================")
	fmt.Printf("Host Name: %s\n\n", nativehost.HostName)

	for _, b := range nativehost.SupportedBrowsers() {
		path := m.ManifestPath(b)
		if path == "" {
			fmt.Printf("%s: Unsupported on this platform\n", b)
			continue
		}
		if _, err := os.Stat(path); err == nil {
			fmt.Printf("%s: Installed\n", b)
			fmt.Printf("  Path: %s\n", path)
			continue
		}
		fmt.Printf("%s: Not installed\n", b)
	}
	return nil
}

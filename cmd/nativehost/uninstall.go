package nativehost

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/internal/nativehost"
)

func uninstall(c *cli.Context) error {
	targets, err := browsers(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	m := &nativehost.ManifestInstaller{BaseDir: baseDir}
	removed := []string{}
	errors := []string{}
	for _, b := range targets {
		path := m.ManifestPath(b)
		if path == "" {
			continue
		}
		if err := nativehost.UninstallManifest(path); err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", b, err))
			continue
		}
		removed = append(removed, fmt.Sprintf("%s: removed (or was not installed)", b))
	}

	if len(removed) > 0 {
		fmt.Println("Uninstalled manifests:")
		for _, r := range removed {
			fmt.Printf("  %s\n", r)
		}
	}

	if len(errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errors {
			fmt.Printf("  %s\n", e)
		}
		return cli.NewExitError("uninstall failed", 1)
	}
	return nil
}

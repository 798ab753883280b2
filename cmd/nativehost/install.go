package nativehost

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/internal/nativehost"
)

// HostManifestFile is the file name of an installed manifest.
const HostManifestFile = nativehost.HostName + ".json"

// executable is replaced in tests.
var executable = os.Executable

// baseDir overrides the home directory in tests.
var baseDir string

func install(c *cli.Context) error {
	chromeID := c.String("chrome-extension-id")
	firefoxID := c.String("firefox-extension-id")
	if c.Bool("auto") {
		if !nativehost.HasOfficialExtensions() {
			return cli.NewExitError("no official extension is published yet; pass the extension ID explicitly", 1)
		}
		if chromeID == "" {
			chromeID = nativehost.OfficialChromeExtensionID
		}
		if firefoxID == "" {
			firefoxID = nativehost.OfficialFirefoxExtensionID
		}
	}

	if chromeID == "" && firefoxID == "" {
		return cli.NewExitError("at least one extension ID is required (--chrome-extension-id, --firefox-extension-id or --auto)", 1)
	}

	targets, err := browsers(c.String("browser"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	hostPath, err := executable()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("failed to get executable path: %v", err), 1)
	}

	installer := &nativehost.ManifestInstaller{
		HostPath:           hostPath,
		ChromeExtensionID:  chromeID,
		FirefoxExtensionID: firefoxID,
		BaseDir:            baseDir,
	}

	installed := []string{}
	errors := []string{}
	for _, b := range targets {
		var path string
		var err error
		if b == nativehost.BrowserFirefox {
			if firefoxID == "" {
				continue
			}
			path, err = installer.InstallFirefox()
		} else {
			if chromeID == "" {
				continue
			}
			path, err = installer.InstallChrome(b)
		}
		if err != nil {
			errors = append(errors, fmt.Sprintf("%s: %v", b, err))
		} else {
			installed = append(installed, fmt.Sprintf("%s: %s", b, path))
		}
	}

	if len(installed) > 0 {
		fmt.Println("Installed manifests:")
		for _, m := range installed {
			fmt.Printf("  %s\n", m)
		}
	}

	if len(errors) > 0 {
		fmt.Println("\nErrors:")
		for _, e := range errors {
			fmt.Printf("  %s\n", e)
		}
	}
	if len(installed) == 0 {
		return cli.NewExitError("installation failed", 1)
	}
	return nil
}

// browsers expands a --browser value.
func browsers(name string) ([]nativehost.Browser, error) {
	if name == "all" {
		return nativehost.SupportedBrowsers(), nil
	}
	b, err := nativehost.ParseBrowser(name)
	if err != nil {
		return nil, err
	}
	return []nativehost.Browser{b}, nil
}

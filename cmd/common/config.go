package common

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/cookieport/cookieport/internal/app"
	"github.com/cookieport/cookieport/internal/config"
	"github.com/cookieport/cookieport/pkg/logger"
)

// GlobalFlags select and configure the cookie store. Every flag overrides
// its environment variable.
var GlobalFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "store",
		Usage: "cookie store: cdp, firefox, netscape, chromium or file",
	},
	cli.StringFlag{
		Name:  "cdp-url",
		Usage: "DevTools endpoint of a browser started with --remote-debugging-port",
	},
	cli.StringFlag{
		Name:  "firefox-profile",
		Usage: "Firefox profile name, profile directory or cookies.sqlite path",
	},
	cli.StringFlag{
		Name:  "cookie-file",
		Usage: "cookie file for the netscape, chromium and file stores",
	},
	cli.StringFlag{
		Name:  "url",
		Usage: "active tab URL for file-backed stores",
	},
	cli.StringFlag{
		Name:  "download-dir",
		Usage: "directory exports are saved into",
	},
	cli.DurationFlag{
		Name:  "timeout",
		Usage: "give up on an operation after this long (e.g. 30s)",
	},
	cli.BoolFlag{
		Name:  "debug",
		Usage: "enable debug logging",
	},
}

// Fs is the filesystem commands read and write through.
var Fs = afero.NewOsFs()

// loadEnv is replaced in tests.
var loadEnv = config.Load

// LoadConfig reads the environment and applies the global flags on top.
// The result is not validated.
func LoadConfig(ctx *cli.Context) *config.Config {
	cfg := loadEnv()
	if v := ctx.GlobalString("store"); v != "" {
		cfg.Store = config.StoreKind(strings.ToLower(v))
	}
	if v := ctx.GlobalString("cdp-url"); v != "" {
		cfg.CDPURL = v
	}
	if v := ctx.GlobalString("firefox-profile"); v != "" {
		cfg.FirefoxProfile = v
	}
	if v := ctx.GlobalString("cookie-file"); v != "" {
		cfg.CookieFile = v
	}
	if v := ctx.GlobalString("url"); v != "" {
		cfg.ActiveURL = v
	}
	if v := ctx.GlobalString("download-dir"); v != "" {
		cfg.DownloadDir = v
	}
	if v := ctx.GlobalDuration("timeout"); v != 0 {
		cfg.Timeout = v
	}
	if ctx.GlobalBool("debug") {
		cfg.Debug = true
	}
	return cfg
}

// NewApp loads the config and wires the store and router. The returned
// logger writes to w.
func NewApp(ctx *cli.Context, w io.Writer) (*app.App, logger.Logger, error) {
	cfg := LoadConfig(ctx)
	l := logger.New(w, ctx.App.HelpName+": ", cfg.Debug)
	a, err := app.New(cfg, Fs, l)
	if err != nil {
		return nil, l, err
	}
	return a, l, nil
}

// OperationContext bounds one command by the configured timeout, if any.
func OperationContext(cfg *config.Config) (context.Context, context.CancelFunc) {
	if cfg.Timeout > 0 {
		return context.WithTimeout(context.Background(), cfg.Timeout)
	}
	return context.WithCancel(context.Background())
}

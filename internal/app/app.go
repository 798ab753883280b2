// Package app assembles a cookie store, the cookie operations and the
// router from a validated config.
package app

import (
	"fmt"
	"time"

	"github.com/spf13/afero"

	"github.com/cookieport/cookieport/internal/config"
	"github.com/cookieport/cookieport/internal/cookies"
	"github.com/cookieport/cookieport/internal/router"
	"github.com/cookieport/cookieport/internal/save"
	"github.com/cookieport/cookieport/internal/store"
	"github.com/cookieport/cookieport/internal/store/cdp"
	"github.com/cookieport/cookieport/internal/store/chromium"
	"github.com/cookieport/cookieport/internal/store/firefox"
	"github.com/cookieport/cookieport/internal/store/netscape"
	"github.com/cookieport/cookieport/pkg/logger"
)

// App is one wired instance of cookieport.
type App struct {
	Config   *config.Config
	Store    store.Store
	Fetcher  *cookies.Fetcher
	Exporter *cookies.Exporter
	Importer *cookies.Importer
	Router   *router.Router
}

// New validates cfg and builds the store it selects. fs backs the Netscape
// store and the export directory.
func New(cfg *config.Config, fs afero.Fs, l logger.Logger) (*App, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s, err := OpenStore(cfg, fs, l)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:   cfg,
		Store:    s,
		Fetcher:  cookies.NewFetcher(s, l),
		Exporter: cookies.NewExporter(save.NewDirSaver(fs, cfg.DownloadDir), time.Now, l),
		Importer: cookies.NewImporter(s, l),
	}
	a.Router = router.New(a.Fetcher, a.Exporter, a.Importer, l)
	return a, nil
}

// OpenStore returns the store adapter cfg selects.
func OpenStore(cfg *config.Config, fs afero.Fs, l logger.Logger) (store.Store, error) {
	if cfg.Store == config.StoreCDP {
		l.Debug("app: using cdp store at %s", cfg.CDPURL)
		return cdp.New(cfg.CDPURL, nil, l), nil
	}

	tab, err := store.NewStaticTab(cfg.ActiveURL)
	if err != nil {
		return nil, fmt.Errorf("active url: %w", err)
	}

	kind := cfg.Store
	if kind == config.StoreFile {
		f, err := store.DetectFormat(cfg.CookieFile)
		if err != nil {
			return nil, err
		}
		switch f {
		case store.FormatFirefox:
			kind = config.StoreFirefox
		case store.FormatChrome:
			kind = config.StoreChromium
		case store.FormatNetscape:
			kind = config.StoreNetscape
		default:
			return nil, fmt.Errorf("unrecognized cookie file %s", cfg.CookieFile)
		}
		l.Debug("app: %s looks like a %s cookie file", cfg.CookieFile, f)
	}

	switch kind {
	case config.StoreFirefox:
		path := cfg.CookieFile
		if path == "" {
			if path, err = firefox.Locate(cfg.FirefoxProfile); err != nil {
				return nil, err
			}
		}
		l.Debug("app: using firefox store at %s", path)
		return firefox.New(path, tab, l), nil
	case config.StoreChromium:
		l.Debug("app: using chromium store at %s", cfg.CookieFile)
		return chromium.New(cfg.CookieFile, cfg.ChromiumPassword, tab, l), nil
	case config.StoreNetscape:
		l.Debug("app: using netscape store at %s", cfg.CookieFile)
		return netscape.New(fs, cfg.CookieFile, tab, l), nil
	}
	return nil, fmt.Errorf("%w %q", config.ErrUnknownStore, cfg.Store)
}

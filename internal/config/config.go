// Package config loads cookieport settings from the environment. The CLI
// overrides individual fields from its flags before calling Validate.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cookieport/cookieport/common"
)

// StoreKind names a cookie store adapter.
type StoreKind string

const (
	StoreCDP      StoreKind = "cdp"
	StoreFirefox  StoreKind = "firefox"
	StoreNetscape StoreKind = "netscape"
	StoreChromium StoreKind = "chromium"
	// StoreFile picks firefox, chromium or netscape from the cookie file's
	// contents.
	StoreFile StoreKind = "file"
)

// StoreKinds lists every accepted store kind.
func StoreKinds() []StoreKind {
	return []StoreKind{StoreCDP, StoreFirefox, StoreNetscape, StoreChromium, StoreFile}
}

var (
	ErrUnknownStore      = errors.New("unknown store")
	ErrMissingCookieFile = errors.New("cookie file is required")
	ErrInvalidURL        = errors.New("invalid url")
)

// Config holds every runtime setting.
type Config struct {
	Store          StoreKind
	CDPURL         string
	FirefoxProfile string
	CookieFile     string
	// ChromiumPassword replaces the keyring lookup for encrypted Chromium
	// values.
	ChromiumPassword string
	// ActiveURL stands in for the active tab of file-backed stores.
	ActiveURL   string
	DownloadDir string
	ConfigDir   string
	RPCAddr     string
	RPCSecret   string
	Timeout     time.Duration
	Debug       bool
}

// Load reads the process environment.
func Load() *Config {
	home, _ := os.UserHomeDir()
	cfgRoot, err := os.UserConfigDir()
	if err != nil {
		cfgRoot = filepath.Join(home, ".config")
	}
	return FromEnv(os.Getenv, home, cfgRoot)
}

// FromEnv builds a Config from getenv. home and configRoot supply the
// defaults for the download and config directories.
func FromEnv(getenv func(string) string, home, configRoot string) *Config {
	c := &Config{
		Store:            StoreKind(strings.ToLower(strings.TrimSpace(getenv(common.StoreEnv)))),
		CDPURL:           getenv(common.CDPURLEnv),
		FirefoxProfile:   getenv(common.FirefoxProfileEnv),
		CookieFile:       getenv(common.CookieFileEnv),
		ChromiumPassword: getenv(common.ChromiumPasswordEnv),
		ActiveURL:        getenv(common.ActiveURLEnv),
		DownloadDir:      getenv(common.DownloadDirEnv),
		ConfigDir:        getenv(common.ConfigDirEnv),
		RPCAddr:          getenv(common.RPCAddrEnv),
		RPCSecret:        getenv(common.RPCSecretEnv),
		Debug:            parseBool(getenv(common.DebugEnv)),
	}
	if d, err := time.ParseDuration(getenv(common.TimeoutEnv)); err == nil && d > 0 {
		c.Timeout = d
	}
	if c.Store == "" {
		c.Store = common.DefaultStore
	}
	if c.CDPURL == "" {
		c.CDPURL = common.DefaultCDPURL
	}
	if c.DownloadDir == "" {
		c.DownloadDir = filepath.Join(home, "Downloads")
	}
	if c.ConfigDir == "" {
		c.ConfigDir = filepath.Join(configRoot, common.AppName)
	}
	if c.RPCAddr == "" {
		c.RPCAddr = common.DefaultRPCAddr
	}
	return c
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// Validate checks the settings the selected store needs.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreCDP:
		u, err := url.Parse(c.CDPURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: cdp endpoint %q", ErrInvalidURL, c.CDPURL)
		}
	case StoreNetscape, StoreChromium, StoreFile:
		if c.CookieFile == "" {
			return fmt.Errorf("%w for the %s store (set %s)", ErrMissingCookieFile, c.Store, common.CookieFileEnv)
		}
	case StoreFirefox:
	default:
		return fmt.Errorf("%w %q", ErrUnknownStore, c.Store)
	}
	if c.ActiveURL != "" {
		u, err := url.Parse(c.ActiveURL)
		if err != nil || u.Scheme == "" || u.Hostname() == "" {
			return fmt.Errorf("%w: active url %q", ErrInvalidURL, c.ActiveURL)
		}
	}
	if c.DownloadDir == "" {
		return errors.New("download directory is required")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}
